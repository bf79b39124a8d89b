// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"vbsp/cursor"
)

// The layout of the displacement neighbor block is not known well enough to
// decode it as part of DispInfo, which keeps DispNeighborSize raw bytes
// instead. The types below follow CDispNeighbor and CDispSubNeighbor and are
// not used by Decode.

// Orientations of a neighbor relative to the displacement.
const (
	OrientationCCW0 = iota
	OrientationCCW90
	OrientationCCW180
	OrientationCCW270
)

// Spans of a sub neighbor along the shared edge.
const (
	CornerToCorner = iota
	CornerToMidpoint
	MidpointToCorner
)

// NoNeighbor marks an unused sub neighbor slot.
const NoNeighbor = 0xffff

type DispSubNeighbor struct {
	Neighbor            uint16 // index into DispInfo, NoNeighbor for none
	NeighborOrientation uint8
	Span                uint8
	NeighborSpan        uint8
	Padding             uint8
}

func (s DispSubNeighbor) Valid() bool {
	return s.Neighbor != NoNeighbor
}

type DispNeighbor struct {
	SubNeighbors [2]DispSubNeighbor
}

// ReadDispNeighbor reads one edge neighbor. Experimental.
func ReadDispNeighbor(c *cursor.Cursor) (DispNeighbor, error) {
	r := fieldReader{c: c}
	var n DispNeighbor
	for i := range n.SubNeighbors {
		n.SubNeighbors[i] = DispSubNeighbor{
			Neighbor:            r.u16(),
			NeighborOrientation: r.u8(),
			Span:                r.u8(),
			NeighborSpan:        r.u8(),
			Padding:             r.u8(),
		}
	}
	return n, r.err
}

// ReadDispNeighbors reads the four edge neighbors from the start of
// d.UnparsedNeighbors. Experimental.
func (d *DispInfo) ReadDispNeighbors() ([4]DispNeighbor, error) {
	var ns [4]DispNeighbor
	c := cursor.New(d.UnparsedNeighbors[:])
	for i := range ns {
		n, err := ReadDispNeighbor(c)
		if err != nil {
			return ns, err
		}
		ns[i] = n
	}
	return ns, nil
}
