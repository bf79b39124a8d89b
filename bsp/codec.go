// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"github.com/pkg/errors"

	"vbsp/cursor"
	"vbsp/math/vec"
)

// fieldReader keeps the first error of a sequence of reads so a record can be
// read field by field and checked once.
type fieldReader struct {
	c   *cursor.Cursor
	err error
}

func (r *fieldReader) u8() uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadUint8()
	r.err = err
	return v
}

func (r *fieldReader) i8() int8 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadInt8()
	r.err = err
	return v
}

func (r *fieldReader) u16() uint16 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadUint16()
	r.err = err
	return v
}

func (r *fieldReader) i16() int16 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadInt16()
	r.err = err
	return v
}

func (r *fieldReader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadUint32()
	r.err = err
	return v
}

func (r *fieldReader) i32() int32 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadInt32()
	r.err = err
	return v
}

func (r *fieldReader) f32() float32 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadFloat32()
	r.err = err
	return v
}

func (r *fieldReader) vec3() vec.Vec3 {
	return vec.Vec3{X: r.f32(), Y: r.f32(), Z: r.f32()}
}

func (r *fieldReader) short3() [3]int16 {
	return [3]int16{r.i16(), r.i16(), r.i16()}
}

func (r *fieldReader) bytes(dst []byte) {
	if r.err != nil {
		return
	}
	b, err := r.c.ReadBytes(len(dst))
	r.err = err
	copy(dst, b)
}

// collect decodes records until the cursor is exhausted. A short final
// record fails the whole lump.
func collect[T any](c *cursor.Cursor, read func(*cursor.Cursor) (T, error)) ([]T, error) {
	out := []T{}
	for !c.Exhausted() {
		v, err := read(c)
		if err != nil {
			return nil, errors.Wrapf(err, "record %d", len(out))
		}
		out = append(out, v)
	}
	return out, nil
}

// fixed reads a record whose struct layout matches the disk layout.
func fixed[T any](c *cursor.Cursor) (T, error) {
	var v T
	err := c.Read(&v)
	return v, err
}

func readUint16(c *cursor.Cursor) (uint16, error) { return c.ReadUint16() }
func readInt32(c *cursor.Cursor) (int32, error)   { return c.ReadInt32() }
func readUint32(c *cursor.Cursor) (uint32, error) { return c.ReadUint32() }

func readNode(c *cursor.Cursor) (Node, error) {
	r := fieldReader{c: c}
	n := Node{
		PlaneNum:  r.i32(),
		Children:  [2]int32{r.i32(), r.i32()},
		Mins:      r.short3(),
		Maxs:      r.short3(),
		FirstFace: r.u16(),
		NumFaces:  r.u16(),
		Area:      r.i16(),
		Padding:   r.i16(),
	}
	return n, r.err
}

func readFace(c *cursor.Cursor) (Face, error) {
	r := fieldReader{c: c}
	f := Face{
		PlaneNum:                    r.u16(),
		Side:                        r.u8(),
		OnNode:                      r.u8(),
		FirstEdge:                   r.i32(),
		NumEdges:                    r.i16(),
		TexInfo:                     r.i16(),
		DispInfo:                    r.i16(),
		SurfaceFogVolumeID:          r.i16(),
		Styles:                      [4]uint8{r.u8(), r.u8(), r.u8(), r.u8()},
		LightOffset:                 r.i32(),
		Area:                        r.f32(),
		LightmapTextureMinsInLuxels: [2]int32{r.i32(), r.i32()},
		LightmapTextureSizeInLuxels: [2]int32{r.i32(), r.i32()},
		OriginalFace:                r.i32(),
		NumPrimitives:               r.u16(),
		FirstPrimitiveID:            r.u16(),
		SmoothingGroups:             r.u32(),
	}
	return f, r.err
}

func readLightmapSample(r *fieldReader) LightmapSample {
	return LightmapSample{
		R:        r.u8(),
		G:        r.u8(),
		B:        r.u8(),
		Exponent: r.i8(),
	}
}

func readLighting(c *cursor.Cursor) (LightmapSample, error) {
	r := fieldReader{c: c}
	s := readLightmapSample(&r)
	return s, r.err
}

// readLeaf reads a version 0 leaf, which carries a light cube, or a version
// 1 leaf, which does not.
func readLeaf(c *cursor.Cursor, version int32) (Leaf, error) {
	r := fieldReader{c: c}
	l := Leaf{
		Contents:  r.i32(),
		Cluster:   r.i16(),
		AreaFlags: r.i16(),
		Mins:      r.short3(),
		Maxs:      r.short3(),
	}
	l.FirstLeafFace = r.u16()
	l.NumLeafFaces = r.u16()
	l.FirstLeafBrush = r.u16()
	l.NumLeafBrushes = r.u16()
	l.LeafWaterDataID = r.i16()
	if version == 0 {
		for i := range l.AmbientLighting {
			l.AmbientLighting[i] = readLightmapSample(&r)
		}
	}
	l.Padding = r.i16()
	return l, r.err
}

func readDispInfo(c *cursor.Cursor) (DispInfo, error) {
	r := fieldReader{c: c}
	d := DispInfo{
		StartPosition:               r.vec3(),
		DispVertStart:               r.i32(),
		DispTriStart:                r.i32(),
		Power:                       r.i32(),
		MinTess:                     r.i32(),
		SmoothingAngle:              r.f32(),
		Contents:                    r.i32(),
		MapFace:                     r.u16(),
		LightmapAlphaStart:          r.i32(),
		LightmapSamplePositionStart: r.i32(),
	}
	r.bytes(d.UnparsedNeighbors[:])
	for i := range d.AllowedVerts {
		d.AllowedVerts[i] = r.u32()
	}
	return d, r.err
}
