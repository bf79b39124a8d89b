// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"github.com/pkg/errors"

	"vbsp/cursor"
)

// readCount reads an int32 element count and checks that count elements of
// size bytes can still be present.
func readCount(c *cursor.Cursor, size int) (int, error) {
	n, err := c.ReadInt32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.Wrapf(cursor.ErrOutOfRange, "negative count %d", n)
	}
	if int64(n)*int64(size) > int64(c.Remaining()) {
		return 0, errors.Wrapf(cursor.ErrOutOfRange, "count %d of %d byte elements, %d bytes left", n, size, c.Remaining())
	}
	return int(n), nil
}

func readOccluder(c *cursor.Cursor) (Occluder, error) {
	var o Occluder
	n, err := readCount(c, 40)
	if err != nil {
		return o, errors.Wrap(err, "occluder count")
	}
	o.Data = make([]OccluderData, n)
	for i := range o.Data {
		if o.Data[i], err = fixed[OccluderData](c); err != nil {
			return o, errors.Wrapf(err, "occluder data %d", i)
		}
	}

	if n, err = readCount(c, 12); err != nil {
		return o, errors.Wrap(err, "occluder poly count")
	}
	o.Polys = make([]OccluderPolyData, n)
	for i := range o.Polys {
		if o.Polys[i], err = fixed[OccluderPolyData](c); err != nil {
			return o, errors.Wrapf(err, "occluder poly %d", i)
		}
	}

	if n, err = readCount(c, 4); err != nil {
		return o, errors.Wrap(err, "occluder vertex index count")
	}
	o.VertexIndices = make([]int32, n)
	for i := range o.VertexIndices {
		if o.VertexIndices[i], err = c.ReadInt32(); err != nil {
			return o, errors.Wrapf(err, "occluder vertex index %d", i)
		}
	}
	return o, nil
}
