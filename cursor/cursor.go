// SPDX-License-Identifier: GPL-2.0-or-later

// Package cursor implements a sequential little-endian reader over an
// immutable byte region.
package cursor

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// ErrOutOfRange is returned when a read would consume bytes past the end of
// the region.
var ErrOutOfRange = errors.New("read out of range")

type Cursor struct {
	data []byte
	pos  int
}

// New returns a Cursor positioned at the start of data. The slice is borrowed,
// not copied.
func New(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Pos returns the number of bytes consumed so far.
func (c *Cursor) Pos() int {
	return c.pos
}

// Len returns the total length of the region.
func (c *Cursor) Len() int {
	return len(c.data)
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

func (c *Cursor) Exhausted() bool {
	return c.pos >= len(c.data)
}

// next returns the next n bytes and advances. The position does not move
// on failure.
func (c *Cursor) next(n int) ([]byte, error) {
	if n < 0 || n > len(c.data)-c.pos {
		return nil, errors.Wrapf(ErrOutOfRange, "need %d bytes at offset %d, have %d", n, c.pos, len(c.data)-c.pos)
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *Cursor) Skip(n int) error {
	_, err := c.next(n)
	return err
}

// ReadBytes returns a view of the next n bytes. The result aliases the
// underlying region.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	return c.next(n)
}

func (c *Cursor) ReadByte() (byte, error) {
	b, err := c.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) ReadUint8() (uint8, error) {
	return c.ReadByte()
}

func (c *Cursor) ReadInt8() (int8, error) {
	b, err := c.ReadByte()
	return int8(b), err
}

func (c *Cursor) ReadUint16() (uint16, error) {
	b, err := c.next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *Cursor) ReadInt16() (int16, error) {
	v, err := c.ReadUint16()
	return int16(v), err
}

func (c *Cursor) ReadUint32() (uint32, error) {
	b, err := c.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *Cursor) ReadInt32() (int32, error) {
	v, err := c.ReadUint32()
	return int32(v), err
}

func (c *Cursor) ReadFloat32() (float32, error) {
	v, err := c.ReadUint32()
	return math.Float32frombits(v), err
}

// Read decodes a fixed-size value in packed little-endian layout, the way
// binary.Read does, and advances by its encoded size.
func (c *Cursor) Read(data any) error {
	n := binary.Size(data)
	if n < 0 {
		return errors.Errorf("cursor: %T has no fixed size", data)
	}
	b, err := c.next(n)
	if err != nil {
		return err
	}
	if _, err := binary.Decode(b, binary.LittleEndian, data); err != nil {
		c.pos -= n
		return errors.Wrapf(err, "decode %T", data)
	}
	return nil
}
