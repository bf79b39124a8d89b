// SPDX-License-Identifier: GPL-2.0-or-later

// Package lzmalump unwraps lumps stored with the Source engine LZMA wrapper.
//
// The wrapper looks like this (little-endian):
//
//	uint32   magic ("LZMA")
//	uint32   decompressed size
//	uint32   compressed payload size
//	uint8[5] lzma properties
//	...      payload
//
// It is the classic .lzma header with the 8 byte size field moved in front of
// the properties and shortened to 32 bits.
package lzmalump

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz/lzma"
)

const (
	HeaderSize     = 17
	propertiesSize = 5
	// classic .lzma header: properties + uint64 size
	streamHeaderSize = propertiesSize + 8
)

var Magic = [4]byte{'L', 'Z', 'M', 'A'}

var ErrDecompression = errors.New("lzma decompression failed")

// decodeError keeps the codec's error in the chain while still matching
// ErrDecompression.
type decodeError struct {
	op  string
	err error
}

func (e *decodeError) Error() string {
	return ErrDecompression.Error() + ": " + e.op + ": " + e.err.Error()
}

func (e *decodeError) Unwrap() error { return e.err }

func (e *decodeError) Is(target error) bool { return target == ErrDecompression }

type header struct {
	Magic            [4]byte
	DecompressedSize uint32
	CompressedSize   uint32
	Properties       [propertiesSize]byte
}

// IsCompressed reports whether a directory ident marks its lump as wrapped.
func IsCompressed(ident [4]byte) bool {
	return ident != [4]byte{}
}

// DecompressedSize returns the size declared by the wrapper header.
func DecompressedSize(lump []byte) (uint32, error) {
	h, err := readHeader(lump)
	if err != nil {
		return 0, err
	}
	return h.DecompressedSize, nil
}

func readHeader(lump []byte) (header, error) {
	var h header
	if len(lump) < HeaderSize {
		return h, errors.Wrapf(ErrDecompression, "wrapper needs %d bytes, lump has %d", HeaderSize, len(lump))
	}
	if _, err := binary.Decode(lump, binary.LittleEndian, &h); err != nil {
		return h, &decodeError{"header", err}
	}
	return h, nil
}

// Decompress returns a freshly allocated buffer holding the decompressed lump.
// The magic and the compressed size field are not trusted; the payload is
// everything after the wrapper header. If limit is non-zero, lumps declaring
// more than limit bytes are rejected before anything is allocated.
func Decompress(lump []byte, limit uint32) ([]byte, error) {
	h, err := readHeader(lump)
	if err != nil {
		return nil, err
	}
	if limit != 0 && h.DecompressedSize > limit {
		return nil, errors.Wrapf(ErrDecompression, "declared size %d exceeds limit %d", h.DecompressedSize, limit)
	}
	payload := lump[HeaderSize:]
	stream := make([]byte, 0, streamHeaderSize+len(payload))
	stream = append(stream, h.Properties[:]...)
	stream = binary.LittleEndian.AppendUint64(stream, uint64(h.DecompressedSize))
	stream = append(stream, payload...)

	r, err := lzma.NewReader(bytes.NewReader(stream))
	if err != nil {
		return nil, &decodeError{"stream header", err}
	}
	out := make([]byte, h.DecompressedSize)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, &decodeError{fmt.Sprintf("payload of %d bytes", len(payload)), err}
	}
	return out, nil
}

// Compress wraps data the way Decompress expects it.
func Compress(data []byte) ([]byte, error) {
	if uint64(len(data)) > uint64(^uint32(0)) {
		return nil, errors.Errorf("lzmalump: %d bytes do not fit the wrapper", len(data))
	}
	var buf bytes.Buffer
	cfg := lzma.WriterConfig{
		SizeInHeader: true,
		Size:         int64(len(data)),
		EOSMarker:    false,
	}
	w, err := cfg.NewWriter(&buf)
	if err != nil {
		return nil, errors.Wrap(err, "lzmalump: new writer")
	}
	if _, err := w.Write(data); err != nil {
		return nil, errors.Wrap(err, "lzmalump: compress")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "lzmalump: compress")
	}
	stream := buf.Bytes()
	if len(stream) < streamHeaderSize {
		return nil, errors.Errorf("lzmalump: short stream of %d bytes", len(stream))
	}
	payload := stream[streamHeaderSize:]
	h := header{
		Magic:            Magic,
		DecompressedSize: uint32(len(data)),
		CompressedSize:   uint32(len(payload)),
	}
	copy(h.Properties[:], stream[:propertiesSize])

	out := make([]byte, HeaderSize, HeaderSize+len(payload))
	if _, err := binary.Encode(out, binary.LittleEndian, &h); err != nil {
		return nil, errors.Wrap(err, "lzmalump: encode header")
	}
	return append(out, payload...), nil
}
