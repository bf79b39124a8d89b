// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"bytes"
	"encoding/binary"
	"testing"

	"vbsp/lzmalump"
)

type testLump struct {
	kind     LumpKind
	data     []byte
	version  int32
	compress bool
}

// encode lays v out the way the records are stored on disk.
func encode(t *testing.T, v any) []byte {
	t.Helper()
	var b bytes.Buffer
	if err := binary.Write(&b, binary.LittleEndian, v); err != nil {
		t.Fatalf("encode %T: %v", v, err)
	}
	return b.Bytes()
}

// buildFile returns a complete file with header, directory and the given lumps
// stored back to back after the directory.
func buildFile(t *testing.T, lumps ...testLump) []byte {
	t.Helper()
	var dir [NumLumps]Lump
	var body []byte
	for _, l := range lumps {
		d := l.data
		var ident [4]byte
		if l.compress {
			var err error
			if d, err = lzmalump.Compress(l.data); err != nil {
				t.Fatalf("compress %v: %v", l.kind, err)
			}
			binary.LittleEndian.PutUint32(ident[:], uint32(len(l.data)))
		}
		dir[l.kind] = Lump{
			Offset:  int32(HeaderSize + DirectorySize + len(body)),
			Length:  int32(len(d)),
			Version: l.version,
			Ident:   ident,
		}
		body = append(body, d...)
	}
	var b bytes.Buffer
	b.Write(encode(t, Header{Ident: Ident, Version: 20}))
	b.Write(encode(t, dir))
	b.Write(body)
	return b.Bytes()
}

func decodeFile(t *testing.T, data []byte, opts ...Option) *Map {
	t.Helper()
	m, err := Decode(data, opts...)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return m
}
