// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"vbsp/cursor"
	"vbsp/lzmalump"
	"vbsp/math/vec"
)

// Map holds the decoded lumps of one file. Every collection keeps the
// on-disk record order and is empty, never nil, when its lump is absent,
// unsupported or failed to decode.
type Map struct {
	Header Header

	Entities           []*Entity
	Planes             []Plane
	TexData            []TexData
	Vertexes           []Vertex
	Nodes              []Node
	TexInfo            []TexInfo
	Faces              []Face
	Lighting           []LightmapSample
	Occluders          []Occluder
	Leafs              []Leaf
	FaceIDs            []uint16
	Edges              []Edge
	SurfEdges          []int32 // negative values walk the edge backwards
	Models             []Model
	LeafFaces          []uint16
	LeafBrushes        []uint16
	Brushes            []Brush
	BrushSides         []BrushSide
	Areas              []Area
	AreaPortals        []AreaPortal
	DispInfo           []DispInfo
	OriginalFaces      []Face
	VertNormals        []vec.Vec3
	VertNormalIndices  []uint16
	DispVerts          []DispVert
	LeafWaterData      []LeafWaterData
	Primitives         []Primitive
	PrimVerts          []vec.Vec3
	PrimIndices        []uint16
	ClipPortalVerts    []vec.Vec3
	Cubemaps           []Cubemap
	TexDataStringData  []byte // NUL terminated names addressed by TexDataStringTable
	TexDataStringTable []int32
	LeafMinDistToWater []uint16
	DispTris           []uint16 // tag flags per displacement triangle
	MapFlags           []uint32

	// Errors lists the lumps that failed, ordered by slot.
	Errors []*LumpError
}

func newMap() *Map {
	return &Map{
		Entities:           []*Entity{},
		Planes:             []Plane{},
		TexData:            []TexData{},
		Vertexes:           []Vertex{},
		Nodes:              []Node{},
		TexInfo:            []TexInfo{},
		Faces:              []Face{},
		Lighting:           []LightmapSample{},
		Occluders:          []Occluder{},
		Leafs:              []Leaf{},
		FaceIDs:            []uint16{},
		Edges:              []Edge{},
		SurfEdges:          []int32{},
		Models:             []Model{},
		LeafFaces:          []uint16{},
		LeafBrushes:        []uint16{},
		Brushes:            []Brush{},
		BrushSides:         []BrushSide{},
		Areas:              []Area{},
		AreaPortals:        []AreaPortal{},
		DispInfo:           []DispInfo{},
		OriginalFaces:      []Face{},
		VertNormals:        []vec.Vec3{},
		VertNormalIndices:  []uint16{},
		DispVerts:          []DispVert{},
		LeafWaterData:      []LeafWaterData{},
		Primitives:         []Primitive{},
		PrimVerts:          []vec.Vec3{},
		PrimIndices:        []uint16{},
		ClipPortalVerts:    []vec.Vec3{},
		Cubemaps:           []Cubemap{},
		TexDataStringData:  []byte{},
		TexDataStringTable: []int32{},
		LeafMinDistToWater: []uint16{},
		DispTris:           []uint16{},
		MapFlags:           []uint32{},
		Errors:             []*LumpError{},
	}
}

// decodeFunc decodes the whole region of one lump into its collection and
// returns the number of records.
type decodeFunc func(m *Map, c *cursor.Cursor, l Lump, log *slog.Logger) (int, error)

// records builds the decodeFunc of a lump that repeats one record shape until
// the lump is exhausted. The collection is only set on success.
func records[T any](dst func(*Map) *[]T, read func(*cursor.Cursor) (T, error)) decodeFunc {
	return func(m *Map, c *cursor.Cursor, _ Lump, _ *slog.Logger) (int, error) {
		out, err := collect(c, read)
		if err != nil {
			return 0, err
		}
		*dst(m) = out
		return len(out), nil
	}
}

// decoders maps a directory slot to its decoder. nil slots are skipped.
var decoders = [NumLumps]decodeFunc{
	LumpEntities:           decodeEntities,
	LumpPlanes:             records(func(m *Map) *[]Plane { return &m.Planes }, fixed[Plane]),
	LumpTexData:            records(func(m *Map) *[]TexData { return &m.TexData }, fixed[TexData]),
	LumpVertexes:           records(func(m *Map) *[]Vertex { return &m.Vertexes }, fixed[Vertex]),
	LumpNodes:              records(func(m *Map) *[]Node { return &m.Nodes }, readNode),
	LumpTexInfo:            records(func(m *Map) *[]TexInfo { return &m.TexInfo }, fixed[TexInfo]),
	LumpFaces:              records(func(m *Map) *[]Face { return &m.Faces }, readFace),
	LumpLighting:           records(func(m *Map) *[]LightmapSample { return &m.Lighting }, readLighting),
	LumpOcclusion:          records(func(m *Map) *[]Occluder { return &m.Occluders }, readOccluder),
	LumpLeafs:              decodeLeafs,
	LumpFaceIDs:            records(func(m *Map) *[]uint16 { return &m.FaceIDs }, readUint16),
	LumpEdges:              records(func(m *Map) *[]Edge { return &m.Edges }, fixed[Edge]),
	LumpSurfEdges:          records(func(m *Map) *[]int32 { return &m.SurfEdges }, readInt32),
	LumpModels:             records(func(m *Map) *[]Model { return &m.Models }, fixed[Model]),
	LumpLeafFaces:          records(func(m *Map) *[]uint16 { return &m.LeafFaces }, readUint16),
	LumpLeafBrushes:        records(func(m *Map) *[]uint16 { return &m.LeafBrushes }, readUint16),
	LumpBrushes:            records(func(m *Map) *[]Brush { return &m.Brushes }, fixed[Brush]),
	LumpBrushSides:         records(func(m *Map) *[]BrushSide { return &m.BrushSides }, fixed[BrushSide]),
	LumpAreas:              records(func(m *Map) *[]Area { return &m.Areas }, fixed[Area]),
	LumpAreaPortals:        records(func(m *Map) *[]AreaPortal { return &m.AreaPortals }, fixed[AreaPortal]),
	LumpDispInfo:           records(func(m *Map) *[]DispInfo { return &m.DispInfo }, readDispInfo),
	LumpOriginalFaces:      records(func(m *Map) *[]Face { return &m.OriginalFaces }, readFace),
	LumpVertNormals:        records(func(m *Map) *[]vec.Vec3 { return &m.VertNormals }, fixed[vec.Vec3]),
	LumpVertNormalIndices:  records(func(m *Map) *[]uint16 { return &m.VertNormalIndices }, readUint16),
	LumpDispVerts:          records(func(m *Map) *[]DispVert { return &m.DispVerts }, fixed[DispVert]),
	LumpLeafWaterData:      records(func(m *Map) *[]LeafWaterData { return &m.LeafWaterData }, fixed[LeafWaterData]),
	LumpPrimitives:         records(func(m *Map) *[]Primitive { return &m.Primitives }, fixed[Primitive]),
	LumpPrimVerts:          records(func(m *Map) *[]vec.Vec3 { return &m.PrimVerts }, fixed[vec.Vec3]),
	LumpPrimIndices:        records(func(m *Map) *[]uint16 { return &m.PrimIndices }, readUint16),
	LumpClipPortalVerts:    records(func(m *Map) *[]vec.Vec3 { return &m.ClipPortalVerts }, fixed[vec.Vec3]),
	LumpCubemaps:           records(func(m *Map) *[]Cubemap { return &m.Cubemaps }, fixed[Cubemap]),
	LumpTexDataStringData:  decodeTexDataStringData,
	LumpTexDataStringTable: records(func(m *Map) *[]int32 { return &m.TexDataStringTable }, readInt32),
	LumpLeafMinDistToWater: records(func(m *Map) *[]uint16 { return &m.LeafMinDistToWater }, readUint16),
	LumpDispTris:           records(func(m *Map) *[]uint16 { return &m.DispTris }, readUint16),
	LumpMapFlags:           records(func(m *Map) *[]uint32 { return &m.MapFlags }, readUint32),
}

// decoderFor returns the decoder of slot i. Slot 0 is always the entity text.
func decoderFor(i int) decodeFunc {
	if i == int(LumpEntities) {
		return decodeEntities
	}
	return decoders[i]
}

func decodeEntities(m *Map, c *cursor.Cursor, _ Lump, log *slog.Logger) (int, error) {
	b, err := c.ReadBytes(c.Remaining())
	if err != nil {
		return 0, err
	}
	es, replaced := ParseEntities(b)
	if replaced {
		log.Warn("entity lump is not valid UTF-8, invalid bytes replaced")
	}
	m.Entities = es
	return len(es), nil
}

func decodeLeafs(m *Map, c *cursor.Cursor, l Lump, _ *slog.Logger) (int, error) {
	out, err := collect(c, func(c *cursor.Cursor) (Leaf, error) {
		return readLeaf(c, l.Version)
	})
	if err != nil {
		return 0, err
	}
	m.Leafs = out
	return len(out), nil
}

func decodeTexDataStringData(m *Map, c *cursor.Cursor, _ Lump, _ *slog.Logger) (int, error) {
	b, err := c.ReadBytes(c.Remaining())
	if err != nil {
		return 0, err
	}
	m.TexDataStringData = bytes.Clone(b)
	return len(b), nil
}

// Decode reads the header and directory of data and decodes every lump. Only
// a buffer too short for the directory fails the call; lump failures are
// collected in Map.Errors.
func Decode(data []byte, opts ...Option) (*Map, error) {
	o := newOptions(opts)
	dir, err := ReadDirectory(data, DirectoryOffset)
	if err != nil {
		return nil, err
	}
	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	if !h.Valid() {
		o.logger.Warn("unexpected file identifier", "ident", h.Ident, "version", h.Version)
	}
	m := decodeLumps(data, dir, o)
	m.Header = h
	return m, nil
}

// DecodeLumps decodes the lumps addressed by dir. Offsets in dir are relative
// to the start of data.
func DecodeLumps(data []byte, dir [NumLumps]Lump, opts ...Option) *Map {
	return decodeLumps(data, dir, newOptions(opts))
}

// ReadFile loads the whole file at path and decodes it.
func ReadFile(path string, opts ...Option) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	m, err := Decode(data, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return m, nil
}

func decodeLumps(data []byte, dir [NumLumps]Lump, o *options) *Map {
	m := newMap()
	var errs [NumLumps]error
	if o.concurrency > 1 {
		// Every decoder writes only its own collection.
		var g errgroup.Group
		g.SetLimit(o.concurrency)
		for i := range dir {
			g.Go(func() error {
				errs[i] = decodeLump(m, data, i, dir[i], o)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range dir {
			errs[i] = decodeLump(m, data, i, dir[i], o)
		}
	}
	for i, err := range errs {
		if err == nil {
			continue
		}
		o.logger.Warn("lump decode failed", "lump", i, "kind", LumpKind(i), "err", err)
		m.Errors = append(m.Errors, &LumpError{Index: i, Kind: LumpKind(i), Err: err})
	}
	return m
}

func decodeLump(m *Map, data []byte, i int, l Lump, o *options) error {
	kind := LumpKind(i)
	if l.Absent() {
		return nil
	}
	dec := decoderFor(i)
	if dec == nil {
		o.logger.Debug("skipping lump", "lump", i, "kind", kind, "length", l.Length)
		return nil
	}
	b, err := lumpData(data, l)
	if err != nil {
		return err
	}
	if l.Compressed() {
		if b, err = lzmalump.Decompress(b, o.maxDecompressed); err != nil {
			return err
		}
	}
	n, err := dec(m, cursor.New(b), l, o.logger)
	if err != nil {
		return err
	}
	o.logger.Debug("decoded lump", "lump", i, "kind", kind, "records", n, "compressed", l.Compressed())
	return nil
}

// Err joins the lump failures, nil if every lump decoded.
func (m *Map) Err() error {
	errs := make([]error, len(m.Errors))
	for i, e := range m.Errors {
		errs[i] = e
	}
	return stderrors.Join(errs...)
}

// LumpErr returns the failure of the given lump or nil.
func (m *Map) LumpErr(k LumpKind) error {
	for _, e := range m.Errors {
		if e.Kind == k {
			return e
		}
	}
	return nil
}

// TextureName resolves the name of TexData[texdata] through the string table.
func (m *Map) TextureName(texdata int) (string, error) {
	if texdata < 0 || texdata >= len(m.TexData) {
		return "", errors.Wrapf(cursor.ErrOutOfRange, "texdata %d of %d", texdata, len(m.TexData))
	}
	id := m.TexData[texdata].NameStringTableID
	if id < 0 || int(id) >= len(m.TexDataStringTable) {
		return "", errors.Wrapf(cursor.ErrOutOfRange, "string table index %d of %d", id, len(m.TexDataStringTable))
	}
	off := m.TexDataStringTable[id]
	if off < 0 || int(off) >= len(m.TexDataStringData) {
		return "", errors.Wrapf(cursor.ErrOutOfRange, "string offset %d of %d", off, len(m.TexDataStringData))
	}
	s := m.TexDataStringData[off:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s), nil
}
