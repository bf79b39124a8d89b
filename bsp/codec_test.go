// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"vbsp/cursor"
	"vbsp/math/vec"
)

var roundTripTests = []struct {
	kind    LumpKind
	stride  int
	version int32
	records any
	get     func(*Map) any
}{
	{LumpPlanes, 20, 0, []Plane{
		{Normal: vec.Vec3{X: 1}, Distance: 64, Type: 0},
		{Normal: vec.Vec3{Z: -1}, Distance: -128.5, Type: 2},
		{Normal: vec.Vec3{X: 0.6, Y: 0.8}, Distance: 3, Type: 3},
	}, func(m *Map) any { return m.Planes }},
	{LumpTexData, 32, 0, []TexData{
		{Reflectivity: vec.Vec3{X: 0.5, Y: 0.25, Z: 0.125}, NameStringTableID: 3, Width: 512, Height: 256, ViewWidth: 512, ViewHeight: 256},
	}, func(m *Map) any { return m.TexData }},
	{LumpVertexes, 12, 0, []Vertex{{X: 1, Y: 2, Z: 3}, {X: -4096, Y: 4096, Z: 0.5}}, func(m *Map) any { return m.Vertexes }},
	{LumpNodes, 32, 0, []Node{
		{PlaneNum: 0, Children: [2]int32{1, -1}, Mins: [3]int16{-512, -512, -64}, Maxs: [3]int16{512, 512, 64}, FirstFace: 0, NumFaces: 6, Area: 1},
		{PlaneNum: 7, Children: [2]int32{-2, -3}, Mins: [3]int16{-1, -2, -3}, Maxs: [3]int16{1, 2, 3}, FirstFace: 65535, NumFaces: 1, Area: -1, Padding: 0},
	}, func(m *Map) any { return m.Nodes }},
	{LumpTexInfo, 72, 0, []TexInfo{
		{
			TextureVecs:  [2][4]float32{{1, 0, 0, 0}, {0, -1, 0, 16}},
			LightmapVecs: [2][4]float32{{0.0625, 0, 0, 2}, {0, -0.0625, 0, 4}},
			Flags:        0x400,
			TexData:      -1,
		},
	}, func(m *Map) any { return m.TexInfo }},
	{LumpFaces, 56, 0, []Face{
		{
			PlaneNum: 65535, Side: 1, OnNode: 1, FirstEdge: 100, NumEdges: 4, TexInfo: 2, DispInfo: -1,
			SurfaceFogVolumeID: -1, Styles: [4]uint8{0, 255, 255, 255}, LightOffset: -1, Area: 256,
			LightmapTextureMinsInLuxels: [2]int32{-8, -16}, LightmapTextureSizeInLuxels: [2]int32{15, 31},
			OriginalFace: 3, NumPrimitives: 2, FirstPrimitiveID: 9, SmoothingGroups: 0x80000001,
		},
	}, func(m *Map) any { return m.Faces }},
	{LumpOriginalFaces, 56, 0, []Face{{PlaneNum: 1, NumEdges: 3, TexInfo: -1, DispInfo: 0}}, func(m *Map) any { return m.OriginalFaces }},
	{LumpLighting, 4, 0, []LightmapSample{{R: 255, G: 128, B: 1, Exponent: -128}, {R: 1, G: 2, B: 3, Exponent: 127}}, func(m *Map) any { return m.Lighting }},
	{LumpLeafs, 56, 0, []Leaf{
		{
			Contents: 1, Cluster: -1, AreaFlags: 0x7e01, Mins: [3]int16{-1, -2, -3}, Maxs: [3]int16{4, 5, 6},
			FirstLeafFace: 1, NumLeafFaces: 2, FirstLeafBrush: 3, NumLeafBrushes: 4, LeafWaterDataID: -1,
			AmbientLighting: CompressedLightCube{{R: 1}, {G: 2}, {B: 3}, {Exponent: -4}, {R: 5}, {G: 6}},
		},
	}, func(m *Map) any { return m.Leafs }},
	{LumpFaceIDs, 2, 0, []uint16{0, 1, 65535}, func(m *Map) any { return m.FaceIDs }},
	{LumpEdges, 4, 0, []Edge{{V: [2]uint16{0, 0}}, {V: [2]uint16{1, 65535}}}, func(m *Map) any { return m.Edges }},
	{LumpSurfEdges, 4, 0, []int32{1, -2, 3, -2147483648}, func(m *Map) any { return m.SurfEdges }},
	{LumpModels, 48, 0, []Model{
		{Mins: vec.Vec3{X: -1, Y: -1, Z: -1}, Maxs: vec.Vec3{X: 1, Y: 1, Z: 1}, Origin: vec.Vec3{Z: 8}, HeadNode: 0, FirstFace: 0, NumFaces: 12},
	}, func(m *Map) any { return m.Models }},
	{LumpLeafFaces, 2, 0, []uint16{5, 4, 3}, func(m *Map) any { return m.LeafFaces }},
	{LumpLeafBrushes, 2, 0, []uint16{9, 65535}, func(m *Map) any { return m.LeafBrushes }},
	{LumpBrushes, 12, 0, []Brush{{FirstSide: 0, NumSides: 6, Contents: 1}}, func(m *Map) any { return m.Brushes }},
	{LumpBrushSides, 8, 0, []BrushSide{{PlaneNum: 3, TexInfo: -1, DispInfo: -1, Bevel: 1, Thin: 0}}, func(m *Map) any { return m.BrushSides }},
	{LumpAreas, 8, 0, []Area{{NumAreaPortals: 0, FirstAreaPortal: 0}, {NumAreaPortals: 2, FirstAreaPortal: 1}}, func(m *Map) any { return m.Areas }},
	{LumpAreaPortals, 12, 0, []AreaPortal{{PortalKey: 1, OtherArea: 2, FirstClipPortalVert: 3, NumClipPortalVerts: 4, PlaneNum: -5}}, func(m *Map) any { return m.AreaPortals }},
	{LumpDispInfo, 176, 0, []DispInfo{
		func() DispInfo {
			d := DispInfo{
				StartPosition: vec.Vec3{X: 1, Y: 2, Z: 3}, DispVertStart: 0, DispTriStart: 0, Power: 3, MinTess: -1,
				SmoothingAngle: 30, Contents: 1, MapFace: 17, LightmapAlphaStart: 4, LightmapSamplePositionStart: 8,
			}
			for i := range d.UnparsedNeighbors {
				d.UnparsedNeighbors[i] = byte(i)
			}
			for i := range d.AllowedVerts {
				d.AllowedVerts[i] = 0xffffffff
			}
			return d
		}(),
	}, func(m *Map) any { return m.DispInfo }},
	{LumpVertNormals, 12, 0, []vec.Vec3{{Z: 1}}, func(m *Map) any { return m.VertNormals }},
	{LumpVertNormalIndices, 2, 0, []uint16{0, 0, 0}, func(m *Map) any { return m.VertNormalIndices }},
	{LumpDispVerts, 20, 0, []DispVert{{Vec: vec.Vec3{Z: 1}, Dist: 12, Alpha: 255}}, func(m *Map) any { return m.DispVerts }},
	{LumpLeafWaterData, 12, 0, []LeafWaterData{{SurfaceZ: 32, MinZ: -64, SurfaceTexInfoID: 7}}, func(m *Map) any { return m.LeafWaterData }},
	{LumpPrimitives, 10, 0, []Primitive{{Type: 1, FirstIndex: 2, IndexCount: 3, FirstVert: 4, VertCount: 5}}, func(m *Map) any { return m.Primitives }},
	{LumpPrimVerts, 12, 0, []vec.Vec3{{X: 1}, {Y: 1}}, func(m *Map) any { return m.PrimVerts }},
	{LumpPrimIndices, 2, 0, []uint16{0, 1, 2}, func(m *Map) any { return m.PrimIndices }},
	{LumpClipPortalVerts, 12, 0, []vec.Vec3{{X: -1, Y: -1, Z: -1}}, func(m *Map) any { return m.ClipPortalVerts }},
	{LumpCubemaps, 16, 0, []Cubemap{{Origin: [3]int32{-100, 200, 300}, Size: 0}}, func(m *Map) any { return m.Cubemaps }},
	{LumpTexDataStringTable, 4, 0, []int32{0, 12, 40}, func(m *Map) any { return m.TexDataStringTable }},
	{LumpLeafMinDistToWater, 2, 0, []uint16{65535, 0}, func(m *Map) any { return m.LeafMinDistToWater }},
	{LumpDispTris, 2, 0, []uint16{0x1, 0x8}, func(m *Map) any { return m.DispTris }},
	{LumpMapFlags, 4, 0, []uint32{1}, func(m *Map) any { return m.MapFlags }},
}

func TestRecordRoundTrip(t *testing.T) {
	for _, tc := range roundTripTests {
		data := encode(t, tc.records)
		n := reflect.ValueOf(tc.records).Len()
		if len(data) != n*tc.stride {
			t.Errorf("%v: %d bytes is not %d records of %d bytes", tc.kind, len(data), n, tc.stride)
			continue
		}
		m := decodeFile(t, buildFile(t, testLump{kind: tc.kind, data: data, version: tc.version}))
		if err := m.Err(); err != nil {
			t.Errorf("%v: %v", tc.kind, err)
			continue
		}
		got := tc.get(m)
		if diff := cmp.Diff(tc.records, got); diff != "" {
			t.Errorf("%v: decoded records mismatch (-want +got):\n%s", tc.kind, diff)
		}
		if re := encode(t, got); !bytes.Equal(re, data) {
			t.Errorf("%v: re-encoding does not reproduce the lump", tc.kind)
		}
	}
}

func TestPartialRecord(t *testing.T) {
	for _, tc := range roundTripTests {
		data := encode(t, tc.records)
		data = append(data, make([]byte, tc.stride-1)...)
		planes := encode(t, []Plane{{Normal: vec.Vec3{X: 1}, Distance: 1}})
		lumps := []testLump{{kind: tc.kind, data: data, version: tc.version}}
		if tc.kind != LumpPlanes {
			lumps = append(lumps, testLump{kind: LumpPlanes, data: planes})
		}
		m := decodeFile(t, buildFile(t, lumps...))
		err := m.LumpErr(tc.kind)
		if !errors.Is(err, cursor.ErrOutOfRange) {
			t.Errorf("%v: got %v, want ErrOutOfRange", tc.kind, err)
		}
		if got := tc.get(m); !isEmpty(got) {
			t.Errorf("%v: failed lump left %v", tc.kind, got)
		}
		if tc.kind != LumpPlanes && len(m.Planes) != 1 {
			t.Errorf("%v: planes were not decoded alongside the failing lump", tc.kind)
		}
		if len(m.Errors) != 1 {
			t.Errorf("%v: got %d lump errors, want 1", tc.kind, len(m.Errors))
		}
	}
}

func isEmpty(v any) bool {
	return reflect.ValueOf(v).Len() == 0
}

func TestLeafVersion1(t *testing.T) {
	var b bytes.Buffer
	for _, v := range []any{
		int32(-1),             // contents
		int16(5),              // cluster
		uint16(3 | 0x05<<9),   // area 3, flags 5
		[3]int16{-1, -2, -3},  // mins
		[3]int16{1, 2, 3},     // maxs
		[4]uint16{1, 2, 3, 4}, // leaf faces, leaf brushes
		int16(-1),             // leaf water data
		int16(0),              // padding
	} {
		binary.Write(&b, binary.LittleEndian, v)
	}
	if b.Len() != 32 {
		t.Fatalf("version 1 leaf is %d bytes, want 32", b.Len())
	}
	data := append(b.Bytes(), b.Bytes()...)
	m := decodeFile(t, buildFile(t, testLump{kind: LumpLeafs, data: data, version: 1}))
	if err := m.Err(); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := Leaf{
		Contents: -1, Cluster: 5, AreaFlags: 3 | 0x05<<9, Mins: [3]int16{-1, -2, -3}, Maxs: [3]int16{1, 2, 3},
		FirstLeafFace: 1, NumLeafFaces: 2, FirstLeafBrush: 3, NumLeafBrushes: 4, LeafWaterDataID: -1,
	}
	if diff := cmp.Diff([]Leaf{want, want}, m.Leafs); diff != "" {
		t.Errorf("leafs mismatch (-want +got):\n%s", diff)
	}
	if a, f := m.Leafs[0].Area(), m.Leafs[0].Flags(); a != 3 || f != 5 {
		t.Errorf("Area, Flags = %d, %d, want 3, 5", a, f)
	}
}

func TestLeafAreaFlagsHighBit(t *testing.T) {
	l := Leaf{AreaFlags: -1}
	if a, f := l.Area(), l.Flags(); a != 0x1ff || f != 0x7f {
		t.Errorf("Area, Flags = %#x, %#x, want 0x1ff, 0x7f", a, f)
	}
}

func occluderGroup(t *testing.T, o Occluder) []byte {
	var b bytes.Buffer
	b.Write(encode(t, int32(len(o.Data))))
	b.Write(encode(t, o.Data))
	b.Write(encode(t, int32(len(o.Polys))))
	b.Write(encode(t, o.Polys))
	b.Write(encode(t, int32(len(o.VertexIndices))))
	b.Write(encode(t, o.VertexIndices))
	return b.Bytes()
}

func TestOccluders(t *testing.T) {
	first := Occluder{
		Data: []OccluderData{
			{Flags: 1, FirstPoly: 0, PolyCount: 2, Mins: vec.Vec3{X: -1, Y: -1, Z: -1}, Maxs: vec.Vec3{X: 1, Y: 1, Z: 1}, Area: 1},
		},
		Polys: []OccluderPolyData{
			{FirstVertexIndex: 0, VertexCount: 3, PlaneNum: 4},
			{FirstVertexIndex: 3, VertexCount: 3, PlaneNum: 5},
		},
		VertexIndices: []int32{0, 1, 2, 2, 1, 3},
	}
	empty := Occluder{Data: []OccluderData{}, Polys: []OccluderPolyData{}, VertexIndices: []int32{}}
	data := append(occluderGroup(t, first), occluderGroup(t, empty)...)

	m := decodeFile(t, buildFile(t, testLump{kind: LumpOcclusion, data: data}))
	if err := m.Err(); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff([]Occluder{first, empty}, m.Occluders); diff != "" {
		t.Errorf("occluders mismatch (-want +got):\n%s", diff)
	}
}

func TestOccluderBadCounts(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"negative count", encode(t, []int32{-1, 0, 0})},
		{"count past end", encode(t, []int32{1000, 0, 0})},
		{"missing poly count", encode(t, []int32{0})},
		{"short vertex indices", encode(t, []int32{0, 0, 2, 7})},
	}
	for _, tc := range tests {
		m := decodeFile(t, buildFile(t, testLump{kind: LumpOcclusion, data: tc.data}))
		if err := m.LumpErr(LumpOcclusion); !errors.Is(err, cursor.ErrOutOfRange) {
			t.Errorf("%s: got %v, want ErrOutOfRange", tc.name, err)
		}
		if len(m.Occluders) != 0 {
			t.Errorf("%s: got %d occluders, want none", tc.name, len(m.Occluders))
		}
	}
}

func TestLeafOf(t *testing.T) {
	for child := int32(-1); child > -5000; child-- {
		if got, want := LeafOf(child), -child-1; got != want {
			t.Fatalf("LeafOf(%d) = %d, want %d", child, got, want)
		}
	}
	if LeafOf(-1) != 0 {
		t.Errorf("LeafOf(-1) = %d, want 0", LeafOf(-1))
	}
	n := Node{Children: [2]int32{4, -1}}
	if i, leaf := n.Child(0); i != 4 || leaf {
		t.Errorf("Child(0) = %d, %v, want node 4", i, leaf)
	}
	if i, leaf := n.Child(1); i != 0 || !leaf {
		t.Errorf("Child(1) = %d, %v, want leaf 0", i, leaf)
	}
}

func TestLightmapColor(t *testing.T) {
	tests := []struct {
		s    LightmapSample
		want [3]float32
	}{
		{LightmapSample{R: 1, G: 2, B: 3, Exponent: 0}, [3]float32{1, 2, 3}},
		{LightmapSample{R: 1, G: 2, B: 3, Exponent: 2}, [3]float32{4, 8, 12}},
		{LightmapSample{R: 128, G: 64, B: 0, Exponent: -7}, [3]float32{1, 0.5, 0}},
	}
	for _, tc := range tests {
		if got := tc.s.Color(); got != tc.want {
			t.Errorf("%+v.Color() = %v, want %v", tc.s, got, tc.want)
		}
	}
}

func TestDispNeighbor(t *testing.T) {
	var d DispInfo
	raw := []byte{
		0x02, 0x00, OrientationCCW90, CornerToMidpoint, MidpointToCorner, 0,
		0xff, 0xff, 0, 0, 0, 0,
	}
	copy(d.UnparsedNeighbors[:], raw)
	ns, err := d.ReadDispNeighbors()
	if err != nil {
		t.Fatalf("ReadDispNeighbors: %v", err)
	}
	want := DispSubNeighbor{Neighbor: 2, NeighborOrientation: OrientationCCW90, Span: CornerToMidpoint, NeighborSpan: MidpointToCorner}
	if got := ns[0].SubNeighbors[0]; got != want {
		t.Errorf("sub neighbor = %+v, want %+v", got, want)
	}
	if !ns[0].SubNeighbors[0].Valid() || ns[0].SubNeighbors[1].Valid() {
		t.Errorf("Valid() = %v, %v, want true, false", ns[0].SubNeighbors[0].Valid(), ns[0].SubNeighbors[1].Valid())
	}
	if _, err := ReadDispNeighbor(cursor.New(raw[:7])); !errors.Is(err, cursor.ErrOutOfRange) {
		t.Errorf("short neighbor: got %v, want ErrOutOfRange", err)
	}
}

func TestPlaneAndModelHelpers(t *testing.T) {
	p := Plane{Normal: vec.Vec3{Z: 1}, Distance: 10}
	if d := p.DistanceTo(vec.Vec3{X: 5, Y: 5, Z: 4}); d != -6 {
		t.Errorf("DistanceTo = %v, want -6", d)
	}
	m := Model{Mins: vec.Vec3{X: -2, Y: 0, Z: 2}, Maxs: vec.Vec3{X: 2, Y: 4, Z: 4}}
	if c := m.Center(); c != (vec.Vec3{X: 0, Y: 2, Z: 3}) {
		t.Errorf("Center = %v", c)
	}
}
