// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"github.com/chewxy/math32"

	"vbsp/math/vec"
)

// All records are stored little-endian without padding between fields; the
// field order of each struct is its on-disk layout.

type Plane struct {
	Normal   vec.Vec3
	Distance float32
	Type     int32 // 0: axial plane in X, 1: axial plane in Y, 2 axial in Z, 3,4,5 similar but non axial
}

// DistanceTo returns the signed distance of p from the plane.
func (p Plane) DistanceTo(pt vec.Vec3) float32 {
	return vec.Dot(p.Normal, pt) - p.Distance
}

type TexData struct {
	Reflectivity      vec.Vec3
	NameStringTableID int32 // index into the texdata string table
	Width             int32
	Height            int32
	ViewWidth         int32
	ViewHeight        int32
}

type Vertex = vec.Vec3

type Node struct {
	PlaneNum  int32
	Children  [2]int32 // negative numbers are -(leafs+1), not nodes
	Mins      [3]int16
	Maxs      [3]int16
	FirstFace uint16
	NumFaces  uint16
	Area      int16 // if all leaves below this node are in the same area
	Padding   int16
}

// LeafOf converts a negative child reference into its leaf index.
func LeafOf(child int32) int32 {
	return -child - 1
}

// Child returns the node or leaf index of child i.
func (n Node) Child(i int) (index int32, leaf bool) {
	c := n.Children[i]
	if c < 0 {
		return LeafOf(c), true
	}
	return c, false
}

type TexInfo struct {
	TextureVecs  [2][4]float32 // [s/t][xyz offset]
	LightmapVecs [2][4]float32
	Flags        int32
	TexData      int32 // index into TexData, -1 for none
}

type Face struct {
	PlaneNum                    uint16
	Side                        uint8
	OnNode                      uint8 // 1 if on node, 0 if in leaf
	FirstEdge                   int32 // index into SurfEdges
	NumEdges                    int16
	TexInfo                     int16
	DispInfo                    int16 // -1 if not a displacement
	SurfaceFogVolumeID          int16
	Styles                      [4]uint8
	LightOffset                 int32 // byte offset into the lighting lump, -1 for none
	Area                        float32
	LightmapTextureMinsInLuxels [2]int32
	LightmapTextureSizeInLuxels [2]int32
	OriginalFace                int32
	NumPrimitives               uint16
	FirstPrimitiveID            uint16
	SmoothingGroups             uint32
}

// LightmapSample is a ColorRGBExp32.
type LightmapSample struct {
	R, G, B  uint8
	Exponent int8
}

// Color returns the linear color of the sample, each channel scaled by
// 2^Exponent.
func (s LightmapSample) Color() [3]float32 {
	e := int(s.Exponent)
	return [3]float32{
		math32.Ldexp(float32(s.R), e),
		math32.Ldexp(float32(s.G), e),
		math32.Ldexp(float32(s.B), e),
	}
}

type OccluderData struct {
	Flags     int32
	FirstPoly int32 // index into the occluder's Polys
	PolyCount int32
	Mins      vec.Vec3
	Maxs      vec.Vec3
	Area      int32
}

type OccluderPolyData struct {
	FirstVertexIndex int32 // index into the occluder's VertexIndices
	VertexCount      int32
	PlaneNum         int32
}

// Occluder is one self-describing group of the occlusion lump. Each slice is
// stored behind an int32 count.
type Occluder struct {
	Data          []OccluderData
	Polys         []OccluderPolyData
	VertexIndices []int32
}

// CompressedLightCube holds one sample per axis direction (+x -x +y -y +z -z).
type CompressedLightCube [6]LightmapSample

// Leaf covers version 0 and 1 leafs. AmbientLighting is only stored in
// version 0.
type Leaf struct {
	Contents        int32
	Cluster         int16
	AreaFlags       int16 // area:9 flags:7
	Mins            [3]int16
	Maxs            [3]int16
	FirstLeafFace   uint16
	NumLeafFaces    uint16
	FirstLeafBrush  uint16
	NumLeafBrushes  uint16
	LeafWaterDataID int16 // -1 for not in water
	AmbientLighting CompressedLightCube
	Padding         int16
}

func (l Leaf) Area() int {
	return int(uint16(l.AreaFlags) & 0x1ff)
}

func (l Leaf) Flags() int {
	return int(uint16(l.AreaFlags) >> 9)
}

// the first edge of the list is never used
type Edge struct {
	V [2]uint16 // ids of start and end vertex
}

// Model, either the world (model 0) or a brush entity
type Model struct {
	Mins      vec.Vec3
	Maxs      vec.Vec3
	Origin    vec.Vec3
	HeadNode  int32
	FirstFace int32
	NumFaces  int32
}

// Center returns the middle of the bounding box.
func (m Model) Center() vec.Vec3 {
	return vec.Add(m.Mins, m.Maxs).Scale(0.5)
}

type Brush struct {
	FirstSide int32
	NumSides  int32
	Contents  int32
}

type BrushSide struct {
	PlaneNum uint16
	TexInfo  int16
	DispInfo int16
	Bevel    uint8 // side is a bevel plane
	Thin     uint8
}

type Area struct {
	NumAreaPortals  int32
	FirstAreaPortal int32
}

type AreaPortal struct {
	PortalKey           uint16 // matched against the areaportal entities
	OtherArea           uint16
	FirstClipPortalVert uint16
	NumClipPortalVerts  uint16
	PlaneNum            int32
}

const (
	DispNeighborSize = 90
	DispAllowedVerts = 10
)

// DispInfo keeps the neighbor block between LightmapSamplePositionStart and
// AllowedVerts as raw bytes; ReadDispNeighbor is an experimental decoder for
// it.
type DispInfo struct {
	StartPosition               vec.Vec3
	DispVertStart               int32
	DispTriStart                int32
	Power                       int32
	MinTess                     int32
	SmoothingAngle              float32
	Contents                    int32
	MapFace                     uint16
	LightmapAlphaStart          int32
	LightmapSamplePositionStart int32
	UnparsedNeighbors           [DispNeighborSize]byte
	AllowedVerts                [DispAllowedVerts]uint32
}

type DispVert struct {
	Vec   vec.Vec3 // normalized offset direction
	Dist  float32
	Alpha float32
}

type LeafWaterData struct {
	SurfaceZ         float32
	MinZ             float32
	SurfaceTexInfoID int16
	Padding          int16
}

type Primitive struct {
	Type       uint8
	Padding    uint8
	FirstIndex uint16
	IndexCount uint16
	FirstVert  uint16
	VertCount  uint16
}

type Cubemap struct {
	Origin [3]int32
	Size   int32 // 0 for the default size
}
