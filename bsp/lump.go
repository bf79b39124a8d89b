// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"fmt"

	"github.com/pkg/errors"

	"vbsp/cursor"
	"vbsp/lzmalump"
)

const (
	NumLumps        = 64
	HeaderSize      = 8
	DirectoryOffset = HeaderSize
	LumpEntrySize   = 16
	DirectorySize   = NumLumps * LumpEntrySize

	// "VBSP" read as a little-endian int32
	Ident = 'V' | 'B'<<8 | 'S'<<16 | 'P'<<24
)

var ErrShortDirectory = errors.New("buffer shorter than lump directory")

// LumpKind is the directory slot index of a lump.
type LumpKind int

const (
	LumpEntities LumpKind = iota
	LumpPlanes
	LumpTexData
	LumpVertexes
	LumpVisibility
	LumpNodes
	LumpTexInfo
	LumpFaces
	LumpLighting
	LumpOcclusion
	LumpLeafs
	LumpFaceIDs
	LumpEdges
	LumpSurfEdges
	LumpModels
	LumpWorldLights
	LumpLeafFaces
	LumpLeafBrushes
	LumpBrushes
	LumpBrushSides
	LumpAreas
	LumpAreaPortals
	// Slots follow the engine's own numbering. 22-25 are unused since
	// version 20 but keep their old names, so dispinfo stays at 26 and there
	// are no separate placeholder entries.
	LumpPortals
	LumpClusters
	LumpPortalVerts
	LumpClusterPortals
	LumpDispInfo
	LumpOriginalFaces
	LumpPhysDisp
	LumpPhysCollide
	LumpVertNormals
	LumpVertNormalIndices
	LumpDispLightmapAlphas
	LumpDispVerts
	LumpDispLightmapSamplePositions
	LumpGameLump
	LumpLeafWaterData
	LumpPrimitives
	LumpPrimVerts
	LumpPrimIndices
	LumpPakfile
	LumpClipPortalVerts
	LumpCubemaps
	LumpTexDataStringData
	LumpTexDataStringTable
	LumpOverlays
	LumpLeafMinDistToWater
	LumpFaceMacroTextureInfo
	LumpDispTris
	LumpPhysCollideSurface
	LumpWaterOverlays
	LumpLightmapPages
	LumpLightmapPageInfos
	LumpLightingHDR
	LumpWorldLightsHDR
	LumpLeafAmbientLightingHDR
	LumpLeafAmbientLighting
	LumpXZipPakfile
	LumpFacesHDR
	LumpMapFlags
	LumpOverlayFades
	LumpOverlaySystemLevels
	LumpPhysLevel
	LumpDispMultiBlend
)

var lumpNames = [NumLumps]string{
	"entities", "planes", "texdata", "vertexes", "visibility", "nodes",
	"texinfo", "faces", "lighting", "occlusion", "leafs", "faceids", "edges",
	"surfedges", "models", "worldlights", "leaffaces", "leafbrushes",
	"brushes", "brushsides", "areas", "areaportals", "portals", "clusters",
	"portalverts", "clusterportals", "dispinfo", "originalfaces", "physdisp",
	"physcollide", "vertnormals", "vertnormalindices", "displightmapalphas",
	"dispverts", "displightmapsamplepositions", "gamelump", "leafwaterdata",
	"primitives", "primverts", "primindices", "pakfile", "clipportalverts",
	"cubemaps", "texdatastringdata", "texdatastringtable", "overlays",
	"leafmindisttowater", "facemacrotextureinfo", "disptris",
	"physcollidesurface", "wateroverlays", "lightmappages",
	"lightmappageinfos", "lightinghdr", "worldlightshdr",
	"leafambientlightinghdr", "leafambientlighting", "xzippakfile",
	"faceshdr", "mapflags", "overlayfades", "overlaysystemlevels", "physlevel",
	"dispmultiblend",
}

func (k LumpKind) String() string {
	if k < 0 || k >= NumLumps {
		return fmt.Sprintf("lump(%d)", int(k))
	}
	return lumpNames[k]
}

// Supported reports whether Decode produces records for the kind. Other
// slots are recognized and skipped.
func (k LumpKind) Supported() bool {
	return k >= 0 && k < NumLumps && decoders[k] != nil
}

// Lump is one directory entry, called lump_t in c.
type Lump struct {
	Offset  int32
	Length  int32
	Version int32
	Ident   [4]byte
}

// Absent reports whether the entry addresses no data. An offset of zero
// means absent whatever the other fields say.
func (l Lump) Absent() bool {
	return l.Offset == 0
}

func (l Lump) Compressed() bool {
	return lzmalump.IsCompressed(l.Ident)
}

type Header struct {
	Ident   int32
	Version int32
}

func (h Header) Valid() bool {
	return h.Ident == Ident
}

func ReadHeader(data []byte) (Header, error) {
	var h Header
	if err := cursor.New(data).Read(&h); err != nil {
		return h, errors.Wrap(ErrShortDirectory, err.Error())
	}
	return h, nil
}

// ReadDirectory reads the NumLumps directory entries starting at base.
func ReadDirectory(data []byte, base int) ([NumLumps]Lump, error) {
	var dir [NumLumps]Lump
	if base < 0 || len(data)-base < DirectorySize {
		return dir, errors.Wrapf(ErrShortDirectory, "need %d bytes at %d, have %d", DirectorySize, base, len(data))
	}
	c := cursor.New(data)
	if err := c.Skip(base); err != nil {
		return dir, errors.Wrap(ErrShortDirectory, err.Error())
	}
	if err := c.Read(&dir); err != nil {
		return dir, errors.Wrap(ErrShortDirectory, err.Error())
	}
	return dir, nil
}

// lumpData slices the bytes of l out of data. The result aliases data.
func lumpData(data []byte, l Lump) ([]byte, error) {
	end := int64(l.Offset) + int64(l.Length)
	if l.Offset < 0 || l.Length < 0 || end > int64(len(data)) {
		return nil, errors.Wrapf(cursor.ErrOutOfRange, "lump [%d, %d) outside of %d byte file", l.Offset, end, len(data))
	}
	return data[l.Offset:end], nil
}
