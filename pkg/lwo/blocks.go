package lwo

import (
	"bytes"
	"strings"

	"github.com/chewxy/math32"

	"github.com/Faultbox/lwotool/pkg/math"
	"github.com/Faultbox/lwotool/pkg/scene"
)

// The output axis convention is (X, Z, Y) relative to the source (X, Y, Z);
// every position written by the generators below goes through this swap.

var nameNormalizer = strings.NewReplacer(" ", "_", ".", "_")

// normalizeName rewrites separators that the target format's tooling chokes
// on in layer and file names.
func normalizeName(s string) string {
	return nameNormalizer.Replace(s)
}

// generateTags produces the TAGS payload: the concatenated names of every
// tag table entry in table order. An empty table still yields one empty
// name.
func generateTags(table *tagTable) []byte {
	buf := new(bytes.Buffer)
	if len(table.entries) == 0 {
		appendName(buf, "")
		return buf.Bytes()
	}
	for _, e := range table.entries {
		appendName(buf, e.name)
	}
	return buf.Bytes()
}

// generateLayer produces the LAYR payload: layer number, zero flags, the
// axis-swapped pivot and the normalized object name.
func generateLayer(name string, index int, pivot math.Vec3) []byte {
	buf := new(bytes.Buffer)
	appendI16(buf, int16(index))
	appendI16(buf, 0) // flags
	appendF32(buf, pivot.X)
	appendF32(buf, pivot.Z)
	appendF32(buf, pivot.Y)
	appendName(buf, normalizeName(name))
	return buf.Bytes()
}

// generatePoints produces the PNTS payload: every vertex position in mesh
// order, scaled and axis-swapped. The order written here defines the vertex
// index space all other blocks reference.
func generatePoints(mesh *scene.Mesh, scale float32) []byte {
	buf := new(bytes.Buffer)
	for _, v := range mesh.Vertices {
		appendF32(buf, v.X*scale)
		appendF32(buf, v.Z*scale)
		appendF32(buf, v.Y*scale)
	}
	return buf.Bytes()
}

// generateBBox produces the BBOX payload: component minima then maxima over
// all scaled, axis-swapped vertices. A mesh without vertices gets an all-zero
// box.
func generateBBox(mesh *scene.Mesh, scale float32) []byte {
	var min, max math.Vec3
	if len(mesh.Vertices) > 0 {
		min = mesh.Vertices[0]
		max = mesh.Vertices[0]
		for _, v := range mesh.Vertices[1:] {
			min = min.Min(v)
			max = max.Max(v)
		}
		min = min.Scale(scale)
		max = max.Scale(scale)
	}

	buf := new(bytes.Buffer)
	appendF32(buf, min.X)
	appendF32(buf, min.Z)
	appendF32(buf, min.Y)
	appendF32(buf, max.X)
	appendF32(buf, max.Z)
	appendF32(buf, max.Y)
	return buf.Bytes()
}

// generatePols produces the POLS payload. Polygons are stored with their
// vertex indices in reverse authored order (the winding conventions of the
// source and target formats are opposite), followed by one degenerate
// two-vertex entry per loose authored edge.
func generatePols(mesh *scene.Mesh, subpatch bool) []byte {
	buf := new(bytes.Buffer)
	if subpatch {
		buf.WriteString("SUBD")
	} else {
		buf.WriteString("FACE")
	}
	for _, p := range mesh.Polygons {
		appendU16(buf, uint16(len(p.Vertices)))
		for i := len(p.Vertices) - 1; i >= 0; i-- {
			appendIndex(buf, p.Vertices[i])
		}
	}
	for _, e := range looseEdges(mesh) {
		appendU16(buf, 2)
		appendIndex(buf, e[0])
		appendIndex(buf, e[1])
	}
	return buf.Bytes()
}

// generatePtag produces the PTAG payload mapping every polygon, in polygon
// order, to its surface index in the tag table. Meshes without materials and
// polygons whose material reference cannot be resolved map to index 0.
func generatePtag(mesh *scene.Mesh, table *tagTable) []byte {
	buf := new(bytes.Buffer)
	buf.WriteString("SURF")
	for i, p := range mesh.Polygons {
		surf := 0
		if len(mesh.Materials) > 0 && p.MaterialIndex >= 0 && p.MaterialIndex < len(mesh.Materials) {
			surf = table.indexOf(mesh.Materials[p.MaterialIndex].Name)
		}
		appendIndex(buf, i)
		appendU16(buf, uint16(surf))
	}
	return buf.Bytes()
}

// generateColorMaps produces one VMAD payload per vertex-color layer that
// has at least one corner: the RGBA map type, dimension 4, the layer name,
// then vertex index, polygon index and color for every corner.
func generateColorMaps(mesh *scene.Mesh) [][]byte {
	var maps [][]byte
	for _, layer := range mesh.ColorLayers {
		buf := new(bytes.Buffer)
		buf.WriteString("RGBA")
		appendU16(buf, 4) // dimension
		appendName(buf, layer.Name)

		found := false
		for polyIdx, p := range mesh.Polygons {
			for corner, vertIdx := range p.Vertices {
				c := layer.Corners[polyIdx][corner]
				appendIndex(buf, vertIdx)
				appendIndex(buf, polyIdx)
				appendF32(buf, c[0])
				appendF32(buf, c[1])
				appendF32(buf, c[2])
				appendF32(buf, c[3])
				found = true
			}
		}
		if found {
			maps = append(maps, buf.Bytes())
		}
	}
	return maps
}

// generateUVMaps produces one VMAD payload per UV layer with at least one
// discontinuous corner: the TXUV map type, dimension 2, the layer name, then
// an entry per corner whose UV differs from either cyclic neighbor within
// the same polygon. Corners agreeing with both neighbors are seam-free and
// skipped, which keeps smooth regions out of the file.
func generateUVMaps(mesh *scene.Mesh) [][]byte {
	var maps [][]byte
	for _, layer := range mesh.UVLayers {
		buf := new(bytes.Buffer)
		buf.WriteString("TXUV")
		appendU16(buf, 2) // dimension
		appendName(buf, layer.Name)

		found := false
		for polyIdx, p := range mesh.Polygons {
			n := len(p.Vertices)
			row := layer.Corners[polyIdx]
			for corner, vertIdx := range p.Vertices {
				uv := row[corner]
				prev := row[(corner-1+n)%n]
				next := row[(corner+1)%n]
				if prev == uv && uv == next {
					continue
				}
				appendIndex(buf, vertIdx)
				appendIndex(buf, polyIdx)
				appendF32(buf, uv.X)
				appendF32(buf, uv.Y)
				found = true
			}
		}
		if found {
			maps = append(maps, buf.Bytes())
		}
	}
	return maps
}

// surfaceShading is the resolved parameter set one SURF block is written
// from.
type surfaceShading struct {
	color            [3]float32
	diffuse          float32
	luminosity       float32
	specular         float32
	gloss            float32
	smoothingAngle   float32
	vertexColorLayer string
}

// fallbackShading reproduces the parameters used when a tag's material
// record is missing or incomplete: white diffuse, modest specular, no
// smoothing.
func fallbackShading() surfaceShading {
	return surfaceShading{
		color:    [3]float32{1, 1, 1},
		diffuse:  1.0,
		specular: 0.2,
	}
}

// resolveShading looks the surface name up on its contributing mesh and
// converts the material record to output parameters. Records flagged as
// incomplete, or with a hardness the gloss conversion cannot represent,
// degrade to the fallback set wholesale.
func resolveShading(mesh *scene.Mesh, name string, smoothing SmoothingMode) surfaceShading {
	mat := mesh.MaterialByName(name)
	if mat == nil || !mat.HasShading || mat.Hardness < 4 {
		return fallbackShading()
	}

	var sman float32
	switch smoothing {
	case SmoothingFull:
		sman = fullSmoothingAngle
	case SmoothingFromSource:
		if mesh.AutoSmooth {
			sman = mesh.SmoothingAngle
		}
	}

	return surfaceShading{
		color:            mat.Color,
		diffuse:          mat.Diffuse,
		luminosity:       mat.Luminosity,
		specular:         mat.Specular,
		gloss:            math32.Sqrt((mat.Hardness - 4) / 400),
		smoothingAngle:   sman,
		vertexColorLayer: mat.VertexColorLayer,
	}
}

// generateSurface produces one SURF payload: the surface name followed by
// the shading sub-chunks. Scalar sub-chunks carry a reserved 16-bit envelope
// field after the value; SMAN does not.
func generateSurface(name string, sh surfaceShading) []byte {
	buf := new(bytes.Buffer)
	appendName(buf, name)

	appendSubChunk(buf, "COLR", nil) // placeholder

	colr := new(bytes.Buffer)
	appendF32(colr, sh.color[0])
	appendF32(colr, sh.color[1])
	appendF32(colr, sh.color[2])
	appendU16(colr, 0)
	appendSubChunk(buf, "COLR", colr.Bytes())

	appendScalarSubChunk(buf, "DIFF", sh.diffuse)
	appendScalarSubChunk(buf, "LUMI", sh.luminosity)
	appendScalarSubChunk(buf, "SPEC", sh.specular)
	appendScalarSubChunk(buf, "GLOS", sh.gloss)

	if sh.vertexColorLayer != "" {
		vcol := new(bytes.Buffer)
		appendF32(vcol, 1.0) // intensity
		appendU16(vcol, 0)   // envelope
		vcol.WriteString("RGBA")
		appendName(vcol, sh.vertexColorLayer)
		appendSubChunk(buf, "VCOL", vcol.Bytes())
	}

	sman := new(bytes.Buffer)
	appendF32(sman, sh.smoothingAngle)
	appendSubChunk(buf, "SMAN", sman.Bytes())

	return buf.Bytes()
}

// generateDefaultSurface produces the fixed fallback SURF payload written
// for meshes with no real material: gray diffuse, no emission, fixed
// specular and gloss.
func generateDefaultSurface() []byte {
	buf := new(bytes.Buffer)
	appendName(buf, DefaultSurfaceName)

	colr := new(bytes.Buffer)
	appendF32(colr, 0.9)
	appendF32(colr, 0.9)
	appendF32(colr, 0.9)
	appendU16(colr, 0)
	appendSubChunk(buf, "COLR", colr.Bytes())

	appendScalarSubChunk(buf, "DIFF", 0.8)
	appendScalarSubChunk(buf, "LUMI", 0)
	appendScalarSubChunk(buf, "SPEC", 0.4)
	appendScalarSubChunk(buf, "GLOS", 0.4)

	return buf.Bytes()
}

func appendScalarSubChunk(buf *bytes.Buffer, tag string, v float32) {
	payload := new(bytes.Buffer)
	appendF32(payload, v)
	appendU16(payload, 0) // envelope
	appendSubChunk(buf, tag, payload.Bytes())
}

// generateClip produces one CLIP payload: the clip index and a STIL
// sub-chunk naming the still image file.
func generateClip(id uint32, imagePath string) []byte {
	buf := new(bytes.Buffer)
	appendU32(buf, id)
	still := new(bytes.Buffer)
	appendName(still, imagePath)
	appendSubChunk(buf, "STIL", still.Bytes())
	return buf.Bytes()
}
