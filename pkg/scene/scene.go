// Package scene defines the read-only snapshot model consumed by the LWO
// encoder. A snapshot is assembled by a host adapter immediately before an
// export and discarded afterwards; nothing in this package or in the encoder
// mutates it.
package scene

import (
	"fmt"
	"sort"

	"github.com/Faultbox/lwotool/pkg/math"
)

// RGBA is a per-corner color quadruple.
type RGBA [4]float32

// Scene is an ordered collection of objects selected for export.
type Scene struct {
	Objects []*Object
}

// SortedObjects returns the objects sorted by name. Export order must be
// deterministic, and name order is the one the output format's layer
// numbering is derived from.
func (s *Scene) SortedObjects() []*Object {
	sorted := make([]*Object, len(s.Objects))
	copy(sorted, s.Objects)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// Object is a named mesh with a pivot location. Each object becomes one
// layer in the output file.
type Object struct {
	Name  string
	Pivot math.Vec3
	Mesh  *Mesh
}

// Mesh holds the finalized geometry of one object in local space.
//
// Vertex positions are index-addressable from polygons and edges, 0-based.
// Edges lists authored wire edges; edges implied by polygon perimeters do
// not appear here. UV and color layers store data per corner (polygon,
// vertex-within-polygon), so two polygons sharing a vertex may disagree at
// that vertex (seams).
type Mesh struct {
	Vertices    []math.Vec3
	Polygons    []Polygon
	Edges       [][2]int
	UVLayers    []UVLayer
	ColorLayers []ColorLayer
	Materials   []Material

	// AutoSmooth carries the source object's smoothing state;
	// SmoothingAngle is in radians and only meaningful when AutoSmooth
	// is set.
	AutoSmooth     bool
	SmoothingAngle float32
}

// Polygon is an ordered vertex-index list in authored winding order.
// MaterialIndex points into the owning mesh's material list, -1 when the
// polygon has no assignment.
type Polygon struct {
	Vertices      []int
	MaterialIndex int
}

// UVLayer stores one 2D texture coordinate per corner. Corners[i][j] belongs
// to vertex j of polygon i.
type UVLayer struct {
	Name    string
	Corners [][]math.Vec2
}

// ColorLayer stores one RGBA color per corner, shaped like UVLayer.Corners.
type ColorLayer struct {
	Name    string
	Corners [][]RGBA
}

// Material describes the shading parameters of one surface.
//
// HasShading reports whether the record carries a complete parameter set;
// when false the encoder substitutes built-in fallback values instead of
// reading the zero-valued fields.
type Material struct {
	Name string

	Color      [3]float32
	Diffuse    float32
	Luminosity float32
	Specular   float32

	// Hardness is converted to glossiness as sqrt((hardness-4)/400);
	// values below 4 mark the record as unusable.
	Hardness float32

	// The ray-tracing parameters below are carried for model completeness
	// only; the LWO2 encoder writes no sub-chunks for them.
	Reflectivity     float32
	ReflectionBlur   float32
	RefractionIndex  float32
	Transparency     float32
	TransparencyBlur float32
	Translucency     float32

	// VertexColorLayer optionally names a color layer used as a
	// rendering hint for this surface.
	VertexColorLayer string

	// ImagePath optionally references a still image used as a texture
	// clip.
	ImagePath string

	HasShading bool
}

// MaterialByName returns the mesh's material with the given name, or nil.
func (m *Mesh) MaterialByName(name string) *Material {
	for i := range m.Materials {
		if m.Materials[i].Name == name {
			return &m.Materials[i]
		}
	}
	return nil
}

// Validate checks the structural invariants the encoder relies on: polygon
// and edge indices in range, polygons with at least 3 vertices, and layer
// shapes matching the polygon list. Material indices are not checked here;
// out-of-range references degrade to surface index 0 during encoding.
func (m *Mesh) Validate() error {
	nverts := len(m.Vertices)
	for i, p := range m.Polygons {
		if len(p.Vertices) < 3 {
			return fmt.Errorf("polygon %d has %d vertices, need at least 3", i, len(p.Vertices))
		}
		for _, v := range p.Vertices {
			if v < 0 || v >= nverts {
				return fmt.Errorf("polygon %d references vertex %d of %d", i, v, nverts)
			}
		}
	}
	for i, e := range m.Edges {
		for _, v := range e {
			if v < 0 || v >= nverts {
				return fmt.Errorf("edge %d references vertex %d of %d", i, v, nverts)
			}
		}
	}
	for _, l := range m.UVLayers {
		if len(l.Corners) != len(m.Polygons) {
			return fmt.Errorf("uv layer %q has %d rows for %d polygons", l.Name, len(l.Corners), len(m.Polygons))
		}
		for i, row := range l.Corners {
			if len(row) != len(m.Polygons[i].Vertices) {
				return fmt.Errorf("uv layer %q row %d has %d corners for %d vertices", l.Name, i, len(row), len(m.Polygons[i].Vertices))
			}
		}
	}
	for _, l := range m.ColorLayers {
		if len(l.Corners) != len(m.Polygons) {
			return fmt.Errorf("color layer %q has %d rows for %d polygons", l.Name, len(l.Corners), len(m.Polygons))
		}
		for i, row := range l.Corners {
			if len(row) != len(m.Polygons[i].Vertices) {
				return fmt.Errorf("color layer %q row %d has %d corners for %d vertices", l.Name, i, len(row), len(m.Polygons[i].Vertices))
			}
		}
	}
	return nil
}

// Validate checks every object's mesh.
func (s *Scene) Validate() error {
	for _, obj := range s.Objects {
		if obj.Mesh == nil {
			return fmt.Errorf("object %q has no mesh", obj.Name)
		}
		if err := obj.Mesh.Validate(); err != nil {
			return fmt.Errorf("object %q: %w", obj.Name, err)
		}
	}
	return nil
}
