package lwo

import "github.com/Faultbox/lwotool/pkg/scene"

// tagTable is the ordered list of surface names referenced by one output
// file. Its order fixes the surface indices polygons store: a polygon's
// material name resolves to the first table position carrying that name.
// The table is built once per output file, never per mesh.
type tagTable struct {
	entries []tagEntry
	first   map[string]int
}

// tagEntry pairs a surface name with the mesh that contributed it, so the
// surface block can later be generated from that mesh's material list and
// smoothing state.
type tagEntry struct {
	name string
	mesh *scene.Mesh
}

// buildTagTable walks the meshes in layer order. A mesh with materials
// contributes each material name (duplicates across meshes are kept, one
// entry per referencing mesh); a material-less mesh with vertex colors
// contributes the reserved vertex-color surface; anything else contributes
// the reserved default surface. Every exported polygon therefore always has
// a resolvable surface index.
func buildTagTable(meshes []*scene.Mesh) *tagTable {
	t := &tagTable{first: make(map[string]int)}
	for _, m := range meshes {
		switch {
		case len(m.Materials) > 0:
			for i := range m.Materials {
				t.add(m.Materials[i].Name, m)
			}
		case len(m.ColorLayers) > 0:
			t.add(VertexColorSurfaceName, m)
		default:
			t.add(DefaultSurfaceName, m)
		}
	}
	return t
}

func (t *tagTable) add(name string, mesh *scene.Mesh) {
	if _, ok := t.first[name]; !ok {
		t.first[name] = len(t.entries)
	}
	t.entries = append(t.entries, tagEntry{name: name, mesh: mesh})
}

// indexOf resolves a surface name to its first table position. Unknown names
// degrade to index 0 rather than failing the export.
func (t *tagTable) indexOf(name string) int {
	if i, ok := t.first[name]; ok {
		return i
	}
	return 0
}
