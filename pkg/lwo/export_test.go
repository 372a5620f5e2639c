package lwo

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	gmath "github.com/Faultbox/lwotool/pkg/math"
	"github.com/Faultbox/lwotool/pkg/scene"
)

func triangleObject(name string) *scene.Object {
	return &scene.Object{
		Name: name,
		Mesh: &scene.Mesh{
			Vertices: []gmath.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}},
			Polygons: []scene.Polygon{{Vertices: []int{0, 1, 2}, MaterialIndex: -1}},
		},
	}
}

func exportToFile(t *testing.T, e *Exporter, sc *scene.Scene, path string) []byte {
	t.Helper()
	if err := e.Export(sc, path); err != nil {
		t.Fatalf("Export: %v", err)
	}
	data, err := os.ReadFile(ensureExtension(path))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	return data
}

func chunkTags(chunks []decodedChunk) []string {
	tags := make([]string, len(chunks))
	for i, c := range chunks {
		tags[i] = c.tag
	}
	return tags
}

func TestExportSingleTriangle(t *testing.T) {
	sc := &scene.Scene{Objects: []*scene.Object{triangleObject("Triangle")}}
	e := NewExporter(Options{}, nil)

	// Extension must be appended when missing.
	path := filepath.Join(t.TempDir(), "tri")
	data := exportToFile(t, e, sc, path)

	_, chunks := decodeForm(t, data)
	want := []string{"TAGS", "LAYR", "PNTS", "BBOX", "POLS", "PTAG", "SURF"}
	got := chunkTags(chunks)
	if len(got) != len(want) {
		t.Fatalf("chunk order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chunk order = %v, want %v", got, want)
		}
	}

	// A material-less mesh gets exactly one surface: the reserved
	// default.
	tagsName, _ := readName(t, chunks[0].payload, 0)
	if tagsName != DefaultSurfaceName {
		t.Errorf("tag table entry = %q, want %q", tagsName, DefaultSurfaceName)
	}
	surfName, _ := readName(t, chunks[6].payload, 0)
	if surfName != DefaultSurfaceName {
		t.Errorf("surface name = %q, want %q", surfName, DefaultSurfaceName)
	}

	pnts := chunks[2].payload
	if len(pnts) != 36 {
		t.Fatalf("PNTS length = %d, want 36 (three points)", len(pnts))
	}
	// Third vertex (0, 1, 0) is stored axis-swapped as (0, 0, 1).
	if x, z, y := f32At(pnts, 24), f32At(pnts, 28), f32At(pnts, 32); x != 0 || z != 0 || y != 1 {
		t.Errorf("third point = (%v, %v, %v), want (0, 0, 1)", x, z, y)
	}

	pols := chunks[4].payload
	if string(pols[:4]) != "FACE" {
		t.Fatalf("POLS type = %q", pols[:4])
	}
	if got := u16At(pols, 4); got != 3 {
		t.Fatalf("POLS vertex count = %d, want 3", got)
	}
	pos := 6
	for _, wantIdx := range []int{2, 1, 0} {
		var idx int
		idx, pos = readIndex(t, pols, pos)
		if idx != wantIdx {
			t.Errorf("POLS index = %d, want %d", idx, wantIdx)
		}
	}
	// A lone triangle with no authored wire edges yields no synthetic
	// edge entries.
	if pos != len(pols) {
		t.Errorf("POLS carries %d unexpected trailing bytes", len(pols)-pos)
	}
}

func TestExportIndexIntegrity(t *testing.T) {
	obj := triangleObject("T")
	obj.Mesh.Vertices = append(obj.Mesh.Vertices, gmath.Vec3{X: 2, Y: 2, Z: 2})
	obj.Mesh.Polygons = append(obj.Mesh.Polygons, scene.Polygon{Vertices: []int{1, 2, 3}, MaterialIndex: -1})
	obj.Mesh.Edges = [][2]int{{0, 3}}
	obj.Mesh.UVLayers = []scene.UVLayer{{
		Name: "UVMap",
		Corners: [][]gmath.Vec2{
			{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
			{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}},
		},
	}}

	sc := &scene.Scene{Objects: []*scene.Object{obj}}
	data := exportToFile(t, NewExporter(Options{}, nil), sc, filepath.Join(t.TempDir(), "mesh.lwo"))
	_, chunks := decodeForm(t, data)

	nverts := len(obj.Mesh.Vertices)
	npolys := len(obj.Mesh.Polygons)
	for _, c := range chunks {
		switch c.tag {
		case "POLS":
			pos := 4
			for pos < len(c.payload) {
				count := int(u16At(c.payload, pos))
				pos += 2
				for i := 0; i < count; i++ {
					var idx int
					idx, pos = readIndex(t, c.payload, pos)
					if idx < 0 || idx >= nverts {
						t.Errorf("POLS vertex index %d out of range", idx)
					}
				}
			}
		case "PTAG":
			pos := 4
			for pos < len(c.payload) {
				var poly int
				poly, pos = readIndex(t, c.payload, pos)
				if poly < 0 || poly >= npolys {
					t.Errorf("PTAG polygon index %d out of range", poly)
				}
				pos += 2
			}
		case "VMAD":
			dim := int(u16At(c.payload, 4))
			_, pos := readName(t, c.payload, 6)
			for pos < len(c.payload) {
				var vert, poly int
				vert, pos = readIndex(t, c.payload, pos)
				poly, pos = readIndex(t, c.payload, pos)
				if vert < 0 || vert >= nverts {
					t.Errorf("VMAD vertex index %d out of range", vert)
				}
				if poly < 0 || poly >= npolys {
					t.Errorf("VMAD polygon index %d out of range", poly)
				}
				pos += dim * 4
			}
		}
	}
}

func TestExportEmptyMesh(t *testing.T) {
	sc := &scene.Scene{Objects: []*scene.Object{{Name: "Empty", Mesh: &scene.Mesh{}}}}
	data := exportToFile(t, NewExporter(Options{}, nil), sc, filepath.Join(t.TempDir(), "empty.lwo"))

	_, chunks := decodeForm(t, data)
	byTag := map[string]decodedChunk{}
	for _, c := range chunks {
		byTag[c.tag] = c
	}

	if got := len(byTag["PNTS"].payload); got != 0 {
		t.Errorf("PNTS length = %d, want 0", got)
	}
	if got := len(byTag["BBOX"].payload); got != 24 {
		t.Errorf("BBOX length = %d, want 24", got)
	}
	if got := byTag["POLS"].payload; string(got) != "FACE" {
		t.Errorf("POLS payload = %v, want bare FACE tag", got)
	}
	if got := byTag["PTAG"].payload; string(got) != "SURF" {
		t.Errorf("PTAG payload = %v, want bare SURF tag", got)
	}
}

func TestExportChunkOrderWithLayers(t *testing.T) {
	obj := triangleObject("Layered")
	obj.Mesh.Materials = []scene.Material{{Name: "Mat", Hardness: 50, HasShading: true, ImagePath: "tex.png"}}
	obj.Mesh.Polygons[0].MaterialIndex = 0
	obj.Mesh.UVLayers = []scene.UVLayer{{
		Name:    "UVMap",
		Corners: [][]gmath.Vec2{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}},
	}}
	obj.Mesh.ColorLayers = []scene.ColorLayer{{
		Name:    "Col",
		Corners: [][]scene.RGBA{{{1, 1, 1, 1}, {1, 0, 0, 1}, {0, 0, 0, 1}}},
	}}

	sc := &scene.Scene{Objects: []*scene.Object{obj}}
	data := exportToFile(t, NewExporter(Options{}, nil), sc, filepath.Join(t.TempDir(), "layered.lwo"))

	_, chunks := decodeForm(t, data)
	want := []string{"TAGS", "LAYR", "PNTS", "BBOX", "VMAD", "POLS", "PTAG", "VMAD", "CLIP", "SURF"}
	got := chunkTags(chunks)
	if len(got) != len(want) {
		t.Fatalf("chunk order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chunk order = %v, want %v", got, want)
		}
	}

	// The color map precedes POLS, the UV map follows PTAG.
	if string(chunks[4].payload[:4]) != "RGBA" {
		t.Errorf("pre-POLS VMAD type = %q, want RGBA", chunks[4].payload[:4])
	}
	if string(chunks[7].payload[:4]) != "TXUV" {
		t.Errorf("post-PTAG VMAD type = %q, want TXUV", chunks[7].payload[:4])
	}
}

func TestExportLayerNumbering(t *testing.T) {
	sc := &scene.Scene{Objects: []*scene.Object{
		triangleObject("B"),
		triangleObject("A"),
	}}
	data := exportToFile(t, NewExporter(Options{}, nil), sc, filepath.Join(t.TempDir(), "two.lwo"))

	_, chunks := decodeForm(t, data)
	var layers []decodedChunk
	for _, c := range chunks {
		if c.tag == "LAYR" {
			layers = append(layers, c)
		}
	}
	if len(layers) != 2 {
		t.Fatalf("got %d LAYR chunks, want 2", len(layers))
	}

	// Objects export in name order, numbered from zero.
	for i, c := range layers {
		if got := u16At(c.payload, 0); int(got) != i {
			t.Errorf("layer %d numbered %d", i, got)
		}
	}
	name0, _ := readName(t, layers[0].payload, 16)
	name1, _ := readName(t, layers[1].payload, 16)
	if name0 != "A" || name1 != "B" {
		t.Errorf("layer names = %q, %q; want name order A, B", name0, name1)
	}
}

// layerPayloads extracts the geometry chunk payloads of each layer, keyed by
// chunk tag, in per-layer groups.
func layerPayloads(chunks []decodedChunk) [][]decodedChunk {
	var groups [][]decodedChunk
	for _, c := range chunks {
		switch c.tag {
		case "LAYR":
			groups = append(groups, nil)
		case "PNTS", "BBOX", "POLS", "PTAG", "VMAD":
			if len(groups) > 0 {
				groups[len(groups)-1] = append(groups[len(groups)-1], c)
			}
		}
	}
	return groups
}

func TestBatchMatchesCombined(t *testing.T) {
	// Both objects reference the same material name so the per-file and
	// shared tag tables resolve to identical surface indices.
	makeObj := func(name string, shift float32) *scene.Object {
		obj := triangleObject(name)
		for i := range obj.Mesh.Vertices {
			obj.Mesh.Vertices[i].X += shift
		}
		obj.Mesh.Materials = []scene.Material{{Name: "Shared", Hardness: 50, HasShading: true}}
		obj.Mesh.Polygons[0].MaterialIndex = 0
		return obj
	}
	sc := &scene.Scene{Objects: []*scene.Object{makeObj("One", 0), makeObj("Two", 3)}}

	e := NewExporter(Options{Scale: 2}, nil)
	combined := exportToFile(t, e, sc, filepath.Join(t.TempDir(), "combined.lwo"))

	batchDir := t.TempDir()
	if err := e.ExportBatch(sc, batchDir); err != nil {
		t.Fatalf("ExportBatch: %v", err)
	}

	_, combinedChunks := decodeForm(t, combined)
	groups := layerPayloads(combinedChunks)
	if len(groups) != 2 {
		t.Fatalf("combined file has %d layers, want 2", len(groups))
	}

	for i, name := range []string{"One", "Two"} {
		data, err := os.ReadFile(filepath.Join(batchDir, name+".lwo"))
		if err != nil {
			t.Fatalf("reading batch file: %v", err)
		}
		_, chunks := decodeForm(t, data)
		batchGroups := layerPayloads(chunks)
		if len(batchGroups) != 1 {
			t.Fatalf("batch file %s has %d layers, want 1", name, len(batchGroups))
		}

		want := groups[i]
		got := batchGroups[0]
		if len(got) != len(want) {
			t.Fatalf("layer %d chunk count: batch %d, combined %d", i, len(got), len(want))
		}
		for j := range want {
			if got[j].tag != want[j].tag {
				t.Errorf("layer %d chunk %d tag: batch %s, combined %s", i, j, got[j].tag, want[j].tag)
				continue
			}
			if !bytes.Equal(got[j].payload, want[j].payload) {
				t.Errorf("layer %d %s payload differs between batch and combined", i, want[j].tag)
			}
		}
	}
}

func TestExportBatchFileNames(t *testing.T) {
	sc := &scene.Scene{Objects: []*scene.Object{triangleObject("My Object.001")}}
	dir := t.TempDir()
	if err := NewExporter(Options{}, nil).ExportBatch(sc, dir); err != nil {
		t.Fatalf("ExportBatch: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "My_Object_001.lwo")); err != nil {
		t.Errorf("normalized batch file missing: %v", err)
	}
}

func TestExportBatchContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	// A name that collides with an existing directory forces the create
	// to fail for that object only.
	if err := os.Mkdir(filepath.Join(dir, "Bad.lwo"), 0o755); err != nil {
		t.Fatal(err)
	}

	sc := &scene.Scene{Objects: []*scene.Object{
		triangleObject("Bad"),
		triangleObject("Good"),
	}}
	err := NewExporter(Options{}, nil).ExportBatch(sc, dir)
	if err == nil {
		t.Fatal("expected aggregated error for failing object")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "Good.lwo")); statErr != nil {
		t.Errorf("remaining object was not exported: %v", statErr)
	}
}

func TestExportInvalidScene(t *testing.T) {
	sc := &scene.Scene{Objects: []*scene.Object{{
		Name: "Broken",
		Mesh: &scene.Mesh{Polygons: []scene.Polygon{{Vertices: []int{0, 1, 2}, MaterialIndex: -1}}},
	}}}
	if err := NewExporter(Options{}, nil).Export(sc, filepath.Join(t.TempDir(), "x.lwo")); err == nil {
		t.Error("expected validation error for out-of-range vertex indices")
	}
}

func TestOptionsSanitize(t *testing.T) {
	tests := []struct {
		in   float32
		want float32
	}{
		{0, 1},
		{0.001, 0.01},
		{5000, 1000},
		{2, 2},
	}
	for _, tt := range tests {
		o := Options{Scale: tt.in}
		o.sanitize()
		if o.Scale != tt.want {
			t.Errorf("sanitize scale %v = %v, want %v", tt.in, o.Scale, tt.want)
		}
	}

	o := Options{}
	o.sanitize()
	if o.Smoothing != SmoothingFromSource {
		t.Errorf("default smoothing = %q, want from-source", o.Smoothing)
	}
}
