// Package obj reads Wavefront OBJ scene descriptions and material libraries
// into export snapshots. It is a host adapter: the output is a read-only
// scene.Scene ready for encoding, and nothing here depends on the encoder.
package obj

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	gmath "github.com/Faultbox/lwotool/pkg/math"
	"github.com/Faultbox/lwotool/pkg/scene"
)

// Default smoothing angle for objects enabling smooth shading ("s on"), in
// radians. OBJ has no per-object angle, so a conventional 30 degrees is
// used.
const defaultSmoothingAngle = 0.5235988

// Options control how OBJ input maps onto the snapshot model.
type Options struct {
	// Triangulate splits faces with more than three vertices into
	// triangle fans. Faces are kept as authored n-gons otherwise.
	Triangulate bool
}

// ReadFile parses an OBJ file (and any material libraries it references,
// resolved relative to it) into a scene snapshot.
func ReadFile(path string, opts Options, log *zap.Logger) (*scene.Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scene: %w", err)
	}
	defer f.Close()

	r := newReader(opts, log, filepath.Dir(path))
	if err := r.parse(f, path); err != nil {
		return nil, err
	}
	return r.finish()
}

// Read parses OBJ data from r. name is used in error messages; material
// library references are resolved relative to the current directory.
func Read(src io.Reader, name string, opts Options, log *zap.Logger) (*scene.Scene, error) {
	r := newReader(opts, log, ".")
	if err := r.parse(src, name); err != nil {
		return nil, err
	}
	return r.finish()
}

type reader struct {
	log     *zap.Logger
	opts    Options
	baseDir string

	// OBJ coordinate lists are file-global and 1-based; negative
	// indices count from the end.
	positions []gmath.Vec3
	uvs       []gmath.Vec2

	materials []scene.Material
	matIndex  map[string]int
	curMat    int

	objects []*objectState
	cur     *objectState
}

// objectState accumulates one object's mesh while remapping file-global
// indices into the mesh-local 0-based index space the snapshot model uses.
type objectState struct {
	name     string
	mesh     *scene.Mesh
	vertMap  map[int]int
	localMat map[int]int
	uvRows   [][]gmath.Vec2
	hasUV    bool
	smooth   bool
}

func newReader(opts Options, log *zap.Logger, baseDir string) *reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &reader{
		log:      log,
		opts:     opts,
		baseDir:  baseDir,
		matIndex: make(map[string]int),
		curMat:   -1,
	}
}

func (r *reader) parse(src io.Reader, path string) error {
	scanner := bufio.NewScanner(src)
	line := 0
	for scanner.Scan() {
		line++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
			continue
		}

		var err error
		switch tokens[0] {
		case "mtllib":
			if len(tokens) != 2 {
				err = fmt.Errorf("mtllib expects 1 argument, got %d", len(tokens)-1)
				break
			}
			err = r.parseMaterialLibrary(filepath.Join(r.baseDir, tokens[1]))
		case "usemtl":
			if len(tokens) != 2 {
				err = fmt.Errorf("usemtl expects 1 argument, got %d", len(tokens)-1)
				break
			}
			idx, ok := r.matIndex[tokens[1]]
			if !ok {
				err = fmt.Errorf("undefined material %q", tokens[1])
				break
			}
			r.curMat = idx
		case "v":
			var v gmath.Vec3
			v, err = parseVec3(tokens)
			r.positions = append(r.positions, v)
		case "vt":
			var v gmath.Vec2
			v, err = parseVec2(tokens)
			r.uvs = append(r.uvs, v)
		case "o", "g":
			if len(tokens) < 2 {
				err = fmt.Errorf("%q expects an object name", tokens[0])
				break
			}
			r.startObject(tokens[1])
		case "s":
			if len(tokens) == 2 {
				r.object().smooth = tokens[1] != "off" && tokens[1] != "0"
			}
		case "f":
			err = r.parseFace(tokens)
		case "l":
			err = r.parseLine(tokens)
		}
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

func (r *reader) startObject(name string) {
	r.cur = &objectState{
		name:     name,
		mesh:     &scene.Mesh{},
		vertMap:  make(map[int]int),
		localMat: make(map[int]int),
	}
	r.objects = append(r.objects, r.cur)
}

// object returns the current object, creating a default one for files that
// start emitting geometry before any "o" statement.
func (r *reader) object() *objectState {
	if r.cur == nil {
		r.startObject("default")
	}
	return r.cur
}

// localVertex maps a file-global position index into the current object's
// vertex list, copying the position on first use.
func (o *objectState) localVertex(global int, positions []gmath.Vec3) int {
	if local, ok := o.vertMap[global]; ok {
		return local
	}
	local := len(o.mesh.Vertices)
	o.mesh.Vertices = append(o.mesh.Vertices, positions[global])
	o.vertMap[global] = local
	return local
}

// localMaterial maps a reader-global material index into the current
// object's material list, copying the record on first use.
func (o *objectState) localMaterial(global int, materials []scene.Material) int {
	if global < 0 {
		return -1
	}
	if local, ok := o.localMat[global]; ok {
		return local
	}
	local := len(o.mesh.Materials)
	o.mesh.Materials = append(o.mesh.Materials, materials[global])
	o.localMat[global] = local
	return local
}

func (r *reader) parseFace(tokens []string) error {
	if len(tokens) < 4 {
		return fmt.Errorf("face expects at least 3 vertices, got %d", len(tokens)-1)
	}
	obj := r.object()

	verts := make([]int, 0, len(tokens)-1)
	uvRow := make([]gmath.Vec2, 0, len(tokens)-1)
	hasUV := false
	for _, arg := range tokens[1:] {
		parts := strings.Split(arg, "/")
		if parts[0] == "" {
			return fmt.Errorf("face argument %q lacks a vertex index", arg)
		}
		global, err := resolveIndex(parts[0], len(r.positions))
		if err != nil {
			return fmt.Errorf("vertex index %q: %w", parts[0], err)
		}
		verts = append(verts, obj.localVertex(global, r.positions))

		var uv gmath.Vec2
		if len(parts) > 1 && parts[1] != "" {
			uvIdx, err := resolveIndex(parts[1], len(r.uvs))
			if err != nil {
				return fmt.Errorf("uv index %q: %w", parts[1], err)
			}
			uv = r.uvs[uvIdx]
			hasUV = true
		}
		uvRow = append(uvRow, uv)
	}

	matIdx := obj.localMaterial(r.curMat, r.materials)
	if hasUV {
		obj.hasUV = true
	}

	if r.opts.Triangulate && len(verts) > 3 {
		for i := 1; i < len(verts)-1; i++ {
			obj.mesh.Polygons = append(obj.mesh.Polygons, scene.Polygon{
				Vertices:      []int{verts[0], verts[i], verts[i+1]},
				MaterialIndex: matIdx,
			})
			obj.uvRows = append(obj.uvRows, []gmath.Vec2{uvRow[0], uvRow[i], uvRow[i+1]})
		}
		return nil
	}

	obj.mesh.Polygons = append(obj.mesh.Polygons, scene.Polygon{
		Vertices:      verts,
		MaterialIndex: matIdx,
	})
	obj.uvRows = append(obj.uvRows, uvRow)
	return nil
}

// parseLine turns a polyline statement into authored wire edges, one per
// consecutive index pair.
func (r *reader) parseLine(tokens []string) error {
	if len(tokens) < 3 {
		return fmt.Errorf("line expects at least 2 vertices, got %d", len(tokens)-1)
	}
	obj := r.object()

	prev := -1
	for _, arg := range tokens[1:] {
		global, err := resolveIndex(arg, len(r.positions))
		if err != nil {
			return fmt.Errorf("line vertex index %q: %w", arg, err)
		}
		local := obj.localVertex(global, r.positions)
		if prev >= 0 {
			obj.mesh.Edges = append(obj.mesh.Edges, [2]int{prev, local})
		}
		prev = local
	}
	return nil
}

func (r *reader) parseMaterialLibrary(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening material library: %w", err)
	}
	defer f.Close()
	r.log.Debug("parsing material library", zap.String("path", path))

	scanner := bufio.NewScanner(f)
	line := 0
	var cur *scene.Material
	for scanner.Scan() {
		line++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
			continue
		}

		if tokens[0] == "newmtl" {
			if len(tokens) != 2 {
				return fmt.Errorf("%s:%d: newmtl expects 1 argument", path, line)
			}
			name := tokens[1]
			if _, exists := r.matIndex[name]; exists {
				return fmt.Errorf("%s:%d: material %q already defined", path, line, name)
			}
			r.materials = append(r.materials, scene.Material{
				Name:            name,
				Color:           [3]float32{0.8, 0.8, 0.8},
				Diffuse:         1.0,
				Hardness:        50,
				RefractionIndex: 1.0,
				HasShading:      true,
			})
			r.matIndex[name] = len(r.materials) - 1
			cur = &r.materials[len(r.materials)-1]
			continue
		}
		if cur == nil {
			return fmt.Errorf("%s:%d: %q before newmtl", path, line, tokens[0])
		}

		var err error
		switch tokens[0] {
		case "Kd":
			var v gmath.Vec3
			if v, err = parseVec3(tokens); err == nil {
				cur.Color = [3]float32{v.X, v.Y, v.Z}
			}
		case "Ks":
			var v gmath.Vec3
			if v, err = parseVec3(tokens); err == nil {
				cur.Specular = maxComponent(v)
			}
		case "Ke":
			var v gmath.Vec3
			if v, err = parseVec3(tokens); err == nil {
				cur.Luminosity = maxComponent(v)
			}
		case "Ns":
			var ns float32
			if ns, err = parseFloat(tokens); err == nil {
				// The gloss conversion cannot represent values
				// below 4.
				if ns < 4 {
					ns = 4
				}
				cur.Hardness = ns
			}
		case "Ni":
			cur.RefractionIndex, err = parseFloat(tokens)
		case "d":
			var d float32
			if d, err = parseFloat(tokens); err == nil {
				cur.Transparency = 1 - d
			}
		case "map_Kd":
			if len(tokens) >= 2 {
				cur.ImagePath = tokens[len(tokens)-1]
			}
		}
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
	}
	return scanner.Err()
}

// finish assembles the parsed objects into a scene, attaching UV layers and
// smoothing state and dropping objects that never received geometry.
func (r *reader) finish() (*scene.Scene, error) {
	sc := &scene.Scene{}
	for _, obj := range r.objects {
		if len(obj.mesh.Vertices) == 0 && len(obj.mesh.Polygons) == 0 {
			r.log.Warn("dropping empty object", zap.String("name", obj.name))
			continue
		}
		if obj.hasUV {
			obj.mesh.UVLayers = []scene.UVLayer{{Name: "UVMap", Corners: obj.uvRows}}
		}
		if obj.smooth {
			obj.mesh.AutoSmooth = true
			obj.mesh.SmoothingAngle = defaultSmoothingAngle
		}
		sc.Objects = append(sc.Objects, &scene.Object{
			Name: obj.name,
			Mesh: obj.mesh,
		})
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scene: %w", err)
	}
	r.log.Info("parsed obj scene",
		zap.Int("objects", len(sc.Objects)),
		zap.Int("materials", len(r.materials)))
	return sc, nil
}

// resolveIndex converts a 1-based, possibly negative OBJ index into a
// 0-based offset.
func resolveIndex(token string, listLen int) (int, error) {
	index, err := strconv.Atoi(token)
	if err != nil {
		return 0, err
	}
	var offset int
	if index < 0 {
		offset = listLen + index
	} else {
		offset = index - 1
	}
	if offset < 0 || offset >= listLen {
		return 0, fmt.Errorf("index out of bounds")
	}
	return offset, nil
}

func parseFloat(tokens []string) (float32, error) {
	if len(tokens) < 2 {
		return 0, fmt.Errorf("%q expects 1 argument", tokens[0])
	}
	v, err := strconv.ParseFloat(tokens[1], 32)
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}

func parseVec3(tokens []string) (gmath.Vec3, error) {
	if len(tokens) < 4 {
		return gmath.Vec3{}, fmt.Errorf("%q expects 3 arguments, got %d", tokens[0], len(tokens)-1)
	}
	var out [3]float32
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(tokens[i+1], 32)
		if err != nil {
			return gmath.Vec3{}, err
		}
		out[i] = float32(v)
	}
	return gmath.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}

func parseVec2(tokens []string) (gmath.Vec2, error) {
	if len(tokens) < 3 {
		return gmath.Vec2{}, fmt.Errorf("%q expects 2 arguments, got %d", tokens[0], len(tokens)-1)
	}
	var out [2]float32
	for i := 0; i < 2; i++ {
		v, err := strconv.ParseFloat(tokens[i+1], 32)
		if err != nil {
			return gmath.Vec2{}, err
		}
		out[i] = float32(v)
	}
	return gmath.Vec2{X: out[0], Y: out[1]}, nil
}

func maxComponent(v gmath.Vec3) float32 {
	m := v.X
	if v.Y > m {
		m = v.Y
	}
	if v.Z > m {
		m = v.Z
	}
	return m
}
