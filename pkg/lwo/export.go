package lwo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chewxy/math32"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/lwotool/pkg/scene"
)

// SmoothingMode selects how the SMAN smoothing angle of generated surfaces
// is chosen.
type SmoothingMode string

const (
	// SmoothingNone writes a zero smoothing angle everywhere.
	SmoothingNone SmoothingMode = "none"
	// SmoothingFull writes the format's conventional maximum smoothing
	// angle for every surface.
	SmoothingFull SmoothingMode = "full"
	// SmoothingFromSource carries over each mesh's own smoothing state.
	SmoothingFromSource SmoothingMode = "from-source"
)

// 89.5 degrees, the conventional "smooth everything" threshold.
const fullSmoothingAngle = 89.5 * math32.Pi / 180

const (
	minScale = 0.01
	maxScale = 1000
)

// Options control the encoding of one export run.
type Options struct {
	// Smoothing selects the surface smoothing-angle policy. Zero value
	// behaves like SmoothingFromSource.
	Smoothing SmoothingMode

	// Subpatch marks polygons as subdivision patches instead of plain
	// faces.
	Subpatch bool

	// Scale is a uniform factor applied to all vertex positions,
	// clamped to [0.01, 1000]. Zero means 1.0.
	Scale float32
}

func (o *Options) sanitize() {
	if o.Smoothing == "" {
		o.Smoothing = SmoothingFromSource
	}
	if o.Scale == 0 {
		o.Scale = 1
	}
	if o.Scale < minScale {
		o.Scale = minScale
	}
	if o.Scale > maxScale {
		o.Scale = maxScale
	}
}

// Exporter encodes scene snapshots into LWO2 files. An Exporter is stateless
// between calls; every export run owns its tag table and chunk buffers
// exclusively, so a single Exporter may be used for independent runs.
type Exporter struct {
	opts Options
	log  *zap.Logger
}

// NewExporter returns an Exporter with the given options. A nil logger
// disables logging.
func NewExporter(opts Options, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	opts.sanitize()
	return &Exporter{opts: opts, log: log}
}

// Export writes all scene objects into a single file, one layer per object
// in name order. The format extension is appended to path if missing.
func (e *Exporter) Export(sc *scene.Scene, path string) error {
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("invalid scene: %w", err)
	}
	return e.exportObjects(sc.SortedObjects(), ensureExtension(path))
}

// ExportBatch writes one file per scene object into dir, each containing a
// single layer. File names derive from object names with separators
// normalized. A failing object is logged and skipped; the failures of a run
// are aggregated into the returned error.
func (e *Exporter) ExportBatch(sc *scene.Scene, dir string) error {
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("invalid scene: %w", err)
	}

	var errs error
	for _, obj := range sc.SortedObjects() {
		path := filepath.Join(dir, normalizeName(obj.Name)+FileExtension)
		if err := e.exportObjects([]*scene.Object{obj}, path); err != nil {
			e.log.Error("batch export failed",
				zap.String("object", obj.Name),
				zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("object %q: %w", obj.Name, err))
			continue
		}
	}
	return errs
}

// exportObjects materializes every chunk for one output file, then streams
// header and chunks to disk. Nothing is written until all payloads exist, so
// an error before that point leaves no partial file behind.
func (e *Exporter) exportObjects(objects []*scene.Object, path string) error {
	start := time.Now()

	chunks := e.buildChunks(objects)
	if err := writeFile(path, chunks); err != nil {
		return err
	}

	var total int
	for _, c := range chunks {
		total += len(c.payload) + 8
	}
	e.log.Info("exported lwo file",
		zap.String("path", path),
		zap.Int("layers", len(objects)),
		zap.Int("bytes", total+12),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// buildChunks generates the ordered chunk list for one output file: TAGS,
// then LAYR/PNTS/BBOX/[VMAD]/POLS/PTAG/[VMAD] per layer, then CLIP chunks,
// then one SURF per tag table entry.
func (e *Exporter) buildChunks(objects []*scene.Object) []fileChunk {
	meshes := make([]*scene.Mesh, len(objects))
	for i, obj := range objects {
		meshes[i] = obj.Mesh
	}
	table := buildTagTable(meshes)

	chunks := []fileChunk{{"TAGS", generateTags(table)}}

	for layer, obj := range objects {
		m := obj.Mesh
		chunks = append(chunks,
			fileChunk{"LAYR", generateLayer(obj.Name, layer, obj.Pivot)},
			fileChunk{"PNTS", generatePoints(m, e.opts.Scale)},
			fileChunk{"BBOX", generateBBox(m, e.opts.Scale)},
		)
		for _, p := range generateColorMaps(m) {
			chunks = append(chunks, fileChunk{"VMAD", p})
		}
		chunks = append(chunks,
			fileChunk{"POLS", generatePols(m, e.opts.Subpatch)},
			fileChunk{"PTAG", generatePtag(m, table)},
		)
		for _, p := range generateUVMaps(m) {
			chunks = append(chunks, fileChunk{"VMAD", p})
		}
	}

	chunks = append(chunks, e.buildClips(table)...)

	for _, entry := range table.entries {
		var payload []byte
		if entry.name == DefaultSurfaceName {
			payload = generateDefaultSurface()
		} else {
			payload = generateSurface(entry.name, resolveShading(entry.mesh, entry.name, e.opts.Smoothing))
		}
		chunks = append(chunks, fileChunk{"SURF", payload})
	}

	return chunks
}

// buildClips emits one CLIP chunk per distinct image referenced by the tag
// table's materials, with ids assigned from 1 in table order.
func (e *Exporter) buildClips(table *tagTable) []fileChunk {
	var clips []fileChunk
	seen := make(map[string]struct{})
	id := uint32(1)
	for _, entry := range table.entries {
		mat := entry.mesh.MaterialByName(entry.name)
		if mat == nil || mat.ImagePath == "" {
			continue
		}
		if _, ok := seen[mat.ImagePath]; ok {
			continue
		}
		seen[mat.ImagePath] = struct{}{}
		clips = append(clips, fileChunk{"CLIP", generateClip(id, mat.ImagePath)})
		id++
	}
	return clips
}

// writeFile opens the output only after every payload is final, writes the
// header and the chunk stream, and closes on all paths.
func writeFile(path string, chunks []fileChunk) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	if err = writeFormHeader(f, chunks); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, c := range chunks {
		if err = writeChunk(f, c.tag, c.payload); err != nil {
			return fmt.Errorf("writing %s chunk: %w", c.tag, err)
		}
	}
	return nil
}

func ensureExtension(path string) string {
	if strings.HasSuffix(strings.ToLower(path), FileExtension) {
		return path
	}
	return path + FileExtension
}
