package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagOut       = flag.String("out", "", "Output file, or directory in batch mode")
	flagBatch     = flag.Bool("batch", false, "Write one file per object")
	flagSmoothing = flag.String("smoothing", "", "Smoothing mode: none, full or from-source")
	flagSubpatch  = flag.Bool("subpatch", false, "Emit subpatch polygons instead of faces")
	flagScale     = flag.Float64("scale", 0, "Uniform scale applied to coordinates")
	flagNoTris    = flag.Bool("no-triangulate", false, "Keep authored n-gons instead of splitting")
	flagSaveCfg   = flag.Bool("save-config", false, "Write the effective config to the user config directory")

	flagNoModifiers = flag.Bool("no-apply-modifiers", false, "Skip host modifier evaluation before export")
	flagNormals     = flag.Bool("recompute-normals", false, "Recompute normals while building the snapshot")
	flagDoubles     = flag.Bool("remove-doubles", false, "Merge duplicate vertices while building the snapshot")
	flagNoTransform = flag.Bool("no-apply-transform", false, "Keep object scale, location and rotation unapplied")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// SaveRequested reports whether --save-config was given.
func SaveRequested() bool {
	return *flagSaveCfg
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagOut != "" {
		cfg.Output.Path = *flagOut
	}
	if *flagBatch {
		cfg.Output.Batch = true
	}
	if *flagSmoothing != "" {
		cfg.Export.Smoothing = *flagSmoothing
	}
	if *flagSubpatch {
		cfg.Export.Subpatch = true
	}
	if *flagScale > 0 {
		cfg.Export.Scale = float32(*flagScale)
	}
	if *flagNoTris {
		cfg.Export.Triangulate = false
	}
	if *flagNoModifiers {
		cfg.Export.ApplyModifiers = false
	}
	if *flagNormals {
		cfg.Export.RecomputeNormals = true
	}
	if *flagDoubles {
		cfg.Export.RemoveDoubles = true
	}
	if *flagNoTransform {
		cfg.Export.ApplyScale = false
		cfg.Export.ApplyLocation = false
		cfg.Export.ApplyRotation = false
	}
}
