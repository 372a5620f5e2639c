// Package config handles exporter configuration loading and management.
package config

// Config holds all exporter settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig holds geometry and shading conversion settings.
//
// The fields from ApplyModifiers down are host preprocessing switches: they
// describe work the host adapter performs while building the snapshot, before
// the encoder sees it. Like Triangulate, an adapter whose input format has no
// counterpart for one of them ignores it.
type ExportConfig struct {
	Smoothing   string  `yaml:"smoothing"` // none, full or from-source
	Subpatch    bool    `yaml:"subpatch"`
	Triangulate bool    `yaml:"triangulate"`
	Scale       float32 `yaml:"scale"`

	ApplyModifiers   bool `yaml:"apply_modifiers"`
	RecomputeNormals bool `yaml:"recompute_normals"`
	RemoveDoubles    bool `yaml:"remove_doubles"`
	ApplyScale       bool `yaml:"apply_scale"`
	ApplyLocation    bool `yaml:"apply_location"`
	ApplyRotation    bool `yaml:"apply_rotation"`
}

// OutputConfig holds output placement settings.
type OutputConfig struct {
	Path  string `yaml:"path"`  // target file, or directory in batch mode
	Batch bool   `yaml:"batch"` // one file per object
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			Smoothing:   "from-source",
			Subpatch:    false,
			Triangulate: true,
			Scale:       1.0,

			ApplyModifiers:   true,
			RecomputeNormals: false,
			RemoveDoubles:    false,
			ApplyScale:       true,
			ApplyLocation:    true,
			ApplyRotation:    true,
		},
		Output: OutputConfig{
			Path:  ".",
			Batch: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
