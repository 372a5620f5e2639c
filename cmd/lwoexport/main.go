// Package main is the entry point for the lwoexport command, which converts
// Wavefront OBJ scenes into LightWave LWO2 object files.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/lwotool/internal/config"
	"github.com/Faultbox/lwotool/internal/logger"
	"github.com/Faultbox/lwotool/pkg/lwo"
	"github.com/Faultbox/lwotool/pkg/obj"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.LogFile)

	// os.Exit skips deferred calls, so the file sink is flushed here
	// before any exit code is decided.
	code := realMain(cfg, log, flag.Args())
	_ = log.Sync()
	os.Exit(code)
}

func realMain(cfg *config.Config, log *zap.Logger, inputs []string) int {
	if config.SaveRequested() {
		if err := cfg.Save(); err != nil {
			log.Error("failed to save config", zap.Error(err))
			return 1
		}
		log.Info("config saved", zap.String("dir", config.ConfigDir()))
	}

	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: lwoexport [options] <scene.obj> [scene2.obj ...]")
		flag.PrintDefaults()
		return 1
	}

	log.Sugar().Debugf("Config: %+v", cfg)

	opts := lwo.Options{
		Smoothing: lwo.SmoothingMode(cfg.Export.Smoothing),
		Subpatch:  cfg.Export.Subpatch,
		Scale:     cfg.Export.Scale,
	}
	exporter := lwo.NewExporter(opts, log)
	readOpts := obj.Options{Triangulate: cfg.Export.Triangulate}

	failed := false
	for _, input := range inputs {
		if err := run(exporter, readOpts, cfg, log, input); err != nil {
			log.Error("export failed",
				zap.String("input", input),
				zap.Error(err))
			failed = true
		}
	}
	if failed {
		return 1
	}
	return 0
}

func run(exporter *lwo.Exporter, readOpts obj.Options, cfg *config.Config, log *zap.Logger, input string) error {
	sc, err := obj.ReadFile(input, readOpts, log)
	if err != nil {
		return err
	}

	if cfg.Output.Batch {
		return exporter.ExportBatch(sc, cfg.Output.Path)
	}
	return exporter.Export(sc, outputPath(cfg.Output.Path, input))
}

// outputPath picks the target file for single-file mode. A directory target
// gets the input's base name with the output extension.
func outputPath(target, input string) string {
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		base := filepath.Base(input)
		base = strings.TrimSuffix(base, filepath.Ext(base)) + lwo.FileExtension
		return filepath.Join(target, base)
	}
	return target
}
