package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-obras2pdf/internal/config"
)

const envPrefix = "OBRAS2PDF_"

// envConfig holds configuration from environment variables.
type envConfig struct {
	ConfigPath string        // OBRAS2PDF_CONFIG
	Excel      string        // OBRAS2PDF_EXCEL
	OutputDir  string        // OBRAS2PDF_OUTPUT_DIR
	Filter     string        // OBRAS2PDF_FILTER
	Timeout    time.Duration // OBRAS2PDF_TIMEOUT
	Converter  string        // OBRAS2PDF_CONVERTER
	PhotosDir  string        // OBRAS2PDF_PHOTOS_DIR
	SheetID    string        // OBRAS2PDF_SHEET_ID
	UVIValue   float64       // OBRAS2PDF_UVI_VALUE, zero when unset

	// Variables read by third-party tooling as well.
	WkhtmltopdfPath string // WKHTMLTOPDF_PATH
}

// knownEnvVars lists valid OBRAS2PDF_* variables, to catch typos.
var knownEnvVars = map[string]bool{
	"OBRAS2PDF_CONFIG":     true,
	"OBRAS2PDF_EXCEL":      true,
	"OBRAS2PDF_OUTPUT_DIR": true,
	"OBRAS2PDF_FILTER":     true,
	"OBRAS2PDF_TIMEOUT":    true,
	"OBRAS2PDF_CONVERTER":  true,
	"OBRAS2PDF_PHOTOS_DIR": true,
	"OBRAS2PDF_SHEET_ID":   true,
	"OBRAS2PDF_UVI_VALUE":  true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numeric or duration values are reported as config.ErrInvalidValue.
func loadEnvConfig() (*envConfig, error) {
	cfg := &envConfig{
		ConfigPath:      os.Getenv("OBRAS2PDF_CONFIG"),
		Excel:           os.Getenv("OBRAS2PDF_EXCEL"),
		OutputDir:       os.Getenv("OBRAS2PDF_OUTPUT_DIR"),
		Filter:          os.Getenv("OBRAS2PDF_FILTER"),
		Converter:       os.Getenv("OBRAS2PDF_CONVERTER"),
		PhotosDir:       os.Getenv("OBRAS2PDF_PHOTOS_DIR"),
		SheetID:         os.Getenv("OBRAS2PDF_SHEET_ID"),
		WkhtmltopdfPath: os.Getenv("WKHTMLTOPDF_PATH"),
	}

	if raw := os.Getenv("OBRAS2PDF_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: OBRAS2PDF_TIMEOUT=%q (e.g. 30s, 2m)", config.ErrInvalidValue, raw)
		}
		cfg.Timeout = d
	}

	if raw := os.Getenv("OBRAS2PDF_UVI_VALUE"); raw != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("%w: OBRAS2PDF_UVI_VALUE=%q", config.ErrInvalidValue, raw)
		}
		cfg.UVIValue = v
	}

	return cfg, nil
}

// warnUnknownEnvVars writes a warning for each unrecognized OBRAS2PDF_* variable.
func warnUnknownEnvVars(w io.Writer) {
	var unknown []string
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
	}
}

// applyEnvConfig overlays set variables on cfg. Environment values win over
// the config file; flags are applied afterwards by applyFlags.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Excel != "" {
		cfg.Input.Excel = env.Excel
	}
	if env.PhotosDir != "" {
		cfg.Input.PhotosDir = env.PhotosDir
	}
	if env.OutputDir != "" {
		cfg.Output.Dir = env.OutputDir
	}
	if env.Filter != "" {
		cfg.Filter = env.Filter
	}
	if env.Timeout > 0 {
		cfg.PDF.Timeout = env.Timeout.String()
	}
	if env.Converter != "" {
		cfg.PDF.Converter = env.Converter
	}
	if env.SheetID != "" {
		cfg.Remote.SheetID = env.SheetID
	}
	if env.UVIValue > 0 {
		cfg.UVI.Value = env.UVIValue
	}
	// The config file keeps precedence for the binary path.
	if env.WkhtmltopdfPath != "" && cfg.PDF.WkhtmltopdfPath == "" {
		cfg.PDF.WkhtmltopdfPath = env.WkhtmltopdfPath
	}
}
