package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-obras2pdf/internal/decode"
	"github.com/alnah/go-obras2pdf/internal/fileutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength      = 4096
	MaxSheetNameLength = 100 // spreadsheet tab names are capped at 100 chars
	MaxSheetIDLength   = 200
	MaxFilterLength    = 20
	MaxProgramLength   = 200
	MaxDateLength      = 50
	MaxBucketLength    = 222 // GCS bucket name limit with dots
	MaxPrefixLength    = 512
	MaxMarginMM        = 100
)

// Converter backend names.
const (
	ConverterChrome      = "chrome"
	ConverterWkhtmltopdf = "wkhtmltopdf"
)

// Defaults applied by DefaultConfig.
const (
	DefaultOutputDir     = "informes"
	DefaultFilter        = "OTRAS"
	DefaultProjectsSheet = "obras"
	DefaultPaymentsSheet = "pagos"
	DefaultRemoteSheet   = "Hoja 1"
	DefaultNewsSheet     = "Noticias"
	DefaultTimeout       = "60s"
	DefaultProgram       = "Programa COMPLETAR"
	DefaultReportDate    = "auto"
)

// Config holds all configuration for a report run.
type Config struct {
	Input   InputConfig   `yaml:"input" toml:"input"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
	Filter  string        `yaml:"filter" toml:"filter"` // category, or TODAS/ALL
	Remote  RemoteConfig  `yaml:"remote" toml:"remote"`
	UVI     UVIConfig     `yaml:"uvi" toml:"uvi"`
	PDF     PDFConfig     `yaml:"pdf" toml:"pdf"`
	Assets  AssetsConfig  `yaml:"assets" toml:"assets"`
	Publish PublishConfig `yaml:"publish" toml:"publish"`
}

// InputConfig defines the local workbook and photos.
type InputConfig struct {
	Excel         string `yaml:"excel" toml:"excel"`
	ProjectsSheet string `yaml:"projectsSheet" toml:"projectsSheet"`
	PaymentsSheet string `yaml:"paymentsSheet" toml:"paymentsSheet"`
	PhotosDir     string `yaml:"photosDir" toml:"photosDir"`
}

// OutputConfig defines where reports are written.
type OutputConfig struct {
	Dir    string `yaml:"dir" toml:"dir"`
	HTML   bool   `yaml:"html" toml:"html"`     // also write the rendered HTML next to each PDF
	Bundle string `yaml:"bundle" toml:"bundle"` // merge all PDFs into this file (empty = off)
}

// RemoteConfig defines the optional Google Sheets source.
type RemoteConfig struct {
	SheetID     string `yaml:"sheetID" toml:"sheetID"`
	Sheet       string `yaml:"sheet" toml:"sheet"`
	NewsSheet   string `yaml:"newsSheet" toml:"newsSheet"`
	Credentials string `yaml:"credentials" toml:"credentials"`
	Required    bool   `yaml:"required" toml:"required"`
}

// UVIConfig holds the currency value of one UVI.
type UVIConfig struct {
	Value float64 `yaml:"value" toml:"value"`
}

// PDFConfig defines converter settings.
type PDFConfig struct {
	Converter       string       `yaml:"converter" toml:"converter"` // "chrome" (default) or "wkhtmltopdf"
	Timeout         string       `yaml:"timeout" toml:"timeout"`     // Go duration, e.g. "60s"
	WkhtmltopdfPath string       `yaml:"wkhtmltopdfPath" toml:"wkhtmltopdfPath"`
	SkipValidation  bool         `yaml:"skipValidation" toml:"skipValidation"`
	Margins         MarginConfig `yaml:"margins" toml:"margins"`
}

// MarginConfig holds page margins in millimeters. Zero means default.
type MarginConfig struct {
	Top    float64 `yaml:"top" toml:"top"`
	Bottom float64 `yaml:"bottom" toml:"bottom"`
	Left   float64 `yaml:"left" toml:"left"`
	Right  float64 `yaml:"right" toml:"right"`
}

// AssetsConfig defines template and static asset options.
type AssetsConfig struct {
	BasePath   string `yaml:"basePath" toml:"basePath"` // empty = embedded assets
	Program    string `yaml:"program" toml:"program"`
	ReportDate string `yaml:"reportDate" toml:"reportDate"` // "auto", "auto:FORMAT" or literal
}

// PublishConfig defines the optional Cloud Storage upload.
type PublishConfig struct {
	Bucket string `yaml:"bucket" toml:"bucket"`
	Prefix string `yaml:"prefix" toml:"prefix"`
}

// TimeoutDuration parses PDF.Timeout. An empty value yields the default.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	raw := c.PDF.Timeout
	if raw == "" {
		raw = DefaultTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: pdf.timeout %q: %v", ErrInvalidValue, c.PDF.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: pdf.timeout must be positive, got %s", ErrInvalidValue, d)
	}
	return d, nil
}

// Validate checks field lengths and value ranges.
// Called automatically by LoadConfig, but available for configs built in code.
func (c *Config) Validate() error {
	lengths := []struct {
		field string
		value string
		max   int
	}{
		{"input.excel", c.Input.Excel, MaxPathLength},
		{"input.projectsSheet", c.Input.ProjectsSheet, MaxSheetNameLength},
		{"input.paymentsSheet", c.Input.PaymentsSheet, MaxSheetNameLength},
		{"input.photosDir", c.Input.PhotosDir, MaxPathLength},
		{"output.dir", c.Output.Dir, MaxPathLength},
		{"output.bundle", c.Output.Bundle, MaxPathLength},
		{"filter", c.Filter, MaxFilterLength},
		{"remote.sheetID", c.Remote.SheetID, MaxSheetIDLength},
		{"remote.sheet", c.Remote.Sheet, MaxSheetNameLength},
		{"remote.newsSheet", c.Remote.NewsSheet, MaxSheetNameLength},
		{"remote.credentials", c.Remote.Credentials, MaxPathLength},
		{"pdf.wkhtmltopdfPath", c.PDF.WkhtmltopdfPath, MaxPathLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"assets.program", c.Assets.Program, MaxProgramLength},
		{"assets.reportDate", c.Assets.ReportDate, MaxDateLength},
		{"publish.bucket", c.Publish.Bucket, MaxBucketLength},
		{"publish.prefix", c.Publish.Prefix, MaxPrefixLength},
	}
	for _, l := range lengths {
		if err := validateFieldLength(l.field, l.value, l.max); err != nil {
			return err
		}
	}

	if !isAlphanumeric(c.Filter) {
		return fmt.Errorf("%w: filter %q must be alphanumeric", ErrInvalidValue, c.Filter)
	}

	switch strings.ToLower(c.PDF.Converter) {
	case "", ConverterChrome, ConverterWkhtmltopdf:
	default:
		return fmt.Errorf("%w: pdf.converter %q (must be %s or %s)", ErrInvalidValue, c.PDF.Converter, ConverterChrome, ConverterWkhtmltopdf)
	}

	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}

	margins := map[string]float64{
		"pdf.margins.top":    c.PDF.Margins.Top,
		"pdf.margins.bottom": c.PDF.Margins.Bottom,
		"pdf.margins.left":   c.PDF.Margins.Left,
		"pdf.margins.right":  c.PDF.Margins.Right,
	}
	for field, v := range margins {
		if v < 0 || v > MaxMarginMM {
			return fmt.Errorf("%w: %s must be between 0 and %d mm, got %.2f", ErrInvalidValue, field, MaxMarginMM, v)
		}
	}

	if c.UVI.Value < 0 {
		return fmt.Errorf("%w: uvi.value must not be negative, got %.2f", ErrInvalidValue, c.UVI.Value)
	}

	if c.Remote.Required && c.Remote.SheetID == "" {
		return fmt.Errorf("%w: remote.required needs remote.sheetID", ErrInvalidValue)
	}

	return nil
}

func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			ProjectsSheet: DefaultProjectsSheet,
			PaymentsSheet: DefaultPaymentsSheet,
		},
		Output: OutputConfig{Dir: DefaultOutputDir},
		Filter: DefaultFilter,
		Remote: RemoteConfig{
			Sheet:     DefaultRemoteSheet,
			NewsSheet: DefaultNewsSheet,
		},
		PDF: PDFConfig{
			Converter: ConverterChrome,
			Timeout:   DefaultTimeout,
		},
		Assets: AssetsConfig{
			Program:    DefaultProgram,
			ReportDate: DefaultReportDate,
		},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Values absent from the file keep their DefaultConfig value.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) || filepath.Ext(nameOrPath) != "" {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	format, err := decode.FormatForPath(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decode.Strict(data, cfg, format); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml, .toml
// Tries locations in order: current directory, ~/.config/obras2pdf/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml", ".toml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "obras2pdf", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
