// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-obras2pdf/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser connection errors.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to a preinstalled Chrome for Docker/CI")
	}
	hints = append(hints, "or use --converter wkhtmltopdf")

	return formatHints(hints)
}

// ForWkhtmltopdf returns hints for a missing or failing wkhtmltopdf binary.
func ForWkhtmltopdf() string {
	if os.Getenv("WKHTMLTOPDF_PATH") == "" {
		return format("install wkhtmltopdf or set WKHTMLTOPDF_PATH")
	}
	return format("check that WKHTMLTOPDF_PATH points to an executable")
}

// ForTimeout returns a hint about increasing timeout for slow conversions.
func ForTimeout() string {
	return format("for reports with many photos, use --timeout")
}

// ForCredentials returns hints for remote spreadsheet authentication errors.
func ForCredentials() string {
	return format("use --credentials or GOOGLE_APPLICATION_CREDENTIALS with a service account key shared on the sheet")
}

// ForSourceNotFound returns hints for a missing input workbook.
func ForSourceNotFound() string {
	return format("pass the workbook with --excel or OBRAS2PDF_EXCEL")
}

// ForSchema returns hints for workbook schema errors.
func ForSchema() string {
	return format("the projects tab needs an identifier column (id_obra, id or obra_id) in row 1")
}

// ForConfigNotFound returns hints for config file not found errors.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/obras2pdf") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForFilter returns hints listing valid category filters.
func ForFilter(valid []string) string {
	if len(valid) == 0 {
		return ""
	}
	return format("valid filters: " + strings.Join(valid, ", "))
}

func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
