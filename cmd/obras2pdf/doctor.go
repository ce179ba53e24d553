package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult holds the diagnostic report.
type doctorResult struct {
	Status      string          `json:"status"`
	Chrome      binaryInfo      `json:"chrome"`
	Wkhtmltopdf binaryInfo      `json:"wkhtmltopdf"`
	Credentials credentialsInfo `json:"credentials"`
	Env         envInfo         `json:"environment"`
	Warnings    []string        `json:"warnings,omitempty"`
	Errors      []string        `json:"errors,omitempty"`
}

// binaryInfo describes one converter executable.
type binaryInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// credentialsInfo describes the Google credentials file, if any.
type credentialsInfo struct {
	Path     string `json:"path,omitempty"`
	Readable bool   `json:"readable"`
}

type envInfo struct {
	OS         string `json:"os"`
	Arch       string `json:"arch"`
	Container  bool   `json:"container"`
	CI         bool   `json:"ci"`
	NoSandbox  string `json:"rod_no_sandbox"`
	BrowserBin string `json:"rod_browser_bin"`
}

// runDoctorCmd checks that at least one converter is usable. It exits with
// ExitGeneral only when no converter is available.
func runDoctorCmd(args []string, env *Environment) int {
	jsonOutput := false
	for _, arg := range args {
		if arg == "--json" {
			jsonOutput = true
		}
	}

	result := runDoctor()

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

func runDoctor() *doctorResult {
	result := &doctorResult{
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
	}

	result.Chrome = findChrome(result.Env.BrowserBin)
	result.Wkhtmltopdf = findWkhtmltopdf(os.Getenv("WKHTMLTOPDF_PATH"))
	checkCredentials(result)
	checkEnvironment(result)

	switch {
	case !result.Chrome.Found && !result.Wkhtmltopdf.Found:
		result.Errors = append(result.Errors,
			"no converter found: install Chrome (or set ROD_BROWSER_BIN) or wkhtmltopdf (or set WKHTMLTOPDF_PATH)")
	case !result.Chrome.Found:
		result.Warnings = append(result.Warnings, "Chrome not found, use --converter wkhtmltopdf")
	case !result.Wkhtmltopdf.Found:
		result.Warnings = append(result.Warnings, "wkhtmltopdf not found, only --converter chrome is available")
	}

	switch {
	case len(result.Errors) > 0:
		result.Status = statusErrors
	case len(result.Warnings) > 0:
		result.Status = statusWarnings
	default:
		result.Status = statusReady
	}
	return result
}

func findChrome(override string) binaryInfo {
	path := override
	if path == "" {
		var found bool
		if path, found = launcher.LookPath(); !found {
			return binaryInfo{}
		}
	}
	if _, err := os.Stat(path); err != nil {
		return binaryInfo{Path: path}
	}
	return binaryInfo{Found: true, Path: path, Version: binaryVersion(path, "--version")}
}

func findWkhtmltopdf(override string) binaryInfo {
	path := override
	if path == "" {
		var err error
		if path, err = exec.LookPath("wkhtmltopdf"); err != nil {
			return binaryInfo{}
		}
	}
	if _, err := os.Stat(path); err != nil {
		return binaryInfo{Path: path}
	}
	return binaryInfo{Found: true, Path: path, Version: binaryVersion(path, "--version")}
}

// binaryVersion returns the first output line of path with arg, or "".
func binaryVersion(path, arg string) string {
	out, err := exec.Command(path, arg).Output() // #nosec G204 -- path comes from PATH lookup or the user's own env
	if err != nil {
		return ""
	}
	first, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return first
}

// checkCredentials verifies GOOGLE_APPLICATION_CREDENTIALS when it is set.
// Remote sources are optional, so problems are warnings.
func checkCredentials(result *doctorResult) {
	path := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	if path == "" {
		return
	}
	result.Credentials.Path = path
	f, err := os.Open(path) // #nosec G304 -- path from the user's environment
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("GOOGLE_APPLICATION_CREDENTIALS not readable: %v", err))
		return
	}
	_ = f.Close()
	result.Credentials.Readable = true
}

func checkEnvironment(result *doctorResult) {
	result.Env.Container = isContainer()
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"} {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
	if (result.Env.Container || result.Env.CI) && result.Chrome.Found && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"container/CI detected but ROD_NO_SANDBOX is not set; Chrome may fail to start")
	}
}

func isContainer() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return os.Getenv("container") != "" || os.Getenv("KUBERNETES_SERVICE_HOST") != ""
}

func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "obras2pdf doctor")
	fmt.Fprintln(w)

	printBinary(w, "Chrome/Chromium", r.Chrome)
	printBinary(w, "wkhtmltopdf", r.Wkhtmltopdf)

	fmt.Fprintln(w, "Google credentials")
	switch {
	case r.Credentials.Path == "":
		fmt.Fprintln(w, "  [OK] Not set (application default credentials or --credentials)")
	case r.Credentials.Readable:
		fmt.Fprintf(w, "  [OK] %s\n", r.Credentials.Path)
	default:
		fmt.Fprintf(w, "  [WARN] %s not readable\n", r.Credentials.Path)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintln(w, "  [OK] Container: detected")
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "[WARN] %s\n", warn)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "[ERROR] %s\n", e)
	}
	if len(r.Warnings)+len(r.Errors) > 0 {
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}

func printBinary(w io.Writer, name string, b binaryInfo) {
	fmt.Fprintln(w, name)
	switch {
	case b.Found:
		fmt.Fprintf(w, "  [OK] Found at %s\n", b.Path)
		if b.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", b.Version)
		}
	case b.Path != "":
		fmt.Fprintf(w, "  [--] Not found at %s\n", b.Path)
	default:
		fmt.Fprintln(w, "  [--] Not found")
	}
	fmt.Fprintln(w)
}
