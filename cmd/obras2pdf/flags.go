package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds verbosity and config selection.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// inputFlags holds the data sources.
type inputFlags struct {
	excel       string
	photos      string
	sheetID     string
	credentials string
}

// outputFlags holds where and how reports are written.
type outputFlags struct {
	dir    string
	html   bool
	bundle string
	dryRun bool
}

// pdfFlags holds converter selection.
type pdfFlags struct {
	converter string
	timeout   string
}

// cliFlags holds every flag of the command.
type cliFlags struct {
	common    commonFlags
	input     inputFlags
	output    outputFlags
	pdf       pdfFlags
	filter    string
	uviValue  float64
	assetPath string
	version   bool

	set *flag.FlagSet
}

// changed reports whether the named flag was given on the command line.
func (f *cliFlags) changed(name string) bool {
	return f.set != nil && f.set.Changed(name)
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path (.yaml, .yml, .toml)")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging and per-report timing")
}

func addInputFlags(fs *flag.FlagSet, f *inputFlags) {
	fs.StringVarP(&f.excel, "excel", "e", "", "projects workbook (.xlsx)")
	fs.StringVar(&f.photos, "photos", "", "directory with project photos")
	fs.StringVar(&f.sheetID, "sheet-id", "", "Google Sheets spreadsheet ID for remaining UVI and news")
	fs.StringVar(&f.credentials, "credentials", "", "service account JSON for Google APIs")
}

func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.StringVarP(&f.dir, "output", "o", "", "output directory (default \"informes\")")
	fs.BoolVar(&f.html, "html", false, "write the rendered HTML next to each PDF")
	fs.StringVar(&f.bundle, "bundle", "", "also merge every report into this PDF")
	fs.BoolVar(&f.dryRun, "dry-run", false, "convert and validate without writing files")
}

func addPDFFlags(fs *flag.FlagSet, f *pdfFlags) {
	fs.StringVar(&f.converter, "converter", "", "PDF backend: chrome, wkhtmltopdf")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-report conversion timeout (e.g. 30s, 2m)")
}

// parseFlags parses the command line and returns the positional args.
func parseFlags(args []string, usage io.Writer) (*cliFlags, []string, error) {
	fs := flag.NewFlagSet("obras2pdf", flag.ContinueOnError)
	f := &cliFlags{set: fs}

	addCommonFlags(fs, &f.common)
	addInputFlags(fs, &f.input)
	addOutputFlags(fs, &f.output)
	addPDFFlags(fs, &f.pdf)
	fs.StringVarP(&f.filter, "filter", "f", "", "category: OTRAS, CONVE, TODAS or ALL")
	fs.Float64Var(&f.uviValue, "uvi-value", 0, "currency value of one UVI")
	fs.StringVar(&f.assetPath, "asset-path", "", "directory overriding the embedded template, style and images")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	fs.SetOutput(usage)
	fs.Usage = func() { printUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
