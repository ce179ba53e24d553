package main

import (
	"fmt"
	"io"
)

// printUsage prints the command usage.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: obras2pdf [flags] [workbook.xlsx]")
	fmt.Fprintln(w, "       obras2pdf doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate one PDF progress report per project of the workbook.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input:")
	fmt.Fprintln(w, "  -e, --excel <path>        Projects workbook (.xlsx)")
	fmt.Fprintln(w, "      --photos <dir>        Photos named after the project ID")
	fmt.Fprintln(w, "      --sheet-id <id>       Google Sheet with remaining UVI and news")
	fmt.Fprintln(w, "      --credentials <path>  Service account JSON")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Processing:")
	fmt.Fprintln(w, "  -f, --filter <s>          OTRAS, CONVE, TODAS or ALL (default OTRAS)")
	fmt.Fprintln(w, "      --uvi-value <f>       Currency value of one UVI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default informes)")
	fmt.Fprintln(w, "      --html                Keep the HTML next to each PDF")
	fmt.Fprintln(w, "      --bundle <path>       Merge all reports into one PDF")
	fmt.Fprintln(w, "      --dry-run             Convert without writing files")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "PDF:")
	fmt.Fprintln(w, "      --converter <s>       chrome (default) or wkhtmltopdf")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-report timeout (default 60s)")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom template, style, images and fonts")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Debug logging")
	fmt.Fprintln(w, "      --version             Print version")
}
