// Package obras2pdf generates one PDF progress report per public-works
// project from a local Excel workbook and an optional Google Sheet.
//
// # Pipeline
//
// A run moves strictly forward through these stages:
//
//  1. Loading: the workbook (projects and payments tabs) is read with
//     excelize; the remote sheet, when configured, adds remaining UVI and news.
//  2. Merging: one record per workbook row. Local values win; remote values
//     only fill gaps.
//  3. Processing: progress is normalized to [0,100], remaining houses,
//     amounts and progress are derived, and the category filter is applied.
//  4. Emitting: each record is rendered with html/template, converted by
//     headless Chrome (go-rod) or wkhtmltopdf, validated with pdfcpu and
//     written atomically as informe_<ID>.pdf.
//  5. Summarizing: per-record results are collected into a Summary.
//
// Loading errors (missing workbook, missing identifier column, duplicate IDs)
// stop the run before any file is written. Conversion errors only fail the
// affected record.
//
// # Usage
//
//	conv := obras2pdf.NewChromeConverter(60*time.Second, obras2pdf.DefaultPageSettings())
//	defer conv.Close()
//
//	p, err := obras2pdf.NewPipeline(obras2pdf.PipelineConfig{
//	    Local:     &obras2pdf.XLSXReader{Path: "obras.xlsx"},
//	    Processor: &obras2pdf.Processor{Filter: "OTRAS"},
//	    Renderer:  renderer,
//	    Emitter:   &obras2pdf.Emitter{Converter: conv},
//	    OutputDir: "informes",
//	})
//	if err != nil {
//	    return err
//	}
//	summary, err := p.Run(ctx)
//
// # Formatting
//
// Reports use Argentine conventions: "$ 1.234.567,89" for money, "50,25%"
// for percentages and DD/MM/YYYY for dates. Missing values render as "--".
//
// # Errors
//
// Failures wrap the sentinel errors in errors.go and can be inspected with
// errors.Is. IsFatal tells loading failures apart from per-record ones.
package obras2pdf
