package obras2pdf

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/alnah/go-obras2pdf/internal/dateutil"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

	// Plain decimal notation only: no NaN, Inf or hex floats.
	decimalNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// NormalizeHeader canonicalizes a spreadsheet column name: trimmed, lower case,
// accents removed, runs of non-alphanumerics collapsed to "_".
//
// Examples:
//   - " ID Obra " -> "id_obra"
//   - "Fecha Cotización UVI" -> "fecha_cotizacion_uvi"
//   - "UVI Restante" -> "uvi_restante"
func NormalizeHeader(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	s := nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(stripped)), "_")
	return strings.Trim(s, "_")
}

// Column aliases, already normalized. The first match in header order wins.
var (
	projectIDColumns = []string{"id_obra", "obra_id", "idobra", "id"}
	paymentIDColumns = []string{"id_obra", "obra_id", "idobra", "id", "obra", "codigo_obra", "cod_obra"}
	remoteIDColumns  = []string{"id", "id_obra", "obra_id"}
)

// projectColumns maps record fields to their accepted header aliases.
var projectColumns = map[string][]string{
	"historic_id":        {"id_historico", "historico"},
	"description":        {"descripcion", "memoria_descriptiva", "memoria"},
	"status":             {"estado"},
	"modality":           {"modalidad"},
	"financing":          {"solicitante_financiero", "solicitante_financiamiento"},
	"budget":             {"solicitante_presupuestario"},
	"municipality":       {"municipio"},
	"locality":           {"localidad"},
	"houses_total":       {"viv_totales", "viviendas_totales"},
	"houses_delivered":   {"viv_entregadas", "viviendas_entregadas"},
	"agreement_amount":   {"monto_convenio"},
	"updated_amount":     {"monto_actualizado"},
	"accrued_amount":     {"monto_devengado"},
	"paid_amount":        {"monto_pagado"},
	"total_uvi":          {"cantidad_uvis", "cantidad_uvi", "total_uvi"},
	"physical_progress":  {"porcentaje_avance_fisico", "avance_fisico"},
	"financial_progress": {"avance_financiero", "porcentaje_avance_financiero"},
	"uvi_quote_date":     {"fecha_cotizacion_uvi_convenio", "fecha_cotizacion_uvi", "fecha_uvi"},
	"last_payment_date":  {"fecha_ultimo_pago"},
	"venture_code":       {"emprendimiento_incluidos", "cod_emprendimiento"},
	"work_code":          {"codigos_incluidos", "codigos_obra"},
	"gdeba_file":         {"expediente_gdeba", "exp_gdeba"},
	"remaining_uvi":      {"uvi_restante", "uvis_restantes"},
}

var paymentColumns = map[string][]string{
	"procedure":   {"trata"},
	"certificate": {"certificado_dga", "nro_certificado", "certificado"},
	"file":        {"expediente", "expediente_gdeba", "exp"},
	"accrued":     {"importe_devengado", "devengado", "monto_devengado"},
	"paid_on":     {"fecha_pago", "fecha_de_pago", "fecha", "fecha_pago_real"},
}

var remoteColumns = map[string][]string{
	"remaining_uvi": {"uvi_restante", "uvis_restantes"},
}

var newsColumns = map[string][]string{
	"date":  {"fecha"},
	"title": {"titulo", "titular"},
	"body":  {"cuerpo", "descripcion", "texto"},
	"link":  {"link", "url", "enlace"},
}

// headerIndex resolves normalized headers to column positions.
type headerIndex map[string]int

func newHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		n := NormalizeHeader(h)
		if n == "" {
			continue
		}
		if _, dup := idx[n]; !dup {
			idx[n] = i
		}
	}
	return idx
}

// find returns the position of the first alias present, or -1.
func (h headerIndex) find(aliases []string) int {
	for _, a := range aliases {
		if i, ok := h[a]; ok {
			return i
		}
	}
	return -1
}

// resolve maps every field of a column table to a position (-1 if absent).
func (h headerIndex) resolve(table map[string][]string) map[string]int {
	out := make(map[string]int, len(table))
	for field, aliases := range table {
		out[field] = h.find(aliases)
	}
	return out
}

// row wraps a ragged spreadsheet row with field positions.
type row struct {
	cells []string
	cols  map[string]int
}

func (r row) at(i int) string {
	if i < 0 || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

// text returns a trimmed string field; "--" counts as empty.
func (r row) text(field string) string {
	v := r.at(r.cols[field])
	if v == "--" {
		return ""
	}
	return v
}

func (r row) number(field string) (*float64, error) {
	v, err := ParseNumber(r.at(r.cols[field]))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return v, nil
}

func (r row) date(field string) (*time.Time, error) {
	t, ok, err := dateutil.ParseSpreadsheetDate(r.at(r.cols[field]))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// ParseNumber reads a spreadsheet number in plain ("1234.5") or Argentine
// ("1.234,50", "$ 1.234", "45%") notation. Empty values and "--" return nil.
// A single "." with no "," is a decimal point; several "." are thousands separators.
func ParseNumber(raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "--" {
		return nil, nil
	}

	s = strings.Map(func(r rune) rune {
		switch {
		case r == '$' || r == '%' || unicode.IsSpace(r):
			return -1
		default:
			return r
		}
	}, s)

	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")
	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case commas == 1:
		s = strings.Replace(s, ",", ".", 1)
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case dots > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	if !decimalNumber.MatchString(s) {
		return nil, fmt.Errorf("not a number: %q", raw)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("not a number: %q", raw)
	}
	return &v, nil
}

// cellString converts a value returned by the Sheets API to the raw string
// form the spreadsheet readers share.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
