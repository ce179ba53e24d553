package obras2pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Default tab names in the local workbook.
const (
	DefaultProjectsSheet = "obras"
	DefaultPaymentsSheet = "pagos"
)

// LocalData is the content of the local workbook.
type LocalData struct {
	Records  []ProjectRecord      // sheet order
	Payments map[string][]Payment // by project ID, sheet order
	Skipped  int                  // rows without an identifier
}

// XLSXReader loads project and payment rows from a local .xlsx workbook.
type XLSXReader struct {
	Path          string
	ProjectsSheet string // matched case-insensitively, fallback to the first sheet
	PaymentsSheet string // matched case-insensitively, fallback to the second sheet
	Logger        *zap.Logger
}

// Read opens the workbook and returns typed records.
// Returns ErrSourceNotFound if the file is absent and ErrSchema if the
// workbook cannot be parsed, the identifier column is missing, or an
// identifier appears twice.
func (r *XLSXReader) Read(ctx context.Context) (*LocalData, error) {
	log := loggerOrNop(r.Logger)

	if _, err := os.Stat(r.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, r.Path)
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceNotFound, err)
	}

	f, err := excelize.OpenFile(r.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrSchema, r.Path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrSchema, r.Path)
	}

	projectsSheet := resolveSheet(sheets, orDefault(r.ProjectsSheet, DefaultProjectsSheet), 0)
	log.Debug("reading projects", zap.String("file", r.Path), zap.String("sheet", projectsSheet))

	rows, err := f.GetRows(projectsSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: reading sheet %q: %v", ErrSchema, projectsSheet, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := &LocalData{Payments: map[string][]Payment{}}
	data.Records, data.Skipped, err = parseProjects(rows, log)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", projectsSheet, err)
	}

	paymentsSheet := resolveSheet(sheets, orDefault(r.PaymentsSheet, DefaultPaymentsSheet), 1)
	if paymentsSheet == "" || paymentsSheet == projectsSheet {
		log.Debug("no payments sheet in workbook")
		return data, nil
	}

	payRows, err := f.GetRows(paymentsSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		log.Warn("skipping payments sheet", zap.String("sheet", paymentsSheet), zap.Error(err))
		return data, nil
	}
	data.Payments = parsePayments(payRows, log.With(zap.String("sheet", paymentsSheet)))

	log.Info("workbook loaded",
		zap.Int("records", len(data.Records)),
		zap.Int("skipped", data.Skipped),
		zap.Int("projects_with_payments", len(data.Payments)))
	return data, nil
}

// resolveSheet picks the sheet whose name matches preferred (case-insensitive),
// else the sheet at fallback, else "" (projects always resolve to sheet 0).
func resolveSheet(sheets []string, preferred string, fallback int) string {
	want := strings.ToLower(strings.TrimSpace(preferred))
	for _, s := range sheets {
		if strings.ToLower(strings.TrimSpace(s)) == want {
			return s
		}
	}
	if fallback < len(sheets) {
		return sheets[fallback]
	}
	return ""
}

// parseProjects converts the projects tab. Header is row 1.
func parseProjects(rows [][]string, log *zap.Logger) ([]ProjectRecord, int, error) {
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("%w: empty sheet", ErrSchema)
	}

	header := newHeaderIndex(rows[0])
	idCol := header.find(projectIDColumns)
	if idCol < 0 {
		return nil, 0, fmt.Errorf("%w: missing identifier column (one of %s)", ErrSchema, strings.Join(projectIDColumns, ", "))
	}
	cols := header.resolve(projectColumns)
	cols["id"] = idCol

	var (
		records []ProjectRecord
		skipped int
		seen    = map[string]int{}
	)
	for i, cells := range rows[1:] {
		line := i + 2
		r := row{cells: cells, cols: cols}

		id := r.text("id")
		if id == "" {
			if !isBlankRow(cells) {
				log.Warn("skipping row without identifier", zap.Int("row", line))
				skipped++
			}
			continue
		}
		if prev, dup := seen[id]; dup {
			return nil, 0, fmt.Errorf("%w: duplicate identifier %q in rows %d and %d", ErrSchema, id, prev, line)
		}
		seen[id] = line

		rec, problems := projectFromRow(id, r)
		for _, p := range problems {
			log.Warn("ignoring unparseable cell", zap.String("id", id), zap.Int("row", line), zap.Error(p))
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

// projectFromRow builds a record. Cells that fail to parse are left unset and
// reported.
func projectFromRow(id string, r row) (ProjectRecord, []error) {
	var problems []error
	num := func(field string) *float64 {
		v, err := r.number(field)
		if err != nil {
			problems = append(problems, err)
		}
		return v
	}
	date := func(field string) *time.Time {
		v, err := r.date(field)
		if err != nil {
			problems = append(problems, err)
		}
		return v
	}

	rec := ProjectRecord{
		ID:                 id,
		Category:           CategoryOf(id),
		HistoricID:         r.text("historic_id"),
		Description:        r.text("description"),
		Status:             r.text("status"),
		Modality:           r.text("modality"),
		FinancingRequester: r.text("financing"),
		BudgetRequester:    r.text("budget"),
		Municipality:       r.text("municipality"),
		Locality:           r.text("locality"),
		HousesTotal:        num("houses_total"),
		HousesDelivered:    num("houses_delivered"),
		AgreementAmount:    num("agreement_amount"),
		UpdatedAmount:      num("updated_amount"),
		AccruedAmount:      num("accrued_amount"),
		PaidAmount:         num("paid_amount"),
		TotalUVI:           num("total_uvi"),
		PhysicalProgress:   num("physical_progress"),
		FinancialProgress:  num("financial_progress"),
		UVIQuoteDate:       date("uvi_quote_date"),
		LastPaymentDate:    date("last_payment_date"),
		VentureCode:        r.text("venture_code"),
		WorkCode:           r.text("work_code"),
		GDEBAFile:          r.text("gdeba_file"),
		RemainingUVI:       num("remaining_uvi"),
	}
	return rec, problems
}

// parsePayments converts the payments tab. A tab without a project key column
// yields no payments.
func parsePayments(rows [][]string, log *zap.Logger) map[string][]Payment {
	out := map[string][]Payment{}
	if len(rows) == 0 {
		return out
	}

	header := newHeaderIndex(rows[0])
	keyCol := header.find(paymentIDColumns)
	if keyCol < 0 {
		log.Warn("payments sheet has no project key column, ignoring it")
		return out
	}
	cols := header.resolve(paymentColumns)
	cols["id"] = keyCol

	for i, cells := range rows[1:] {
		r := row{cells: cells, cols: cols}
		id := r.text("id")
		if id == "" {
			continue
		}

		p := Payment{
			ProjectID: id,
			Procedure: r.text("procedure"),
			File:      r.text("file"),
		}
		var err error
		if p.CertificateNumber, err = r.number("certificate"); err != nil {
			log.Warn("ignoring unparseable cell", zap.Int("row", i+2), zap.Error(err))
		}
		if p.Accrued, err = r.number("accrued"); err != nil {
			log.Warn("ignoring unparseable cell", zap.Int("row", i+2), zap.Error(err))
		}
		if p.PaidOn, err = r.date("paid_on"); err != nil {
			log.Warn("ignoring unparseable cell", zap.Int("row", i+2), zap.Error(err))
		}
		out[id] = append(out[id], p)
	}
	return out
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
