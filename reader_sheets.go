package obras2pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Default tab names in the remote spreadsheet.
const (
	DefaultRemoteSheet = "Hoja 1"
	DefaultNewsSheet   = "Noticias"
)

// valuesFetcher reads the cell values of one range (abstracted for testing).
type valuesFetcher interface {
	Values(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
}

// sheetsAPIFetcher implements valuesFetcher with the Google Sheets API v4.
type sheetsAPIFetcher struct {
	svc *sheets.Service
}

func newSheetsAPIFetcher(ctx context.Context, credentialsFile string) (*sheetsAPIFetcher, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteAuth, err)
	}
	return &sheetsAPIFetcher{svc: svc}, nil
}

// Values returns unformatted cell values; dates come back as serial numbers.
func (f *sheetsAPIFetcher) Values(ctx context.Context, spreadsheetID, rng string) ([][]any, error) {
	resp, err := f.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// SheetsReader loads remaining UVI figures and news from a Google spreadsheet.
type SheetsReader struct {
	SpreadsheetID   string
	Sheet           string // remaining-UVI tab, default "Hoja 1"
	NewsSheet       string // optional news tab, default "Noticias"; "-" disables it
	CredentialsFile string // service-account JSON; empty uses application default credentials
	Logger          *zap.Logger

	fetcher valuesFetcher // nil uses the Sheets API
}

// Read returns remote records keyed by project ID.
// Any failure to reach or read the main tab returns ErrRemoteAuth; a main tab
// without an identifier column returns ErrSchema. A missing or unreadable
// news tab is logged and ignored.
func (r *SheetsReader) Read(ctx context.Context) (map[string]RemoteRecord, error) {
	log := loggerOrNop(r.Logger).With(zap.String("spreadsheet", r.SpreadsheetID))

	if strings.TrimSpace(r.SpreadsheetID) == "" {
		return nil, fmt.Errorf("%w: no spreadsheet ID configured", ErrRemoteAuth)
	}

	fetcher := r.fetcher
	if fetcher == nil {
		f, err := newSheetsAPIFetcher(ctx, r.CredentialsFile)
		if err != nil {
			return nil, err
		}
		fetcher = f
	}

	sheet := orDefault(r.Sheet, DefaultRemoteSheet)
	log.Debug("reading remote sheet", zap.String("sheet", sheet))

	rows, err := fetcher.Values(ctx, r.SpreadsheetID, quoteSheetName(sheet))
	if err != nil {
		return nil, remoteError(sheet, err)
	}

	out, err := parseRemote(toStringRows(rows), log)
	if err != nil {
		return nil, fmt.Errorf("remote sheet %q: %w", sheet, err)
	}

	newsSheet := orDefault(r.NewsSheet, DefaultNewsSheet)
	if newsSheet != "-" {
		newsRows, err := fetcher.Values(ctx, r.SpreadsheetID, quoteSheetName(newsSheet))
		if err != nil {
			log.Warn("skipping news sheet", zap.String("sheet", newsSheet), zap.Error(err))
		} else {
			attachNews(out, parseNews(toStringRows(newsRows), log))
		}
	}

	log.Info("remote sheet loaded", zap.Int("records", len(out)))
	return out, nil
}

// remoteError wraps an API failure, keeping the HTTP status when there is one.
func remoteError(sheet string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return fmt.Errorf("%w: reading %q: HTTP %d: %s", ErrRemoteAuth, sheet, gerr.Code, gerr.Message)
	}
	return fmt.Errorf("%w: reading %q: %v", ErrRemoteAuth, sheet, err)
}

// quoteSheetName returns an A1 range covering the whole tab.
func quoteSheetName(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func toStringRows(values [][]any) [][]string {
	rows := make([][]string, len(values))
	for i, vs := range values {
		rows[i] = make([]string, len(vs))
		for j, v := range vs {
			rows[i][j] = cellString(v)
		}
	}
	return rows
}

func parseRemote(rows [][]string, log *zap.Logger) (map[string]RemoteRecord, error) {
	out := map[string]RemoteRecord{}
	if len(rows) == 0 {
		return out, nil
	}

	header := newHeaderIndex(rows[0])
	idCol := header.find(remoteIDColumns)
	if idCol < 0 {
		return nil, fmt.Errorf("%w: missing identifier column (one of %s)", ErrSchema, strings.Join(remoteIDColumns, ", "))
	}
	cols := header.resolve(remoteColumns)
	cols["id"] = idCol

	for i, cells := range rows[1:] {
		r := row{cells: cells, cols: cols}
		id := r.text("id")
		if id == "" {
			continue
		}
		uvi, err := r.number("remaining_uvi")
		if err != nil {
			log.Warn("ignoring unparseable remote cell", zap.String("id", id), zap.Int("row", i+2), zap.Error(err))
		}
		// Later rows win, matching a spreadsheet lookup that keeps the last hit.
		out[id] = RemoteRecord{ID: id, RemainingUVI: uvi}
	}
	return out, nil
}

func parseNews(rows [][]string, log *zap.Logger) []NewsItem {
	if len(rows) == 0 {
		return nil
	}

	header := newHeaderIndex(rows[0])
	idCol := header.find(remoteIDColumns)
	if idCol < 0 {
		log.Warn("news sheet has no identifier column, ignoring it")
		return nil
	}
	cols := header.resolve(newsColumns)
	cols["id"] = idCol

	var items []NewsItem
	for i, cells := range rows[1:] {
		r := row{cells: cells, cols: cols}
		id := r.text("id")
		if id == "" {
			continue
		}
		date, err := r.date("date")
		if err != nil {
			log.Warn("ignoring unparseable news date", zap.String("id", id), zap.Int("row", i+2), zap.Error(err))
		}
		items = append(items, NewsItem{
			ProjectID: id,
			Date:      date,
			Title:     r.text("title"),
			Body:      r.text("body"),
			Link:      r.text("link"),
		})
	}
	return items
}

// attachNews adds news items to their remote record, creating one if needed.
func attachNews(records map[string]RemoteRecord, items []NewsItem) {
	for _, n := range items {
		rec, ok := records[n.ProjectID]
		if !ok {
			rec = RemoteRecord{ID: n.ProjectID}
		}
		rec.News = append(rec.News, n)
		records[n.ProjectID] = rec
	}
}
