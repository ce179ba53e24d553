package obras2pdf

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Filter values that disable category filtering.
const (
	FilterAll      = "TODAS"
	FilterAllAlias = "ALL"
)

// Category filter values offered by the command line.
var KnownFilters = []string{"OTRAS", "CONVE", FilterAll, FilterAllAlias}

var filterPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// ValidateFilter checks that a category filter is a plain alphanumeric token.
// An empty filter is treated as FilterAll.
func ValidateFilter(filter string) error {
	f := strings.TrimSpace(filter)
	if f == "" {
		return nil
	}
	if !filterPattern.MatchString(f) {
		return fmt.Errorf("%w: %q (letters and digits only)", ErrInvalidFilter, filter)
	}
	return nil
}

// Processor computes derived fields and applies the category filter.
type Processor struct {
	UVIValue float64 // currency value of one UVI; zero leaves RemainingAmount unset
	Filter   string  // category, or TODAS/ALL/empty for every record
	Logger   *zap.Logger
}

// Process returns enriched copies of the records that pass the filter,
// in input order. The input slice and its records are not modified.
func (p *Processor) Process(records []ProjectRecord) ([]ProjectRecord, error) {
	if err := ValidateFilter(p.Filter); err != nil {
		return nil, err
	}
	log := loggerOrNop(p.Logger)

	filter := strings.ToUpper(strings.TrimSpace(p.Filter))
	bypass := filter == "" || filter == FilterAll || filter == FilterAllAlias

	out := make([]ProjectRecord, 0, len(records))
	missingUVIValue := 0
	for _, rec := range records {
		category := rec.Category
		if category == "" {
			category = CategoryOf(rec.ID)
		}
		if !bypass && !strings.EqualFold(category, filter) {
			continue
		}

		r := rec.clone()
		r.Category = category
		p.derive(&r)
		if r.RemainingUVI != nil && p.UVIValue <= 0 {
			missingUVIValue++
		}
		out = append(out, r)
	}

	if missingUVIValue > 0 {
		log.Warn("no UVI value configured, remaining amounts left unset", zap.Int("records", missingUVIValue))
	}
	log.Debug("records processed",
		zap.String("filter", filter),
		zap.Int("in", len(records)),
		zap.Int("out", len(out)))
	return out, nil
}

// derive fills the computed fields of r. Every result is floored at zero.
func (p *Processor) derive(r *ProjectRecord) {
	r.PhysicalProgress = normalizeProgress(r.PhysicalProgress)
	r.FinancialProgress = normalizeProgress(r.FinancialProgress)

	r.RemainingProgress = nil
	if r.PhysicalProgress != nil {
		r.RemainingProgress = floatPtr(100 - *r.PhysicalProgress)
	}

	r.RemainingHouses = nil
	if r.HousesTotal != nil && r.HousesDelivered != nil {
		r.RemainingHouses = floatPtr(nonNegative(*r.HousesTotal - *r.HousesDelivered))
	}

	r.PendingAmount = nil
	if r.UpdatedAmount != nil && r.PaidAmount != nil {
		r.PendingAmount = floatPtr(nonNegative(*r.UpdatedAmount - *r.PaidAmount))
	}

	r.RemainingAmount = nil
	if r.UpdatedAmount != nil && r.RemainingUVI != nil && p.UVIValue > 0 {
		r.RemainingAmount = floatPtr(nonNegative(*r.UpdatedAmount - *r.RemainingUVI*p.UVIValue))
	}
}

// normalizeProgress reads values in [0,1] as fractions and clamps the result
// to [0,100].
//
// Examples:
//   - 0.5 -> 50
//   - 72 -> 72
//   - 150 -> 100
//   - -5 -> 0
func normalizeProgress(v *float64) *float64 {
	if v == nil {
		return nil
	}
	x := *v
	if x >= 0 && x <= 1 {
		x *= 100
	}
	return floatPtr(clamp(x, 0, 100))
}

// clamp maps NaN to lo.
func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return max(lo, min(x, hi))
}

func nonNegative(x float64) float64 {
	return max(x, 0)
}
