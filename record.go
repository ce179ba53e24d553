package obras2pdf

import (
	"strings"
	"time"
)

// ProjectRecord is one public-works project, built from the local workbook and
// optionally enriched with remote data. Optional numeric and date fields are
// pointers: nil means the value was absent and renders as "--".
type ProjectRecord struct {
	ID         string // unique key, e.g. "OTRAS-0123"
	HistoricID string
	Category   string // ID prefix before the first "-", upper case

	Description        string
	Status             string
	Modality           string
	FinancingRequester string
	BudgetRequester    string

	Municipality string
	Locality     string

	HousesTotal     *float64
	HousesDelivered *float64

	AgreementAmount *float64
	UpdatedAmount   *float64
	AccruedAmount   *float64
	PaidAmount      *float64
	TotalUVI        *float64

	PhysicalProgress  *float64 // percentage, [0,100]
	FinancialProgress *float64 // percentage, [0,100]

	UVIQuoteDate    *time.Time
	LastPaymentDate *time.Time

	VentureCode string
	WorkCode    string
	GDEBAFile   string

	// RemainingUVI comes from the remote spreadsheet.
	RemainingUVI *float64

	// Derived by the Processor.
	RemainingAmount   *float64
	PendingAmount     *float64
	RemainingHouses   *float64
	RemainingProgress *float64

	Payments []Payment
	News     []NewsItem
}

// Payment states derived from the payments tab.
const (
	PaymentStatePaid    = "Pagado"
	PaymentStateAccrued = "Devengado sin pagar"
)

// Payment is one row of the payments tab, attached to a project by ID.
type Payment struct {
	ProjectID         string
	Procedure         string
	CertificateNumber *float64
	File              string
	Accrued           *float64
	PaidOn            *time.Time
}

// State reports whether the payment was paid or only accrued.
// Returns "" when neither a payment date nor an accrued amount is known.
func (p Payment) State() string {
	switch {
	case p.PaidOn != nil:
		return PaymentStatePaid
	case p.Accrued != nil:
		return PaymentStateAccrued
	default:
		return ""
	}
}

// NewsItem is a press note about a project, read from the remote news tab.
type NewsItem struct {
	ProjectID string
	Date      *time.Time
	Title     string
	Body      string
	Link      string
}

// RemoteRecord holds the fields read from the remote spreadsheet for one ID.
type RemoteRecord struct {
	ID           string
	RemainingUVI *float64
	News         []NewsItem
}

// CategoryOf returns the category encoded in a project identifier:
// the upper-cased text before the first "-". IDs without a dash have no category.
func CategoryOf(id string) string {
	prefix, _, found := strings.Cut(strings.TrimSpace(id), "-")
	if !found {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(prefix))
}

// clone returns a copy of r that shares no slices with it.
func (r ProjectRecord) clone() ProjectRecord {
	out := r
	if r.Payments != nil {
		out.Payments = append([]Payment(nil), r.Payments...)
	}
	if r.News != nil {
		out.News = append([]NewsItem(nil), r.News...)
	}
	return out
}

func floatPtr(v float64) *float64 {
	return &v
}
