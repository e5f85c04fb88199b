package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Wire and file shapes carry amounts as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	CategoryServices      Category = "Services"
	CategoryGroceries     Category = "Groceries"
	CategoryTransport     Category = "Transport"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealth        Category = "Health"
	CategoryEducation     Category = "Education"
	CategoryOther         Category = "Other"
)

const (
	PaymentPSE      PaymentMethod = "PSE"
	PaymentCash     PaymentMethod = "Cash"
	PaymentCard     PaymentMethod = "Card"
	PaymentTransfer PaymentMethod = "Transfer"
)

const (
	SourceSalary IncomeSource = "Salary"
	SourceExtra  IncomeSource = "Extra"
	SourceYield  IncomeSource = "Yield"
	SourceOther  IncomeSource = "Other"
)

type (
	Category      string
	PaymentMethod string
	IncomeSource  string

	// Date is a calendar date; the time-of-day component is always midnight UTC
	// when constructed through NewDate or the JSON codec.
	Date struct {
		time.Time
	}

	Expense struct {
		ID            string          `json:"id"`
		Date          Date            `json:"date"`
		Description   string          `json:"description"`
		Category      Category        `json:"category"`
		Amount        decimal.Decimal `json:"amount"`
		PaymentMethod PaymentMethod   `json:"paymentMethod"`
	}

	Income struct {
		ID          string          `json:"id"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Source      IncomeSource    `json:"source"`
	}

	// CDT is a fixed-term deposit. Expiry is always derived from EndDate at
	// evaluation time, never stored.
	CDT struct {
		ID           string          `json:"id"`
		Bank         string          `json:"bank"`
		Amount       decimal.Decimal `json:"amount"`
		InterestRate decimal.Decimal `json:"interestRate"`
		StartDate    Date            `json:"startDate"`
		EndDate      Date            `json:"endDate"`
	}

	// Snapshot is the complete financial dataset at a point in time. Each
	// sequence is ordered newest-first by insertion.
	Snapshot struct {
		Expenses []Expense `json:"expenses"`
		Incomes  []Income  `json:"incomes"`
		CDTs     []CDT     `json:"cdts"`
		LastSync string    `json:"lastSync,omitempty"`
	}
)

var (
	ErrZeroDate             = errors.New("date cannot be zero")
	ErrNegativeAmount       = errors.New("amount cannot be negative")
	ErrEmptyDescription     = errors.New("empty description")
	ErrEmptyBank            = errors.New("empty bank name")
	ErrNegativeInterestRate = errors.New("interest rate cannot be negative")
	ErrEndBeforeStart       = errors.New("end date must not be before start date")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON accepts plain calendar dates and full RFC 3339 timestamps;
// timestamps are truncated to their calendar date.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	d.Time = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return nil
}

// SameMonth reports whether the date falls in the given calendar month.
func (d Date) SameMonth(year int, month time.Month) bool {
	return d.Year() == year && d.Month() == month
}

func (c Category) Valid() bool {
	switch c {
	case CategoryServices, CategoryGroceries, CategoryTransport,
		CategoryEntertainment, CategoryHealth, CategoryEducation, CategoryOther:
		return true
	}
	return false
}

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentPSE, PaymentCash, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}

func (s IncomeSource) Valid() bool {
	switch s {
	case SourceSalary, SourceExtra, SourceYield, SourceOther:
		return true
	}
	return false
}

func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return ErrZeroDate
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if e.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if !e.Category.Valid() {
		return fmt.Errorf("invalid category %q", e.Category)
	}
	if !e.PaymentMethod.Valid() {
		return fmt.Errorf("invalid payment method %q", e.PaymentMethod)
	}
	return nil
}

func (i Income) Validate() error {
	if i.Date.IsZero() {
		return ErrZeroDate
	}
	if strings.TrimSpace(i.Description) == "" {
		return ErrEmptyDescription
	}
	if i.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if !i.Source.Valid() {
		return fmt.Errorf("invalid income source %q", i.Source)
	}
	return nil
}

func (c CDT) Validate() error {
	if strings.TrimSpace(c.Bank) == "" {
		return ErrEmptyBank
	}
	if c.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if c.InterestRate.IsNegative() {
		return ErrNegativeInterestRate
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return ErrZeroDate
	}
	if c.EndDate.Before(c.StartDate.Time) {
		return ErrEndBeforeStart
	}
	return nil
}

// Active reports whether the deposit term is still running: the end date must
// be strictly after now. A CDT ending exactly at now is already expired.
func (c CDT) Active(now time.Time) bool {
	return c.EndDate.After(now)
}

// TermDays returns the length of the deposit term in fractional days.
func (c CDT) TermDays() float64 {
	return c.EndDate.Sub(c.StartDate.Time).Hours() / 24
}

// EmptySnapshot returns a snapshot with empty (non-nil) sequences and no
// last-sync marker.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Expenses: []Expense{},
		Incomes:  []Income{},
		CDTs:     []CDT{},
	}
}

// Clone returns a copy whose sequences do not share backing arrays with the
// receiver. Records themselves are value types.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Expenses: make([]Expense, len(s.Expenses)),
		Incomes:  make([]Income, len(s.Incomes)),
		CDTs:     make([]CDT, len(s.CDTs)),
		LastSync: s.LastSync,
	}
	copy(out.Expenses, s.Expenses)
	copy(out.Incomes, s.Incomes)
	copy(out.CDTs, s.CDTs)
	return out
}
