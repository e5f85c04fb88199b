package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2025, 3, 15)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2025-03-15"` {
		t.Fatalf("unexpected wire form %s", data)
	}

	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("round trip changed date: %v != %v", back, d)
	}
}

func TestDateUnmarshalTimestamp(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2025-03-15T18:30:00Z"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !d.Equal(NewDate(2025, 3, 15).Time) {
		t.Fatalf("timestamp not truncated to date: %v", d)
	}
}

func TestDateUnmarshalInvalid(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"15/03/2025"`), &d); err == nil {
		t.Fatalf("expected error for unknown layout")
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Date:          NewDate(2025, 1, 1),
		Description:   "internet bill",
		Category:      CategoryServices,
		Amount:        decimal.NewFromInt(120000),
		PaymentMethod: PaymentPSE,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	// Zero amounts are allowed; only negatives are rejected.
	zero := good
	zero.Amount = decimal.Zero
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero amount should be valid, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Expense)
		want   error
	}{
		{"zero date", func(e *Expense) { e.Date = Date{} }, ErrZeroDate},
		{"blank description", func(e *Expense) { e.Description = "   " }, ErrEmptyDescription},
		{"negative amount", func(e *Expense) { e.Amount = decimal.NewFromInt(-1) }, ErrNegativeAmount},
		{"unknown category", func(e *Expense) { e.Category = "Rent" }, nil},
		{"unknown payment method", func(e *Expense) { e.PaymentMethod = "Check" }, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := good
			tc.mutate(&e)
			err := e.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestIncomeValidate(t *testing.T) {
	good := Income{
		Date:        NewDate(2025, 2, 1),
		Description: "salary",
		Amount:      decimal.NewFromInt(5000000),
		Source:      SourceSalary,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := good
	bad.Source = "Lottery"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}

func TestCDTValidate(t *testing.T) {
	good := CDT{
		Bank:         "Bancolombia",
		Amount:       decimal.NewFromInt(1000000),
		InterestRate: decimal.NewFromFloat(10.5),
		StartDate:    NewDate(2025, 1, 1),
		EndDate:      NewDate(2025, 7, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	// A zero-length term is allowed; only end before start is rejected.
	sameDay := good
	sameDay.EndDate = sameDay.StartDate
	if err := sameDay.Validate(); err != nil {
		t.Fatalf("same-day term should be valid, got %v", err)
	}

	inverted := good
	inverted.EndDate = NewDate(2024, 12, 31)
	if err := inverted.Validate(); !errors.Is(err, ErrEndBeforeStart) {
		t.Fatalf("expected ErrEndBeforeStart, got %v", err)
	}

	noBank := good
	noBank.Bank = ""
	if err := noBank.Validate(); !errors.Is(err, ErrEmptyBank) {
		t.Fatalf("expected ErrEmptyBank, got %v", err)
	}
}

func TestCDTActive(t *testing.T) {
	c := CDT{EndDate: NewDate(2025, 6, 1)}

	before := time.Date(2025, 5, 31, 23, 0, 0, 0, time.UTC)
	if !c.Active(before) {
		t.Fatalf("expected active before end date")
	}

	// A deposit ending exactly now is already expired.
	exactly := c.EndDate.Time
	if c.Active(exactly) {
		t.Fatalf("expected expired at the end instant")
	}

	after := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	if c.Active(after) {
		t.Fatalf("expected expired after end date")
	}
}

func TestCDTTermDays(t *testing.T) {
	c := CDT{StartDate: NewDate(2025, 1, 1), EndDate: NewDate(2025, 1, 31)}
	if got := c.TermDays(); got != 30 {
		t.Fatalf("expected 30 days, got %v", got)
	}
}

func TestSnapshotClone(t *testing.T) {
	s := Snapshot{
		Expenses: []Expense{{ID: "e1", Description: "one"}},
		Incomes:  []Income{{ID: "i1"}},
		CDTs:     []CDT{{ID: "c1"}},
		LastSync: "2025-01-01 12:00:00",
	}

	c := s.Clone()
	c.Expenses[0].Description = "changed"
	c.Incomes = append(c.Incomes, Income{ID: "i2"})

	if s.Expenses[0].Description != "one" {
		t.Fatalf("clone shares expense backing array")
	}
	if len(s.Incomes) != 1 {
		t.Fatalf("clone shares income backing array")
	}
	if c.LastSync != s.LastSync {
		t.Fatalf("clone lost last sync marker")
	}
}

func TestAmountsMarshalAsNumbers(t *testing.T) {
	e := Expense{
		ID:            "e1",
		Date:          NewDate(2025, 1, 1),
		Description:   "groceries",
		Category:      CategoryGroceries,
		Amount:        decimal.NewFromFloat(45000.5),
		PaymentMethod: PaymentCash,
	}
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(raw["amount"]) != "45000.5" {
		t.Fatalf("amount not a JSON number: %s", raw["amount"])
	}
}
