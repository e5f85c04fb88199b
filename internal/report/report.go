// Package report computes the aggregates behind the dashboard and the CDT
// yield estimator. Every function is a pure function of a snapshot; where a
// result depends on the clock the caller passes now explicitly.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"financepro/internal/core"
)

// Summary holds the headline totals. TotalInvested covers every CDT, active
// and expired alike; the active-only figures live in CDTOverview.
type Summary struct {
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	TotalIncomes  decimal.Decimal `json:"totalIncomes"`
	Balance       decimal.Decimal `json:"balance"`
	TotalInvested decimal.Decimal `json:"totalInvested"`
}

// CategoryTotal is one slice of the expense breakdown.
type CategoryTotal struct {
	Category core.Category   `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// MonthPoint is one bucket of the trailing six-month series. The JSON names
// match the chart payload the dashboard consumes.
type MonthPoint struct {
	Year     int             `json:"year"`
	Month    time.Month      `json:"month"`
	Incomes  decimal.Decimal `json:"ingresos"`
	Expenses decimal.Decimal `json:"gastos"`
	Savings  decimal.Decimal `json:"ahorro"`
}

// CDTOverview summarizes the deposit portfolio as of a given instant.
type CDTOverview struct {
	TotalInvested   decimal.Decimal `json:"totalInvested"`
	EstimatedProfit decimal.Decimal `json:"estimatedProfit"`
	ActiveCount     int             `json:"activeCount"`
	ExpiredCount    int             `json:"expiredCount"`
}

// Totals computes the headline sums over the whole snapshot.
func Totals(s core.Snapshot) Summary {
	var out Summary
	for _, e := range s.Expenses {
		out.TotalExpenses = out.TotalExpenses.Add(e.Amount)
	}
	for _, i := range s.Incomes {
		out.TotalIncomes = out.TotalIncomes.Add(i.Amount)
	}
	for _, c := range s.CDTs {
		out.TotalInvested = out.TotalInvested.Add(c.Amount)
	}
	out.Balance = out.TotalIncomes.Sub(out.TotalExpenses)
	return out
}

// ExpensesByCategory groups expenses by category. Only categories that occur
// in the snapshot appear; buckets keep first-appearance order so output is
// deterministic for a given snapshot.
func ExpensesByCategory(s core.Snapshot) []CategoryTotal {
	index := make(map[core.Category]int)
	var out []CategoryTotal
	for _, e := range s.Expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, CategoryTotal{Category: e.Category})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
	}
	return out
}

// MonthlySeries buckets incomes and expenses into the six trailing calendar
// months ending with the month of now, oldest first. Matching is by the
// month and year components of each record's date, not a rolling window.
// The series always has exactly six points; empty months report zeros.
func MonthlySeries(s core.Snapshot, now time.Time) []MonthPoint {
	// Anchor on the first of the month so stepping back never normalizes
	// across month boundaries.
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	out := make([]MonthPoint, 0, 6)
	for i := 5; i >= 0; i-- {
		m := anchor.AddDate(0, -i, 0)
		p := MonthPoint{Year: m.Year(), Month: m.Month()}
		for _, inc := range s.Incomes {
			if inc.Date.SameMonth(p.Year, p.Month) {
				p.Incomes = p.Incomes.Add(inc.Amount)
			}
		}
		for _, exp := range s.Expenses {
			if exp.Date.SameMonth(p.Year, p.Month) {
				p.Expenses = p.Expenses.Add(exp.Amount)
			}
		}
		p.Savings = p.Incomes.Sub(p.Expenses)
		out = append(out, p)
	}
	return out
}

// Profit estimates the simple-interest yield over the full term:
// amount * (rate/100) * (days/365), with fractional days. The estimate is
// the same whether the deposit is active or already expired; it is not
// adjusted for partial elapsed time and does not compound.
func Profit(c core.CDT) decimal.Decimal {
	days := decimal.NewFromFloat(c.TermDays())
	return c.Amount.Mul(c.InterestRate).Mul(days).Div(decimal.NewFromInt(36500))
}

// PartitionCDTs splits the deposits into active and expired as of now.
func PartitionCDTs(s core.Snapshot, now time.Time) (active, expired []core.CDT) {
	for _, c := range s.CDTs {
		if c.Active(now) {
			active = append(active, c)
		} else {
			expired = append(expired, c)
		}
	}
	return active, expired
}

// CDTOverviewAt computes the active-only portfolio stats as of now. Status is
// re-derived on every call, so results shift as the clock crosses an end
// date.
func CDTOverviewAt(s core.Snapshot, now time.Time) CDTOverview {
	active, expired := PartitionCDTs(s, now)
	out := CDTOverview{
		ActiveCount:  len(active),
		ExpiredCount: len(expired),
	}
	for _, c := range active {
		out.TotalInvested = out.TotalInvested.Add(c.Amount)
		out.EstimatedProfit = out.EstimatedProfit.Add(Profit(c))
	}
	return out
}
