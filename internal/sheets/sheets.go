// Package sheets implements a sync target that talks to a Google Sheets
// spreadsheet directly instead of going through a webhook in front of it.
// Each record sequence lives in its own tab; a push rewrites all three tabs
// and a pull reads them back into a full replacement snapshot.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"financepro/internal/core"
	applog "financepro/internal/log"
	"financepro/internal/syncer"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	expensesSheet string
	incomesSheet  string
	cdtsSheet     string
	logger        *applog.Logger
}

var _ syncer.Target = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service-account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. Optional tab names:
// SHEET_EXPENSES, SHEET_INCOMES, SHEET_CDTS.
func NewFromEnv(ctx context.Context, logger *applog.Logger) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		expensesSheet: envOr("SHEET_EXPENSES", "Expenses"),
		incomesSheet:  envOr("SHEET_INCOMES", "Incomes"),
		cdtsSheet:     envOr("SHEET_CDTS", "CDTs"),
		logger:        logger.WithComponent(applog.ComponentSheets),
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentials []byte
	switch {
	case inline != "":
		credentials = []byte(inline)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentials = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// Push rewrites the three tabs with the snapshot's records. The Sheets API
// reports success explicitly, so receipts from this target are confirmed.
func (c *Client) Push(ctx context.Context, s core.Snapshot) (syncer.PushReceipt, error) {
	if err := c.writeTab(ctx, c.expensesSheet, expenseRows(s.Expenses)); err != nil {
		return syncer.PushReceipt{}, err
	}
	if err := c.writeTab(ctx, c.incomesSheet, incomeRows(s.Incomes)); err != nil {
		return syncer.PushReceipt{}, err
	}
	if err := c.writeTab(ctx, c.cdtsSheet, cdtRows(s.CDTs)); err != nil {
		return syncer.PushReceipt{}, err
	}

	c.logger.InfoContext(ctx, "Snapshot pushed to spreadsheet",
		applog.FieldOperation, applog.OpPush,
		"spreadsheet_id", c.spreadsheetID,
		"expenses", len(s.Expenses),
		"incomes", len(s.Incomes),
		"cdts", len(s.CDTs))

	return syncer.PushReceipt{DispatchedAt: time.Now(), Confirmed: true}, nil
}

// Pull reads all three tabs into a replacement snapshot.
func (c *Client) Pull(ctx context.Context) (core.Snapshot, error) {
	snap := core.EmptySnapshot()

	rows, err := c.readTab(ctx, c.expensesSheet)
	if err != nil {
		return core.Snapshot{}, err
	}
	if snap.Expenses, err = parseExpenses(rows); err != nil {
		return core.Snapshot{}, fmt.Errorf("tab %s: %w", c.expensesSheet, err)
	}

	if rows, err = c.readTab(ctx, c.incomesSheet); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Incomes, err = parseIncomes(rows); err != nil {
		return core.Snapshot{}, fmt.Errorf("tab %s: %w", c.incomesSheet, err)
	}

	if rows, err = c.readTab(ctx, c.cdtsSheet); err != nil {
		return core.Snapshot{}, err
	}
	if snap.CDTs, err = parseCDTs(rows); err != nil {
		return core.Snapshot{}, fmt.Errorf("tab %s: %w", c.cdtsSheet, err)
	}

	c.logger.InfoContext(ctx, "Snapshot pulled from spreadsheet",
		applog.FieldOperation, applog.OpPull,
		"spreadsheet_id", c.spreadsheetID,
		"expenses", len(snap.Expenses),
		"incomes", len(snap.Incomes),
		"cdts", len(snap.CDTs))

	return snap, nil
}

func (c *Client) writeTab(ctx context.Context, tab string, rows [][]interface{}) error {
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, tab, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return &syncer.TransportError{Op: applog.OpPush, Endpoint: c.spreadsheetID, Err: fmt.Errorf("clear %s: %w", tab, err)}
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, tab+"!A1", &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return &syncer.TransportError{Op: applog.OpPush, Endpoint: c.spreadsheetID, Err: fmt.Errorf("update %s: %w", tab, err)}
	}
	return nil
}

func (c *Client) readTab(ctx context.Context, tab string) ([][]interface{}, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, tab).Context(ctx).Do()
	if err != nil {
		return nil, &syncer.TransportError{Op: applog.OpPull, Endpoint: c.spreadsheetID, Err: fmt.Errorf("read %s: %w", tab, err)}
	}
	return resp.Values, nil
}

func expenseRows(expenses []core.Expense) [][]interface{} {
	rows := [][]interface{}{{"ID", "Date", "Description", "Category", "Amount", "PaymentMethod"}}
	for _, e := range expenses {
		rows = append(rows, []interface{}{
			e.ID, e.Date.Format("2006-01-02"), e.Description,
			string(e.Category), e.Amount.String(), string(e.PaymentMethod),
		})
	}
	return rows
}

func incomeRows(incomes []core.Income) [][]interface{} {
	rows := [][]interface{}{{"ID", "Date", "Description", "Amount", "Source"}}
	for _, in := range incomes {
		rows = append(rows, []interface{}{
			in.ID, in.Date.Format("2006-01-02"), in.Description,
			in.Amount.String(), string(in.Source),
		})
	}
	return rows
}

func cdtRows(cdts []core.CDT) [][]interface{} {
	rows := [][]interface{}{{"ID", "Bank", "Amount", "InterestRate", "StartDate", "EndDate"}}
	for _, c := range cdts {
		rows = append(rows, []interface{}{
			c.ID, c.Bank, c.Amount.String(), c.InterestRate.String(),
			c.StartDate.Format("2006-01-02"), c.EndDate.Format("2006-01-02"),
		})
	}
	return rows
}

func parseExpenses(rows [][]interface{}) ([]core.Expense, error) {
	out := []core.Expense{}
	for i, row := range dataRows(rows) {
		if len(row) < 6 {
			return nil, fmt.Errorf("row %d: want 6 columns, got %d", i+2, len(row))
		}
		date, err := parseDateCell(cell(row, 1))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		amount, err := decimal.NewFromString(cell(row, 4))
		if err != nil {
			return nil, fmt.Errorf("row %d amount: %w", i+2, err)
		}
		out = append(out, core.Expense{
			ID:            cell(row, 0),
			Date:          date,
			Description:   cell(row, 2),
			Category:      core.Category(cell(row, 3)),
			Amount:        amount,
			PaymentMethod: core.PaymentMethod(cell(row, 5)),
		})
	}
	return out, nil
}

func parseIncomes(rows [][]interface{}) ([]core.Income, error) {
	out := []core.Income{}
	for i, row := range dataRows(rows) {
		if len(row) < 5 {
			return nil, fmt.Errorf("row %d: want 5 columns, got %d", i+2, len(row))
		}
		date, err := parseDateCell(cell(row, 1))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		amount, err := decimal.NewFromString(cell(row, 3))
		if err != nil {
			return nil, fmt.Errorf("row %d amount: %w", i+2, err)
		}
		out = append(out, core.Income{
			ID:          cell(row, 0),
			Date:        date,
			Description: cell(row, 2),
			Amount:      amount,
			Source:      core.IncomeSource(cell(row, 4)),
		})
	}
	return out, nil
}

func parseCDTs(rows [][]interface{}) ([]core.CDT, error) {
	out := []core.CDT{}
	for i, row := range dataRows(rows) {
		if len(row) < 6 {
			return nil, fmt.Errorf("row %d: want 6 columns, got %d", i+2, len(row))
		}
		amount, err := decimal.NewFromString(cell(row, 2))
		if err != nil {
			return nil, fmt.Errorf("row %d amount: %w", i+2, err)
		}
		rate, err := decimal.NewFromString(cell(row, 3))
		if err != nil {
			return nil, fmt.Errorf("row %d rate: %w", i+2, err)
		}
		start, err := parseDateCell(cell(row, 4))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		end, err := parseDateCell(cell(row, 5))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, core.CDT{
			ID:           cell(row, 0),
			Bank:         cell(row, 1),
			Amount:       amount,
			InterestRate: rate,
			StartDate:    start,
			EndDate:      end,
		})
	}
	return out, nil
}

// dataRows skips the header row.
func dataRows(rows [][]interface{}) [][]interface{} {
	if len(rows) <= 1 {
		return nil
	}
	return rows[1:]
}

func cell(row []interface{}, i int) string {
	if i >= len(row) {
		return ""
	}
	s, _ := row[i].(string)
	return strings.TrimSpace(s)
}

func parseDateCell(s string) (core.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return core.Date{Time: t}, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
