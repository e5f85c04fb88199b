package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"financepro/internal/core"
	applog "financepro/internal/log"
)

const settingKeyLastSync = "last_sync"
const settingKeySyncURL = "sync_url"

// SQLiteRepository persists the ledger in normalized tables. Save rewrites
// every row inside one transaction, preserving the blob semantics of the file
// backend: whole-snapshot overwrite, last write wins.
type SQLiteRepository struct {
	db     *sql.DB
	logger *applog.Logger
}

func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(applog.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load reads the full snapshot, ordered newest-first. Row-level decode
// failures are recovered as an empty ledger, matching the file backend.
func (r *SQLiteRepository) Load(ctx context.Context) (core.Snapshot, error) {
	snap := core.EmptySnapshot()

	if err := r.loadExpenses(ctx, &snap); err != nil {
		r.logger.WarnContext(ctx, "Expenses unreadable, starting empty", applog.FieldError, err)
		return core.EmptySnapshot(), nil
	}
	if err := r.loadIncomes(ctx, &snap); err != nil {
		r.logger.WarnContext(ctx, "Incomes unreadable, starting empty", applog.FieldError, err)
		return core.EmptySnapshot(), nil
	}
	if err := r.loadCDTs(ctx, &snap); err != nil {
		r.logger.WarnContext(ctx, "CDTs unreadable, starting empty", applog.FieldError, err)
		return core.EmptySnapshot(), nil
	}

	lastSync, err := r.setting(ctx, settingKeyLastSync)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read last sync: %w", err)
	}
	snap.LastSync = lastSync

	return snap, nil
}

// Save replaces the persisted snapshot in one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, s core.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"expenses", "incomes", "cdts"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, e := range s.Expenses {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (id, position, date, description, category, amount, payment_method)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, i, e.Date.Format("2006-01-02"), e.Description,
			string(e.Category), e.Amount.String(), string(e.PaymentMethod))
		if err != nil {
			return fmt.Errorf("insert expense %s: %w", e.ID, err)
		}
	}
	for i, inc := range s.Incomes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO incomes (id, position, date, description, amount, source)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			inc.ID, i, inc.Date.Format("2006-01-02"), inc.Description,
			inc.Amount.String(), string(inc.Source))
		if err != nil {
			return fmt.Errorf("insert income %s: %w", inc.ID, err)
		}
	}
	for i, c := range s.CDTs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO cdts (id, position, bank, amount, interest_rate, start_date, end_date)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID, i, c.Bank, c.Amount.String(), c.InterestRate.String(),
			c.StartDate.Format("2006-01-02"), c.EndDate.Format("2006-01-02"))
		if err != nil {
			return fmt.Errorf("insert cdt %s: %w", c.ID, err)
		}
	}

	if err := setSettingTx(ctx, tx, settingKeyLastSync, s.LastSync); err != nil {
		return fmt.Errorf("store last sync: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	r.logger.DebugContext(ctx, "Snapshot persisted",
		applog.FieldOperation, applog.OpSave,
		"expenses", len(s.Expenses),
		"incomes", len(s.Incomes),
		"cdts", len(s.CDTs))
	return nil
}

func (r *SQLiteRepository) SyncURL(ctx context.Context) (string, error) {
	return r.setting(ctx, settingKeySyncURL)
}

func (r *SQLiteRepository) SetSyncURL(ctx context.Context, url string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		settingKeySyncURL, url)
	if err != nil {
		return fmt.Errorf("store sync url: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) loadExpenses(ctx context.Context, snap *core.Snapshot) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, description, category, amount, payment_method
		 FROM expenses ORDER BY position`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e core.Expense
		var date, amount string
		if err := rows.Scan(&e.ID, &date, &e.Description, &e.Category, &amount, &e.PaymentMethod); err != nil {
			return err
		}
		if e.Date, err = parseDate(date); err != nil {
			return err
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return fmt.Errorf("expense %s amount: %w", e.ID, err)
		}
		snap.Expenses = append(snap.Expenses, e)
	}
	return rows.Err()
}

func (r *SQLiteRepository) loadIncomes(ctx context.Context, snap *core.Snapshot) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, description, amount, source
		 FROM incomes ORDER BY position`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var inc core.Income
		var date, amount string
		if err := rows.Scan(&inc.ID, &date, &inc.Description, &amount, &inc.Source); err != nil {
			return err
		}
		if inc.Date, err = parseDate(date); err != nil {
			return err
		}
		if inc.Amount, err = decimal.NewFromString(amount); err != nil {
			return fmt.Errorf("income %s amount: %w", inc.ID, err)
		}
		snap.Incomes = append(snap.Incomes, inc)
	}
	return rows.Err()
}

func (r *SQLiteRepository) loadCDTs(ctx context.Context, snap *core.Snapshot) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, bank, amount, interest_rate, start_date, end_date
		 FROM cdts ORDER BY position`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c core.CDT
		var amount, rate, start, end string
		if err := rows.Scan(&c.ID, &c.Bank, &amount, &rate, &start, &end); err != nil {
			return err
		}
		if c.Amount, err = decimal.NewFromString(amount); err != nil {
			return fmt.Errorf("cdt %s amount: %w", c.ID, err)
		}
		if c.InterestRate, err = decimal.NewFromString(rate); err != nil {
			return fmt.Errorf("cdt %s rate: %w", c.ID, err)
		}
		if c.StartDate, err = parseDate(start); err != nil {
			return err
		}
		if c.EndDate, err = parseDate(end); err != nil {
			return err
		}
		snap.CDTs = append(snap.CDTs, c)
	}
	return rows.Err()
}

func (r *SQLiteRepository) setting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read setting %s: %w", key, err)
	}
	return value, nil
}

func setSettingTx(ctx context.Context, tx *sql.Tx, key, value string) error {
	if value == "" {
		_, err := tx.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
		return err
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}

func parseDate(s string) (core.Date, error) {
	var d core.Date
	if err := d.UnmarshalJSON([]byte(`"` + s + `"`)); err != nil {
		return core.Date{}, err
	}
	return d, nil
}
