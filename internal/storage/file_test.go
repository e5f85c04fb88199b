package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"financepro/internal/core"
	applog "financepro/internal/log"
)

func testLogger() *applog.Logger {
	return applog.New(applog.DefaultConfig())
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir, testLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	snap := core.Snapshot{
		Expenses: []core.Expense{{
			ID:            "e1",
			Date:          core.NewDate(2025, 1, 10),
			Description:   "bus fare",
			Category:      core.CategoryTransport,
			Amount:        decimal.NewFromInt(2800),
			PaymentMethod: core.PaymentCash,
		}},
		Incomes:  []core.Income{},
		CDTs:     []core.CDT{},
		LastSync: "2025-01-15 09:30:00",
	}

	if err := fs.Save(context.Background(), snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Expenses) != 1 || got.Expenses[0].ID != "e1" {
		t.Fatalf("round trip lost data: %+v", got)
	}
	if !got.Expenses[0].Amount.Equal(decimal.NewFromInt(2800)) {
		t.Fatalf("amount = %s", got.Expenses[0].Amount)
	}
	if got.LastSync != "2025-01-15 09:30:00" {
		t.Fatalf("lastSync = %q", got.LastSync)
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	fs, err := NewFileStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	got, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("missing file must not fail: %v", err)
	}
	if len(got.Expenses) != 0 || got.Expenses == nil {
		t.Fatalf("expected empty non-nil snapshot, got %+v", got)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir, testLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ledgerFileName), []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("corrupt file must not fail: %v", err)
	}
	if len(got.Expenses) != 0 && len(got.Incomes) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", got)
	}
}

func TestFileStoreSyncURL(t *testing.T) {
	fs, err := NewFileStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	// Unset reads as empty, not an error.
	got, err := fs.SyncURL(context.Background())
	if err != nil || got != "" {
		t.Fatalf("got %q, %v", got, err)
	}

	if err := fs.SetSyncURL(context.Background(), "https://example.com/hook"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err = fs.SyncURL(context.Background())
	if err != nil || got != "https://example.com/hook" {
		t.Fatalf("got %q, %v", got, err)
	}
}
