package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"financepro/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"), testLogger())
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	snap := core.Snapshot{
		Expenses: []core.Expense{
			{
				ID:            "e2",
				Date:          core.NewDate(2025, 2, 1),
				Description:   "groceries",
				Category:      core.CategoryGroceries,
				Amount:        decimal.NewFromFloat(45000.5),
				PaymentMethod: core.PaymentCard,
			},
			{
				ID:            "e1",
				Date:          core.NewDate(2025, 1, 10),
				Description:   "bus fare",
				Category:      core.CategoryTransport,
				Amount:        decimal.NewFromInt(2800),
				PaymentMethod: core.PaymentCash,
			},
		},
		Incomes: []core.Income{{
			ID:          "i1",
			Date:        core.NewDate(2025, 2, 1),
			Description: "salary",
			Amount:      decimal.NewFromInt(5000000),
			Source:      core.SourceSalary,
		}},
		CDTs: []core.CDT{{
			ID:           "c1",
			Bank:         "Davivienda",
			Amount:       decimal.NewFromInt(1000000),
			InterestRate: decimal.NewFromFloat(10.5),
			StartDate:    core.NewDate(2025, 1, 1),
			EndDate:      core.NewDate(2025, 7, 1),
		}},
		LastSync: "2025-02-02 08:00:00",
	}

	if err := repo.Save(context.Background(), snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(got.Expenses) != 2 || len(got.Incomes) != 1 || len(got.CDTs) != 1 {
		t.Fatalf("counts: %d %d %d", len(got.Expenses), len(got.Incomes), len(got.CDTs))
	}
	// Insertion order is preserved across the round trip.
	if got.Expenses[0].ID != "e2" || got.Expenses[1].ID != "e1" {
		t.Fatalf("order lost: %s, %s", got.Expenses[0].ID, got.Expenses[1].ID)
	}
	if !got.Expenses[0].Amount.Equal(decimal.NewFromFloat(45000.5)) {
		t.Fatalf("amount = %s", got.Expenses[0].Amount)
	}
	if !got.CDTs[0].InterestRate.Equal(decimal.NewFromFloat(10.5)) {
		t.Fatalf("rate = %s", got.CDTs[0].InterestRate)
	}
	if !got.CDTs[0].EndDate.Equal(core.NewDate(2025, 7, 1).Time) {
		t.Fatalf("end date = %v", got.CDTs[0].EndDate)
	}
	if got.LastSync != "2025-02-02 08:00:00" {
		t.Fatalf("lastSync = %q", got.LastSync)
	}
}

func TestSQLiteSaveOverwrites(t *testing.T) {
	repo := newTestRepo(t)

	first := core.EmptySnapshot()
	first.Expenses = append(first.Expenses, core.Expense{
		ID: "e1", Date: core.NewDate(2025, 1, 1), Description: "old",
		Category: core.CategoryOther, Amount: decimal.NewFromInt(1),
		PaymentMethod: core.PaymentCash,
	})
	if err := repo.Save(context.Background(), first); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := repo.Save(context.Background(), core.EmptySnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Expenses) != 0 {
		t.Fatalf("old rows survived the overwrite")
	}
	if got.LastSync != "" {
		t.Fatalf("empty marker must clear the setting, got %q", got.LastSync)
	}
}

func TestSQLiteEmptyDatabase(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Expenses == nil || got.Incomes == nil || got.CDTs == nil {
		t.Fatalf("sequences must be non-nil")
	}
	if len(got.Expenses) != 0 || got.LastSync != "" {
		t.Fatalf("expected empty snapshot, got %+v", got)
	}
}

func TestSQLiteSyncURL(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.SyncURL(context.Background())
	if err != nil || got != "" {
		t.Fatalf("got %q, %v", got, err)
	}

	if err := repo.SetSyncURL(context.Background(), "https://example.com/hook"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err = repo.SyncURL(context.Background())
	if err != nil || got != "https://example.com/hook" {
		t.Fatalf("got %q, %v", got, err)
	}

	// The URL lives outside the snapshot; saving does not clear it.
	if err := repo.Save(context.Background(), core.EmptySnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ = repo.SyncURL(context.Background())
	if got != "https://example.com/hook" {
		t.Fatalf("save cleared the sync url")
	}
}
