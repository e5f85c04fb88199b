// Package ledger owns the canonical in-memory financial dataset. The store
// is the single writer: every mutation replaces the whole snapshot and
// persists it through the backend before returning.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"financepro/internal/backend"
	"financepro/internal/core"
	applog "financepro/internal/log"
)

type Store struct {
	mu      sync.Mutex
	snap    core.Snapshot
	rev     uint64
	persist backend.Store
	logger  *applog.Logger
}

// Open loads the persisted snapshot into a new store. A backend that cannot
// be read at all still yields a working store over the empty ledger; the
// failure is logged, never surfaced.
func Open(ctx context.Context, persist backend.Store, logger *applog.Logger) *Store {
	lg := logger.WithComponent(applog.ComponentLedger)

	snap, err := persist.Load(ctx)
	if err != nil {
		lg.WarnContext(ctx, "Persisted ledger unreadable, starting empty",
			applog.FieldError, err, applog.FieldOperation, applog.OpLoad)
		snap = core.EmptySnapshot()
	}

	lg.InfoContext(ctx, "Ledger loaded",
		"expenses", len(snap.Expenses),
		"incomes", len(snap.Incomes),
		"cdts", len(snap.CDTs))

	return &Store{snap: snap, persist: persist, logger: lg}
}

// Snapshot returns a copy of the current dataset.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Revision returns a counter that increases with every mutation. Consumers
// use it as a cache key for derived aggregates.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev
}

// AddExpense assigns a fresh identifier, prepends the record and persists the
// snapshot. The stored record is returned.
func (s *Store) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Expenses = append([]core.Expense{e}, s.snap.Expenses...)
	s.commit(ctx, applog.OpAdd, "expense", e.ID)
	return e, nil
}

func (s *Store) AddIncome(ctx context.Context, in core.Income) (core.Income, error) {
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	in.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Incomes = append([]core.Income{in}, s.snap.Incomes...)
	s.commit(ctx, applog.OpAdd, "income", in.ID)
	return in, nil
}

func (s *Store) AddCDT(ctx context.Context, c core.CDT) (core.CDT, error) {
	if err := c.Validate(); err != nil {
		return core.CDT{}, err
	}
	c.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.CDTs = append([]core.CDT{c}, s.snap.CDTs...)
	s.commit(ctx, applog.OpAdd, "cdt", c.ID)
	return c, nil
}

// DeleteExpense removes the record with the given identifier. An absent
// identifier is a no-op, not an error.
func (s *Store) DeleteExpense(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.snap.Expenses {
		if e.ID == id {
			s.snap.Expenses = append(s.snap.Expenses[:i:i], s.snap.Expenses[i+1:]...)
			s.commit(ctx, applog.OpDelete, "expense", id)
			return
		}
	}
}

func (s *Store) DeleteIncome(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, in := range s.snap.Incomes {
		if in.ID == id {
			s.snap.Incomes = append(s.snap.Incomes[:i:i], s.snap.Incomes[i+1:]...)
			s.commit(ctx, applog.OpDelete, "income", id)
			return
		}
	}
}

func (s *Store) DeleteCDT(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.snap.CDTs {
		if c.ID == id {
			s.snap.CDTs = append(s.snap.CDTs[:i:i], s.snap.CDTs[i+1:]...)
			s.commit(ctx, applog.OpDelete, "cdt", id)
			return
		}
	}
}

// Reset drops every record and the last-sync marker.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = core.EmptySnapshot()
	s.commit(ctx, applog.OpReset, "", "")
}

// Replace installs a full replacement snapshot (import or remote pull).
func (s *Store) Replace(ctx context.Context, snap core.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap.Clone()
	s.commit(ctx, applog.OpReplace, "", "")
}

// SetLastSync records the moment of the last successful push as a display
// string.
func (s *Store) SetLastSync(ctx context.Context, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.LastSync = at.Format("2006-01-02 15:04:05")
	s.commit(ctx, applog.OpSave, "last_sync", "")
}

// SyncURL reads the independently persisted sync endpoint.
func (s *Store) SyncURL(ctx context.Context) (string, error) {
	return s.persist.SyncURL(ctx)
}

// SetSyncURL stores the sync endpoint.
func (s *Store) SetSyncURL(ctx context.Context, url string) error {
	return s.persist.SetSyncURL(ctx, url)
}

// commit bumps the revision and persists the current snapshot. Persistence
// failures are logged, not propagated: the in-memory state already moved on
// and the next successful save wins. Callers must hold s.mu.
func (s *Store) commit(ctx context.Context, op, kind, id string) {
	s.rev++
	if err := s.persist.Save(ctx, s.snap); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist snapshot",
			applog.FieldError, err,
			applog.FieldOperation, op,
			applog.FieldRecordKind, kind,
			applog.FieldRecordID, id,
			applog.FieldRevision, s.rev)
		return
	}
	s.logger.DebugContext(ctx, "Ledger mutation persisted",
		applog.FieldOperation, op,
		applog.FieldRecordKind, kind,
		applog.FieldRecordID, id,
		applog.FieldRevision, s.rev)
}
