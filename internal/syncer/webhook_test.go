package syncer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"financepro/internal/core"
	applog "financepro/internal/log"
)

type staticEndpoint string

func (s staticEndpoint) SyncURL(ctx context.Context) (string, error) {
	return string(s), nil
}

func testLogger() *applog.Logger {
	return applog.New(applog.DefaultConfig())
}

func testSnapshot() core.Snapshot {
	return core.Snapshot{
		Expenses: []core.Expense{{
			ID:            "e1",
			Date:          core.NewDate(2025, 1, 10),
			Description:   "bus fare",
			Category:      core.CategoryTransport,
			Amount:        decimal.NewFromInt(2800),
			PaymentMethod: core.PaymentCash,
		}},
		Incomes: []core.Income{},
		CDTs:    []core.CDT{},
	}
}

func TestPushNoEndpoint(t *testing.T) {
	w := NewWebhook(staticEndpoint(""), time.Second, testLogger())
	_, err := w.Push(context.Background(), testSnapshot())
	if !errors.Is(err, ErrNoEndpoint) {
		t.Fatalf("expected ErrNoEndpoint, got %v", err)
	}
}

func TestPushConfirmed(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWebhook(staticEndpoint(srv.URL), time.Second, testLogger())
	receipt, err := w.Push(context.Background(), testSnapshot())
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if !receipt.Confirmed || receipt.Mode() != "confirmed" {
		t.Fatalf("expected confirmed receipt, got %+v", receipt)
	}
	if receipt.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", receipt.StatusCode)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content type = %q", gotContentType)
	}
	if _, err := core.DecodeSnapshot(gotBody); err != nil {
		t.Fatalf("pushed body is not a snapshot: %v", err)
	}
}

func TestPushBestEffort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Apps Script style opaque answer.
		w.WriteHeader(http.StatusFound)
	}))
	defer srv.Close()

	w := NewWebhook(staticEndpoint(srv.URL), time.Second, testLogger())
	receipt, err := w.Push(context.Background(), testSnapshot())
	if err != nil {
		t.Fatalf("dispatch without transport error must succeed: %v", err)
	}
	if receipt.Confirmed || receipt.Mode() != "best-effort" {
		t.Fatalf("expected best-effort receipt, got %+v", receipt)
	}
}

func TestPushTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	w := NewWebhook(staticEndpoint(srv.URL), time.Second, testLogger())
	_, err := w.Push(context.Background(), testSnapshot())
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transportErr.Op != "push" {
		t.Fatalf("op = %q", transportErr.Op)
	}
}

func TestPullNoEndpoint(t *testing.T) {
	w := NewWebhook(staticEndpoint(""), time.Second, testLogger())
	_, err := w.Pull(context.Background())
	if !errors.Is(err, ErrNoEndpoint) {
		t.Fatalf("expected ErrNoEndpoint, got %v", err)
	}
}

func TestPullSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("pull must use GET, got %s", r.Method)
		}
		_, _ = w.Write([]byte(`{"expenses":[],"incomes":[],"cdts":[{"id":"c1","bank":"Davivienda","amount":1000000,"interestRate":10,"startDate":"2025-01-01","endDate":"2025-07-01"}]}`))
	}))
	defer srv.Close()

	w := NewWebhook(staticEndpoint(srv.URL), time.Second, testLogger())
	snap, err := w.Pull(context.Background())
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(snap.CDTs) != 1 || snap.CDTs[0].Bank != "Davivienda" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestPullNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	w := NewWebhook(staticEndpoint(srv.URL), time.Second, testLogger())
	_, err := w.Pull(context.Background())
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transportErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", transportErr.StatusCode)
	}
}

func TestPullMissingCollections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Valid JSON, but not a snapshot.
		_, _ = w.Write([]byte(`{"expenses":[],"incomes":[]}`))
	}))
	defer srv.Close()

	w := NewWebhook(staticEndpoint(srv.URL), time.Second, testLogger())
	_, err := w.Pull(context.Background())
	var formatErr *core.FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if len(formatErr.Missing) != 1 || formatErr.Missing[0] != "cdts" {
		t.Fatalf("missing = %v", formatErr.Missing)
	}
}
