// Package syncer moves the full ledger snapshot to and from a remote sync
// target. Every push and pull is an independent, stateless, non-retried
// operation; a pull always replaces the caller's snapshot wholesale.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"financepro/internal/core"
)

// ErrNoEndpoint is returned before any network attempt when no sync endpoint
// has been configured.
var ErrNoEndpoint = errors.New("sync endpoint not configured")

// TransportError reports a network failure or a non-success response. Local
// state is never touched when a pull fails with one.
type TransportError struct {
	Op         string
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sync %s %s: %v", e.Op, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("sync %s %s: unexpected status %d", e.Op, e.Endpoint, e.StatusCode)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PushReceipt is the result of a dispatched push. Confirmed is only true when
// the transport exposed a success status; otherwise the push is best-effort:
// dispatch succeeded but server-side acceptance is unknown. Callers must not
// treat a best-effort receipt as confirmed success.
type PushReceipt struct {
	DispatchedAt time.Time `json:"dispatchedAt"`
	Confirmed    bool      `json:"confirmed"`
	StatusCode   int       `json:"statusCode,omitempty"`
}

// Mode labels the receipt for display: "confirmed" or "best-effort".
func (r PushReceipt) Mode() string {
	if r.Confirmed {
		return "confirmed"
	}
	return "best-effort"
}

// Target is a remote sync destination.
type Target interface {
	// Push sends the full snapshot. A nil error means the request was
	// dispatched; inspect the receipt to distinguish confirmed acceptance
	// from best-effort delivery.
	Push(ctx context.Context, s core.Snapshot) (PushReceipt, error)

	// Pull fetches a full replacement snapshot. Failures are typed:
	// ErrNoEndpoint, *TransportError, or *core.FormatError.
	Pull(ctx context.Context) (core.Snapshot, error)
}

// EndpointSource supplies the configured endpoint URL. The ledger store
// satisfies this; the URL is persisted independently of the snapshot.
type EndpointSource interface {
	SyncURL(ctx context.Context) (string, error)
}
