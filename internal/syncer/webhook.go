package syncer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"financepro/internal/core"
	applog "financepro/internal/log"
)

const defaultTimeout = 15 * time.Second

// Webhook syncs against a single opaque URL, typically a spreadsheet-backed
// web app. The endpoint is read from the settings store on every call so a
// URL change takes effect without restarting.
type Webhook struct {
	endpoints EndpointSource
	client    *http.Client
	logger    *applog.Logger
}

func NewWebhook(endpoints EndpointSource, timeout time.Duration, logger *applog.Logger) *Webhook {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Webhook{
		endpoints: endpoints,
		client:    &http.Client{Timeout: timeout},
		logger:    logger.WithComponent(applog.ComponentSync),
	}
}

// Push POSTs the snapshot as a JSON body. The target endpoint may not expose
// a meaningful response (Apps Script web apps answer through redirects), so
// any dispatch without a transport-level error counts as assumed success;
// the receipt is only Confirmed when a 2xx status came back.
func (w *Webhook) Push(ctx context.Context, s core.Snapshot) (PushReceipt, error) {
	endpoint, err := w.endpoint(ctx)
	if err != nil {
		return PushReceipt{}, err
	}

	body, err := core.EncodeSnapshot(s)
	if err != nil {
		return PushReceipt{}, fmt.Errorf("encode snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return PushReceipt{}, fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return PushReceipt{}, &TransportError{Op: applog.OpPush, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	receipt := PushReceipt{
		DispatchedAt: time.Now(),
		Confirmed:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode:   resp.StatusCode,
	}

	w.logger.InfoContext(ctx, "Snapshot pushed",
		applog.FieldOperation, applog.OpPush,
		applog.FieldEndpoint, endpoint,
		applog.FieldStatusCode, resp.StatusCode,
		"mode", receipt.Mode(),
		"bytes", len(body))

	return receipt, nil
}

// Pull GETs a full replacement snapshot. A non-success status or a body that
// does not decode as the snapshot shape leaves the caller's state untouched.
func (w *Webhook) Pull(ctx context.Context) (core.Snapshot, error) {
	endpoint, err := w.endpoint(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("build pull request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return core.Snapshot{}, &TransportError{Op: applog.OpPull, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return core.Snapshot{}, &TransportError{Op: applog.OpPull, Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.Snapshot{}, &TransportError{Op: applog.OpPull, Endpoint: endpoint, Err: err}
	}

	snap, err := core.DecodeSnapshot(body)
	if err != nil {
		return core.Snapshot{}, err
	}

	w.logger.InfoContext(ctx, "Snapshot pulled",
		applog.FieldOperation, applog.OpPull,
		applog.FieldEndpoint, endpoint,
		"expenses", len(snap.Expenses),
		"incomes", len(snap.Incomes),
		"cdts", len(snap.CDTs))

	return snap, nil
}

func (w *Webhook) endpoint(ctx context.Context) (string, error) {
	endpoint, err := w.endpoints.SyncURL(ctx)
	if err != nil {
		return "", fmt.Errorf("read sync endpoint: %w", err)
	}
	if endpoint == "" {
		return "", ErrNoEndpoint
	}
	return endpoint, nil
}
