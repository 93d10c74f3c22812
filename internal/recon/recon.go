// Package recon recovers store state missed while disconnected by pulling
// the full branch snapshot from the order service.
package recon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kiwari-pos/display/internal/order"
	"github.com/kiwari-pos/display/internal/store"
)

// ReconciliationError reports a failed snapshot fetch. The store is left as
// it was; stale contents beat an emptied store.
type ReconciliationError struct {
	BranchID string
	Err      error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconcile branch %s: %v", e.BranchID, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }

// Fetcher is the fetch-by-branch surface of the order service client.
type Fetcher interface {
	OrdersByBranch(ctx context.Context, branchID string) ([]order.Order, error)
}

// Bootstrap seeds or overwrites the store from a branch snapshot.
type Bootstrap struct {
	fetch Fetcher
	store *store.Store
	log   *slog.Logger
}

func New(fetch Fetcher, st *store.Store, log *slog.Logger) *Bootstrap {
	if log == nil {
		log = slog.Default()
	}
	return &Bootstrap{fetch: fetch, store: st, log: log}
}

// Fetch pulls the branch snapshot without touching the store. The connection
// manager uses this and gates the apply by subscription epoch.
func (b *Bootstrap) Fetch(ctx context.Context, branchID string) ([]order.Order, error) {
	orders, err := b.fetch.OrdersByBranch(ctx, branchID)
	if err != nil {
		return nil, &ReconciliationError{BranchID: branchID, Err: err}
	}
	return orders, nil
}

// Reconcile fetches and replaces the branch's entries in one step. This is
// the cold-start path, before any push channel is up.
func (b *Bootstrap) Reconcile(ctx context.Context, branchID string) ([]order.Order, error) {
	orders, err := b.Fetch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	b.store.ReplaceBranch(branchID, orders)
	b.log.Info("store reconciled", "branch_id", branchID, "orders", len(orders))
	return orders, nil
}
