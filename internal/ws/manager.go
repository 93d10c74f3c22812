// Package ws owns the push channel lifecycle: it dials the order service's
// websocket endpoint for one branch, feeds inbound frames to the dispatcher
// in arrival order, and reconciles the store on every fresh subscription.
package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kiwari-pos/display/internal/metrics"
	"github.com/kiwari-pos/display/internal/order"
	"github.com/kiwari-pos/display/internal/store"
)

var (
	ErrEmptyBranch      = errors.New("branch id is required")
	ErrAlreadyConnected = errors.New("connection already open or opening")
	ErrNotConnected     = errors.New("not connected")
	ErrSuperseded       = errors.New("subscription superseded while connecting")
)

// TransportError reports a push channel that failed to open or closed
// unexpectedly.
type TransportError struct {
	Op  string // "dial" or "read"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("push channel %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Reconciler pulls the full branch snapshot; satisfied by *recon.Bootstrap.
type Reconciler interface {
	Fetch(ctx context.Context, branchID string) ([]order.Order, error)
}

// Dispatcher routes one raw push frame; satisfied by *dispatch.Dispatcher.
type Dispatcher interface {
	Dispatch(raw []byte) error
}

// Manager owns one push channel subscription at a time. Each Connect bumps a
// subscription epoch; reads and reconciliation results carry the epoch they
// were issued under and are discarded once a newer subscription exists, so a
// stale frame or fetch can never overwrite post-reconnect state.
type Manager struct {
	baseURL string
	dialer  *websocket.Dialer
	recon   Reconciler
	disp    Dispatcher
	store   *store.Store
	log     *slog.Logger
	mets    *metrics.Registry

	mu          sync.Mutex
	state       State
	epoch       uint64
	branch      string
	conn        *websocket.Conn
	transitions []Transition
	onState     func(StateChange)
}

// NewManager creates a Manager. baseURL is the websocket scheme base, e.g.
// "ws://localhost:8081".
func NewManager(baseURL string, rec Reconciler, disp Dispatcher, st *store.Store, log *slog.Logger, mets *metrics.Registry) *Manager {
	if log == nil {
		log = slog.Default()
	}
	if mets == nil {
		mets = metrics.NewRegistry()
	}
	return &Manager{
		baseURL: strings.TrimRight(baseURL, "/"),
		dialer:  websocket.DefaultDialer,
		recon:   rec,
		disp:    disp,
		store:   st,
		log:     log,
		mets:    mets,
	}
}

// OnStateChange registers the observer called on every transition. Set it
// before Connect; the callback runs with the manager lock held and must not
// call back into the Manager.
func (m *Manager) OnStateChange(fn func(StateChange)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onState = fn
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Branch returns the branch of the current subscription.
func (m *Manager) Branch() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.branch
}

// Transitions returns a copy of the diagnostic transition log.
func (m *Manager) Transitions() []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Transition(nil), m.transitions...)
}

// Connect opens the push channel for branchID and seeds the store with one
// reconciliation fetch before frames start pumping. If the fetch fails the
// channel stays up, the store is untouched and the error is returned so the
// caller can retry with Reconcile.
func (m *Manager) Connect(ctx context.Context, branchID string) error {
	if branchID == "" {
		return ErrEmptyBranch
	}

	m.mu.Lock()
	if m.state != Disconnected {
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	m.epoch++
	ep := m.epoch
	m.branch = branchID
	m.setState(Connecting, "connect requested", nil)
	m.mu.Unlock()

	url := fmt.Sprintf("%s/ws/branches/%s/orders", m.baseURL, branchID)
	conn, _, err := m.dialer.DialContext(ctx, url, nil)
	if err != nil {
		terr := &TransportError{Op: "dial", Err: err}
		m.mu.Lock()
		if m.epoch == ep {
			m.setState(Disconnected, "dial failed", terr)
		}
		m.mu.Unlock()
		return terr
	}

	m.mu.Lock()
	if m.epoch != ep {
		// Disconnect raced the dial; this subscription no longer exists.
		m.mu.Unlock()
		conn.Close()
		return ErrSuperseded
	}
	m.conn = conn
	m.setState(Connected, "channel open", nil)
	m.mu.Unlock()

	// Seed the store before pumping so frames queued during the fetch apply
	// on top of the reconciled snapshot, in arrival order.
	err = m.reconcile(ctx, ep, branchID)

	go m.readPump(conn, ep)

	return err
}

// Reconcile re-runs the snapshot fetch for the current subscription.
func (m *Manager) Reconcile(ctx context.Context) error {
	m.mu.Lock()
	if m.state != Connected {
		m.mu.Unlock()
		return ErrNotConnected
	}
	ep, branch := m.epoch, m.branch
	m.mu.Unlock()
	return m.reconcile(ctx, ep, branch)
}

// Disconnect closes the push channel. Idempotent; safe in any state.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Disconnected {
		return
	}
	m.epoch++
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	m.setState(Disconnected, "disconnect requested", nil)
}

// reconcile fetches the branch snapshot and applies it only if the epoch is
// still current. Results issued under a superseded subscription are
// discarded, never applied.
func (m *Manager) reconcile(ctx context.Context, ep uint64, branchID string) error {
	orders, err := m.recon.Fetch(ctx, branchID)
	if err != nil {
		m.mets.Reconciles.WithLabelValues("error").Inc()
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != ep {
		m.mets.Reconciles.WithLabelValues("stale").Inc()
		m.log.Warn("discarding stale reconciliation", "branch_id", branchID, "epoch", ep)
		return nil
	}
	m.store.ReplaceBranch(branchID, orders)
	m.mets.Reconciles.WithLabelValues("ok").Inc()
	m.mets.StoreOrders.Set(float64(m.store.Len()))
	m.log.Info("reconciled", "branch_id", branchID, "orders", len(orders))
	return nil
}

// readPump hands frames to the dispatcher strictly in arrival order. One
// goroutine per connection; exits on the first read error.
func (m *Manager) readPump(conn *websocket.Conn, ep uint64) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			m.closed(ep, err)
			return
		}
		m.dispatchFrame(ep, raw)
	}
}

// dispatchFrame applies one frame under the manager lock so a frame read off
// a superseded connection can never land after a newer reconciliation.
func (m *Manager) dispatchFrame(ep uint64, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != ep {
		return
	}
	// Frame-level failures are contained at the dispatcher; it has already
	// logged and counted the drop.
	_ = m.disp.Dispatch(raw)
}

// closed handles the channel dropping out from under the current
// subscription. A close caused by Disconnect has already bumped the epoch
// and is ignored here.
func (m *Manager) closed(ep uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != ep || m.state != Connected {
		return
	}
	m.conn = nil
	m.setState(Disconnected, "channel closed", &TransportError{Op: "read", Err: err})
}

// setState appends to the diagnostic log and notifies the observer.
// Caller holds m.mu.
func (m *Manager) setState(to State, reason string, err error) {
	from := m.state
	m.state = to
	m.transitions = append(m.transitions, Transition{At: time.Now(), From: from, To: to, Reason: reason})
	m.mets.ConnState.Set(float64(to))
	m.log.Info("connection state", "from", from.String(), "to", to.String(), "reason", reason)
	if m.onState != nil {
		m.onState(StateChange{State: to, Reason: reason, Err: err})
	}
}
