package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kiwari-pos/display/internal/ws"
)

// ConnectionManager is the diagnostic surface of the push channel manager.
type ConnectionManager interface {
	State() ws.State
	Branch() string
	Transitions() []ws.Transition
	Reconcile(ctx context.Context) error
}

// ConnectionHandler exposes push channel state and a manual re-sync trigger.
type ConnectionHandler struct {
	mgr ConnectionManager
}

func NewConnectionHandler(mgr ConnectionManager) *ConnectionHandler {
	return &ConnectionHandler{mgr: mgr}
}

func (h *ConnectionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Post("/reconcile", h.Reconcile)
}

type transitionResponse struct {
	At     time.Time `json:"at"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	Reason string    `json:"reason"`
}

type connectionResponse struct {
	State       string               `json:"state"`
	BranchID    string               `json:"branch_id"`
	Transitions []transitionResponse `json:"transitions"`
}

// Get returns the connection state and its transition log.
func (h *ConnectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	transitions := h.mgr.Transitions()
	resp := connectionResponse{
		State:       h.mgr.State().String(),
		BranchID:    h.mgr.Branch(),
		Transitions: make([]transitionResponse, len(transitions)),
	}
	for i, t := range transitions {
		resp.Transitions[i] = transitionResponse{
			At:     t.At,
			From:   t.From.String(),
			To:     t.To.String(),
			Reason: t.Reason,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Reconcile triggers a manual snapshot fetch on the current subscription.
func (h *ConnectionHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.Reconcile(r.Context()); err != nil {
		if errors.Is(err, ws.ErrNotConnected) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reconciled"})
}
