package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kiwari-pos/display/internal/client"
	"github.com/kiwari-pos/display/internal/order"
)

// OrderReader is the store surface the read endpoints need.
type OrderReader interface {
	Get(id uuid.UUID) (order.Order, bool)
	All() []order.Order
}

// OrderWriter proxies commands to the order service; satisfied by
// *client.Client. Results land in the store via the push channel, not here.
type OrderWriter interface {
	CreateOrder(ctx context.Context, req client.CreateOrderRequest) (order.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) error
}

// OrderHandler serves the local display-facing order endpoints.
type OrderHandler struct {
	store OrderReader
	svc   OrderWriter
}

func NewOrderHandler(store OrderReader, svc OrderWriter) *OrderHandler {
	return &OrderHandler{store: store, svc: svc}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type createOrderRequest struct {
	BranchID    string                   `json:"branch_id"`
	OrderType   string                   `json:"order_type"`
	OrderNote   string                   `json:"order_note"`
	PaymentType string                   `json:"payment_type"`
	Items       []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	ItemID               string          `json:"item_id"`
	Quantity             int32           `json:"quantity"`
	SoldPrice            decimal.Decimal `json:"sold_price"`
	DiscountedPercentage decimal.Decimal `json:"discounted_percentage"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID            uuid.UUID           `json:"id"`
	BranchID      string              `json:"branch_id"`
	OrderNumber   int32               `json:"order_number"`
	OrderType     string              `json:"order_type"`
	Status        string              `json:"status"`
	Note          *string             `json:"note"`
	CancelReason  *string             `json:"cancel_reason"`
	PaymentType   string              `json:"payment_type"`
	TotalPrice    string              `json:"total_price"`
	ComputedTotal string              `json:"computed_total"`
	IsPaid        bool                `json:"is_paid"`
	CreatedAt     time.Time           `json:"created_at"`
	Lines         []orderLineResponse `json:"lines"`
}

type orderLineResponse struct {
	ItemID          uuid.UUID `json:"item_id"`
	ItemName        *string   `json:"item_name"`
	Quantity        int32     `json:"quantity"`
	UnitPrice       string    `json:"unit_price"`
	DiscountPercent string    `json:"discount_percent"`
	TaxPercent      string    `json:"tax_percent"`
	LineTotal       string    `json:"line_total"`
}

// --- Handlers ---

// List returns the current store snapshot, ordered by order number.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders := h.store.All()
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].Number != orders[j].Number {
			return orders[i].Number < orders[j].Number
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single order by ID.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	o, ok := h.store.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// Create forwards a new order to the order service. The created snapshot is
// returned to the caller; the store picks it up from the push channel.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	items := make([]client.CreateOrderItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = client.CreateOrderItem{
			ItemID:               it.ItemID,
			Quantity:             it.Quantity,
			SoldPrice:            it.SoldPrice,
			DiscountedPercentage: it.DiscountedPercentage,
		}
	}

	created, err := h.svc.CreateOrder(r.Context(), client.CreateOrderRequest{
		BranchID:    req.BranchID,
		OrderType:   req.OrderType,
		OrderNote:   req.OrderNote,
		PaymentType: req.PaymentType,
		Items:       items,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(created))
}

// UpdateStatus forwards a status change to the order service.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	if err := h.svc.UpdateOrderStatus(r.Context(), id, req.Status); err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

// --- Helpers ---

// isValidationError checks if the error is a known validation error from the
// client layer that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, client.ErrEmptyBranch) ||
		errors.Is(err, client.ErrEmptyItems) ||
		errors.Is(err, client.ErrInvalidOrderType) ||
		errors.Is(err, client.ErrInvalidPaymentType) ||
		errors.Is(err, client.ErrInvalidQuantity) ||
		errors.Is(err, client.ErrInvalidSoldPrice) ||
		errors.Is(err, client.ErrInvalidDiscount) ||
		errors.Is(err, client.ErrInvalidStatus)
}

func respondServiceError(w http.ResponseWriter, err error) {
	if isValidationError(err) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	var appErr *client.ApplicationError
	if errors.As(err, &appErr) {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": appErr.Message})
		return
	}
	log.Printf("ERROR: order service call: %v", err)
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "order service unavailable"})
}

func toOrderResponse(o order.Order) orderResponse {
	resp := orderResponse{
		ID:          o.ID,
		BranchID:    o.BranchID,
		OrderNumber: o.Number,
		OrderType:   o.Type,
		Status:      o.Status,
		PaymentType: o.PaymentType,
		TotalPrice:  o.TotalPrice.StringFixed(2),
		IsPaid:      o.IsPaid,
		CreatedAt:   o.CreatedAt,
		Lines:       make([]orderLineResponse, len(o.Lines)),
	}
	if o.Note != "" {
		resp.Note = &o.Note
	}
	if o.CancelReason != "" {
		resp.CancelReason = &o.CancelReason
	}
	if total, err := order.ComputedTotal(o); err == nil {
		resp.ComputedTotal = total.StringFixed(2)
	} else {
		resp.ComputedTotal = o.TotalPrice.StringFixed(2)
	}

	for i, l := range o.Lines {
		lr := orderLineResponse{
			ItemID:          l.ItemID,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice.StringFixed(2),
			DiscountPercent: l.DiscountPercent.String(),
			TaxPercent:      l.TaxPercent.String(),
		}
		if l.ItemName != "" {
			name := l.ItemName
			lr.ItemName = &name
		}
		if lt, err := order.LineTotal(l); err == nil {
			lr.LineTotal = lt.StringFixed(2)
		}
		resp.Lines[i] = lr
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}
