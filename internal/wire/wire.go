// Package wire defines the JSON shapes the order service sends, both as
// push-channel frames and inside REST envelopes, and validates them at the
// boundary before anything reaches the store.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kiwari-pos/display/internal/enum"
	"github.com/kiwari-pos/display/internal/order"
)

// Frame is the push-channel envelope.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Frame types emitted by the order service.
const (
	TypeNewOrder      = "new_order"
	TypeStatusChanged = "status_changed"
	TypeConnection    = "connection"
	TypePong          = "pong"
)

// Connection is the payload of a "connection" frame.
type Connection struct {
	ConnectionID string `json:"connectionId"`
}

// Schema errors reported by ToModel.
var (
	ErrMissingOrderID     = errors.New("orderId is required")
	ErrMissingBranchID    = errors.New("branchId is required")
	ErrInvalidOrderType   = errors.New("invalid orderType")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidPaymentType = errors.New("invalid paymentType")
	ErrMissingItemID      = errors.New("itemId is required")
)

// Order mirrors the order snapshot JSON.
type Order struct {
	OrderID      string          `json:"orderId"`
	BranchID     string          `json:"branchId"`
	OrderNumber  int32           `json:"orderNumber"`
	OrderType    string          `json:"orderType"`
	Status       string          `json:"status"`
	Note         string          `json:"note,omitempty"`
	CancelReason string          `json:"cancelReason,omitempty"`
	PaymentType  string          `json:"paymentType"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	IsPaid       bool            `json:"isPaid"`
	CreatedAt    time.Time       `json:"createdAt"`
	Lines        []Line          `json:"lines"`
}

// Line mirrors one order line.
type Line struct {
	ItemID          string          `json:"itemId"`
	ItemName        string          `json:"itemName,omitempty"`
	Quantity        int32           `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	TaxPercent      decimal.Decimal `json:"taxPercent"`
}

// ToModel validates the payload shape and converts it to the domain type.
// Payloads are loosely typed on the network; everything is checked here
// rather than trusted at point of use.
func (w Order) ToModel() (order.Order, error) {
	if w.OrderID == "" {
		return order.Order{}, ErrMissingOrderID
	}
	id, err := uuid.Parse(w.OrderID)
	if err != nil {
		return order.Order{}, fmt.Errorf("orderId %q: %w", w.OrderID, err)
	}
	if w.BranchID == "" {
		return order.Order{}, ErrMissingBranchID
	}
	if !enum.ValidOrderType(w.OrderType) {
		return order.Order{}, fmt.Errorf("%w: %q", ErrInvalidOrderType, w.OrderType)
	}
	if !enum.ValidOrderStatus(w.Status) {
		return order.Order{}, fmt.Errorf("%w: %q", ErrInvalidStatus, w.Status)
	}
	if !enum.ValidPaymentType(w.PaymentType) {
		return order.Order{}, fmt.Errorf("%w: %q", ErrInvalidPaymentType, w.PaymentType)
	}

	lines := make([]order.Line, 0, len(w.Lines))
	for i, wl := range w.Lines {
		l, err := wl.toModel()
		if err != nil {
			return order.Order{}, fmt.Errorf("lines[%d]: %w", i, err)
		}
		lines = append(lines, l)
	}

	return order.Order{
		ID:           id,
		BranchID:     w.BranchID,
		Number:       w.OrderNumber,
		Type:         w.OrderType,
		Status:       w.Status,
		Note:         w.Note,
		CancelReason: w.CancelReason,
		PaymentType:  w.PaymentType,
		TotalPrice:   w.TotalPrice,
		IsPaid:       w.IsPaid,
		CreatedAt:    w.CreatedAt,
		Lines:        lines,
	}, nil
}

func (w Line) toModel() (order.Line, error) {
	if w.ItemID == "" {
		return order.Line{}, ErrMissingItemID
	}
	itemID, err := uuid.Parse(w.ItemID)
	if err != nil {
		return order.Line{}, fmt.Errorf("itemId %q: %w", w.ItemID, err)
	}
	l := order.Line{
		ItemID:          itemID,
		ItemName:        w.ItemName,
		Quantity:        w.Quantity,
		UnitPrice:       w.UnitPrice,
		DiscountPercent: w.DiscountPercent,
		TaxPercent:      w.TaxPercent,
	}
	// Reuse the money calculator's input checks as the line schema.
	if _, err := order.LineTotal(l); err != nil {
		return order.Line{}, err
	}
	return l, nil
}

// FromModel converts a domain order back to its wire shape, used when the
// local API echoes service-contract JSON.
func FromModel(o order.Order) Order {
	lines := make([]Line, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = Line{
			ItemID:          l.ItemID.String(),
			ItemName:        l.ItemName,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			TaxPercent:      l.TaxPercent,
		}
	}
	return Order{
		OrderID:      o.ID.String(),
		BranchID:     o.BranchID,
		OrderNumber:  o.Number,
		OrderType:    o.Type,
		Status:       o.Status,
		Note:         o.Note,
		CancelReason: o.CancelReason,
		PaymentType:  o.PaymentType,
		TotalPrice:   o.TotalPrice,
		IsPaid:       o.IsPaid,
		CreatedAt:    o.CreatedAt,
		Lines:        lines,
	}
}
