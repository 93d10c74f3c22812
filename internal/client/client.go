// Package client talks to the order service's REST endpoints. Every
// response uses the service envelope: response == 200 means success, any
// other value is an application-level error with a human-readable message,
// independent of the transport status.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kiwari-pos/display/internal/enum"
	"github.com/kiwari-pos/display/internal/order"
	"github.com/kiwari-pos/display/internal/wire"
)

// Validation errors raised before any request leaves the client.
var (
	ErrEmptyBranch        = errors.New("branch id is required")
	ErrEmptyItems         = errors.New("items are required")
	ErrInvalidOrderType   = errors.New("invalid order type")
	ErrInvalidPaymentType = errors.New("invalid payment type")
	ErrInvalidQuantity    = errors.New("quantity must be > 0")
	ErrInvalidSoldPrice   = errors.New("sold price must be >= 0")
	ErrInvalidDiscount    = errors.New("discounted percentage must be within [0, 100]")
	ErrInvalidStatus      = errors.New("invalid order status")
)

// ApplicationError is a non-200 envelope from the order service.
type ApplicationError struct {
	Code    int
	Message string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("order service: %s (response %d)", e.Message, e.Code)
}

// envelope is the service response wrapper.
type envelope struct {
	Response int             `json:"response"`
	Data     json.RawMessage `json:"data"`
	Message  string          `json:"message"`
}

// Client is a thin HTTP client for the order service.
type Client struct {
	base string
	http *http.Client
}

// New creates a Client for the given base URL. A nil *http.Client gets a
// 10 second timeout default.
func New(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{base: strings.TrimRight(base, "/"), http: hc}
}

// CreateOrderRequest is the create-order payload, field names per the
// service contract.
type CreateOrderRequest struct {
	BranchID    string            `json:"branchId"`
	OrderType   string            `json:"orderType"`
	OrderNote   string            `json:"orderNote,omitempty"`
	PaymentType string            `json:"paymentType"`
	Items       []CreateOrderItem `json:"items"`
}

// CreateOrderItem is one requested line.
type CreateOrderItem struct {
	ItemID               string          `json:"itemId"`
	Quantity             int32           `json:"quantity"`
	SoldPrice            decimal.Decimal `json:"soldPrice"`
	DiscountedPercentage decimal.Decimal `json:"discountedPercentage"`
}

type updateStatusRequest struct {
	OrderID     string `json:"orderId"`
	OrderStatus string `json:"orderStatus"`
}

// OrdersByBranch fetches the full in-flight order set for one branch.
func (c *Client) OrdersByBranch(ctx context.Context, branchID string) ([]order.Order, error) {
	if branchID == "" {
		return nil, ErrEmptyBranch
	}
	env, err := c.do(ctx, http.MethodGet, "/orders?branchId="+url.QueryEscape(branchID), nil)
	if err != nil {
		return nil, err
	}

	var wos []wire.Order
	if err := json.Unmarshal(env.Data, &wos); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	out := make([]order.Order, 0, len(wos))
	for i, wo := range wos {
		o, err := wo.ToModel()
		if err != nil {
			return nil, fmt.Errorf("orders[%d]: %w", i, err)
		}
		out = append(out, o)
	}
	return out, nil
}

// CreateOrder submits a new order and returns the created snapshot. The
// store is not touched here; the service echoes the order back over the
// push channel.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (order.Order, error) {
	if err := validateCreate(req); err != nil {
		return order.Order{}, err
	}
	env, err := c.do(ctx, http.MethodPost, "/orders", req)
	if err != nil {
		return order.Order{}, err
	}

	var wo wire.Order
	if err := json.Unmarshal(env.Data, &wo); err != nil {
		return order.Order{}, fmt.Errorf("decode created order: %w", err)
	}
	return wo.ToModel()
}

// UpdateOrderStatus moves an order to the given status.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	if !enum.ValidOrderStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	_, err := c.do(ctx, http.MethodPut, "/orders/status", updateStatusRequest{
		OrderID:     orderID.String(),
		OrderStatus: status,
	})
	return err
}

func validateCreate(req CreateOrderRequest) error {
	if req.BranchID == "" {
		return ErrEmptyBranch
	}
	if !enum.ValidOrderType(req.OrderType) {
		return fmt.Errorf("%w: %q", ErrInvalidOrderType, req.OrderType)
	}
	if !enum.ValidPaymentType(req.PaymentType) {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentType, req.PaymentType)
	}
	if len(req.Items) == 0 {
		return ErrEmptyItems
	}
	hundred := decimal.NewFromInt(100)
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		if item.SoldPrice.IsNegative() {
			return fmt.Errorf("items[%d]: %w", i, ErrInvalidSoldPrice)
		}
		if item.DiscountedPercentage.IsNegative() || item.DiscountedPercentage.GreaterThan(hundred) {
			return fmt.Errorf("items[%d]: %w", i, ErrInvalidDiscount)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order service: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Response != http.StatusOK {
		return nil, &ApplicationError{Code: env.Response, Message: env.Message}
	}
	return &env, nil
}
