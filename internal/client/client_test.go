package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiwari-pos/display/internal/enum"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestOrdersByBranch(t *testing.T) {
	orderID := uuid.NewString()
	itemID := uuid.NewString()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "B1", r.URL.Query().Get("branchId"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"response": 200,
			"data": []map[string]any{{
				"orderId":     orderID,
				"branchId":    "B1",
				"orderNumber": 3,
				"orderType":   "TAKEAWAY",
				"status":      "READY",
				"paymentType": "MOBILE",
				"totalPrice":  21,
				"isPaid":      false,
				"lines": []map[string]any{{
					"itemId":    itemID,
					"quantity":  2,
					"unitPrice": 10.5,
				}},
			}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	orders, err := c.OrdersByBranch(context.Background(), "B1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, orderID, orders[0].ID.String())
	assert.Equal(t, enum.OrderStatusReady, orders[0].Status)
	assert.True(t, orders[0].TotalPrice.Equal(dec("21")))
	require.Len(t, orders[0].Lines, 1)
	assert.True(t, orders[0].Lines[0].UnitPrice.Equal(dec("10.5")))
}

func TestOrdersByBranchApplicationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Transport-level 200; failure lives inside the envelope.
		json.NewEncoder(w).Encode(map[string]any{
			"response": 404,
			"message":  "branch not found",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.OrdersByBranch(context.Background(), "NOPE")

	var appErr *ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.Code)
	assert.Equal(t, "branch not found", appErr.Message)
}

func TestOrdersByBranchEmptyBranch(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.OrdersByBranch(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptyBranch)
	assert.False(t, called, "no request must leave the client")
}

func TestCreateOrder(t *testing.T) {
	orderID := uuid.NewString()
	itemID := uuid.NewString()
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"response": 200,
			"data": map[string]any{
				"orderId":     orderID,
				"branchId":    "B1",
				"orderNumber": 9,
				"orderType":   "DINE_IN",
				"status":      "PENDING",
				"paymentType": "CASH",
				"totalPrice":  "18.90",
				"lines": []map[string]any{{
					"itemId":          itemID,
					"quantity":        2,
					"unitPrice":       10,
					"discountPercent": 10,
					"taxPercent":      5,
				}},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	created, err := c.CreateOrder(context.Background(), CreateOrderRequest{
		BranchID:    "B1",
		OrderType:   enum.OrderTypeDineIn,
		PaymentType: enum.PaymentTypeCash,
		Items: []CreateOrderItem{
			{ItemID: itemID, Quantity: 2, SoldPrice: dec("10"), DiscountedPercentage: dec("10")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, orderID, created.ID.String())
	assert.True(t, created.TotalPrice.Equal(dec("18.90")))

	// Body uses the service contract's field names.
	assert.Equal(t, "B1", gotBody["branchId"])
	items := gotBody["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, itemID, item["itemId"])
	assert.Equal(t, "10", item["soldPrice"])
}

func TestCreateOrderValidation(t *testing.T) {
	c := New("http://localhost:0", nil)
	valid := CreateOrderRequest{
		BranchID:    "B1",
		OrderType:   enum.OrderTypeDineIn,
		PaymentType: enum.PaymentTypeCash,
		Items:       []CreateOrderItem{{ItemID: uuid.NewString(), Quantity: 1, SoldPrice: dec("5")}},
	}

	cases := []struct {
		name   string
		mutate func(*CreateOrderRequest)
		want   error
	}{
		{"empty branch", func(r *CreateOrderRequest) { r.BranchID = "" }, ErrEmptyBranch},
		{"no items", func(r *CreateOrderRequest) { r.Items = nil }, ErrEmptyItems},
		{"bad order type", func(r *CreateOrderRequest) { r.OrderType = "CATERING" }, ErrInvalidOrderType},
		{"bad payment type", func(r *CreateOrderRequest) { r.PaymentType = "GOLD" }, ErrInvalidPaymentType},
		{"zero quantity", func(r *CreateOrderRequest) { r.Items[0].Quantity = 0 }, ErrInvalidQuantity},
		{"negative price", func(r *CreateOrderRequest) { r.Items[0].SoldPrice = dec("-1") }, ErrInvalidSoldPrice},
		{"discount over 100", func(r *CreateOrderRequest) { r.Items[0].DiscountedPercentage = dec("101") }, ErrInvalidDiscount},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			req.Items = append([]CreateOrderItem(nil), valid.Items...)
			tc.mutate(&req)
			_, err := c.CreateOrder(context.Background(), req)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	id := uuid.New()
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/orders/status", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{"response": 200})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	require.NoError(t, c.UpdateOrderStatus(context.Background(), id, enum.OrderStatusPreparing))
	assert.Equal(t, id.String(), gotBody["orderId"])
	assert.Equal(t, "PREPARING", gotBody["orderStatus"])
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	c := New("http://localhost:0", nil)
	err := c.UpdateOrderStatus(context.Background(), uuid.New(), "ON_FIRE")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateOrderStatusApplicationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"response": 409,
			"message":  "order already completed",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	err := c.UpdateOrderStatus(context.Background(), uuid.New(), enum.OrderStatusCancelled)

	var appErr *ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.Code)
}
