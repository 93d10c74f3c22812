package dispatch

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiwari-pos/display/internal/enum"
	"github.com/kiwari-pos/display/internal/store"
	"github.com/kiwari-pos/display/internal/wire"
)

func testDispatcher(t *testing.T) (*Dispatcher, *store.Store) {
	t.Helper()
	st := store.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(st, log, nil), st
}

func wireOrder(id uuid.UUID, status string) wire.Order {
	return wire.Order{
		OrderID:     id.String(),
		BranchID:    "B1",
		OrderNumber: 7,
		OrderType:   enum.OrderTypeDineIn,
		Status:      status,
		PaymentType: enum.PaymentTypeCash,
		TotalPrice:  decimal.NewFromInt(20),
		CreatedAt:   time.Now().UTC(),
		Lines: []wire.Line{
			{ItemID: uuid.NewString(), Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
		},
	}
}

func frame(t *testing.T, frameType string, payload any) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(wire.Frame{Type: frameType, Data: data})
	require.NoError(t, err)
	return raw
}

func TestDispatchNewOrder(t *testing.T) {
	d, st := testDispatcher(t)
	id := uuid.New()

	err := d.Dispatch(frame(t, wire.TypeNewOrder, wireOrder(id, enum.OrderStatusPending)))
	require.NoError(t, err)

	got, ok := st.Get(id)
	require.True(t, ok)
	assert.Equal(t, enum.OrderStatusPending, got.Status)
	assert.Equal(t, "B1", got.BranchID)
}

func TestDispatchStatusChangedReplacesSnapshot(t *testing.T) {
	d, st := testDispatcher(t)
	id := uuid.New()

	require.NoError(t, d.Dispatch(frame(t, wire.TypeNewOrder, wireOrder(id, enum.OrderStatusPending))))
	require.NoError(t, d.Dispatch(frame(t, wire.TypeStatusChanged, wireOrder(id, enum.OrderStatusPreparing))))

	got, ok := st.Get(id)
	require.True(t, ok)
	assert.Equal(t, enum.OrderStatusPreparing, got.Status)
	assert.Equal(t, 1, st.Len())
}

func TestMalformedFrameDoesNotBlockNeighbors(t *testing.T) {
	d, st := testDispatcher(t)
	first := uuid.New()
	second := uuid.New()

	bad := wireOrder(uuid.New(), enum.OrderStatusPending)
	bad.OrderID = ""

	require.NoError(t, d.Dispatch(frame(t, wire.TypeNewOrder, wireOrder(first, enum.OrderStatusPending))))

	err := d.Dispatch(frame(t, wire.TypeNewOrder, bad))
	var verr *MessageValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, wire.TypeNewOrder, verr.FrameType)

	require.NoError(t, d.Dispatch(frame(t, wire.TypeNewOrder, wireOrder(second, enum.OrderStatusPending))))

	_, ok := st.Get(first)
	assert.True(t, ok, "frame before the malformed one must be applied")
	_, ok = st.Get(second)
	assert.True(t, ok, "frame after the malformed one must be applied")
	assert.Equal(t, 2, st.Len())
}

func TestDispatchConnectionFrame(t *testing.T) {
	d, st := testDispatcher(t)

	err := d.Dispatch(frame(t, wire.TypeConnection, wire.Connection{ConnectionID: "sess-42"}))
	require.NoError(t, err)
	assert.Equal(t, 0, st.Len(), "connection frames must not mutate the store")
}

func TestDispatchPong(t *testing.T) {
	d, st := testDispatcher(t)

	require.NoError(t, d.Dispatch([]byte(`{"type":"pong","data":null}`)))
	assert.Equal(t, 0, st.Len())
}

func TestDispatchUnrecognizedTypeIgnored(t *testing.T) {
	d, st := testDispatcher(t)

	err := d.Dispatch([]byte(`{"type":"table_merged","data":{"tables":[1,2]}}`))
	require.NoError(t, err, "unknown frame types are ignored for forward compatibility")
	assert.Equal(t, 0, st.Len())
}

func TestDispatchInvalidJSON(t *testing.T) {
	d, _ := testDispatcher(t)

	err := d.Dispatch([]byte(`{"type": "new_order", "data": {`))
	var verr *MessageValidationError
	require.ErrorAs(t, err, &verr)
}

func TestDispatchWrongFieldType(t *testing.T) {
	d, st := testDispatcher(t)

	// quantity as a string fails JSON decoding into the wire schema.
	raw := []byte(`{"type":"new_order","data":{"orderId":"` + uuid.NewString() + `","branchId":"B1","orderType":"DINE_IN","status":"PENDING","paymentType":"CASH","lines":[{"itemId":"` + uuid.NewString() + `","quantity":"two","unitPrice":10}]}}`)

	err := d.Dispatch(raw)
	var verr *MessageValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, st.Len())
}
