// Package dispatch classifies inbound push frames and routes their payloads
// to store mutations. Per-frame failures stop here: a bad frame is dropped
// and logged, and never disturbs the frames around it.
package dispatch

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/kiwari-pos/display/internal/metrics"
	"github.com/kiwari-pos/display/internal/order"
	"github.com/kiwari-pos/display/internal/wire"
)

// MessageValidationError marks a push frame that failed schema validation.
type MessageValidationError struct {
	FrameType string
	Err       error
}

func (e *MessageValidationError) Error() string {
	if e.FrameType == "" {
		return fmt.Sprintf("invalid push frame: %v", e.Err)
	}
	return fmt.Sprintf("invalid %s frame: %v", e.FrameType, e.Err)
}

func (e *MessageValidationError) Unwrap() error { return e.Err }

// Storer is the store surface the dispatcher mutates.
type Storer interface {
	Upsert(order.Order)
	Len() int
}

// Dispatcher applies classified frames to the order store.
type Dispatcher struct {
	store Storer
	log   *slog.Logger
	mets  *metrics.Registry
}

func New(store Storer, log *slog.Logger, mets *metrics.Registry) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if mets == nil {
		mets = metrics.NewRegistry()
	}
	return &Dispatcher{store: store, log: log, mets: mets}
}

// Dispatch classifies one inbound frame and applies it to the store. A
// returned *MessageValidationError means only that frame was dropped;
// subsequent dispatches are unaffected.
func (d *Dispatcher) Dispatch(raw []byte) error {
	var f wire.Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return d.drop("", err)
	}

	switch f.Type {
	case wire.TypeNewOrder, wire.TypeStatusChanged:
		var wo wire.Order
		if err := json.Unmarshal(f.Data, &wo); err != nil {
			return d.drop(f.Type, err)
		}
		o, err := wo.ToModel()
		if err != nil {
			return d.drop(f.Type, err)
		}
		d.store.Upsert(o)
		d.mets.Frames.WithLabelValues(f.Type).Inc()
		d.mets.StoreOrders.Set(float64(d.store.Len()))
		d.log.Debug("order applied", "type", f.Type, "order_id", o.ID, "status", o.Status)

	case wire.TypeConnection:
		var c wire.Connection
		if err := json.Unmarshal(f.Data, &c); err != nil {
			return d.drop(f.Type, err)
		}
		d.mets.Frames.WithLabelValues(f.Type).Inc()
		d.log.Info("push session established", "connection_id", c.ConnectionID)

	case wire.TypePong:
		// Liveness ack, no mutation.
		d.mets.Frames.WithLabelValues(f.Type).Inc()

	default:
		// Unknown types are ignored so newer servers can add frames.
		d.mets.Frames.WithLabelValues("unrecognized").Inc()
		d.log.Warn("unrecognized frame type", "type", f.Type)
	}
	return nil
}

func (d *Dispatcher) drop(frameType string, err error) error {
	verr := &MessageValidationError{FrameType: frameType, Err: err}
	d.mets.FramesDropped.Inc()
	d.log.Warn("push frame dropped", "type", frameType, "error", err)
	return verr
}
