package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the sync engine's collectors around a private
// prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	Frames        *prometheus.CounterVec // by frame type
	FramesDropped prometheus.Counter
	Reconciles    *prometheus.CounterVec // result: ok | error | stale
	StoreOrders   prometheus.Gauge
	ConnState     prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	frames := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "display_frames_total"}, []string{"type"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "display_frames_dropped_total"})
	reconciles := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "display_reconcile_total"}, []string{"result"})
	storeOrders := prometheus.NewGauge(prometheus.GaugeOpts{Name: "display_store_orders"})
	connState := prometheus.NewGauge(prometheus.GaugeOpts{Name: "display_connection_state"})

	r.MustRegister(frames, dropped, reconciles, storeOrders, connState)
	return &Registry{
		reg:           r,
		Frames:        frames,
		FramesDropped: dropped,
		Reconciles:    reconciles,
		StoreOrders:   storeOrders,
		ConnState:     connState,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
