package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// InvoiceGeneratedTotal counts generate-pdf outcomes by result.
	InvoiceGeneratedTotal *prometheus.CounterVec
	// InvoiceRenderDuration records PDF render latency in milliseconds.
	InvoiceRenderDuration *prometheus.HistogramVec
	// RenderPoolInUse reports how many render slots are currently held.
	RenderPoolInUse prometheus.Gauge
	// PDFCacheTotal counts PDF cache lookups by result.
	PDFCacheTotal *prometheus.CounterVec
	// BreakerState reports breaker state per target: 0 closed, 1 open, 2 half-open.
	BreakerState *prometheus.GaugeVec
	// BreakerTransitions counts breaker state changes.
	BreakerTransitions *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		InvoiceGeneratedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_generated_total",
			Help:      "Count of invoice generation outcomes.",
		}, []string{"result"})
		InvoiceRenderDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invoice_render_duration_ms",
			Help:      "Latency for rendering an invoice document in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"result"})
		RenderPoolInUse = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "render_pool_in_use",
			Help:      "Number of render engine slots currently acquired.",
		})
		PDFCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_pdf_cache_total",
			Help:      "Count of invoice PDF cache lookups by result.",
		}, []string{"result"})

		BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Current breaker state: 0=closed, 1=open, 2=half-open.",
		}, []string{"target"})
		BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transition_total",
			Help:      "Count of breaker state transitions.",
		}, []string{"target", "from", "to"})

		mustRegisterCollector(reg, InvoiceGeneratedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				InvoiceGeneratedTotal = v
			}
		})
		mustRegisterCollector(reg, InvoiceRenderDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				InvoiceRenderDuration = v
			}
		})
		mustRegisterCollector(reg, RenderPoolInUse, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Gauge); ok {
				RenderPoolInUse = v
			}
		})
		mustRegisterCollector(reg, PDFCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PDFCacheTotal = v
			}
		})
		mustRegisterCollector(reg, BreakerState, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.GaugeVec); ok {
				BreakerState = v
			}
		})
		mustRegisterCollector(reg, BreakerTransitions, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BreakerTransitions = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
