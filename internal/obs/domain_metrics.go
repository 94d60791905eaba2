package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartOpsTotal counts cart engine operations by kind and outcome.
	CartOpsTotal *prometheus.CounterVec
	// DiscountResolutionsTotal counts discount resolutions by winning source.
	DiscountResolutionsTotal *prometheus.CounterVec
	// CheckoutGrandTotals records checked-out grand totals in minor units.
	CheckoutGrandTotals prometheus.Histogram
	// CartLines tracks the current number of lines in the cart.
	CartLines prometheus.Gauge
	// CatalogItems tracks loaded catalog records by kind.
	CatalogItems *prometheus.GaugeVec
)

// MustRegisterDomainMetrics initialises and registers checkout domain collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartOpsTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_ops_total",
			Help:      "Count of cart engine operations by outcome.",
		}, []string{"op", "result"}))
		DiscountResolutionsTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_resolutions_total",
			Help:      "Count of add-time discount resolutions by winning source.",
		}, []string{"source"}))
		CheckoutGrandTotals = registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_grand_total_minor_units",
			Help:      "Distribution of checked-out grand totals in minor units.",
			Buckets:   []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000, 250000},
		}))
		CartLines = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cart_lines",
			Help:      "Current number of line items in the cart.",
		}))
		CatalogItems = registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_items",
			Help:      "Number of catalog records loaded for the session.",
		}, []string{"kind"}))
	})
}
