package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CollectionSource reports the live sizes exposed as gauges.
type CollectionSource struct {
	Quotes        func() int
	Notifications func() int
}

// RegisterCollectionMetrics exposes quotekeeper_quotes and
// quotekeeper_notifications_active on reg. Both are read at scrape time.
func RegisterCollectionMetrics(reg prometheus.Registerer, src CollectionSource) error {
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "quotekeeper",
			Name:      "quotes",
			Help:      "Number of quotes in the collection.",
		}, func() float64 { return float64(src.Quotes()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "quotekeeper",
			Name:      "notifications_active",
			Help:      "Number of notifications not yet dismissed.",
		}, func() float64 { return float64(src.Notifications()) }),
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("registering collection metric: %w", err)
		}
	}

	return nil
}
