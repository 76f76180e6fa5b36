package schema

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	derivations prometheus.Counter
	cacheHits   prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		derivations: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dtoapi_schema_derivations_total",
			Help: "Total number of schema documents derived from type metadata.",
		}),
		cacheHits: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dtoapi_schema_cache_hits_total",
			Help: "Total number of schema document requests served from the cache.",
		}),
	}
}
