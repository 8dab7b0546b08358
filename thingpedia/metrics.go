package thingpedia

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts the client's cache and fetch activity.
type Metrics struct {
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	fetches     prometheus.Counter
	fetchErrors prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thingpedia_schema_cache_hits",
			Help: "number of schema lookups served from the cache",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thingpedia_schema_cache_misses",
			Help: "number of schema lookups that required a fetch",
		}),
		fetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thingpedia_schema_fetches",
			Help: "number of schema requests issued to the server",
		}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thingpedia_schema_fetch_errors",
			Help: "number of schema requests that failed",
		}),
	}
}

// Register registers the counters with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.cacheHits, m.cacheMisses, m.fetches, m.fetchErrors} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
