// Package metrics provides Prometheus instrumentation for the store and cache.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "signalstore"

// StoreMetrics counts persistent I/O of one file store.
type StoreMetrics struct {
	Reads        prometheus.Counter
	Writes       prometheus.Counter
	KeyRotations prometheus.Counter
	Failures     *prometheus.CounterVec
}

// CacheMetrics counts cache lookups of one proxy.
type CacheMetrics struct {
	Hits   prometheus.Counter
	Misses prometheus.Counter
}

// NewStoreMetrics creates store counters labelled with identity and
// registers them on reg when reg is not nil.
func NewStoreMetrics(reg prometheus.Registerer, identity string) *StoreMetrics {
	labels := prometheus.Labels{"identity": identity}
	m := &StoreMetrics{
		Reads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "store",
			Name:        "reads_total",
			Help:        "Envelope reads from disk.",
			ConstLabels: labels,
		}),
		Writes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "store",
			Name:        "writes_total",
			Help:        "Full envelope rewrites committed to disk.",
			ConstLabels: labels,
		}),
		KeyRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "store",
			Name:        "key_rotations_total",
			Help:        "Symmetric key rotations persisted to the credential file.",
			ConstLabels: labels,
		}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "store",
			Name:        "failures_total",
			Help:        "Failed store operations by operation.",
			ConstLabels: labels,
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.Reads, m.Writes, m.KeyRotations, m.Failures)
	}
	return m
}

// NewCacheMetrics creates cache counters labelled with identity and
// registers them on reg when reg is not nil.
func NewCacheMetrics(reg prometheus.Registerer, identity string) *CacheMetrics {
	labels := prometheus.Labels{"identity": identity}
	m := &CacheMetrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "cache",
			Name:        "hits_total",
			Help:        "Lookups served from memory.",
			ConstLabels: labels,
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "cache",
			Name:        "misses_total",
			Help:        "Lookups that read through to the file store.",
			ConstLabels: labels,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Hits, m.Misses)
	}
	return m
}
