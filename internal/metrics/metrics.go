// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Writes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crushboard",
		Name:      "writes_total",
		Help:      "Write attempts by action (post, reply, like, unlike) and result.",
	}, []string{"action", "result"})

	Snapshots = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crushboard",
		Name:      "snapshots_total",
		Help:      "Confession snapshots applied.",
	})

	SnapshotErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crushboard",
		Name:      "snapshot_errors_total",
		Help:      "Confession watch deliveries that failed; the previous snapshot was kept.",
	})

	Confessions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "crushboard",
		Name:      "confessions",
		Help:      "Confessions in the current snapshot by partition.",
	}, []string{"partition"})

	FeedCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crushboard",
		Name:      "feed_cache_total",
		Help:      "Aggregated feed cache lookups by result (hit, miss).",
	}, []string{"result"})

	SnapshotBuild = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "crushboard",
		Name:      "snapshot_build_seconds",
		Help:      "Time spent normalizing, sorting and partitioning a snapshot.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
)

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
