package serve

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposed by the serve subcommand, registered under the
// "forestry" namespace in an init() at package scope.
var (
	trieSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "forestry",
		Name:      "trie_size",
		Help:      "Number of key/value pairs currently held by the served trie.",
	})
	proofBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "forestry",
		Name:      "proof_bytes",
		Help:      "Size in bytes of proofs produced by the serve endpoint.",
		Buckets:   prometheus.ExponentialBuckets(64, 2, 10),
	})
	insertDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "forestry",
		Name:      "insert_duration_seconds",
		Help:      "Time taken to insert one key/value pair, including persistence.",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(trieSize, proofBytes, insertDuration)
}
