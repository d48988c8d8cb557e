package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initBroadcastMetrics() {
	r.BroadcastFramesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "aco_broadcast_frames_total",
			Help: "Status frames sent to the broadcast socket, by result",
		},
		[]string{"status"},
	)

	r.BroadcastFrameBytes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aco_broadcast_frame_bytes",
			Help:    "Compressed size of broadcast frames",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10),
		},
	)
}
