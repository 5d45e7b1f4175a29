package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	NameSessionEvents = "session_events_total"
	NameRateLimited   = "rate_limited_requests_total"
	NameActiveStreams = "session_streams"
	LabelEvent        = "event"
)

var SessionEvents = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameSessionEvents,
		Help:      "Session changes published, by event type",
		Namespace: Namespace,
	},
	[]string{LabelEvent},
)

var RateLimited = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameRateLimited,
		Help:      "Requests rejected by the rate limiter",
		Namespace: Namespace,
	},
)

var ActiveStreams = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name:      NameActiveStreams,
		Help:      "Open session event streams",
		Namespace: Namespace,
	},
)
