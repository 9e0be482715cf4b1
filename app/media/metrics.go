package media

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var deliveriesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_media_deliveries_total",
	Help: "Response clips delivered, by whether a cached handle or an upload was used.",
}, []string{"source"})
