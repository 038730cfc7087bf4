package photo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "petspot_photo_uploads_total",
			Help: "Photo upload attempts by outcome.",
		},
		[]string{"result"},
	)

	compensationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "petspot_photo_compensations_total",
			Help: "Removals of photos written for a failed bind, by outcome.",
		},
		[]string{"result"},
	)
)
