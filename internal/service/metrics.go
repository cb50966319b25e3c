package service

import "github.com/prometheus/client_golang/prometheus"

var (
	listingsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "listings_created_total",
		Help: "Listings persisted by the create flow",
	})
	listingsDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "listings_deleted_total",
		Help: "Listings removed by their owner",
	})
	mediaFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_media_failures_total",
		Help: "Media store failures by operation",
	}, []string{"op"})
	orphansSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "listing_media_orphans_swept_total",
		Help: "Unreferenced media objects removed by the sweep",
	})
)

func init() { prometheus.MustRegister(listingsCreated, listingsDeleted, mediaFailures, orphansSwept) }
