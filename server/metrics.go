package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/codetesla51/weasel/region"
)

type metrics struct {
	requests         *prometheus.CounterVec
	resets           prometheus.Counter
	allocatedBytes   prometheus.Counter
	regionInUse      prometheus.Gauge
	regionPeak       prometheus.Gauge
	regionCapacity   prometheus.Gauge
	regionGeneration prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "weasel",
			Name:      "requests_total",
			Help:      "Total number of connections served, by outcome.",
		}, []string{"outcome"}),
		resets: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "weasel",
			Name:      "region_resets_total",
			Help:      "Total number of times the request region was reclaimed.",
		}),
		allocatedBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "weasel",
			Name:      "region_allocated_bytes_total",
			Help:      "Total number of bytes handed out by the request region.",
		}),
		regionInUse: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "weasel",
			Name:      "region_in_use_bytes",
			Help:      "Bytes in use in the current generation of the request region.",
		}),
		regionPeak: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "weasel",
			Name:      "region_peak_bytes",
			Help:      "High-water mark of the request region.",
		}),
		regionCapacity: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "weasel",
			Name:      "region_capacity_bytes",
			Help:      "Bytes reserved for the request region.",
		}),
		regionGeneration: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "weasel",
			Name:      "region_generation",
			Help:      "Current generation of the request region.",
		}),
	}
}

func (m *metrics) observeRegion(s region.Stats) {
	m.regionInUse.Set(float64(s.InUse))
	m.regionPeak.Set(float64(s.Peak))
	m.regionCapacity.Set(float64(s.Capacity))
	m.regionGeneration.Set(float64(s.Generation))
}
