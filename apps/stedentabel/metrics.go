package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stedentabel/libs/cities"
)

// Metrics records controller activity. It implements viewstate.Observer.
type Metrics struct {
	registry *prometheus.Registry

	Loads         *prometheus.CounterVec
	LoadDuration  prometheus.Histogram
	CitiesLoaded  prometheus.Gauge
	Searches      prometheus.Counter
	SearchMatches prometheus.Histogram
	Sorts         *prometheus.CounterVec
	Exports       *prometheus.CounterVec
}

func newMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		Loads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stedentabel_city_loads_total",
			Help: "City dataset loads by result",
		}, []string{"result"}),
		LoadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "stedentabel_city_load_duration_seconds",
			Help:    "Duration of city dataset loads",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		CitiesLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stedentabel_cities_loaded",
			Help: "Number of cities in the reference list",
		}),
		Searches: factory.NewCounter(prometheus.CounterOpts{
			Name: "stedentabel_searches_total",
			Help: "Total number of searches",
		}),
		SearchMatches: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "stedentabel_search_matches",
			Help:    "Number of cities matched per search",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		}),
		Sorts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stedentabel_sorts_total",
			Help: "Sort changes by key and direction",
		}, []string{"key", "direction"}),
		Exports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stedentabel_exports_total",
			Help: "Exports generated by format",
		}, []string{"format"}),
	}
}

func (m *Metrics) LoadFinished(count int, took time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.Loads.WithLabelValues(result).Inc()
	m.LoadDuration.Observe(took.Seconds())
	m.CitiesLoaded.Set(float64(count))
}

func (m *Metrics) Searched(keyword string, matches int) {
	m.Searches.Inc()
	m.SearchMatches.Observe(float64(matches))
}

func (m *Metrics) Sorted(key cities.SortKey, dir cities.Direction) {
	m.Sorts.WithLabelValues(key.String(), dir.String()).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
