package http

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheMetricsMu          sync.Mutex
	cacheMetricsInitialized bool

	cacheHitCounter    *prometheus.CounterVec
	cacheMissCounter   *prometheus.CounterVec
	reportBuildSeconds *prometheus.HistogramVec
	cacheMetricsError  error
)

// SetupCacheMetrics registers the report-cache metrics once; later calls are
// ignored.
func SetupCacheMetrics(reg prometheus.Registerer) error {
	cacheMetricsMu.Lock()
	defer cacheMetricsMu.Unlock()
	if cacheMetricsInitialized {
		return cacheMetricsError
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cacheHitCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "groundwork_consol_cache_hits_total",
		Help: "Number of cache hits for consolidation reports.",
	}, []string{"report", "root"})
	cacheMissCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "groundwork_consol_cache_miss_total",
		Help: "Number of cache misses for consolidation reports.",
	}, []string{"report", "root"})
	reportBuildSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "groundwork_consol_report_build_duration_seconds",
		Help:    "Duration required to build consolidation reports.",
		Buckets: prometheus.DefBuckets,
	}, []string{"report", "root"})

	for _, collector := range []prometheus.Collector{cacheHitCounter, cacheMissCounter, reportBuildSeconds} {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				switch c := already.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					if collector == cacheHitCounter {
						cacheHitCounter = c
					} else {
						cacheMissCounter = c
					}
				case *prometheus.HistogramVec:
					reportBuildSeconds = c
				default:
					cacheMetricsError = fmt.Errorf("consol cache metrics: unexpected collector type %T", c)
				}
				continue
			}
			cacheMetricsError = err
			cacheHitCounter = nil
			cacheMissCounter = nil
			reportBuildSeconds = nil
			cacheMetricsInitialized = true
			return cacheMetricsError
		}
	}

	cacheMetricsInitialized = true
	return cacheMetricsError
}

func recordCacheHit(report string, rootID int64) {
	if cacheHitCounter == nil {
		return
	}
	cacheHitCounter.WithLabelValues(report, strconv.FormatInt(rootID, 10)).Inc()
}

func recordCacheMiss(report string, rootID int64) {
	if cacheMissCounter == nil {
		return
	}
	cacheMissCounter.WithLabelValues(report, strconv.FormatInt(rootID, 10)).Inc()
}

func observeReportBuild(report string, rootID int64, duration time.Duration) {
	if reportBuildSeconds == nil {
		return
	}
	reportBuildSeconds.WithLabelValues(report, strconv.FormatInt(rootID, 10)).Observe(duration.Seconds())
}
