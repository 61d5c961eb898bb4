package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	emissionLoggedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "carbon_service",
		Subsystem: "emissions",
		Name:      "last_record_logged_timestamp_seconds",
		Help:      "Unix timestamp of the most recent emission record appended to a profile.",
	})
	emissionRecordsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "carbon_service",
		Subsystem: "emissions",
		Name:      "records_logged_total",
		Help:      "Number of emission records appended across all users.",
	})
	historyRebuiltGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "carbon_service",
		Subsystem: "history",
		Name:      "last_snapshot_rebuilt_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity-history snapshot rebuild.",
	})
)

func init() {
	prometheus.MustRegister(emissionLoggedGauge, emissionRecordsCounter, historyRebuiltGauge)
}

// RecordEmissionLogged updates the emission watermark gauge and counter.
func RecordEmissionLogged(ts time.Time) {
	emissionRecordsCounter.Inc()
	if ts.IsZero() {
		return
	}
	emissionLoggedGauge.Set(float64(ts.Unix()))
}

// RecordHistoryRebuilt updates the snapshot rebuild watermark gauge.
func RecordHistoryRebuilt(ts time.Time) {
	if ts.IsZero() {
		return
	}
	historyRebuiltGauge.Set(float64(ts.Unix()))
}
