package detect

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics are the detect module's Prometheus collectors. A nil *metrics is
// a no-op.
type metrics struct {
	scans    *prometheus.CounterVec
	duration prometheus.Histogram
	devices  prometheus.Gauge
	miners   prometheus.Gauge
	rejected *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minerwatch",
			Subsystem: "detect",
			Name:      "scans_total",
			Help:      "Scans run, by final status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "minerwatch",
			Subsystem: "detect",
			Name:      "scan_duration_seconds",
			Help:      "Wall time of completed and failed scans.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 3, 5, 10},
		}),
		devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "minerwatch",
			Subsystem: "detect",
			Name:      "devices",
			Help:      "Devices in the latest successful scan.",
		}),
		miners: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "minerwatch",
			Subsystem: "detect",
			Name:      "miners",
			Help:      "Miners in the latest successful scan.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minerwatch",
			Subsystem: "detect",
			Name:      "scan_rejections_total",
			Help:      "Scan triggers refused before running, by reason.",
		}, []string{"reason"}),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.scans, err = registerCollector(reg, m.scans); err != nil {
		return nil, err
	}
	if m.duration, err = registerCollector(reg, m.duration); err != nil {
		return nil, err
	}
	if m.devices, err = registerCollector(reg, m.devices); err != nil {
		return nil, err
	}
	if m.miners, err = registerCollector(reg, m.miners); err != nil {
		return nil, err
	}
	if m.rejected, err = registerCollector(reg, m.rejected); err != nil {
		return nil, err
	}
	return m, nil
}

// registerCollector registers c, reusing the existing collector when an
// identical one is already registered.
func registerCollector[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *metrics) observeScan(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(status).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *metrics) setLatest(devices, miners int) {
	if m == nil {
		return
	}
	m.devices.Set(float64(devices))
	m.miners.Set(float64(miners))
}

func (m *metrics) reject(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}
