// Package metrics exposes Prometheus metrics for the SDI receiver.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	interruptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sdinode",
		Subsystem: "receiver",
		Name:      "interrupts_total",
		Help:      "Serviced receiver interrupts by source",
	}, []string{"device", "source"})

	locksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sdinode",
		Subsystem: "receiver",
		Name:      "locks_total",
		Help:      "Accepted video locks",
	}, []string{"device"})

	lockRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sdinode",
		Subsystem: "receiver",
		Name:      "lock_rejected_total",
		Help:      "Lock interrupts ignored because mode or timing was not locked",
	}, []string{"device", "reason"})

	unlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sdinode",
		Subsystem: "receiver",
		Name:      "unlocks_total",
		Help:      "Video unlocks",
	}, []string{"device"})

	locked = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sdinode",
		Subsystem: "receiver",
		Name:      "locked",
		Help:      "1 while the receiver holds a video lock",
	}, []string{"device"})

	formatInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sdinode",
		Subsystem: "receiver",
		Name:      "format_info",
		Help:      "Currently detected video format, value is always 1",
	}, []string{"device", "format", "mode"})

	frameRate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sdinode",
		Subsystem: "receiver",
		Name:      "frame_rate_hz",
		Help:      "Frame-rate bucket of the detected format",
	}, []string{"device"})

	lockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sdinode",
		Subsystem: "receiver",
		Name:      "lock_duration_seconds",
		Help:      "Time between an accepted lock and the following unlock",
		Buckets:   []float64{0.1, 1, 10, 60, 600, 3600, 86400},
	}, []string{"device"})

	cache   = make(map[string]*ReceiverMetrics)
	cacheMu sync.RWMutex
)

// ReceiverMetrics holds the current values for one device. It is served
// as part of the receiver status.
type ReceiverMetrics struct {
	Interrupts    map[string]uint64 `json:"interrupts"`
	Locks         uint64            `json:"locks"`
	LocksRejected uint64            `json:"locks_rejected"`
	Unlocks       uint64            `json:"unlocks"`
	Locked        bool              `json:"locked"`
	Format        string            `json:"format,omitempty"`
	Mode          string            `json:"mode,omitempty"`
	FrameRateHz   int               `json:"frame_rate_hz,omitempty"`
}

// RecordInterrupt counts one serviced interrupt from source ("lock" or
// "unlock").
func RecordInterrupt(device, source string) {
	interruptsTotal.WithLabelValues(device, source).Inc()
	update(device, func(m *ReceiverMetrics) { m.Interrupts[source]++ })
}

// RecordLock records an accepted lock and replaces the format info series.
func RecordLock(device, format, mode string, rateHz int) {
	locksTotal.WithLabelValues(device).Inc()
	locked.WithLabelValues(device).Set(1)
	frameRate.WithLabelValues(device).Set(float64(rateHz))

	update(device, func(m *ReceiverMetrics) {
		if m.Format != "" {
			formatInfo.DeleteLabelValues(device, m.Format, m.Mode)
		}
		m.Locks++
		m.Locked = true
		m.Format = format
		m.Mode = mode
		m.FrameRateHz = rateHz
	})
	formatInfo.WithLabelValues(device, format, mode).Set(1)
}

// RecordLockRejected counts a lock interrupt that was ignored.
func RecordLockRejected(device, reason string) {
	lockRejectedTotal.WithLabelValues(device, reason).Inc()
	update(device, func(m *ReceiverMetrics) { m.LocksRejected++ })
}

// RecordUnlock records an unlock. lockedFor is zero when there was no prior
// lock and is then not observed.
func RecordUnlock(device string, lockedFor time.Duration) {
	unlocksTotal.WithLabelValues(device).Inc()
	locked.WithLabelValues(device).Set(0)
	frameRate.WithLabelValues(device).Set(0)
	if lockedFor > 0 {
		lockDuration.WithLabelValues(device).Observe(lockedFor.Seconds())
	}

	update(device, func(m *ReceiverMetrics) {
		if m.Format != "" {
			formatInfo.DeleteLabelValues(device, m.Format, m.Mode)
		}
		m.Unlocks++
		m.Locked = false
		m.Format = ""
		m.Mode = ""
		m.FrameRateHz = 0
	})
}

// GetReceiverMetrics returns a copy of the current values for device, or nil.
func GetReceiverMetrics(device string) *ReceiverMetrics {
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	m, ok := cache[device]
	if !ok {
		return nil
	}
	dup := *m
	dup.Interrupts = make(map[string]uint64, len(m.Interrupts))
	for k, v := range m.Interrupts {
		dup.Interrupts[k] = v
	}
	return &dup
}

// DeleteReceiverMetrics removes every series and cached value for device.
func DeleteReceiverMetrics(device string) {
	labels := prometheus.Labels{"device": device}
	interruptsTotal.DeletePartialMatch(labels)
	locksTotal.DeletePartialMatch(labels)
	lockRejectedTotal.DeletePartialMatch(labels)
	unlocksTotal.DeletePartialMatch(labels)
	locked.DeletePartialMatch(labels)
	formatInfo.DeletePartialMatch(labels)
	frameRate.DeletePartialMatch(labels)
	lockDuration.DeletePartialMatch(labels)

	cacheMu.Lock()
	delete(cache, device)
	cacheMu.Unlock()
}

func update(device string, fn func(*ReceiverMetrics)) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	m, ok := cache[device]
	if !ok {
		m = &ReceiverMetrics{Interrupts: make(map[string]uint64)}
		cache[device] = m
	}
	fn(m)
}
