// Package metrics provides Prometheus metrics for the SNS deployer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the SNS deployer.
type Metrics struct {
	// Stage metrics
	StagesCompleted *prometheus.CounterVec
	StagesFailed    *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec

	// Polling metrics
	PollAttempts *prometheus.CounterVec
	PollTimeouts *prometheus.CounterVec

	// Ledger transfer metrics
	TransfersSubmitted *prometheus.CounterVec
	TransferredE8s     *prometheus.CounterVec

	// Participant metrics
	ParticipantsRegistered prometheus.Gauge
	ParticipantsFailed     *prometheus.CounterVec
	InFlightParticipants   prometheus.Gauge

	// Swap metrics
	SwapLifecycle prometheus.Gauge

	// Error metrics
	CallErrors    *prometheus.CounterVec
	RecordErrors  *prometheus.CounterVec
	RetryAttempts *prometheus.CounterVec
}

// Config holds metrics configuration.
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"` // Address for metrics HTTP server (e.g., ":9090")
}

var defaultMetrics *Metrics

// Init initializes the metrics package with global metrics.
// Call this once at startup.
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "snsctl"
	}

	m := &Metrics{
		StagesCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stages_completed_total",
				Help:      "Total number of deployment stages completed",
			},
			[]string{"network", "stage"},
		),
		StagesFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stages_failed_total",
				Help:      "Total number of deployment stages that failed",
			},
			[]string{"network", "stage"},
		),
		StageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Time spent in each deployment stage",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14), // 0.1s to ~800s
			},
			[]string{"network", "stage"},
		),
		PollAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_attempts_total",
				Help:      "Total number of polling attempts against remote canisters",
			},
			[]string{"network", "operation"},
		),
		PollTimeouts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_timeouts_total",
				Help:      "Total number of polling budgets exhausted",
			},
			[]string{"network", "operation"},
		),
		TransfersSubmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfers_submitted_total",
				Help:      "Total number of ledger transfers submitted",
			},
			[]string{"network", "purpose"},
		),
		TransferredE8s: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transferred_e8s_total",
				Help:      "Total e8s moved by submitted transfers",
			},
			[]string{"network", "purpose"},
		),
		ParticipantsRegistered: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "participants_registered",
				Help:      "Number of participants confirmed by the swap",
			},
		),
		ParticipantsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "participants_failed_total",
				Help:      "Total number of participants that failed fatally",
			},
			[]string{"network"},
		),
		InFlightParticipants: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "in_flight_participants",
				Help:      "Number of participants currently being processed",
			},
		),
		SwapLifecycle: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "swap_lifecycle",
				Help:      "Last observed swap lifecycle code",
			},
		),
		CallErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "call_errors_total",
				Help:      "Total number of failed canister calls",
			},
			[]string{"network", "service"},
		),
		RecordErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "record_errors_total",
				Help:      "Total number of deployment record persistence errors",
			},
			[]string{"network"},
		),
		RetryAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retry_attempts_total",
				Help:      "Total number of retry attempts",
			},
			[]string{"network", "operation"},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the global metrics instance.
// Returns nil if Init has not been called.
func Get() *Metrics {
	return defaultMetrics
}

// StartServer starts an HTTP server for Prometheus metrics scraping.
// Blocks until the server exits.
func StartServer(address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return http.ListenAndServe(address, mux)
}

// Labels is a convenience type for metric labels.
type Labels struct {
	Network   string
	Stage     string
	Operation string
	Purpose   string
	Service   string
}

// IncStagesCompleted increments the stages completed counter.
func (m *Metrics) IncStagesCompleted(l Labels) {
	m.StagesCompleted.WithLabelValues(l.Network, l.Stage).Inc()
}

// IncStagesFailed increments the stages failed counter.
func (m *Metrics) IncStagesFailed(l Labels) {
	m.StagesFailed.WithLabelValues(l.Network, l.Stage).Inc()
}

// ObserveStageDuration records the time spent in a stage.
func (m *Metrics) ObserveStageDuration(l Labels, seconds float64) {
	m.StageDuration.WithLabelValues(l.Network, l.Stage).Observe(seconds)
}

// IncPollAttempts increments the poll attempts counter.
func (m *Metrics) IncPollAttempts(l Labels) {
	m.PollAttempts.WithLabelValues(l.Network, l.Operation).Inc()
}

// IncPollTimeouts increments the poll timeouts counter.
func (m *Metrics) IncPollTimeouts(l Labels) {
	m.PollTimeouts.WithLabelValues(l.Network, l.Operation).Inc()
}

// IncTransfersSubmitted increments the transfers submitted counter.
func (m *Metrics) IncTransfersSubmitted(l Labels) {
	m.TransfersSubmitted.WithLabelValues(l.Network, l.Purpose).Inc()
}

// AddTransferredE8s adds to the transferred e8s counter.
func (m *Metrics) AddTransferredE8s(l Labels, e8s float64) {
	m.TransferredE8s.WithLabelValues(l.Network, l.Purpose).Add(e8s)
}

// SetParticipantsRegistered sets the confirmed participant count.
func (m *Metrics) SetParticipantsRegistered(count float64) {
	m.ParticipantsRegistered.Set(count)
}

// IncParticipantsFailed increments the fatally failed participant counter.
func (m *Metrics) IncParticipantsFailed(l Labels) {
	m.ParticipantsFailed.WithLabelValues(l.Network).Inc()
}

// SetInFlightParticipants sets the number of in-flight participants.
func (m *Metrics) SetInFlightParticipants(count float64) {
	m.InFlightParticipants.Set(count)
}

// SetSwapLifecycle records the last observed lifecycle code.
func (m *Metrics) SetSwapLifecycle(code float64) {
	m.SwapLifecycle.Set(code)
}

// IncCallErrors increments the canister call error counter.
func (m *Metrics) IncCallErrors(l Labels) {
	m.CallErrors.WithLabelValues(l.Network, l.Service).Inc()
}

// IncRecordErrors increments the record persistence error counter.
func (m *Metrics) IncRecordErrors(l Labels) {
	m.RecordErrors.WithLabelValues(l.Network).Inc()
}

// IncRetryAttempts increments the retry attempts counter.
func (m *Metrics) IncRetryAttempts(l Labels) {
	m.RetryAttempts.WithLabelValues(l.Network, l.Operation).Inc()
}
