// Package metrics records the outcome of a run in the Prometheus text
// format, for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the gauges of a single run on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	LastRun        *prometheus.GaugeVec
	RunSuccess     *prometheus.GaugeVec
	ConfigChanged  prometheus.Gauge
	RestartSuccess prometheus.Gauge
	CheckSuccess   *prometheus.GaugeVec
}

// NewRecorder creates a Recorder with all gauges registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		LastRun: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pi_static_ip_last_run_timestamp_seconds",
				Help: "Unix time of the last run",
			},
			[]string{"command"},
		),
		RunSuccess: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pi_static_ip_last_run_success",
				Help: "Whether the last run succeeded (1 = success, 0 = failure)",
			},
			[]string{"command"},
		),
		ConfigChanged: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pi_static_ip_config_changed",
				Help: "Whether the last apply changed the config file",
			},
		),
		RestartSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pi_static_ip_service_restart_success",
				Help: "Whether the last service restart succeeded",
			},
		),
		CheckSuccess: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pi_static_ip_check_success",
				Help: "Result of the last connectivity check (1 = ok, 0 = failed)",
			},
			[]string{"check", "target"},
		),
	}
}

// ObserveRun records the end of a command.
func (r *Recorder) ObserveRun(command string, at time.Time, err error) {
	r.LastRun.WithLabelValues(command).Set(float64(at.Unix()))
	r.RunSuccess.WithLabelValues(command).Set(boolValue(err == nil))
}

// ObserveChange records whether the config file was rewritten.
func (r *Recorder) ObserveChange(changed bool) {
	r.ConfigChanged.Set(boolValue(changed))
}

// ObserveRestart records a restart attempt.
func (r *Recorder) ObserveRestart(ok bool) {
	r.RestartSuccess.Set(boolValue(ok))
}

// ObserveCheck records one connectivity check.
func (r *Recorder) ObserveCheck(check, target string, ok bool) {
	r.CheckSuccess.WithLabelValues(check, target).Set(boolValue(ok))
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all gauges to filename atomically.
func (r *Recorder) WriteTextfile(filename string) error {
	if err := prometheus.WriteToTextfile(filename, r.Gatherer()); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", filename, err)
	}
	return nil
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
