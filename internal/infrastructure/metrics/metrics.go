// Package metrics records check and ledger activity as Prometheus metrics.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ersonp/comply-core/internal/domain/entities"
)

const namespace = "comply"

// Recorder implements ports.MetricsRecorder on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	checksTotal     *prometheus.CounterVec
	checkFailures   *prometheus.CounterVec
	lastScore       *prometheus.GaugeVec
	lastIssues      *prometheus.GaugeVec
	entitiesSkipped *prometheus.CounterVec
	recordsSkipped  prometheus.Counter
	recordsPruned   prometheus.Counter
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		checksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Completed checks by source and resulting status",
		}, []string{"source", "status"}),
		checkFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "check_failures_total",
			Help:      "Failed checks by source and failing stage",
		}, []string{"source", "stage"}),
		lastScore: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_score",
			Help:      "Score of the most recent check by source and record type",
		}, []string{"source", "type"}),
		lastIssues: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_issue_count",
			Help:      "Issue count of the most recent check by source and record type",
		}, []string{"source", "type"}),
		entitiesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rollup",
			Name:      "entities_skipped_total",
			Help:      "Entities left out of a rollup because their check failed",
		}, []string{"source"}),
		recordsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "malformed_records_total",
			Help:      "Stored records skipped because they could not be decoded",
		}),
		recordsPruned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "records_pruned_total",
			Help:      "Records removed by retention pruning",
		}),
	}
}

// Registry returns the registry the metrics are registered on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// CheckCompleted records a persisted check result.
func (r *Recorder) CheckCompleted(source entities.Source, checkType string, summary entities.Summary) {
	r.checksTotal.WithLabelValues(string(source), string(summary.Status)).Inc()
	r.lastIssues.WithLabelValues(string(source), checkType).Set(float64(len(summary.Issues)))
	if summary.Score != nil {
		r.lastScore.WithLabelValues(string(source), checkType).Set(float64(*summary.Score))
	}
}

// CheckFailed records a check that failed at stage.
func (r *Recorder) CheckFailed(source entities.Source, stage string) {
	r.checkFailures.WithLabelValues(string(source), stage).Inc()
}

// EntitySkipped records an entity left out of a rollup.
func (r *Recorder) EntitySkipped(source entities.Source) {
	r.entitiesSkipped.WithLabelValues(string(source)).Inc()
}

// RecordSkipped records a malformed stored record.
func (r *Recorder) RecordSkipped() {
	r.recordsSkipped.Inc()
}

// RecordsPruned records removed records.
func (r *Recorder) RecordsPruned(count int) {
	if count > 0 {
		r.recordsPruned.Add(float64(count))
	}
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return errors.New("metrics textfile path is required")
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
