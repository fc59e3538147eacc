// Package monitoring records pipeline metrics and raises alerts on unhealthy runs.
package monitoring

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rotisserie/eris"
)

// Metrics holds the Prometheus collectors for one pipeline run. Each Metrics
// owns its registry so runs and tests never share state.
type Metrics struct {
	registry *prometheus.Registry

	StageLeads    *prometheus.CounterVec
	StageSkipped  *prometheus.CounterVec
	StageDuration *prometheus.GaugeVec

	Searches       *prometheus.CounterVec
	DiscoveredRaw  prometheus.Gauge
	DiscoveredKept prometheus.Gauge
	Disqualified   *prometheus.GaugeVec

	LeadsByTier *prometheus.GaugeVec
	RunInfo     *prometheus.GaugeVec
}

// NewMetrics creates a Metrics instance labelled with runID.
func NewMetrics(runID string) *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		StageLeads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_scoring_stage_leads_total",
				Help: "Leads handled by an enrichment stage, by outcome",
			},
			[]string{"stage", "outcome"}, // processed, succeeded, found
		),
		StageSkipped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_scoring_stage_skipped_total",
				Help: "Enrichment stages skipped for missing credentials",
			},
			[]string{"stage"},
		),
		StageDuration: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lead_scoring_stage_duration_seconds",
				Help: "Wall time of the last run of each stage",
			},
			[]string{"stage"},
		),
		Searches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_scoring_discovery_searches_total",
				Help: "Discovery searches issued, by status",
			},
			[]string{"status"}, // ok, failed
		),
		DiscoveredRaw: f.NewGauge(prometheus.GaugeOpts{
			Name: "lead_scoring_discovery_raw_hits",
			Help: "Raw search hits before dedup and filtering",
		}),
		DiscoveredKept: f.NewGauge(prometheus.GaugeOpts{
			Name: "lead_scoring_discovery_leads",
			Help: "Leads kept after dedup and filtering",
		}),
		Disqualified: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lead_scoring_discovery_disqualified",
				Help: "Leads removed by each discovery filter",
			},
			[]string{"reason"},
		),
		LeadsByTier: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lead_scoring_leads_by_tier",
				Help: "Scored leads per tier",
			},
			[]string{"tier"},
		),
		RunInfo: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lead_scoring_run_info",
				Help: "Run identity; value is the run start time in unix seconds",
			},
			[]string{"run_id"},
		),
	}
	m.RunInfo.WithLabelValues(runID).Set(float64(time.Now().Unix()))
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveStage records the outcome counts of one enrichment stage.
func (m *Metrics) ObserveStage(stage string, processed, succeeded, found int, d time.Duration) {
	m.StageLeads.WithLabelValues(stage, "processed").Add(float64(processed))
	m.StageLeads.WithLabelValues(stage, "succeeded").Add(float64(succeeded))
	m.StageLeads.WithLabelValues(stage, "found").Add(float64(found))
	m.StageDuration.WithLabelValues(stage).Set(d.Seconds())
}

// ObserveSkip records a stage skipped for missing credentials.
func (m *Metrics) ObserveSkip(stage string) {
	m.StageSkipped.WithLabelValues(stage).Inc()
}

// ObserveDiscovery records the discovery funnel.
func (m *Metrics) ObserveDiscovery(searches, failed, raw, kept int, disqualified map[string]int) {
	m.Searches.WithLabelValues("ok").Add(float64(searches - failed))
	m.Searches.WithLabelValues("failed").Add(float64(failed))
	m.DiscoveredRaw.Set(float64(raw))
	m.DiscoveredKept.Set(float64(kept))
	for reason, n := range disqualified {
		m.Disqualified.WithLabelValues(reason).Set(float64(n))
	}
}

// ObserveTiers records the number of scored leads per tier letter.
func (m *Metrics) ObserveTiers(counts map[string]int) {
	for tier, n := range counts {
		m.LeadsByTier.WithLabelValues(tier).Set(float64(n))
	}
}

// WriteTextfile writes all metrics in the Prometheus text format for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "monitoring: create metrics dir")
		}
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return eris.Wrap(err, "monitoring: write textfile")
	}
	return nil
}
