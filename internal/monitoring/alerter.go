package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kavir10/lead-scoring/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertStageFailureRate     AlertType = "stage_failure_rate"
	AlertDiscoveryFailureRate AlertType = "discovery_failure_rate"
	AlertNoLeads              AlertType = "no_leads"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// StageSummary is the outcome of one enrichment stage.
type StageSummary struct {
	Name      string `json:"name"`
	Processed int    `json:"processed"`
	Succeeded int    `json:"succeeded"`
	Found     int    `json:"found"`
	Skipped   bool   `json:"skipped"`
}

// RunSummary is the health view of a finished run.
type RunSummary struct {
	RunID          string         `json:"run_id"`
	Searches       int            `json:"searches"`
	FailedSearches int            `json:"failed_searches"`
	Leads          int            `json:"leads"`
	Stages         []StageSummary `json:"stages"`
}

// Alerter evaluates a RunSummary against configured thresholds and sends
// alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MetricsConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given metrics config.
func NewAlerter(cfg config.MetricsConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the summary against thresholds and returns any alerts.
// Stages with fewer than MinProcessed leads are not rate-checked.
func (a *Alerter) Evaluate(sum RunSummary) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	if sum.Searches > 0 {
		rate := float64(sum.FailedSearches) / float64(sum.Searches)
		if rate > a.cfg.FailureRateThreshold {
			alerts = append(alerts, Alert{
				Type:     AlertDiscoveryFailureRate,
				Severity: "high",
				Message: fmt.Sprintf(
					"Discovery search failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d searches)",
					rate*100, a.cfg.FailureRateThreshold*100, sum.FailedSearches, sum.Searches,
				),
				Details: map[string]any{
					"failure_rate": rate,
					"threshold":    a.cfg.FailureRateThreshold,
					"failed":       sum.FailedSearches,
					"searches":     sum.Searches,
				},
				Timestamp: now,
			})
		}
	}

	if sum.Leads == 0 {
		alerts = append(alerts, Alert{
			Type:      AlertNoLeads,
			Severity:  "high",
			Message:   "Run produced no leads",
			Details:   map[string]any{"run_id": sum.RunID},
			Timestamp: now,
		})
	}

	for _, st := range sum.Stages {
		if st.Skipped || st.Processed == 0 || st.Processed < a.cfg.MinProcessed {
			continue
		}
		rate := float64(st.Processed-st.Succeeded) / float64(st.Processed)
		if rate <= a.cfg.FailureRateThreshold {
			continue
		}
		alerts = append(alerts, Alert{
			Type:     AlertStageFailureRate,
			Severity: "medium",
			Message: fmt.Sprintf(
				"Stage %s failure rate %.1f%% exceeds threshold %.1f%% (%d of %d leads failed)",
				st.Name, rate*100, a.cfg.FailureRateThreshold*100, st.Processed-st.Succeeded, st.Processed,
			),
			Details: map[string]any{
				"stage":        st.Name,
				"failure_rate": rate,
				"threshold":    a.cfg.FailureRateThreshold,
				"processed":    st.Processed,
				"succeeded":    st.Succeeded,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
