package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Notify posts the failure payload to the configured webhook. Alerting
// is best-effort: delivery problems are logged, never propagated, so a
// broken webhook cannot take down a workflow.
func (w Webhook) Notify(notification WorkflowFailure, logger *slog.Logger) {
	if w.URL == "" {
		return
	}

	if err := w.post(notification); err != nil {
		logger.Warn("Webhook notification failed", "error", err)
	}
}

func (w Webhook) post(notification WorkflowFailure) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	client := http.Client{
		Timeout: 30 * time.Second,
	}

	req, err := http.NewRequest("POST", w.URL, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	if w.Username != "" || w.Password != "" {
		req.SetBasicAuth(w.Username, w.Password)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification via webhook: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("failed to send notification via webhook: %d", resp.StatusCode)
	}

	return nil
}
