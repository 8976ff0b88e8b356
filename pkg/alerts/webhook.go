/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/models"
)

// WebhookAlerter posts alerts to a chat-style incoming webhook. An optional
// per-alerter cooldown suppresses back-to-back deliveries.
type WebhookAlerter struct {
	config models.WebhookConfig
	client *http.Client
	logger logger.Logger

	mu     sync.Mutex
	lastAt map[string]int64
}

// webhookPayload is the chat message body. Field layout follows the Slack
// incoming-webhook format.
type webhookPayload struct {
	Channel     string              `json:"channel,omitempty"`
	Username    string              `json:"username,omitempty"`
	IconEmoji   string              `json:"icon_emoji,omitempty"`
	Text        string              `json:"text"`
	Attachments []webhookAttachment `json:"attachments,omitempty"`
}

type webhookAttachment struct {
	Color  string         `json:"color,omitempty"`
	Title  string         `json:"title"`
	Text   string         `json:"text,omitempty"`
	Fields []webhookField `json:"fields,omitempty"`
}

type webhookField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// NewWebhookAlerter creates a webhook channel from config.
func NewWebhookAlerter(config models.WebhookConfig, log logger.Logger) *WebhookAlerter {
	return &WebhookAlerter{
		config: config,
		client: &http.Client{},
		logger: log,
		lastAt: make(map[string]int64),
	}
}

// Name implements Notifier.
func (w *WebhookAlerter) Name() string { return "webhook" }

// IsEnabled implements Notifier.
func (w *WebhookAlerter) IsEnabled() bool {
	return w.config.Enabled && w.config.URL != ""
}

// Send implements Notifier. Returns ErrWebhookCooldown when the alerter's
// cooldown since the last delivery for this fingerprint has not elapsed.
func (w *WebhookAlerter) Send(ctx context.Context, alert *models.Alert) error {
	if !w.IsEnabled() {
		return fmt.Errorf("webhook alerter disabled")
	}

	if w.inCooldown(alert.Fingerprint) {
		return ErrWebhookCooldown
	}

	payload := w.buildPayload(alert)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	w.markSent(alert.Fingerprint)

	return nil
}

func (w *WebhookAlerter) inCooldown(fingerprint string) bool {
	if w.config.Cooldown <= 0 {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	last, ok := w.lastAt[fingerprint]
	if !ok {
		return false
	}

	return nowFn().UnixNano()-last < int64(w.config.Cooldown)
}

func (w *WebhookAlerter) markSent(fingerprint string) {
	if w.config.Cooldown <= 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.lastAt[fingerprint] = nowFn().UnixNano()
}

func (w *WebhookAlerter) buildPayload(alert *models.Alert) webhookPayload {
	fields := []webhookField{
		{Title: "Severity", Value: string(alert.Severity), Short: true},
		{Title: "Type", Value: alert.AlertType, Short: true},
	}

	if alert.Source != "" {
		fields = append(fields, webhookField{Title: "Source", Value: alert.Source, Short: true})
	}

	return webhookPayload{
		Channel:   w.config.Channel,
		Username:  w.config.Username,
		IconEmoji: w.config.IconEmoji,
		Text:      alert.Title,
		Attachments: []webhookAttachment{{
			Color:  severityColor(alert.Severity),
			Title:  alert.Title,
			Text:   alert.Description,
			Fields: fields,
		}},
	}
}

func severityColor(severity models.Severity) string {
	switch severity {
	case models.SeverityCritical:
		return "#d00000"
	case models.SeverityError:
		return "#e85d04"
	case models.SeverityWarning:
		return "#ffba08"
	default:
		return "#4361ee"
	}
}
