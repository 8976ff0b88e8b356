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

	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/models"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramAlerter sends alerts through the Telegram bot API.
type TelegramAlerter struct {
	config  models.TelegramConfig
	client  *http.Client
	logger  logger.Logger
	baseURL string
}

// NewTelegramAlerter creates a Telegram channel from config.
func NewTelegramAlerter(config models.TelegramConfig, log logger.Logger) *TelegramAlerter {
	return &TelegramAlerter{
		config:  config,
		client:  &http.Client{},
		logger:  log,
		baseURL: telegramAPIBase,
	}
}

// Name implements Notifier.
func (t *TelegramAlerter) Name() string { return "telegram" }

// IsEnabled implements Notifier.
func (t *TelegramAlerter) IsEnabled() bool {
	return t.config.Enabled && t.config.BotToken != "" && t.config.ChatID != ""
}

// Send implements Notifier.
func (t *TelegramAlerter) Send(ctx context.Context, alert *models.Alert) error {
	if !t.IsEnabled() {
		return fmt.Errorf("telegram alerter disabled")
	}

	message := map[string]any{
		"chat_id":    t.config.ChatID,
		"text":       renderTelegramText(alert),
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal telegram message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.config.BotToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

func renderTelegramText(alert *models.Alert) string {
	emoji := severityEmoji(alert.Severity)

	text := fmt.Sprintf("%s *%s*\n%s", emoji, alert.Title, alert.Description)

	if alert.Source != "" {
		text += fmt.Sprintf("\n\nSource: `%s`", alert.Source)
	}

	return text
}

func severityEmoji(severity models.Severity) string {
	switch severity {
	case models.SeverityCritical:
		return "🔴"
	case models.SeverityError:
		return "🟠"
	case models.SeverityWarning:
		return "🟡"
	default:
		return "🔵"
	}
}
