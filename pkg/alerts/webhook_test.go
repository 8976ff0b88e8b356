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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/models"
)

func TestWebhookAlerterSendsPayload(t *testing.T) {
	var received webhookPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	alerter := NewWebhookAlerter(models.WebhookConfig{
		Enabled:  true,
		URL:      server.URL,
		Channel:  "#alerts",
		Username: "pulse",
	}, logger.NewTestLogger())

	alert := &models.Alert{
		AlertType:   models.AlertTypeSlowQuery,
		Severity:    models.SeverityCritical,
		Title:       "Critically slow query on orders",
		Description: "Query took 12000.00ms",
		Source:      "orders",
		Fingerprint: "fp-wh",
	}

	require.NoError(t, alerter.Send(context.Background(), alert))

	assert.Equal(t, "#alerts", received.Channel)
	assert.Equal(t, "pulse", received.Username)
	assert.Equal(t, alert.Title, received.Text)
	require.Len(t, received.Attachments, 1)
	assert.Equal(t, "#d00000", received.Attachments[0].Color)
	assert.Equal(t, alert.Description, received.Attachments[0].Text)
}

func TestWebhookAlerterCooldown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	alerter := NewWebhookAlerter(models.WebhookConfig{
		Enabled:  true,
		URL:      server.URL,
		Cooldown: time.Minute,
	}, logger.NewTestLogger())

	alert := &models.Alert{Title: "x", Fingerprint: "fp-cool"}

	require.NoError(t, alerter.Send(context.Background(), alert))

	err := alerter.Send(context.Background(), alert)
	assert.ErrorIs(t, err, ErrWebhookCooldown)

	// A different fingerprint is not affected by the first one's cooldown.
	other := &models.Alert{Title: "y", Fingerprint: "fp-other"}
	assert.NoError(t, alerter.Send(context.Background(), other))
}

func TestWebhookAlerterRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	alerter := NewWebhookAlerter(models.WebhookConfig{Enabled: true, URL: server.URL}, logger.NewTestLogger())

	err := alerter.Send(context.Background(), &models.Alert{Title: "x", Fingerprint: "fp"})
	assert.Error(t, err)
}

func TestWebhookAlerterDisabled(t *testing.T) {
	alerter := NewWebhookAlerter(models.WebhookConfig{}, logger.NewTestLogger())

	assert.False(t, alerter.IsEnabled())
	assert.Error(t, alerter.Send(context.Background(), &models.Alert{Title: "x"}))
}
