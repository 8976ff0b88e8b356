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
	"fmt"
	"time"

	"github.com/carverauto/pulse/pkg/db"
	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/models"
)

const defaultSendTimeout = 5 * time.Second

// Manager owns the alert lifecycle after creation: open(unnotified) to
// open(notified) to resolved, with no path back from resolved. Detectors
// create alerts; the manager is the only component that mutates them.
type Manager struct {
	config    models.NotificationsConfig
	db        db.Service
	notifiers []Notifier
	logger    logger.Logger
}

// NewManager creates an alert manager dispatching to the given channels.
func NewManager(config models.NotificationsConfig, database db.Service, notifiers []Notifier, log logger.Logger) *Manager {
	if config.SendTimeout <= 0 {
		config.SendTimeout = defaultSendTimeout
	}

	return &Manager{
		config:    config,
		db:        database,
		notifiers: notifiers,
		logger:    log,
	}
}

// Notify dispatches one alert to every enabled channel and returns the names
// of the channels that succeeded. When the fingerprint's throttle is
// exhausted, ErrThrottled is returned and the alert stays pending. A channel
// failure is logged and does not block other channels; the alert is marked
// notified on any success.
func (m *Manager) Notify(ctx context.Context, alert *models.Alert) ([]string, error) {
	throttled, err := m.throttled(ctx, alert.Fingerprint)
	if err != nil {
		return nil, err
	}

	if throttled {
		return nil, ErrThrottled
	}

	var sent []string

	for _, notifier := range m.notifiers {
		if !notifier.IsEnabled() {
			continue
		}

		// A slow endpoint must not stall the rest of the channels.
		sendCtx, cancel := context.WithTimeout(ctx, m.config.SendTimeout)
		err := notifier.Send(sendCtx, alert)
		cancel()

		if err != nil {
			m.logger.Warn().Err(err).
				Str("channel", notifier.Name()).
				Str("fingerprint", alert.Fingerprint).
				Msg("Notification channel failed")

			continue
		}

		sent = append(sent, notifier.Name())
	}

	if len(sent) == 0 {
		return nil, ErrNoChannels
	}

	now := nowFn().UTC()

	if err := m.db.MarkAlertNotified(ctx, alert.ID, sent, now); err != nil {
		return sent, fmt.Errorf("mark alert %d notified: %w", alert.ID, err)
	}

	alert.Notified = true
	alert.NotifiedAt = &now
	alert.NotificationChannels = sent

	return sent, nil
}

// NotifyDirect sends an alert to every enabled channel without touching the
// alert store. Used for lifecycle notices that are never persisted.
func (m *Manager) NotifyDirect(ctx context.Context, alert *models.Alert) ([]string, error) {
	var sent []string

	for _, notifier := range m.notifiers {
		if !notifier.IsEnabled() {
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, m.config.SendTimeout)
		err := notifier.Send(sendCtx, alert)
		cancel()

		if err != nil {
			m.logger.Debug().Err(err).Str("channel", notifier.Name()).Msg("Direct notification failed")
			continue
		}

		sent = append(sent, notifier.Name())
	}

	if len(sent) == 0 {
		return nil, ErrNoChannels
	}

	return sent, nil
}

// throttled reports whether the fingerprint already reached the configured
// maximum of notified alerts within the throttle window.
func (m *Manager) throttled(ctx context.Context, fingerprint string) (bool, error) {
	throttle := m.config.Throttle
	if !throttle.Enabled {
		return false, nil
	}

	since := nowFn().UTC().Add(-time.Duration(throttle.WindowMinutes) * time.Minute)

	count, err := m.db.CountNotifiedAlertsSince(ctx, fingerprint, since)
	if err != nil {
		return false, fmt.Errorf("count notified alerts: %w", err)
	}

	return count >= throttle.MaxAlertsPerWindow, nil
}

// NotifyPending sweeps unnotified, unresolved alerts and attempts delivery
// for each. Throttled and failed alerts stay pending for the next sweep.
func (m *Manager) NotifyPending(ctx context.Context) error {
	pending, err := m.db.ListPendingAlerts(ctx)
	if err != nil {
		return fmt.Errorf("list pending alerts: %w", err)
	}

	for _, alert := range pending {
		if _, err := m.Notify(ctx, alert); err != nil {
			m.logger.Debug().Err(err).
				Int64("alert_id", alert.ID).
				Str("fingerprint", alert.Fingerprint).
				Msg("Pending alert not notified")
		}
	}

	return nil
}

// Resolve marks an alert resolved. Resolving an already-resolved alert
// succeeds without effect.
func (m *Manager) Resolve(ctx context.Context, id int64) error {
	if err := m.db.MarkAlertResolved(ctx, id, nowFn().UTC()); err != nil {
		return fmt.Errorf("resolve alert %d: %w", id, err)
	}

	return nil
}
