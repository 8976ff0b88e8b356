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

// Package alerts manages the alert lifecycle: throttled notification dispatch
// across channels and idempotent resolution.
package alerts

import (
	"context"
	"errors"
	"time"

	"github.com/carverauto/pulse/pkg/models"
)

// Notification errors.
var (
	// ErrWebhookCooldown indicates a channel declined to send because its
	// own cooldown since the last delivery has not elapsed.
	ErrWebhookCooldown = errors.New("webhook in cooldown period")

	// ErrThrottled indicates the alert's fingerprint hit the notification
	// throttle; the alert stays pending.
	ErrThrottled = errors.New("alert notification throttled")

	// ErrNoChannels indicates every enabled channel failed to deliver.
	ErrNoChannels = errors.New("no notification channel succeeded")
)

// Notifier delivers one alert to an external channel. Rendering the payload
// is the notifier's job; delivery mechanics stay behind this interface.
type Notifier interface {
	Name() string
	IsEnabled() bool
	Send(ctx context.Context, alert *models.Alert) error
}

// Test hook for a deterministic clock.
var nowFn = time.Now
