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

package core

import (
	"context"
	"os"
	"time"

	"github.com/carverauto/pulse/pkg/models"
)

// sendStartupNotification announces the pipeline coming online. Lifecycle
// notices bypass the alert store; they go straight to the channels.
func (s *Server) sendStartupNotification(ctx context.Context) {
	hostname, _ := os.Hostname()

	alert := &models.Alert{
		AlertType:   "lifecycle",
		Severity:    models.SeverityInfo,
		Title:       "Pulse monitoring started",
		Description: "Trace capture and analysis pipeline is online",
		Source:      hostname,
		Context: map[string]any{
			"hostname":  hostname,
			"pid":       os.Getpid(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}

	s.sendLifecycle(ctx, alert)
}

func (s *Server) sendShutdownNotification(ctx context.Context) {
	hostname, _ := os.Hostname()

	alert := &models.Alert{
		AlertType:   "lifecycle",
		Severity:    models.SeverityInfo,
		Title:       "Pulse monitoring stopping",
		Description: "Trace capture and analysis pipeline is shutting down",
		Source:      hostname,
	}

	s.sendLifecycle(ctx, alert)
}

func (s *Server) sendLifecycle(ctx context.Context, alert *models.Alert) {
	if _, err := s.AlertManager.NotifyDirect(ctx, alert); err != nil {
		s.logger.Debug().Err(err).Str("title", alert.Title).Msg("Lifecycle notification not delivered")
	}
}
