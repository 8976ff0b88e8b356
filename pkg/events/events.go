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

// Package events publishes pipeline events as CloudEvents over NATS
// JetStream. Publication is optional; a NoopPublisher stands in when no
// message bus is configured.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/pulse/pkg/models"
)

const (
	eventSource = "pulse/core"

	defaultSubjectPrefix = "events"

	suffixTraceRecorded     = "trace.recorded"
	suffixThresholdExceeded = "performance.threshold"
	suffixAnomalyDetected   = "anomaly.detected"

	typeTraceRecorded     = "com.carverauto.pulse.trace.recorded"
	typeThresholdExceeded = "com.carverauto.pulse.performance.threshold"
	typeAnomalyDetected   = "com.carverauto.pulse.anomaly.detected"
)

// Publisher emits pipeline events for downstream subscribers.
type Publisher interface {
	PublishTraceRecorded(ctx context.Context, data models.TraceRecordedData) error
	PublishThresholdExceeded(ctx context.Context, data models.ThresholdExceededData) error
	PublishAnomalyDetected(ctx context.Context, data models.AnomalyDetectedData) error
}

// JetStreamPublisher publishes CloudEvents to a NATS JetStream stream. Event
// subjects are <prefix>.<kind>, with the prefix taken from config.
type JetStreamPublisher struct {
	js     jetstream.JetStream
	prefix string
}

// Connect dials NATS, ensures the events stream exists and returns a
// publisher bound to it.
func Connect(ctx context.Context, cfg *models.EventsConfig) (*JetStreamPublisher, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streamName := cfg.StreamName
	if streamName == "" {
		streamName = "events"
	}

	prefix := subjectPrefix(cfg.Subject)

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{prefix + ".>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", streamName, err)
	}

	return &JetStreamPublisher{js: js, prefix: prefix}, nil
}

// NewJetStreamPublisher wraps an existing JetStream context. Subject is the
// subject prefix; empty means the default.
func NewJetStreamPublisher(js jetstream.JetStream, subject string) *JetStreamPublisher {
	return &JetStreamPublisher{js: js, prefix: subjectPrefix(subject)}
}

func subjectPrefix(subject string) string {
	if subject == "" {
		return defaultSubjectPrefix
	}

	return strings.TrimSuffix(subject, ".")
}

// PublishTraceRecorded publishes a trace.recorded event.
func (p *JetStreamPublisher) PublishTraceRecorded(ctx context.Context, data models.TraceRecordedData) error {
	return p.publish(ctx, typeTraceRecorded, p.subjectFor(suffixTraceRecorded), data.Timestamp, data)
}

// PublishThresholdExceeded publishes a performance.threshold event.
func (p *JetStreamPublisher) PublishThresholdExceeded(ctx context.Context, data models.ThresholdExceededData) error {
	return p.publish(ctx, typeThresholdExceeded, p.subjectFor(suffixThresholdExceeded), data.Timestamp, data)
}

// PublishAnomalyDetected publishes an anomaly.detected event.
func (p *JetStreamPublisher) PublishAnomalyDetected(ctx context.Context, data models.AnomalyDetectedData) error {
	return p.publish(ctx, typeAnomalyDetected, p.subjectFor(suffixAnomalyDetected), data.Timestamp, data)
}

func (p *JetStreamPublisher) subjectFor(suffix string) string {
	return p.prefix + "." + suffix
}

func (p *JetStreamPublisher) publish(
	ctx context.Context, eventType, subject string, at time.Time, data any) error {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	event := models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            eventType,
		DataContentType: "application/json",
		Subject:         subject,
		Time:            &at,
		Data:            data,
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	if _, err := p.js.Publish(ctx, subject, eventBytes); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	return nil
}

// NoopPublisher drops all events. Used when no message bus is configured.
type NoopPublisher struct{}

// PublishTraceRecorded implements Publisher.
func (NoopPublisher) PublishTraceRecorded(context.Context, models.TraceRecordedData) error {
	return nil
}

// PublishThresholdExceeded implements Publisher.
func (NoopPublisher) PublishThresholdExceeded(context.Context, models.ThresholdExceededData) error {
	return nil
}

// PublishAnomalyDetected implements Publisher.
func (NoopPublisher) PublishAnomalyDetected(context.Context, models.AnomalyDetectedData) error {
	return nil
}
