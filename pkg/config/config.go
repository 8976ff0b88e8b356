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

// Package config loads and validates the pipeline configuration from a JSON
// file with environment-variable overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/models"
)

var (
	errReadConfig  = errors.New("failed to read config file")
	errParseConfig = errors.New("failed to parse config file")
)

// Config is the root configuration for the pipeline.
type Config struct {
	Enabled          bool                          `json:"enabled"`
	Database         models.DatabaseConfig         `json:"database"`
	Tracing          models.TracingConfig          `json:"tracing"`
	Queries          models.QueriesConfig          `json:"queries"`
	Performance      models.PerformanceConfig      `json:"performance"`
	AnomalyDetection models.AnomalyDetectionConfig `json:"anomaly_detection"`
	Notifications    models.NotificationsConfig    `json:"notifications"`
	Retention        models.RetentionConfig        `json:"retention"`
	Cache            models.CacheConfig            `json:"cache"`
	Events           models.EventsConfig           `json:"events"`
	Exporter         models.ExporterConfig         `json:"exporter"`
	HTTP             models.HTTPConfig             `json:"http"`
	Logging          *logger.Config                `json:"logging,omitempty"`
}

// Default returns a configuration with the documented defaults applied.
func Default() *Config {
	return &Config{
		Enabled: true,
		Tracing: models.TracingConfig{
			Enabled:        true,
			CaptureHeaders: true,
			MaxPayloadSize: 10000,
			SampleRate:     1.0,
			QueueSize:      1024,
		},
		Queries: models.QueriesConfig{
			Enabled:              true,
			SlowThresholdMs:      1000,
			CaptureStackTrace:    true,
			DetectDuplicates:     true,
			MaxQueriesPerRequest: 500,
		},
		Performance: models.PerformanceConfig{
			Enabled: true,
			Thresholds: models.PerformanceThresholds{
				ResponseTimeMs:   3000,
				MemoryUsageMB:    256,
				QueryCount:       50,
				ErrorRatePercent: 5,
			},
		},
		AnomalyDetection: models.AnomalyDetectionConfig{
			Enabled:            true,
			ZScoreThreshold:    3.0,
			MinDataPoints:      100,
			BaselineWindowDays: 7,
			MonitoredMetrics: []string{
				models.MetricResponseTime,
				models.MetricMemoryUsage,
				models.MetricErrorRate,
				models.MetricQueryTime,
			},
		},
		Notifications: models.NotificationsConfig{
			Throttle: models.ThrottleConfig{
				Enabled:            true,
				WindowMinutes:      15,
				MaxAlertsPerWindow: 1,
			},
			SendTimeout:  5 * time.Second,
			PendingSweep: time.Minute,
		},
		Retention: models.RetentionConfig{
			TracesDays:  7,
			QueriesDays: 7,
			MetricsDays: 30,
			AlertsDays:  30,
		},
		Cache: models.CacheConfig{
			Enabled:    true,
			TTLSeconds: 300,
		},
		Exporter: models.ExporterConfig{
			Enabled:   true,
			Namespace: "pulse",
		},
		HTTP: models.HTTPConfig{
			ListenAddr: ":8090",
		},
	}
}

// LoadFile reads the configuration from path, applies env overrides and
// validates the result. Unset sections keep their defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errReadConfig, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", errParseConfig, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// applyEnvOverrides maps a small set of operational knobs onto the loaded
// config so deployments can flip them without editing the file.
func applyEnvOverrides(cfg *Config) {
	if v, ok := envBool("PULSE_ENABLED"); ok {
		cfg.Enabled = v
	}

	if v, ok := envBool("PULSE_TRACING_ENABLED"); ok {
		cfg.Tracing.Enabled = v
	}

	if v, ok := envFloat("PULSE_SAMPLE_RATE"); ok {
		cfg.Tracing.SampleRate = v
	}

	if v, ok := envBool("PULSE_LOG_ALL_QUERIES"); ok {
		cfg.Queries.LogAll = v
	}

	if v, ok := envFloat("PULSE_SLOW_QUERY_THRESHOLD"); ok {
		cfg.Queries.SlowThresholdMs = v
	}

	if v := os.Getenv("PULSE_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}

	if v := os.Getenv("PULSE_NATS_URL"); v != "" {
		cfg.Events.URL = v
	}
}

func envBool(key string) (value, ok bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, false
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}

	return v, true
}

func envFloat(key string) (float64, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}
