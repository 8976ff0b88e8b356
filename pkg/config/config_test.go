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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRate)
	assert.Equal(t, 1000.0, cfg.Queries.SlowThresholdMs)
	assert.Equal(t, 500, cfg.Queries.MaxQueriesPerRequest)
	assert.Equal(t, 3000.0, cfg.Performance.Thresholds.ResponseTimeMs)
	assert.Equal(t, 256.0, cfg.Performance.Thresholds.MemoryUsageMB)
	assert.Equal(t, 50.0, cfg.Performance.Thresholds.QueryCount)
	assert.Equal(t, 3.0, cfg.AnomalyDetection.ZScoreThreshold)
	assert.Equal(t, 100, cfg.AnomalyDetection.MinDataPoints)
	assert.Equal(t, 7, cfg.AnomalyDetection.BaselineWindowDays)
	assert.Equal(t, 15, cfg.Notifications.Throttle.WindowMinutes)
	assert.Equal(t, 1, cfg.Notifications.Throttle.MaxAlertsPerWindow)
	assert.Equal(t, 300, cfg.Cache.TTLSeconds)
	assert.Equal(t, 7, cfg.Retention.TracesDays)
	assert.Equal(t, 30, cfg.Retention.AlertsDays)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pulse.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"database": {"host": "db.internal", "database": "pulse"},
		"tracing": {"enabled": true, "sample_rate": 0.25, "max_payload_size": 10000, "queue_size": 64},
		"queries": {"enabled": true, "slow_threshold_ms": 250}
	}`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 0.25, cfg.Tracing.SampleRate)
	assert.Equal(t, 250.0, cfg.Queries.SlowThresholdMs)

	// Sections not present in the file keep their defaults.
	assert.Equal(t, 3000.0, cfg.Performance.Thresholds.ResponseTimeMs)
}

func TestLoadFileRejectsInvalidSampleRate(t *testing.T) {
	path := writeConfig(t, `{
		"database": {"host": "db", "database": "pulse"},
		"tracing": {"sample_rate": 1.5}
	}`)

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, errReadConfig)
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `{"database": {"host": "db", "database": "pulse"}}`)

	t.Setenv("PULSE_SAMPLE_RATE", "0.5")
	t.Setenv("PULSE_LOG_ALL_QUERIES", "true")
	t.Setenv("PULSE_DB_PASSWORD", "s3cret")
	t.Setenv("PULSE_NATS_URL", "nats://broker:4222")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Tracing.SampleRate)
	assert.True(t, cfg.Queries.LogAll)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "nats://broker:4222", cfg.Events.URL)
}

func TestEnvOverrideIgnoresGarbage(t *testing.T) {
	path := writeConfig(t, `{"database": {"host": "db", "database": "pulse"}}`)

	t.Setenv("PULSE_SAMPLE_RATE", "not-a-number")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 1.0, cfg.Tracing.SampleRate)
}
