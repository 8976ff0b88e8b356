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

package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/pulse/pkg/db"
	"github.com/carverauto/pulse/pkg/events"
	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/models"
)

func newTestDetector(t *testing.T, cfg models.AnomalyDetectionConfig) (*AnomalyDetector, *db.MockService) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockDB := db.NewMockService(ctrl)

	return NewAnomalyDetector(cfg, mockDB, events.NoopPublisher{}, logger.NewTestLogger()), mockDB
}

func detectorConfig(minPoints int) models.AnomalyDetectionConfig {
	return models.AnomalyDetectionConfig{
		Enabled:            true,
		ZScoreThreshold:    3.0,
		MinDataPoints:      minPoints,
		BaselineWindowDays: 7,
	}
}

// baselinePoints builds n rollup points two hours old so they land in the
// baseline window, not the recent hour.
func baselinePoints(n int, value float64) []*models.MetricPoint {
	at := time.Now().UTC().Add(-2 * time.Hour)

	points := make([]*models.MetricPoint, n)
	for i := range points {
		points[i] = &models.MetricPoint{
			MetricType: models.MetricResponseTime,
			MetricName: "global",
			Value:      value,
			CreatedAt:  at,
		}
	}

	return points
}

func TestZScore(t *testing.T) {
	assert.Equal(t, 3.0, zScore(130, 100, 10))
	assert.Equal(t, -2.5, zScore(75, 100, 10))
	assert.Equal(t, 0.0, zScore(12345, 100, 0), "zero stddev must not divide")
}

func TestBaselineStatsPopulationStdDev(t *testing.T) {
	points := []dataPoint{
		{value: 2}, {value: 4}, {value: 4}, {value: 4}, {value: 5}, {value: 5}, {value: 7}, {value: 9},
	}

	stats := baselineStats(points)

	assert.InDelta(t, 5.0, stats.Mean, 0.001)
	// Population stddev of this classic set is exactly 2.
	assert.InDelta(t, 2.0, stats.StdDev, 0.001)
	assert.Equal(t, 2.0, stats.Min)
	assert.Equal(t, 9.0, stats.Max)
	assert.Equal(t, 8, stats.Count)
}

func TestDetectAnomaliesInsufficientData(t *testing.T) {
	detector, mockDB := newTestDetector(t, detectorConfig(100))

	mockDB.EXPECT().
		GetMetricPointsSince(gomock.Any(), models.MetricResponseTime, gomock.Any()).
		Return(baselinePoints(10, 100), nil)

	result, err := detector.DetectAnomalies(context.Background(), models.MetricResponseTime)
	require.NoError(t, err)

	assert.Equal(t, StatusInsufficientData, result.Status)
	assert.Equal(t, "Need at least 100 data points for anomaly detection", result.Message)
	assert.Equal(t, 10, result.CurrentCount)
	assert.Nil(t, result.Baseline)
}

func TestDetectAnomaliesFlagsOutlier(t *testing.T) {
	detector, mockDB := newTestDetector(t, detectorConfig(5))

	// Baseline mean 100 with population stddev sqrt(60); the recent value
	// 150 scores well past the critical threshold.
	points := []*models.MetricPoint{}

	old := time.Now().UTC().Add(-2 * time.Hour)
	for _, v := range []float64{90, 90, 100, 110, 110, 100, 90, 110, 100, 100} {
		points = append(points, &models.MetricPoint{
			MetricType: models.MetricResponseTime,
			MetricName: "global",
			Value:      v,
			CreatedAt:  old,
		})
	}

	recent := &models.MetricPoint{
		MetricType: models.MetricResponseTime,
		MetricName: "global",
		Value:      150,
		CreatedAt:  time.Now().UTC().Add(-time.Minute),
	}
	points = append(points, recent)

	mockDB.EXPECT().
		GetMetricPointsSince(gomock.Any(), models.MetricResponseTime, gomock.Any()).
		Return(points, nil)

	var anomalyPoint *models.MetricPoint

	mockDB.EXPECT().
		StoreMetricPoint(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p *models.MetricPoint) error {
			anomalyPoint = p
			return nil
		})

	mockDB.EXPECT().
		GetRecentAlertByFingerprint(gomock.Any(), gomock.Any(), models.AlertTypeAnomaly, gomock.Any()).
		Return(nil, db.ErrNotFound)

	var createdAlert *models.Alert

	mockDB.EXPECT().
		CreateAlert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, alert *models.Alert) error {
			createdAlert = alert
			return nil
		})

	result, err := detector.DetectAnomalies(context.Background(), models.MetricResponseTime)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 1, result.AnomaliesDetected)
	require.Len(t, result.Anomalies, 1)

	anomaly := result.Anomalies[0]
	assert.InDelta(t, 6.455, anomaly.ZScore, 0.001)
	assert.Equal(t, models.SeverityCritical, anomaly.Severity)
	assert.InDelta(t, 50.0, anomaly.DeviationPercent, 0.001)

	require.NotNil(t, anomalyPoint)
	assert.True(t, anomalyPoint.IsAnomaly)
	require.NotNil(t, anomalyPoint.ZScore)

	require.NotNil(t, createdAlert)
	assert.Equal(t, models.AlertTypeAnomaly, createdAlert.AlertType)
	assert.Equal(t, Fingerprint(models.MetricResponseTime+"global"), createdAlert.Fingerprint)
}

func TestDetectAnomaliesDedupWithinHour(t *testing.T) {
	detector, mockDB := newTestDetector(t, detectorConfig(5))

	points := baselinePoints(10, 100)
	// Constant baseline has stddev 0; use a spread so the outlier scores.
	points[0].Value = 90
	points[1].Value = 110

	points = append(points, &models.MetricPoint{
		MetricType: models.MetricResponseTime,
		MetricName: "global",
		Value:      500,
		CreatedAt:  time.Now().UTC().Add(-time.Minute),
	})

	mockDB.EXPECT().
		GetMetricPointsSince(gomock.Any(), models.MetricResponseTime, gomock.Any()).
		Return(points, nil)

	mockDB.EXPECT().StoreMetricPoint(gomock.Any(), gomock.Any()).Return(nil)

	// An alert with this fingerprint already exists within the hour, so no
	// new alert is created.
	mockDB.EXPECT().
		GetRecentAlertByFingerprint(gomock.Any(), gomock.Any(), models.AlertTypeAnomaly, gomock.Any()).
		Return(&models.Alert{ID: 7}, nil)

	result, err := detector.DetectAnomalies(context.Background(), models.MetricResponseTime)
	require.NoError(t, err)
	assert.Equal(t, 1, result.AnomaliesDetected)
}

func TestDetectAnomaliesStoredAnomaliesExcludedFromBaseline(t *testing.T) {
	detector, mockDB := newTestDetector(t, detectorConfig(100))

	points := baselinePoints(50, 100)
	for _, p := range points[:10] {
		p.IsAnomaly = true
	}

	mockDB.EXPECT().
		GetMetricPointsSince(gomock.Any(), models.MetricResponseTime, gomock.Any()).
		Return(points, nil)

	result, err := detector.DetectAnomalies(context.Background(), models.MetricResponseTime)
	require.NoError(t, err)

	assert.Equal(t, StatusInsufficientData, result.Status)
	assert.Equal(t, 40, result.CurrentCount)
}

func TestErrorRatePoints(t *testing.T) {
	detector, mockDB := newTestDetector(t, detectorConfig(5))

	now := time.Now().UTC().Truncate(time.Minute)
	route := "users.index"

	traces := []*models.Trace{
		{RouteName: &route, StatusCode: 200, CreatedAt: now},
		{RouteName: &route, StatusCode: 500, CreatedAt: now},
		{RouteName: &route, StatusCode: 200, CreatedAt: now.Add(time.Minute)},
	}

	mockDB.EXPECT().GetTracesSince(gomock.Any(), gomock.Any()).Return(traces, nil)

	points, err := detector.errorRatePoints(context.Background(), now.Add(-time.Hour))
	require.NoError(t, err)

	require.Len(t, points, 2)

	values := map[float64]bool{}
	for _, p := range points {
		assert.Equal(t, route, p.label)
		values[p.value] = true
	}

	assert.True(t, values[50.0], "minute with one error of two requests is 50%%")
	assert.True(t, values[0.0])
}

func TestDetectTrend(t *testing.T) {
	detector, mockDB := newTestDetector(t, detectorConfig(5))

	rising := make([]*models.MetricPoint, 10)
	at := time.Now().UTC().Add(-3 * time.Hour)

	for i := range rising {
		rising[i] = &models.MetricPoint{
			MetricType: models.MetricResponseTime,
			MetricName: "global",
			Value:      float64(100 + i*10),
			CreatedAt:  at,
		}
	}

	mockDB.EXPECT().
		GetMetricPointsSince(gomock.Any(), models.MetricResponseTime, gomock.Any()).
		Return(rising, nil)

	result, err := detector.DetectTrend(context.Background(), models.MetricResponseTime, 7)
	require.NoError(t, err)

	assert.Equal(t, TrendIncreasing, result.Trend)
	assert.InDelta(t, 10.0, result.Slope, 0.001)
	assert.Equal(t, "Warning: Metric is increasing over time", result.Interpretation)
}

func TestDetectTrendUnknownWithTooFewPoints(t *testing.T) {
	detector, mockDB := newTestDetector(t, detectorConfig(5))

	mockDB.EXPECT().
		GetMetricPointsSince(gomock.Any(), models.MetricResponseTime, gomock.Any()).
		Return(baselinePoints(1, 100), nil)

	result, err := detector.DetectTrend(context.Background(), models.MetricResponseTime, 7)
	require.NoError(t, err)

	assert.Equal(t, TrendUnknown, result.Trend)
	assert.Zero(t, result.Slope)
	assert.Empty(t, result.Interpretation)
}
