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
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/carverauto/pulse/pkg/db"
	"github.com/carverauto/pulse/pkg/events"
	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/models"
)

// Result status values for anomaly detection.
const (
	StatusSuccess          = "success"
	StatusInsufficientData = "insufficient_data"
)

// Trend labels returned by DetectTrend.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
	TrendUnknown    = "unknown"
)

const trendSlopeThreshold = 0.1

// BaselineStats describes the historical reference window.
type BaselineStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// Anomaly is one recent data point that deviated from baseline.
type Anomaly struct {
	MetricName       string          `json:"metric_name"`
	Value            float64         `json:"value"`
	ZScore           float64         `json:"z_score"`
	DeviationPercent float64         `json:"deviation_percent"`
	Severity         models.Severity `json:"severity"`
	Timestamp        time.Time       `json:"timestamp"`
}

// AnomalyResult is the structured outcome of one detection run. Status
// distinguishes a successful evaluation from one skipped for lack of baseline
// data.
type AnomalyResult struct {
	Status            string         `json:"status"`
	Message           string         `json:"message,omitempty"`
	CurrentCount      int            `json:"current_count,omitempty"`
	Baseline          *BaselineStats `json:"baseline,omitempty"`
	AnomaliesDetected int            `json:"anomalies_detected"`
	Anomalies         []Anomaly      `json:"anomalies,omitempty"`
}

// TrendResult labels the direction of a metric over time.
type TrendResult struct {
	Trend          string  `json:"trend"`
	Slope          float64 `json:"slope"`
	Interpretation string  `json:"interpretation,omitempty"`
}

// dataPoint is the uniform shape both metric rollups and derived error rates
// reduce to before scoring.
type dataPoint struct {
	value     float64
	label     string
	timestamp time.Time
}

// AnomalyDetector scores the trailing hour of a metric against a historical
// baseline using z-scores.
type AnomalyDetector struct {
	config    models.AnomalyDetectionConfig
	db        db.Service
	publisher events.Publisher
	logger    logger.Logger
}

// NewAnomalyDetector creates a detector backed by the given store.
func NewAnomalyDetector(
	config models.AnomalyDetectionConfig,
	database db.Service,
	publisher events.Publisher,
	log logger.Logger,
) *AnomalyDetector {
	return &AnomalyDetector{
		config:    config,
		db:        database,
		publisher: publisher,
		logger:    log,
	}
}

// DetectAnomalies evaluates the trailing hour of metricType against the
// baseline window. The trailing hour is excluded from the baseline so the
// evaluated data cannot contaminate its own reference.
func (d *AnomalyDetector) DetectAnomalies(ctx context.Context, metricType string) (*AnomalyResult, error) {
	now := nowFn().UTC()
	baselineStart := now.AddDate(0, 0, -d.config.BaselineWindowDays)
	recentStart := now.Add(-time.Hour)

	points, err := d.dataPoints(ctx, metricType, baselineStart)
	if err != nil {
		return nil, fmt.Errorf("detect anomalies for %s: %w", metricType, err)
	}

	var baseline, recent []dataPoint

	for _, p := range points {
		if p.timestamp.Before(recentStart) {
			baseline = append(baseline, p)
		} else {
			recent = append(recent, p)
		}
	}

	if len(baseline) < d.config.MinDataPoints {
		return &AnomalyResult{
			Status: StatusInsufficientData,
			Message: fmt.Sprintf("Need at least %d data points for anomaly detection",
				d.config.MinDataPoints),
			CurrentCount: len(baseline),
		}, nil
	}

	stats := baselineStats(baseline)
	result := &AnomalyResult{
		Status:   StatusSuccess,
		Baseline: &stats,
	}

	for _, p := range recent {
		z := zScore(p.value, stats.Mean, stats.StdDev)
		if math.Abs(z) < d.config.ZScoreThreshold {
			continue
		}

		anomaly := Anomaly{
			MetricName: p.label,
			Value:      p.value,
			ZScore:     z,
			Severity:   anomalySeverity(z),
			Timestamp:  p.timestamp,
		}

		if stats.Mean != 0 {
			anomaly.DeviationPercent = round2((p.value - stats.Mean) / stats.Mean * 100)
		}

		result.Anomalies = append(result.Anomalies, anomaly)
		result.AnomaliesDetected++

		d.recordAnomaly(ctx, metricType, anomaly, stats)
	}

	return result, nil
}

// recordAnomaly persists the anomalous point and raises an alert unless one
// with the same fingerprint was created within the trailing hour. Persistence
// failures are logged; detection output is already final.
func (d *AnomalyDetector) recordAnomaly(ctx context.Context, metricType string, anomaly Anomaly, stats BaselineStats) {
	now := nowFn().UTC()
	baselineMean := stats.Mean
	z := anomaly.ZScore

	point := &models.MetricPoint{
		MetricType:        metricType,
		MetricName:        anomaly.MetricName,
		Value:             anomaly.Value,
		Baseline:          &baselineMean,
		ZScore:            &z,
		IsAnomaly:         true,
		AggregationPeriod: models.PeriodHour,
		PeriodStart:       now.Add(-time.Hour),
		PeriodEnd:         now,
		Metadata: map[string]any{
			"deviation_percent": anomaly.DeviationPercent,
			"baseline_std_dev":  stats.StdDev,
		},
	}

	if err := d.db.StoreMetricPoint(ctx, point); err != nil {
		d.logger.Error().Err(err).Str("metric_type", metricType).Msg("Failed to store anomaly point")
	}

	fp := Fingerprint(metricType + anomaly.MetricName)

	existing, err := d.db.GetRecentAlertByFingerprint(ctx, fp, models.AlertTypeAnomaly, now.Add(-time.Hour))
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		d.logger.Error().Err(err).Str("fingerprint", fp).Msg("Failed to check recent alerts")
		return
	}

	if existing != nil {
		return
	}

	alert := &models.Alert{
		AlertType: models.AlertTypeAnomaly,
		Severity:  anomaly.Severity,
		Title:     fmt.Sprintf("Anomaly detected in %s", metricType),
		Description: fmt.Sprintf("%s for %s is %.2f (%.2f%% from baseline %.2f, z-score %.4f)",
			metricType, anomaly.MetricName, anomaly.Value,
			anomaly.DeviationPercent, baselineMean, z),
		Source:      anomaly.MetricName,
		Fingerprint: fp,
		Context: map[string]any{
			"metric_type":       metricType,
			"value":             anomaly.Value,
			"baseline_mean":     baselineMean,
			"z_score":           z,
			"deviation_percent": anomaly.DeviationPercent,
		},
	}

	if err := d.db.CreateAlert(ctx, alert); err != nil {
		d.logger.Error().Err(err).Str("fingerprint", fp).Msg("Failed to create anomaly alert")
		return
	}

	err = d.publisher.PublishAnomalyDetected(ctx, models.AnomalyDetectedData{
		MetricType:       metricType,
		MetricName:       anomaly.MetricName,
		Value:            anomaly.Value,
		Baseline:         baselineMean,
		ZScore:           z,
		DeviationPercent: anomaly.DeviationPercent,
		Timestamp:        now,
	})
	if err != nil {
		d.logger.Warn().Err(err).Str("metric_type", metricType).Msg("Failed to publish anomaly event")
	}
}

// dataPoints loads the raw series for a metric type since the given time.
// Error rate is derived from traces grouped by route and minute; everything
// else reads the stored rollup points.
func (d *AnomalyDetector) dataPoints(ctx context.Context, metricType string, since time.Time) ([]dataPoint, error) {
	if metricType == models.MetricErrorRate {
		return d.errorRatePoints(ctx, since)
	}

	points, err := d.db.GetMetricPointsSince(ctx, metricType, since)
	if err != nil {
		return nil, err
	}

	out := make([]dataPoint, 0, len(points))

	for _, p := range points {
		if p.IsAnomaly {
			continue
		}

		out = append(out, dataPoint{value: p.Value, label: p.MetricName, timestamp: p.CreatedAt})
	}

	return out, nil
}

func (d *AnomalyDetector) errorRatePoints(ctx context.Context, since time.Time) ([]dataPoint, error) {
	traces, err := d.db.GetTracesSince(ctx, since)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		route  string
		minute time.Time
	}

	type counts struct {
		total  int
		errors int
	}

	byBucket := make(map[bucket]*counts)

	for _, t := range traces {
		key := bucket{route: t.Route(), minute: t.CreatedAt.Truncate(time.Minute)}

		c, ok := byBucket[key]
		if !ok {
			c = &counts{}
			byBucket[key] = c
		}

		c.total++

		if t.IsError() {
			c.errors++
		}
	}

	out := make([]dataPoint, 0, len(byBucket))

	for key, c := range byBucket {
		out = append(out, dataPoint{
			value:     round2(float64(c.errors) / float64(c.total) * 100),
			label:     key.route,
			timestamp: key.minute,
		})
	}

	return out, nil
}

// DetectTrend fits an ordinary least-squares line to the metric's values over
// the trailing days and labels the slope direction.
func (d *AnomalyDetector) DetectTrend(ctx context.Context, metricType string, days int) (TrendResult, error) {
	since := nowFn().UTC().AddDate(0, 0, -days)

	points, err := d.dataPoints(ctx, metricType, since)
	if err != nil {
		return TrendResult{}, fmt.Errorf("detect trend for %s: %w", metricType, err)
	}

	if len(points) < 2 {
		return TrendResult{Trend: TrendUnknown, Slope: 0}, nil
	}

	slope := olsSlope(points)

	result := TrendResult{
		Trend:          TrendStable,
		Slope:          round4(slope),
		Interpretation: interpretTrend(metricType, slope),
	}

	switch {
	case slope > trendSlopeThreshold:
		result.Trend = TrendIncreasing
	case slope < -trendSlopeThreshold:
		result.Trend = TrendDecreasing
	}

	return result, nil
}

// interpretTrend phrases the slope for the metrics where a rising value is
// bad news.
func interpretTrend(metricType string, slope float64) string {
	if math.Abs(slope) < trendSlopeThreshold {
		return "Metric is stable"
	}

	switch metricType {
	case models.MetricResponseTime, models.MetricMemoryUsage, models.MetricErrorRate:
		if slope > 0 {
			return "Warning: Metric is increasing over time"
		}

		return "Good: Metric is decreasing over time"
	default:
		if slope > 0 {
			return "Increasing trend"
		}

		return "Decreasing trend"
	}
}

// olsSlope is the least-squares slope of value against sequential index.
func olsSlope(points []dataPoint) float64 {
	n := float64(len(points))

	var sumX, sumY, sumXY, sumXX float64

	for i, p := range points {
		x := float64(i)
		sumX += x
		sumY += p.value
		sumXY += x * p.value
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}

	return (n*sumXY - sumX*sumY) / denom
}

func baselineStats(points []dataPoint) BaselineStats {
	stats := BaselineStats{Count: len(points)}
	if len(points) == 0 {
		return stats
	}

	stats.Min = points[0].value
	stats.Max = points[0].value

	var sum float64

	for _, p := range points {
		sum += p.value

		if p.value < stats.Min {
			stats.Min = p.value
		}

		if p.value > stats.Max {
			stats.Max = p.value
		}
	}

	stats.Mean = sum / float64(len(points))

	var sq float64

	for _, p := range points {
		diff := p.value - stats.Mean
		sq += diff * diff
	}

	// Population variance, not Bessel-corrected.
	stats.StdDev = math.Sqrt(sq / float64(len(points)))

	return stats
}

// zScore returns the number of standard deviations value lies from mean,
// rounded to 4 decimals. A zero standard deviation yields 0.
func zScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}

	return round4((value - mean) / stdDev)
}

func anomalySeverity(z float64) models.Severity {
	if math.Abs(z) > 5 {
		return models.SeverityCritical
	}

	return models.SeverityWarning
}

// Fingerprint produces the stable hash used to identify the same underlying
// issue across repeated alerts.
func Fingerprint(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
