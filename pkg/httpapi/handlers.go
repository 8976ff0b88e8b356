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

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carverauto/pulse/pkg/db"
	"github.com/carverauto/pulse/pkg/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleMetrics(w http.ResponseWriter, r *http.Request) {
	text, err := a.server.Exporter.ExportText(r.Context())
	if err != nil {
		a.logger.Error().Err(err).Msg("Metrics export failed")
		writeError(w, http.StatusInternalServerError, "export failed")

		return
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

func (a *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.server.Exporter.ExportSummary(r.Context())
	if err != nil {
		a.logger.Error().Err(err).Msg("Summary export failed")
		writeError(w, http.StatusInternalServerError, "summary failed")

		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	windowDays := queryInt(r, "window_days", 1)

	report, err := a.server.Performance.Analyze(r.Context(), windowDays)
	if err != nil {
		a.logger.Error().Err(err).Msg("Analysis failed")
		writeError(w, http.StatusInternalServerError, "analysis failed")

		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleBottlenecks(w http.ResponseWriter, r *http.Request) {
	windowDays := queryInt(r, "window_days", 1)

	findings, err := a.server.Performance.IdentifyBottlenecks(r.Context(), windowDays)
	if err != nil {
		a.logger.Error().Err(err).Msg("Bottleneck detection failed")
		writeError(w, http.StatusInternalServerError, "bottleneck detection failed")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bottlenecks": findings})
}

func (a *API) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	metricType := r.URL.Query().Get("metric_type")
	if metricType == "" {
		metricType = models.MetricResponseTime
	}

	result, err := a.server.AnomalyDetector.DetectAnomalies(r.Context(), metricType)
	if err != nil {
		a.logger.Error().Err(err).Str("metric_type", metricType).Msg("Anomaly detection failed")
		writeError(w, http.StatusInternalServerError, "anomaly detection failed")

		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleSlowQueries(w http.ResponseWriter, r *http.Request) {
	threshold, _ := strconv.ParseFloat(r.URL.Query().Get("threshold_ms"), 64)

	insights, err := a.server.SlowQueries.Analyze(r.Context(), threshold)
	if err != nil {
		a.logger.Error().Err(err).Msg("Slow query analysis failed")
		writeError(w, http.StatusInternalServerError, "slow query analysis failed")

		return
	}

	writeJSON(w, http.StatusOK, insights)
}

func (a *API) handleListTraces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := db.TraceFilter{
		Route:      q.Get("route"),
		StatusCode: queryInt(r, "status_code", 0),
		ErrorsOnly: q.Get("errors_only") == "true",
		Limit:      clampLimit(queryInt(r, "limit", defaultListLimit)),
		Offset:     queryInt(r, "offset", 0),
	}

	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}

		filter.Since = t
	}

	traces, err := a.server.DB.ListTraces(r.Context(), filter)
	if err != nil {
		a.logger.Error().Err(err).Msg("Trace listing failed")
		writeError(w, http.StatusInternalServerError, "listing failed")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"traces": traces, "count": len(traces)})
}

func (a *API) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	traceID := chi.URLParam(r, "traceID")

	trace, err := a.server.DB.GetTraceByID(r.Context(), traceID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "trace not found")
			return
		}

		a.logger.Error().Err(err).Str("trace_id", traceID).Msg("Trace lookup failed")
		writeError(w, http.StatusInternalServerError, "lookup failed")

		return
	}

	queries, err := a.server.DB.GetQueriesForTrace(r.Context(), traceID)
	if err != nil {
		a.logger.Error().Err(err).Str("trace_id", traceID).Msg("Query lookup failed")
		writeError(w, http.StatusInternalServerError, "lookup failed")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"trace": trace, "queries": queries})
}

func (a *API) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := db.AlertFilter{
		AlertType:  q.Get("alert_type"),
		Severity:   models.Severity(q.Get("severity")),
		Unresolved: q.Get("unresolved") == "true",
		Limit:      clampLimit(queryInt(r, "limit", defaultListLimit)),
		Offset:     queryInt(r, "offset", 0),
	}

	alerts, err := a.server.DB.ListAlerts(r.Context(), filter)
	if err != nil {
		a.logger.Error().Err(err).Msg("Alert listing failed")
		writeError(w, http.StatusInternalServerError, "listing failed")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts, "count": len(alerts)})
}

func (a *API) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "alertID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "alert id must be numeric")
		return
	}

	alert, err := a.server.DB.GetAlertByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "alert not found")
			return
		}

		a.logger.Error().Err(err).Int64("alert_id", id).Msg("Alert lookup failed")
		writeError(w, http.StatusInternalServerError, "lookup failed")

		return
	}

	writeJSON(w, http.StatusOK, alert)
}

func (a *API) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "alertID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "alert id must be numeric")
		return
	}

	if err := a.server.AlertManager.Resolve(r.Context(), id); err != nil {
		a.logger.Error().Err(err).Int64("alert_id", id).Msg("Alert resolve failed")
		writeError(w, http.StatusInternalServerError, "resolve failed")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"resolved": true})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}

	if limit > maxListLimit {
		return maxListLimit
	}

	return limit
}
