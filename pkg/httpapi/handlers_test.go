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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/pulse/pkg/config"
	"github.com/carverauto/pulse/pkg/core"
	"github.com/carverauto/pulse/pkg/db"
	"github.com/carverauto/pulse/pkg/events"
	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/models"
)

func newTestAPI(t *testing.T, apiKey string) (*API, *db.MockService) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockDB := db.NewMockService(ctrl)

	cfg := config.Default()
	cfg.HTTP.APIKey = apiKey

	server := core.NewServerFromComponents(cfg, mockDB, events.NoopPublisher{}, logger.NewTestLogger())

	return New(cfg.HTTP, server, logger.NewTestLogger()), mockDB
}

func TestHealthEndpoint(t *testing.T) {
	api, _ := newTestAPI(t, "")

	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyRequired(t *testing.T) {
	api, mockDB := newTestAPI(t, "topsecret")

	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/alerts", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	mockDB.EXPECT().ListAlerts(gomock.Any(), gomock.Any()).Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/alerts", nil)
	req.Header.Set("X-API-Key", "topsecret")

	rec = httptest.NewRecorder()
	api.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListTraces(t *testing.T) {
	api, mockDB := newTestAPI(t, "")

	route := "users.index"
	traces := []*models.Trace{{
		TraceID:    "t-1",
		RouteName:  &route,
		Method:     "GET",
		URL:        "/users",
		StatusCode: 200,
		DurationMs: 42.5,
		CreatedAt:  time.Now().UTC(),
	}}

	mockDB.EXPECT().
		ListTraces(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, filter db.TraceFilter) ([]*models.Trace, error) {
			assert.Equal(t, "users.index", filter.Route)
			assert.Equal(t, 10, filter.Limit)
			return traces, nil
		})

	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/api/traces?route=users.index&limit=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Traces []*models.Trace `json:"traces"`
		Count  int             `json:"count"`
	}

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "t-1", body.Traces[0].TraceID)
}

func TestGetTraceNotFound(t *testing.T) {
	api, mockDB := newTestAPI(t, "")

	mockDB.EXPECT().GetTraceByID(gomock.Any(), "missing").Return(nil, db.ErrNotFound)

	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/traces/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveAlert(t *testing.T) {
	api, mockDB := newTestAPI(t, "")

	mockDB.EXPECT().MarkAlertResolved(gomock.Any(), int64(7), gomock.Any()).Return(nil)

	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/alerts/7/resolve", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResolveAlertBadID(t *testing.T) {
	api, _ := newTestAPI(t, "")

	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/alerts/abc/resolve", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	api, mockDB := newTestAPI(t, "ignored-for-metrics")

	mockDB.EXPECT().GetTracesSince(gomock.Any(), gomock.Any()).Return(nil, nil)
	mockDB.EXPECT().GetQueryLogsSince(gomock.Any(), gomock.Any()).Return(nil, nil)

	// The exposition endpoint is open even when the API requires a key.
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
