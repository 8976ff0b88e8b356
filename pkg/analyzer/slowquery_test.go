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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/pulse/pkg/db"
	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/models"
)

func newSlowQueryAnalyzer(t *testing.T) (*SlowQueryAnalyzer, *db.MockService) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockDB := db.NewMockService(ctrl)
	cfg := models.QueriesConfig{Enabled: true, SlowThresholdMs: 1000}

	return NewSlowQueryAnalyzer(cfg, mockDB, logger.NewTestLogger()), mockDB
}

func slowQuery(sql string, durationMs float64, table string) *models.QueryLog {
	q := &models.QueryLog{
		TraceID:    "t1",
		SQL:        sql,
		DurationMs: durationMs,
		IsSlow:     true,
		QueryType:  models.QueryTypeSelect,
	}

	if table != "" {
		q.TableName = &table
	}

	return q
}

func recommendationTypes(recs []Recommendation) map[string]bool {
	types := make(map[string]bool)
	for _, r := range recs {
		types[r.Type] = true
	}

	return types
}

func TestRecommendMissingWhereAndSelectStar(t *testing.T) {
	recs := recommend([]*models.QueryLog{slowQuery("SELECT * FROM users", 1200, "users")})
	types := recommendationTypes(recs)

	assert.True(t, types[RecommendationMissingWhere])
	assert.True(t, types[RecommendationSelectStar])
	assert.False(t, types[RecommendationNPlusOne])
	assert.False(t, types[RecommendationSlowSorting])
}

func TestRecommendLimitSuppressesMissingWhere(t *testing.T) {
	recs := recommend([]*models.QueryLog{slowQuery("SELECT id FROM users LIMIT 10", 1200, "users")})
	types := recommendationTypes(recs)

	assert.False(t, types[RecommendationMissingWhere])
	assert.False(t, types[RecommendationSelectStar])
}

func TestRecommendSlowSortingNeedsBothConditions(t *testing.T) {
	fast := slowQuery("SELECT id FROM users WHERE x = 1 ORDER BY name", 500, "users")
	slow := slowQuery("SELECT id FROM users WHERE x = 1 ORDER BY name", 3000, "users")

	assert.False(t, recommendationTypes(recommend([]*models.QueryLog{fast}))[RecommendationSlowSorting])
	assert.True(t, recommendationTypes(recommend([]*models.QueryLog{slow}))[RecommendationSlowSorting])
}

func TestRecommendNPlusOne(t *testing.T) {
	q := slowQuery("SELECT id FROM orders WHERE user_id = $1", 1200, "orders")
	q.IsDuplicate = true

	assert.True(t, recommendationTypes(recommend([]*models.QueryLog{q}))[RecommendationNPlusOne])
}

func TestRecommendDeduplicatesIdenticalRecords(t *testing.T) {
	q := slowQuery("SELECT * FROM users", 1200, "users")

	recs := recommend([]*models.QueryLog{q, q})

	// Two identical queries produce the same recommendation records once.
	assert.Len(t, recs, 2)
}

func TestAnalyzeBuildsInsights(t *testing.T) {
	analyzer, mockDB := newSlowQueryAnalyzer(t)

	queries := []*models.QueryLog{
		slowQuery("SELECT * FROM orders WHERE id = 1", 5000, "orders"),
		slowQuery("SELECT * FROM users WHERE id = 1", 3000, "users"),
		slowQuery("SELECT * FROM users WHERE id = 2", 2000, "users"),
	}

	mockDB.EXPECT().
		GetSlowQueries(gomock.Any(), gomock.Any(), 1000.0, slowQueryLimit).
		Return(queries, nil)

	insights, err := analyzer.Analyze(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 3, insights.TotalSlowQueries)
	require.NotNil(t, insights.SlowestQuery)
	assert.Equal(t, "orders", insights.SlowestQuery.Table)
	assert.InDelta(t, 5000.0, insights.SlowestQuery.DurationMs, 0.001)
	assert.Equal(t, "users", insights.MostAffectedTable)

	require.NotEmpty(t, insights.ByType)
	assert.Equal(t, models.QueryTypeSelect, insights.ByType[0].QueryType)
	assert.Equal(t, 3, insights.ByType[0].Count)
}

func TestAnalyzeRaisesCriticalAlertAtTenfold(t *testing.T) {
	analyzer, mockDB := newSlowQueryAnalyzer(t)

	critical := slowQuery("SELECT * FROM orders WHERE status = $1", 12000, "orders")

	mockDB.EXPECT().
		GetSlowQueries(gomock.Any(), gomock.Any(), 1000.0, slowQueryLimit).
		Return([]*models.QueryLog{critical}, nil)

	mockDB.EXPECT().
		GetRecentAlertByFingerprint(gomock.Any(), Fingerprint(critical.SQL), models.AlertTypeSlowQuery, gomock.Any()).
		Return(nil, db.ErrNotFound)

	var created *models.Alert

	mockDB.EXPECT().
		CreateAlert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, alert *models.Alert) error {
			created = alert
			return nil
		})

	_, err := analyzer.Analyze(context.Background(), 0)
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Equal(t, models.AlertTypeSlowQuery, created.AlertType)
	assert.Equal(t, models.SeverityWarning, created.Severity)
	assert.Equal(t, "orders", created.Source)
}

func TestAnalyzeSuppressesRepeatCriticalAlert(t *testing.T) {
	analyzer, mockDB := newSlowQueryAnalyzer(t)

	critical := slowQuery("SELECT * FROM orders WHERE status = $1", 12000, "orders")

	mockDB.EXPECT().
		GetSlowQueries(gomock.Any(), gomock.Any(), 1000.0, slowQueryLimit).
		Return([]*models.QueryLog{critical}, nil)

	mockDB.EXPECT().
		GetRecentAlertByFingerprint(gomock.Any(), gomock.Any(), models.AlertTypeSlowQuery, gomock.Any()).
		Return(&models.Alert{ID: 3}, nil)

	_, err := analyzer.Analyze(context.Background(), 0)
	require.NoError(t, err)
}

func TestAnalyzeEmpty(t *testing.T) {
	analyzer, mockDB := newSlowQueryAnalyzer(t)

	mockDB.EXPECT().
		GetSlowQueries(gomock.Any(), gomock.Any(), 2000.0, slowQueryLimit).
		Return(nil, nil)

	insights, err := analyzer.Analyze(context.Background(), 2000)
	require.NoError(t, err)

	assert.Zero(t, insights.TotalSlowQueries)
	assert.Nil(t, insights.SlowestQuery)
	assert.Empty(t, insights.Recommendations)
}

func TestStatsByTableAndType(t *testing.T) {
	analyzer, mockDB := newSlowQueryAnalyzer(t)

	queries := []*models.QueryLog{
		slowQuery("SELECT * FROM orders", 3000, "orders"),
		slowQuery("SELECT * FROM orders WHERE id = ?", 1500, "orders"),
		slowQuery("SELECT * FROM users WHERE id = ?", 1200, "users"),
	}
	queries[2].QueryType = models.QueryTypeSelect

	mockDB.EXPECT().
		GetSlowQueries(gomock.Any(), gomock.Any(), 1000.0, slowQueryLimit).
		Return(queries, nil).
		Times(2)

	byTable, err := analyzer.StatsByTable(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, byTable, 2)
	assert.Equal(t, TableStat{Table: "orders", Count: 2, TotalTimeMs: 4500}, byTable[0])
	assert.Equal(t, TableStat{Table: "users", Count: 1, TotalTimeMs: 1200}, byTable[1])

	byType, err := analyzer.StatsByType(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, TypeStat{QueryType: models.QueryTypeSelect, Count: 3, TotalTimeMs: 5700}, byType[0])
}
