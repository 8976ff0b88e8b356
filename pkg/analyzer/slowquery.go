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
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/carverauto/pulse/pkg/db"
	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/models"
)

const (
	slowQueryLimit = 100

	// A query this many times over the slow threshold raises an alert.
	criticalSlowFactor = 10

	slowSortingThresholdMs = 2000
)

// Recommendation types attached to slow-query insights.
const (
	RecommendationMissingWhere = "missing_where"
	RecommendationSelectStar   = "select_star"
	RecommendationNPlusOne     = "n_plus_one"
	RecommendationSlowSorting  = "slow_sorting"
)

// QuerySummary identifies one problem query in the insights.
type QuerySummary struct {
	SQL        string  `json:"sql"`
	DurationMs float64 `json:"duration_ms"`
	Table      string  `json:"table"`
}

// Recommendation pairs a detected pattern with a suggested fix.
type Recommendation struct {
	Type       string `json:"type"`
	SQL        string `json:"sql"`
	Suggestion string `json:"suggestion"`
}

// TableStat counts slow queries against one table.
type TableStat struct {
	Table       string  `json:"table"`
	Count       int     `json:"count"`
	TotalTimeMs float64 `json:"total_time_ms"`
}

// TypeStat counts slow queries of one query type.
type TypeStat struct {
	QueryType   string  `json:"query_type"`
	Count       int     `json:"count"`
	TotalTimeMs float64 `json:"total_time_ms"`
}

// Insights is the output of one slow-query analysis run.
type Insights struct {
	TotalSlowQueries  int              `json:"total_slow_queries"`
	SlowestQuery      *QuerySummary    `json:"slowest_query,omitempty"`
	MostAffectedTable string           `json:"most_affected_table,omitempty"`
	Recommendations   []Recommendation `json:"recommendations,omitempty"`
	ByTable           []TableStat      `json:"by_table,omitempty"`
	ByType            []TypeStat       `json:"by_type,omitempty"`
}

// SlowQueryAnalyzer derives optimization insights from collected slow queries.
type SlowQueryAnalyzer struct {
	config models.QueriesConfig
	db     db.Service
	logger logger.Logger
}

// NewSlowQueryAnalyzer creates an analyzer backed by the given store.
func NewSlowQueryAnalyzer(config models.QueriesConfig, database db.Service, log logger.Logger) *SlowQueryAnalyzer {
	return &SlowQueryAnalyzer{
		config: config,
		db:     database,
		logger: log,
	}
}

// Analyze inspects the slowest queries of the trailing day at or above
// thresholdMs. A non-positive threshold uses the configured slow threshold.
// Queries at ten times the threshold additionally raise slow_query alerts,
// suppressed per fingerprint within the trailing hour.
func (s *SlowQueryAnalyzer) Analyze(ctx context.Context, thresholdMs float64) (*Insights, error) {
	if thresholdMs <= 0 {
		thresholdMs = s.config.SlowThresholdMs
	}

	now := nowFn().UTC()

	queries, err := s.db.GetSlowQueries(ctx, now.Add(-24*time.Hour), thresholdMs, slowQueryLimit)
	if err != nil {
		return nil, fmt.Errorf("analyze slow queries: %w", err)
	}

	insights := &Insights{TotalSlowQueries: len(queries)}
	if len(queries) == 0 {
		return insights, nil
	}

	// Queries arrive sorted by duration descending.
	insights.SlowestQuery = &QuerySummary{
		SQL:        queries[0].SQL,
		DurationMs: queries[0].DurationMs,
		Table:      queries[0].Table(),
	}

	insights.ByTable = statsByTable(queries)
	insights.ByType = statsByType(queries)

	if len(insights.ByTable) > 0 {
		insights.MostAffectedTable = insights.ByTable[0].Table
	}

	insights.Recommendations = recommend(queries)

	criticalAt := thresholdMs * criticalSlowFactor

	for _, q := range queries {
		if q.DurationMs >= criticalAt {
			s.raiseCriticalAlert(ctx, q)
		}
	}

	return insights, nil
}

// StatsByTable aggregates the trailing days of slow queries per table,
// ordered by slow-query count descending.
func (s *SlowQueryAnalyzer) StatsByTable(ctx context.Context, days int) ([]TableStat, error) {
	queries, err := s.slowQueriesSince(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("slow query stats by table: %w", err)
	}

	return statsByTable(queries), nil
}

// StatsByType aggregates the trailing days of slow queries per statement type,
// ordered by slow-query count descending.
func (s *SlowQueryAnalyzer) StatsByType(ctx context.Context, days int) ([]TypeStat, error) {
	queries, err := s.slowQueriesSince(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("slow query stats by type: %w", err)
	}

	return statsByType(queries), nil
}

func (s *SlowQueryAnalyzer) slowQueriesSince(ctx context.Context, days int) ([]*models.QueryLog, error) {
	since := nowFn().UTC().AddDate(0, 0, -days)

	return s.db.GetSlowQueries(ctx, since, s.config.SlowThresholdMs, slowQueryLimit)
}

// recommend evaluates every rule against every query. A query may match more
// than one rule; identical recommendation records collapse to one.
func recommend(queries []*models.QueryLog) []Recommendation {
	seen := make(map[Recommendation]bool)

	var out []Recommendation

	add := func(rec Recommendation) {
		if !seen[rec] {
			seen[rec] = true
			out = append(out, rec)
		}
	}

	for _, q := range queries {
		upper := strings.ToUpper(q.SQL)

		if strings.Contains(upper, "SELECT") &&
			!strings.Contains(upper, "WHERE") && !strings.Contains(upper, "LIMIT") {
			add(Recommendation{
				Type:       RecommendationMissingWhere,
				SQL:        q.SQL,
				Suggestion: "Add a WHERE clause or LIMIT to avoid scanning the full table",
			})
		}

		if strings.Contains(upper, "SELECT *") {
			add(Recommendation{
				Type:       RecommendationSelectStar,
				SQL:        q.SQL,
				Suggestion: "Select only the columns you need instead of *",
			})
		}

		if q.IsDuplicate {
			add(Recommendation{
				Type:       RecommendationNPlusOne,
				SQL:        q.SQL,
				Suggestion: "Query repeats within a single request; batch it or eager-load the relation",
			})
		}

		if strings.Contains(upper, "ORDER BY") && q.DurationMs > slowSortingThresholdMs {
			add(Recommendation{
				Type:       RecommendationSlowSorting,
				SQL:        q.SQL,
				Suggestion: "Add an index covering the ORDER BY columns",
			})
		}
	}

	return out
}

func (s *SlowQueryAnalyzer) raiseCriticalAlert(ctx context.Context, q *models.QueryLog) {
	fp := Fingerprint(q.SQL)
	now := nowFn().UTC()

	existing, err := s.db.GetRecentAlertByFingerprint(ctx, fp, models.AlertTypeSlowQuery, now.Add(-time.Hour))
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		s.logger.Error().Err(err).Str("fingerprint", fp).Msg("Failed to check recent alerts")
		return
	}

	if existing != nil {
		return
	}

	alert := &models.Alert{
		AlertType: models.AlertTypeSlowQuery,
		Severity:  models.SeverityWarning,
		Title:     fmt.Sprintf("Critically slow query on %s", q.Table()),
		Description: fmt.Sprintf("Query took %.2fms, more than %dx the slow threshold",
			q.DurationMs, criticalSlowFactor),
		Source:      q.Table(),
		Fingerprint: fp,
		Context: map[string]any{
			"sql":         q.SQL,
			"duration_ms": q.DurationMs,
			"trace_id":    q.TraceID,
			"query_type":  q.QueryType,
		},
	}

	if err := s.db.CreateAlert(ctx, alert); err != nil {
		s.logger.Error().Err(err).Str("fingerprint", fp).Msg("Failed to create slow query alert")
	}
}

func statsByTable(queries []*models.QueryLog) []TableStat {
	byTable := make(map[string]*TableStat)

	for _, q := range queries {
		table := q.Table()

		stat, ok := byTable[table]
		if !ok {
			stat = &TableStat{Table: table}
			byTable[table] = stat
		}

		stat.Count++
		stat.TotalTimeMs = round2(stat.TotalTimeMs + q.DurationMs)
	}

	out := make([]TableStat, 0, len(byTable))

	for _, stat := range byTable {
		out = append(out, *stat)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}

		return out[i].Table < out[j].Table
	})

	return out
}

func statsByType(queries []*models.QueryLog) []TypeStat {
	byType := make(map[string]*TypeStat)

	for _, q := range queries {
		stat, ok := byType[q.QueryType]
		if !ok {
			stat = &TypeStat{QueryType: q.QueryType}
			byType[q.QueryType] = stat
		}

		stat.Count++
		stat.TotalTimeMs = round2(stat.TotalTimeMs + q.DurationMs)
	}

	out := make([]TypeStat, 0, len(byType))

	for _, stat := range byType {
		out = append(out, *stat)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}

		return out[i].QueryType < out[j].QueryType
	})

	return out
}
