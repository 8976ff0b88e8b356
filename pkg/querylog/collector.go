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

// Package querylog collects SQL executions per trace and persists them as a
// batch when the trace completes. The data-access layer invokes Record
// explicitly; there is no process-wide listener registration.
package querylog

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"

	"github.com/carverauto/pulse/pkg/db"
	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/models"
)

const defaultMaxQueriesPerRequest = 500

type contextKey struct{}

// ContextWithTrace marks ctx as belonging to the given trace so that Record
// calls made with it are attributed correctly.
func ContextWithTrace(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKey{}, traceID)
}

// TraceIDFromContext returns the trace id carried by ctx, if any.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(contextKey{}).(string)
	return traceID, ok
}

// Event is one SQL execution reported by the data-access layer.
type Event struct {
	SQL        string
	Bindings   []any
	DurationMs float64
	Connection string
}

// Stats summarizes the queries kept for one trace.
type Stats struct {
	Count       int
	TotalTimeMs float64
}

type traceBuffer struct {
	mu     sync.Mutex
	events []Event
}

// Collector buffers query events per active trace. Distinct traces collect
// concurrently without contending; a single trace id is only ever written by
// the request that owns it.
type Collector struct {
	config  models.QueriesConfig
	db      db.Service
	logger  logger.Logger
	buffers sync.Map // trace id -> *traceBuffer
}

// NewCollector creates a query collector backed by the given store.
func NewCollector(config models.QueriesConfig, database db.Service, log logger.Logger) *Collector {
	if config.MaxQueriesPerRequest <= 0 {
		config.MaxQueriesPerRequest = defaultMaxQueriesPerRequest
	}

	return &Collector{
		config: config,
		db:     database,
		logger: log,
	}
}

// Start begins collecting queries for a trace.
func (c *Collector) Start(traceID string) {
	c.buffers.Store(traceID, &traceBuffer{})
}

// Record buffers one query event. It is a no-op unless ctx carries an active
// trace id, query logging is enabled and the query qualifies (log_all, or at
// least the slow threshold). Queries beyond the per-trace cap are dropped
// silently.
func (c *Collector) Record(ctx context.Context, event Event) {
	if !c.config.Enabled {
		return
	}

	traceID, ok := TraceIDFromContext(ctx)
	if !ok {
		return
	}

	value, ok := c.buffers.Load(traceID)
	if !ok {
		return
	}

	isSlow := event.DurationMs >= c.config.SlowThresholdMs
	if !c.config.LogAll && !isSlow {
		return
	}

	buf := value.(*traceBuffer)

	buf.mu.Lock()
	defer buf.mu.Unlock()

	if len(buf.events) >= c.config.MaxQueriesPerRequest {
		return
	}

	buf.events = append(buf.events, event)
}

// Stop finalizes collection for a trace: computes the kept-query statistics,
// persists the batch with duplicate/slow/type tags and clears the in-memory
// entry. The returned stats are valid even when persistence fails.
func (c *Collector) Stop(ctx context.Context, traceID string) (Stats, error) {
	value, ok := c.buffers.LoadAndDelete(traceID)
	if !ok {
		return Stats{}, nil
	}

	buf := value.(*traceBuffer)

	buf.mu.Lock()
	events := buf.events
	buf.events = nil
	buf.mu.Unlock()

	var stats Stats

	for _, ev := range events {
		stats.Count++
		stats.TotalTimeMs += ev.DurationMs
	}

	if len(events) == 0 {
		return stats, nil
	}

	logs := c.buildLogs(traceID, events)

	if err := c.db.StoreQueryLogs(ctx, logs); err != nil {
		return stats, fmt.Errorf("store query logs for trace %s: %w", traceID, err)
	}

	return stats, nil
}

func (c *Collector) buildLogs(traceID string, events []Event) []*models.QueryLog {
	duplicates := map[int]bool{}
	if c.config.DetectDuplicates {
		duplicates = detectDuplicates(events)
	}

	logs := make([]*models.QueryLog, 0, len(events))

	for i, ev := range events {
		isSlow := ev.DurationMs >= c.config.SlowThresholdMs

		q := &models.QueryLog{
			TraceID:        traceID,
			SQL:            ev.SQL,
			Bindings:       ev.Bindings,
			DurationMs:     round2(ev.DurationMs),
			ConnectionName: ev.Connection,
			IsSlow:         isSlow,
			IsDuplicate:    duplicates[i],
			QueryType:      ExtractQueryType(ev.SQL),
			TableName:      ExtractTableName(ev.SQL),
		}

		if isSlow && c.config.CaptureStackTrace {
			if stack := captureStack(); stack != "" {
				q.StackTrace = &stack
			}
		}

		logs = append(logs, q)
	}

	return logs
}

// detectDuplicates marks every occurrence of a repeated normalized statement,
// first occurrence included. Repeats within one trace are the N+1 signal.
func detectDuplicates(events []Event) map[int]bool {
	duplicates := make(map[int]bool)
	seen := make(map[string]int, len(events))

	for i, ev := range events {
		normalized := NormalizeSQL(ev.SQL)

		if first, ok := seen[normalized]; ok {
			duplicates[i] = true
			duplicates[first] = true
		} else {
			seen[normalized] = i
		}
	}

	return duplicates
}

// captureStack returns the caller stack above this package, capped at ten
// frames.
func captureStack() string {
	pcs := make([]uintptr, 16)

	n := runtime.Callers(3, pcs)
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])

	var (
		sb    strings.Builder
		count int
	)

	for {
		frame, more := frames.Next()

		if !strings.Contains(frame.File, "/pkg/querylog/") {
			fmt.Fprintf(&sb, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
			count++
		}

		if !more || count >= 10 {
			break
		}
	}

	return sb.String()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
