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

// Package tracer captures one performance trace per request: timing, memory,
// query statistics and sanitized request context.
package tracer

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/pulse/pkg/db"
	"github.com/carverauto/pulse/pkg/events"
	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/models"
	"github.com/carverauto/pulse/pkg/querylog"
)

// Overridable in tests; production reads cumulative allocation so the delta
// across a request is monotonic even when the GC runs mid-request.
var (
	memoryUsage = func() int64 {
		var stats runtime.MemStats

		runtime.ReadMemStats(&stats)

		return int64(stats.TotalAlloc)
	}

	sampleFn = rand.Float64

	nowFn = time.Now
)

// RequestInfo describes the incoming request at capture time. Headers and
// Payload are sanitized before storage; callers pass them as received.
type RequestInfo struct {
	Method        string
	URL           string
	Path          string
	RouteName     *string
	RouteAction   *string
	UserID        *string
	IPAddress     string
	UserAgent     string
	ParentTraceID *string
	Referer       string
	SessionID     string
	Headers       map[string][]string
	Payload       map[string]any
}

// Subscriber receives every completed trace. Implementations must not block;
// delivery happens on the request path.
type Subscriber func(trace *models.Trace)

// Recorder begins and finalizes traces. All methods are safe for concurrent
// use.
type Recorder struct {
	config    models.TracingConfig
	db        db.Service
	collector *querylog.Collector
	publisher events.Publisher
	logger    logger.Logger

	mu          sync.RWMutex
	subscribers []Subscriber

	// closeMu serializes in-flight queue sends against Close. Producers hold
	// the read lock while sending; Close flips closed under the write lock, so
	// once it holds the lock no new send can reach the channel.
	closeMu sync.RWMutex
	closed  bool
	queue   chan *models.Trace
	done    chan struct{}
}

// NewRecorder creates a trace recorder. When async storage is configured,
// Start must be called before traces are recorded and Close when shutting
// down.
func NewRecorder(
	config models.TracingConfig,
	database db.Service,
	collector *querylog.Collector,
	publisher events.Publisher,
	log logger.Logger,
) *Recorder {
	r := &Recorder{
		config:    config,
		db:        database,
		collector: collector,
		publisher: publisher,
		logger:    log,
	}

	if config.AsyncStore {
		size := config.QueueSize
		if size <= 0 {
			size = 1024
		}

		r.queue = make(chan *models.Trace, size)
		r.done = make(chan struct{})
	}

	return r
}

// Start launches the async store worker. No-op for synchronous recorders.
func (r *Recorder) Start(ctx context.Context) {
	if r.queue == nil {
		return
	}

	go r.storeLoop(ctx)
}

// Close drains the async queue and stops the worker. Traces finalized after
// Close are stored synchronously. No-op for synchronous recorders.
func (r *Recorder) Close() {
	if r.queue == nil {
		return
	}

	r.closeMu.Lock()

	if r.closed {
		r.closeMu.Unlock()
		return
	}

	r.closed = true
	r.closeMu.Unlock()

	close(r.queue)
	<-r.done
}

// Subscribe registers a callback invoked with every completed trace.
func (r *Recorder) Subscribe(sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subscribers = append(r.subscribers, sub)
}

// Handle tracks one in-flight trace between Begin and End.
type Handle struct {
	recorder *Recorder
	trace    *models.Trace
	start    time.Time
	startMem int64
}

// TraceID returns the id assigned to the in-flight trace.
func (h *Handle) TraceID() string {
	return h.trace.TraceID
}

// Begin decides whether this request is traced and, if so, starts the clock.
// The returned context carries the trace id so query collection attributes
// correctly. When the second return value is false the request is not traced
// and the context is returned unchanged.
func (r *Recorder) Begin(ctx context.Context, info RequestInfo) (context.Context, *Handle, bool) {
	if !r.config.Enabled {
		return ctx, nil, false
	}

	if info.RouteName != nil && matchesAny(r.config.ExcludedRoutes, *info.RouteName) {
		return ctx, nil, false
	}

	if matchesAny(r.config.ExcludedPaths, info.Path) {
		return ctx, nil, false
	}

	if r.config.SampleRate < 1.0 && sampleFn() >= r.config.SampleRate {
		return ctx, nil, false
	}

	trace := &models.Trace{
		TraceID:       uuid.New().String(),
		ParentTraceID: info.ParentTraceID,
		Method:        info.Method,
		URL:           info.URL,
		RouteName:     info.RouteName,
		RouteAction:   info.RouteAction,
		UserID:        info.UserID,
		IPAddress:     info.IPAddress,
		UserAgent:     info.UserAgent,
		CreatedAt:     nowFn().UTC(),
	}

	if info.Referer != "" || info.SessionID != "" {
		trace.Metadata = map[string]any{}
		if info.Referer != "" {
			trace.Metadata["referer"] = info.Referer
		}

		if info.SessionID != "" {
			trace.Metadata["session_id"] = info.SessionID
		}
	}

	if r.config.CaptureHeaders {
		trace.Headers = sanitizeHeaders(info.Headers)
	}

	if r.config.CapturePayload {
		trace.RequestPayload = sanitizePayload(info.Payload, r.config.MaxPayloadSize)
	}

	r.collector.Start(trace.TraceID)

	handle := &Handle{
		recorder: r,
		trace:    trace,
		start:    nowFn(),
		startMem: memoryUsage(),
	}

	return querylog.ContextWithTrace(ctx, trace.TraceID), handle, true
}

// End finalizes the trace with the response status and optional metadata,
// folds in collected query statistics and stores it. Storage failures are
// logged, never surfaced to the request.
func (h *Handle) End(ctx context.Context, statusCode int, metadata map[string]any) {
	r := h.recorder
	trace := h.trace

	trace.StatusCode = statusCode
	trace.DurationMs = round2(float64(nowFn().Sub(h.start)) / float64(time.Millisecond))

	if len(metadata) > 0 {
		if trace.Metadata == nil {
			trace.Metadata = map[string]any{}
		}

		for k, v := range metadata {
			trace.Metadata[k] = v
		}
	}

	if delta := memoryUsage() - h.startMem; delta > 0 {
		trace.MemoryUsage = delta
	}

	stats, err := r.collector.Stop(ctx, trace.TraceID)
	if err != nil {
		r.logger.Error().Err(err).Str("trace_id", trace.TraceID).Msg("Failed to store query logs")
	}

	trace.QueryCount = stats.Count
	trace.QueryTimeMs = round2(stats.TotalTimeMs)

	r.store(ctx, trace)
	r.notify(trace)
	r.publishRecorded(ctx, trace)
}

func (r *Recorder) store(ctx context.Context, trace *models.Trace) {
	if r.queue != nil && r.enqueue(trace) {
		return
	}

	if err := r.db.StoreTrace(ctx, trace); err != nil {
		r.logger.Error().Err(err).Str("trace_id", trace.TraceID).Msg("Failed to store trace")
	}
}

// enqueue hands the trace to the async worker. It reports false when the
// recorder is already closed, in which case the caller stores synchronously.
func (r *Recorder) enqueue(trace *models.Trace) bool {
	r.closeMu.RLock()
	defer r.closeMu.RUnlock()

	if r.closed {
		return false
	}

	select {
	case r.queue <- trace:
	default:
		r.logger.Warn().Str("trace_id", trace.TraceID).Msg("Trace queue full, dropping trace")
	}

	return true
}

func (r *Recorder) storeLoop(ctx context.Context) {
	defer close(r.done)

	for trace := range r.queue {
		if err := r.db.StoreTrace(ctx, trace); err != nil {
			r.logger.Error().Err(err).Str("trace_id", trace.TraceID).Msg("Failed to store trace")
		}
	}
}

func (r *Recorder) notify(trace *models.Trace) {
	r.mu.RLock()
	subs := r.subscribers
	r.mu.RUnlock()

	for _, sub := range subs {
		sub(trace)
	}
}

func (r *Recorder) publishRecorded(ctx context.Context, trace *models.Trace) {
	err := r.publisher.PublishTraceRecorded(ctx, models.TraceRecordedData{
		TraceID:    trace.TraceID,
		Method:     trace.Method,
		URL:        trace.URL,
		StatusCode: trace.StatusCode,
		DurationMs: trace.DurationMs,
		QueryCount: trace.QueryCount,
		RouteName:  trace.RouteName,
		Timestamp:  trace.CreatedAt,
	})
	if err != nil {
		r.logger.Warn().Err(err).Str("trace_id", trace.TraceID).Msg("Failed to publish trace event")
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
