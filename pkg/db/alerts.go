/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/carverauto/pulse/pkg/models"
)

const insertAlertSQL = `
INSERT INTO alerts (
	alert_type,
	severity,
	title,
	description,
	source,
	context,
	fingerprint,
	notified,
	resolved,
	created_at
) VALUES (
	$1,$2,$3,$4,$5,
	$6,$7,false,false,$8
) RETURNING id`

const selectAlertSQL = `
SELECT
	id,
	alert_type,
	severity,
	title,
	description,
	source,
	context,
	fingerprint,
	notified,
	notified_at,
	notification_channels,
	resolved,
	resolved_at,
	created_at
FROM alerts`

// CreateAlert persists a new alert and fills in its generated id.
func (db *DB) CreateAlert(ctx context.Context, alert *models.Alert) error {
	contextJSON, err := marshalJSON(alert.Context)
	if err != nil {
		return fmt.Errorf("%w: alert context: %w", ErrFailedToInsert, err)
	}

	createdAt := alert.CreatedAt
	if createdAt.IsZero() {
		createdAt = nowUTC()
		alert.CreatedAt = createdAt
	}

	row := db.pool.QueryRow(ctx, insertAlertSQL,
		alert.AlertType,
		string(alert.Severity),
		alert.Title,
		alert.Description,
		alert.Source,
		contextJSON,
		alert.Fingerprint,
		createdAt,
	)

	if err := row.Scan(&alert.ID); err != nil {
		return fmt.Errorf("%w: alerts: %w", ErrFailedToInsert, err)
	}

	return nil
}

// GetAlertByID fetches one alert.
func (db *DB) GetAlertByID(ctx context.Context, id int64) (*models.Alert, error) {
	rows, err := db.pool.Query(ctx, selectAlertSQL+" WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("%w: alerts: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	alerts, err := scanAlerts(rows)
	if err != nil {
		return nil, err
	}

	if len(alerts) == 0 {
		return nil, ErrNotFound
	}

	return alerts[0], nil
}

// GetRecentAlertByFingerprint returns the newest alert with the given
// fingerprint created at or after since, or ErrNotFound. An empty alertType
// matches any type.
func (db *DB) GetRecentAlertByFingerprint(
	ctx context.Context, fingerprint, alertType string, since time.Time) (*models.Alert, error) {
	query := selectAlertSQL + " WHERE fingerprint = $1 AND created_at >= $2"
	params := []any{fingerprint, since.UTC()}

	if alertType != "" {
		params = append(params, alertType)
		query += " AND alert_type = $3"
	}

	query += " ORDER BY created_at DESC LIMIT 1"

	rows, err := db.pool.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("%w: alerts: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	alerts, err := scanAlerts(rows)
	if err != nil {
		return nil, err
	}

	if len(alerts) == 0 {
		return nil, ErrNotFound
	}

	return alerts[0], nil
}

// CountNotifiedAlertsSince counts alerts sharing a fingerprint that were
// marked notified at or after since.
func (db *DB) CountNotifiedAlertsSince(ctx context.Context, fingerprint string, since time.Time) (int, error) {
	var count int

	err := db.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM alerts WHERE fingerprint = $1 AND notified AND notified_at >= $2",
		fingerprint, since.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: alerts: %w", ErrFailedToQuery, err)
	}

	return count, nil
}

// ListPendingAlerts returns unresolved alerts that have not been notified,
// oldest first.
func (db *DB) ListPendingAlerts(ctx context.Context) ([]*models.Alert, error) {
	rows, err := db.pool.Query(ctx,
		selectAlertSQL+" WHERE NOT notified AND NOT resolved ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("%w: alerts: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// ListAlerts returns alerts matching the filter, newest first.
func (db *DB) ListAlerts(ctx context.Context, filter AlertFilter) ([]*models.Alert, error) {
	var (
		conds  []string
		params []any
	)

	addCond := func(expr string, value any) {
		params = append(params, value)
		conds = append(conds, strings.Replace(expr, "?", "$"+strconv.Itoa(len(params)), 1))
	}

	if filter.AlertType != "" {
		addCond("alert_type = ?", filter.AlertType)
	}

	if filter.Severity != "" {
		addCond("severity = ?", string(filter.Severity))
	}

	if filter.Unresolved {
		conds = append(conds, "NOT resolved")
	}

	if !filter.Since.IsZero() {
		addCond("created_at >= ?", filter.Since.UTC())
	}

	query := selectAlertSQL
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	params = append(params, limit)
	query += " LIMIT $" + strconv.Itoa(len(params))

	if filter.Offset > 0 {
		params = append(params, filter.Offset)
		query += " OFFSET $" + strconv.Itoa(len(params))
	}

	rows, err := db.pool.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("%w: alerts: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// MarkAlertNotified records a successful notification with the channels that
// accepted it.
func (db *DB) MarkAlertNotified(ctx context.Context, id int64, channels []string, at time.Time) error {
	_, err := db.pool.Exec(ctx,
		"UPDATE alerts SET notified = true, notified_at = $2, notification_channels = $3 WHERE id = $1",
		id, at.UTC(), strings.Join(channels, ","))
	if err != nil {
		return fmt.Errorf("%w: alerts: %w", ErrFailedToUpdate, err)
	}

	return nil
}

// MarkAlertResolved resolves an alert. Resolving an already resolved alert is
// a no-op that still succeeds.
func (db *DB) MarkAlertResolved(ctx context.Context, id int64, at time.Time) error {
	_, err := db.pool.Exec(ctx,
		"UPDATE alerts SET resolved = true, resolved_at = $2 WHERE id = $1 AND NOT resolved",
		id, at.UTC())
	if err != nil {
		return fmt.Errorf("%w: alerts: %w", ErrFailedToUpdate, err)
	}

	return nil
}

func scanAlerts(rows pgx.Rows) ([]*models.Alert, error) {
	var alerts []*models.Alert

	for rows.Next() {
		var (
			a        models.Alert
			severity string
			context  []byte
			channels *string
		)

		err := rows.Scan(
			&a.ID,
			&a.AlertType,
			&severity,
			&a.Title,
			&a.Description,
			&a.Source,
			&context,
			&a.Fingerprint,
			&a.Notified,
			&a.NotifiedAt,
			&channels,
			&a.Resolved,
			&a.ResolvedAt,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: alert: %w", ErrFailedToScan, err)
		}

		a.Severity = models.Severity(severity)

		if err := unmarshalJSON(context, &a.Context); err != nil {
			return nil, fmt.Errorf("%w: alert context: %w", ErrFailedToScan, err)
		}

		if channels != nil && *channels != "" {
			a.NotificationChannels = strings.Split(*channels, ",")
		}

		alerts = append(alerts, &a)
	}

	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: alerts: %w", ErrFailedToQuery, err)
	}

	return alerts, nil
}
