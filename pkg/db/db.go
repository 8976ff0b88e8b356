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
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/models"
)

// DB implements Service on top of a pgx connection pool.
type DB struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// nowUTC allows tests to override the timestamp source.
//
//nolint:gochecknoglobals // test hooks need a package-level clock override.
var nowUTC = func() time.Time {
	return time.Now().UTC()
}

// New dials the configured database and returns the storage service.
func New(ctx context.Context, cfg *models.DatabaseConfig, log logger.Logger) (Service, error) {
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &DB{pool: pool, logger: log}, nil
}

func newPool(ctx context.Context, cfg *models.DatabaseConfig) (*pgxpool.Pool, error) {
	conn := *cfg
	if conn.Port == 0 {
		conn.Port = 5432
	}

	connURL := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", conn.Host, conn.Port),
		Path:   "/" + conn.Database,
	}

	if conn.Username != "" {
		if conn.Password != "" {
			connURL.User = url.UserPassword(conn.Username, conn.Password)
		} else {
			connURL.User = url.User(conn.Username)
		}
	}

	query := connURL.Query()

	sslMode := conn.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	query.Set("sslmode", sslMode)

	if conn.ApplicationName != "" {
		query.Set("application_name", conn.ApplicationName)
	}

	for k, v := range conn.ExtraRuntimeParams {
		if k == "" {
			continue
		}

		query.Set(k, v)
	}

	connURL.RawQuery = query.Encode()

	poolConfig, err := pgxpool.ParseConfig(connURL.String())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse connection string: %w", ErrFailedOpenDB, err)
	}

	if conn.MaxConnections > 0 {
		poolConfig.MaxConns = conn.MaxConnections
	}

	if conn.MinConnections > 0 {
		poolConfig.MinConns = conn.MinConnections
	}

	if conn.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = conn.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedOpenDB, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrFailedOpenDB, err)
	}

	return pool, nil
}

// Close releases the underlying connection pool.
func (db *DB) Close() error {
	db.pool.Close()
	return nil
}
