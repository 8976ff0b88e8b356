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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carverauto/pulse/pkg/config"
	"github.com/carverauto/pulse/pkg/core"
	"github.com/carverauto/pulse/pkg/httpapi"
	"github.com/carverauto/pulse/pkg/logger"
)

func main() {
	configPath := flag.String("config", "/etc/pulse/pulse.json", "Path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logCfg := cfg.Logging
	if logCfg == nil {
		logCfg = logger.DefaultConfig()
	}

	appLogger, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	server, err := core.NewServer(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	api := httpapi.New(cfg.HTTP, server, appLogger)
	httpServer := api.HTTPServer()

	errCh := make(chan error, 1)

	go func() {
		appLogger.Info().Str("addr", cfg.HTTP.ListenAddr).Msg("HTTP API listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		appLogger.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		appLogger.Error().Err(err).Msg("HTTP server failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn().Err(err).Msg("HTTP shutdown incomplete")
	}

	return server.Stop(shutdownCtx)
}
