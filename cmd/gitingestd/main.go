// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package main implements gitingestd: an HTTP front end over pkg/ingest,
// exposing POST /api/ingest, GET /api/{user}/{repo}, GET /api/download/file/{id},
// /health, and /metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	gitingestconfig "github.com/kraklabs/gitingest/internal/config"
	"github.com/kraklabs/gitingest/internal/logging"
	"github.com/kraklabs/gitingest/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", "", "Path to .gitingest.yaml (default: ./.gitingest.yaml)")
		listenAddr  = flag.StringP("listen", "l", "", "HTTP listen address (overrides config)")
		debug       = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("gitingestd version %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		os.Exit(0)
	}

	logger := logging.New(logging.Options{Debug: *debug})

	path := *configPath
	if path == "" {
		cwd, _ := os.Getwd()
		path = gitingestconfig.Path(cwd)
	}

	cfg, err := gitingestconfig.Load(path)
	if err != nil {
		logger.Warn("config.load.fallback", "path", path, "err", err)
		cfg = gitingestconfig.Default()
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	watcher := gitingestconfig.NewWatcher(path, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.Warn("config.watch.error", "err", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	server := newServer(watcher, reg, m, logger)

	go server.cleanupWorker().Run(ctx)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http.shutdown.error", "err", err)
		}
	}()

	logger.Info("http.start", "addr", cfg.ListenAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http.listen.error", "err", err)
		os.Exit(1)
	}
}
