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

package main

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	gitingestconfig "github.com/kraklabs/gitingest/internal/config"
	"github.com/kraklabs/gitingest/internal/metrics"
	"github.com/kraklabs/gitingest/pkg/blobstore"
	"github.com/kraklabs/gitingest/pkg/cache"
	"github.com/kraklabs/gitingest/pkg/clone"
	"github.com/kraklabs/gitingest/pkg/deadline"
	"github.com/kraklabs/gitingest/pkg/gitremote"
	"github.com/kraklabs/gitingest/pkg/ingest"
	"github.com/kraklabs/gitingest/pkg/urlparse"
)

// server holds the shared dependencies every handler needs: the
// orchestrator (rebuilt per request from the watched config, together with
// its digest cache), the metrics registry, and the rate limiter.
type server struct {
	watcher  *gitingestconfig.Watcher
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	logger   *slog.Logger
	limiter  *rateLimiter

	resolver *gitremote.Resolver
	parser   *urlparse.Parser
	cloner   *clone.Driver
}

func newServer(watcher *gitingestconfig.Watcher, reg *prometheus.Registry, m *metrics.Metrics, logger *slog.Logger) *server {
	resolver := gitremote.New(logger)
	return &server{
		watcher:  watcher,
		metrics:  m,
		registry: reg,
		logger:   logger,
		limiter:  newRateLimiter(watcher.Current().RateLimit.RequestsPerMinute),
		resolver: resolver,
		parser:   urlparse.New(resolver),
		cloner:   clone.New(logger),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/api/ingest", s.withRateLimit(s.handleIngestPost))
	mux.HandleFunc("/api/download/file/", s.handleDownloadFile)
	mux.HandleFunc("/api/", s.withRateLimit(s.handleIngestGet))
	return mux
}

// orchestrator builds a fresh ingest.Orchestrator from the watcher's
// current config, so a hot-reloaded scratch root or cache backend takes
// effect on the very next request.
func (s *server) orchestrator() *ingest.Orchestrator {
	cfg := s.watcher.Current()

	var digestCache *cache.Cache
	if cfg.Cache.Enabled {
		var store blobstore.Store
		if cfg.Cache.Backend == "memory" {
			store = blobstore.NewMemStore()
		} else {
			store = blobstore.NewFileStore(cfg.Cache.Root)
		}
		digestCache = cache.New(store, cfg.Cache.Prefix)
	}

	return ingest.New(s.parser, s.cloner, digestCache, cfg.ScratchRoot, s.logger)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// cleanupWorker builds pkg/deadline's scratch-directory reaper from the
// current config, run as a background goroutine by main.
func (s *server) cleanupWorker() *deadline.CleanupWorker {
	cfg := s.watcher.Current()
	historyPath := cfg.ScratchRoot + "/history.txt"
	w := deadline.NewCleanupWorker(cfg.ScratchRoot, historyPath, s.logger)
	w.ScanInterval = cfg.Cleanup.ScanInterval
	w.MaxAge = cfg.Cleanup.MaxAge
	return w
}

// withRateLimit rejects requests beyond the configured process-wide rate
// with 429, otherwise delegates to next. The limiter itself is a simple
// token count (see ratelimit.go); wiring golang.org/x/time/rate properly
// per client IP is left to the operator.
func (s *server) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			if s.metrics != nil {
				s.metrics.RateLimitedTotal.Inc()
			}
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next(w, r)
	}
}
