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
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kraklabs/gitingest/internal/contract"
	"github.com/kraklabs/gitingest/internal/errors"
	"github.com/kraklabs/gitingest/pkg/ingest"
)

// ingestRequest is the HTTP body shape: a single pattern per request,
// tagged by type, rather than separate include/exclude arrays.
type ingestRequest struct {
	InputText   string `json:"input_text"`
	MaxFileSize int64  `json:"max_file_size"`
	PatternType string `json:"pattern_type"` // "include" or "exclude"
	Pattern     string `json:"pattern"`
	Token       string `json:"token"`
	Branch      string `json:"branch"`
	Tag         string `json:"tag"`
}

func (req ingestRequest) toOptions() ingest.Options {
	opts := ingest.Options{
		MaxFileSize: req.MaxFileSize,
		Branch:      req.Branch,
		Tag:         req.Tag,
		Token:       req.Token,
	}
	switch req.PatternType {
	case "include":
		if req.Pattern != "" {
			opts.IncludePatterns = []string{req.Pattern}
		}
	case "exclude":
		if req.Pattern != "" {
			opts.ExcludePatterns = []string{req.Pattern}
		}
	}
	return opts
}

func (s *server) handleIngestPost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, int64(contract.SoftLimitBytes())+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return
	}
	if res := contract.ValidateRequestBody(body); !res.OK {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": res.Message})
		return
	}

	var req ingestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.InputText == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "input_text is required"})
		return
	}

	s.runIngest(w, r, req.InputText, req.toOptions())
}

// handleIngestGet implements GET /api/{user}/{repo}, the query-string
// equivalent of handleIngestPost.
func (s *server) handleIngestGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	slug := strings.TrimPrefix(r.URL.Path, "/api/")
	slug = strings.Trim(slug, "/")
	if slug == "" || strings.Count(slug, "/") != 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "path must be /api/{user}/{repo}"})
		return
	}

	q := r.URL.Query()
	opts := ingest.Options{
		Branch: q.Get("branch"),
		Tag:    q.Get("tag"),
		Token:  q.Get("token"),
	}
	if v := q.Get("max_file_size"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			opts.MaxFileSize = n
		}
	}
	if v := q.Get("include_pattern"); v != "" {
		opts.IncludePatterns = []string{v}
	}
	if v := q.Get("exclude_pattern"); v != "" {
		opts.ExcludePatterns = []string{v}
	}

	s.runIngest(w, r, slug, opts)
}

func (s *server) runIngest(w http.ResponseWriter, r *http.Request, source string, opts ingest.Options) {
	orchestrator := s.orchestrator()

	result, err := orchestrator.Ingest(r.Context(), source, opts)
	if err != nil {
		userErr := errors.FromIngestErr(err)
		if s.metrics != nil {
			s.metrics.ObserveIngest("error", "remote", 0)
		}
		writeJSON(w, httpStatusForExitCode(userErr.ExitCode), userErr.ToJSON())
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveIngest("success", "remote", 0)
	}

	cfg := s.watcher.Current()
	downloadID := ""
	if !cfg.Cache.ObjectStorageEnabled {
		downloadID = s.persistDownload(cfg.ScratchRoot, result)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"summary":     result.Summary,
		"tree":        result.Tree,
		"content":     result.Content,
		"download_id": downloadID,
	})
}

// persistDownload writes the rendered digest to a per-request file under
// ScratchRoot/downloads, keyed by a fresh UUID, so GET
// /api/download/file/{id} can serve it later. Failures are non-fatal to
// the ingest response; the caller just won't get a usable download_id.
func (s *server) persistDownload(scratchRoot string, result ingest.Result) string {
	id := uuid.NewString()
	dir := filepath.Join(scratchRoot, "downloads")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		s.logger.Warn("download.persist.error", "err", err)
		return ""
	}
	path := filepath.Join(dir, id+".txt")
	blob := result.Tree + "\n" + result.Content
	if err := os.WriteFile(path, []byte(blob), 0o644); err != nil {
		s.logger.Warn("download.persist.error", "err", err)
		return ""
	}
	return id
}

// handleDownloadFile implements GET /api/download/file/{id}. It always
// returns 503 when the cache's object-storage backend is enabled:
// digests already live in durable storage addressed by their own key,
// and callers should use the URL the ingest call returned instead of
// polling this endpoint.
func (s *server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	cfg := s.watcher.Current()
	if cfg.Cache.ObjectStorageEnabled {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "object storage cache is enabled; use the URL returned by the ingest call",
		})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/download/file/")
	if res := contract.ValidateIngestionID(id); !res.OK {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": res.Message})
		return
	}

	path := filepath.Join(cfg.ScratchRoot, "downloads", id+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such download"})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// httpStatusForExitCode maps internal/errors exit codes onto the nearest
// HTTP status, mirroring the CLI's exit-code taxonomy at the HTTP
// boundary instead of a process exit.
func httpStatusForExitCode(code int) int {
	switch code {
	case errors.ExitInvalidInput:
		return http.StatusBadRequest
	case errors.ExitHostRejected:
		return http.StatusBadRequest
	case errors.ExitNotFound:
		return http.StatusNotFound
	case errors.ExitRef:
		return http.StatusNotFound
	case errors.ExitRemote:
		return http.StatusBadGateway
	case errors.ExitClone:
		return http.StatusBadGateway
	case errors.ExitTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
