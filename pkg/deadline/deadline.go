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

// Package deadline wraps a single Ingest call's network steps in a scoped
// timeout, and runs the HTTP server's temp-directory reaper.
package deadline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kraklabs/gitingest/pkg/ingesterr"
)

// DefaultCloneTimeout is the default scope applied around C5 clone (and any
// ls-remote calls nested inside it).
const DefaultCloneTimeout = 60 * time.Second

// Scope derives a child context bounded by timeout, translating a resulting
// context.DeadlineExceeded into ingesterr.ErrTimedOut at the call site (via
// Wrap) rather than leaking the stdlib sentinel to callers.
func Scope(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// Wrap runs fn inside a Scope of timeout and normalizes a deadline-exceeded
// outcome to ingesterr.ErrTimedOut. fn must itself respect ctx cancellation
// (the clone driver and gitremote resolver both do).
func Wrap(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	scoped, cancel := Scope(ctx, timeout)
	defer cancel()

	err := fn(scoped)
	if err != nil && errors.Is(scoped.Err(), context.DeadlineExceeded) {
		return ingesterr.ErrTimedOut
	}
	return err
}

// CleanupWorker periodically reaps scratch directories older than MaxAge
// under Root, recording each as "owner/repo" in a history file before
// removal. Built for the HTTP server (gitingestd); the CLI's scratch
// directories are removed synchronously by the orchestrator instead.
type CleanupWorker struct {
	Root         string
	ScanInterval time.Duration
	MaxAge       time.Duration
	HistoryPath  string
	Logger       *slog.Logger
}

// NewCleanupWorker builds a worker with a 60s scan interval and a 1 hour
// max age; callers may change those fields before Run.
func NewCleanupWorker(root, historyPath string, logger *slog.Logger) *CleanupWorker {
	return &CleanupWorker{
		Root:         root,
		ScanInterval: 60 * time.Second,
		MaxAge:       time.Hour,
		HistoryPath:  historyPath,
		Logger:       logger,
	}
}

// Run scans Root every ScanInterval until ctx is canceled. Each scan's
// failures are logged and do not stop the worker.
func (w *CleanupWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scanOnce(time.Now())
		}
	}
}

func (w *CleanupWorker) scanOnce(now time.Time) {
	entries, err := os.ReadDir(w.Root)
	if err != nil {
		w.logf("cleanup: reading scratch root: %v", err)
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(w.Root, entry.Name())
		info, err := entry.Info()
		if err != nil {
			w.logf("cleanup: stat %s: %v", path, err)
			continue
		}
		if now.Sub(info.ModTime()) < w.MaxAge {
			continue
		}
		if err := w.reap(path); err != nil {
			w.logf("cleanup: reaping %s: %v", path, err)
		}
	}
}

// reap records the directory's owner/repo slug (parsed from the first
// *.txt file it contains) to the history file, then removes the directory.
func (w *CleanupWorker) reap(dir string) error {
	slug, err := firstTxtSlug(dir)
	if err == nil && slug != "" {
		if appendErr := w.appendHistory(slug); appendErr != nil {
			w.logf("cleanup: appending history for %s: %v", dir, appendErr)
		}
	}
	return os.RemoveAll(dir)
}

func (w *CleanupWorker) appendHistory(slug string) error {
	f, err := os.OpenFile(w.HistoryPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(slug + "\n")
	return err
}

func (w *CleanupWorker) logf(format string, args ...any) {
	if w.Logger != nil {
		w.Logger.Warn(fmt.Sprintf(format, args...))
	}
}

// firstTxtSlug reads the summary header of the first *.txt file found
// directly under dir and extracts the "Repository: owner/repo" line.
func firstTxtSlug(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var txtName string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
			txtName = e.Name()
			break
		}
	}
	if txtName == "" {
		return "", errors.New("deadline: no *.txt file found in scratch directory")
	}

	f, err := os.Open(filepath.Join(dir, txtName))
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "Repository: ") {
			return strings.TrimPrefix(line, "Repository: "), nil
		}
	}
	return "", errors.New("deadline: no Repository line found in scratch directory's txt file")
}
