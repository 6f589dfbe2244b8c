// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of Write+Create events a single
// editor save can produce into one reload.
const debounceDelay = 500 * time.Millisecond

// Watcher reloads Config from its source file whenever it changes on
// disk and exposes the latest value via Current, so gitingestd can pick
// up scratch-root or cache settings changes without a restart. The rate
// limiter and cleanup worker read their settings once at startup.
type Watcher struct {
	path    string
	current atomic.Pointer[Config]
	logger  *slog.Logger
}

// NewWatcher builds a Watcher seeded with the already-loaded initial
// config.
func NewWatcher(path string, initial *Config, logger *slog.Logger) *Watcher {
	w := &Watcher{path: path, logger: logger}
	w.current.Store(initial)
	return w
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	return w.current.Load()
}

// Run watches the config file and its parent directory (so a
// delete-and-recreate save, common with editors, is still observed)
// until ctx is canceled. Reload failures are logged and the previous
// config is kept in effect.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(w.path); err != nil {
		return err
	}
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return err
	}

	var debounce *time.Timer
	reload := func() {
		cfg, err := Load(w.path)
		if err != nil {
			w.logf("config.reload.error", "path", w.path, "err", err)
			return
		}
		w.current.Store(cfg)
		w.logf("config.reload.success", "path", w.path)
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Name != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, reload)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logf("config.watch.error", "err", err)
		}
	}
}

func (w *Watcher) logf(msg string, args ...any) {
	if w.logger == nil {
		return
	}
	w.logger.Warn(msg, args...)
}
