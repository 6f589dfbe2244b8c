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

// Package logging builds the structured logger used by the gitingestd
// server, which logs to slog with dotted event names ("ingest.start",
// "cache.hit", "clone.timeout") rather than free text. The gitingest CLI
// builds its own slog handler in cmd/gitingest.
package logging

import (
	"log/slog"
	"os"
)

// Options controls how New builds a logger.
type Options struct {
	// Debug enables slog.LevelDebug; otherwise slog.LevelInfo is used.
	Debug bool

	// JSON selects slog.NewJSONHandler instead of the default text
	// handler. gitingestd leaves it unset, so it logs text.
	JSON bool
}

// New builds a *slog.Logger writing to os.Stdout per opts, and makes it
// the process default via slog.SetDefault.
func New(opts Options) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(os.Stdout, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, handlerOpts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
