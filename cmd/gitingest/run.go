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
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/term"

	gitingestconfig "github.com/kraklabs/gitingest/internal/config"
	"github.com/kraklabs/gitingest/internal/errors"
	"github.com/kraklabs/gitingest/internal/output"
	"github.com/kraklabs/gitingest/internal/ui"
	"github.com/kraklabs/gitingest/pkg/blobstore"
	"github.com/kraklabs/gitingest/pkg/cache"
	"github.com/kraklabs/gitingest/pkg/clone"
	"github.com/kraklabs/gitingest/pkg/gitremote"
	"github.com/kraklabs/gitingest/pkg/ingest"
	"github.com/kraklabs/gitingest/pkg/render"
	"github.com/kraklabs/gitingest/pkg/urlparse"
)

// run wires the parsed flags into pkg/ingest.Orchestrator and prints the
// resulting digest or translates the failure into a UserError.
func run(ctx context.Context, opts runOptions, globals GlobalFlags) {
	ui.InitColors(globals.NoColor || os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()))

	if opts.Source == "" {
		src, err := promptForSource()
		if err != nil {
			errors.FatalError(errors.NewInvalidInputError(
				"No repository source given",
				"gitingest requires a source argument or an interactive terminal",
				"Pass a repository URL, owner/repo slug, or local path as the first argument",
				err,
			), globals.JSON)
		}
		opts.Source = src
	}

	cfg := gitingestconfig.Default()
	if opts.ConfigPath != "" {
		loaded, err := gitingestconfig.Load(opts.ConfigPath)
		if err == nil {
			cfg = loaded
		} else if !globals.Quiet && !globals.JSON {
			ui.Warningf("Could not load %s, using defaults: %v", opts.ConfigPath, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	metricsAddr := opts.MetricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.MetricsAddr
	}
	if metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
			logger.Info("metrics.http.start", "addr", metricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	resolver := gitremote.New(logger)
	parser := urlparse.New(resolver)
	cloner := clone.New(logger)

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

	orchestrator := ingest.New(parser, cloner, digestCache, cfg.ScratchRoot, logger)

	progressCfg := NewProgressConfig(globals)
	spinner := NewSpinner(progressCfg, fmt.Sprintf("Ingesting %s", opts.Source))
	if spinner != nil {
		defer spinner.Finish()
	}

	maxFileSize := opts.MaxFileSize
	if maxFileSize == 0 {
		maxFileSize = cfg.MaxFileSize
	}

	includePatterns, err := splitPatternFlags(opts.IncludePatterns)
	if err != nil {
		errors.FatalError(errors.FromIngestErr(err), globals.JSON)
	}
	excludePatterns, err := splitPatternFlags(opts.ExcludePatterns)
	if err != nil {
		errors.FatalError(errors.FromIngestErr(err), globals.JSON)
	}

	result, err := orchestrator.Ingest(ctx, opts.Source, ingest.Options{
		MaxFileSize:       maxFileSize,
		IncludePatterns:   includePatterns,
		ExcludePatterns:   excludePatterns,
		Branch:            opts.Branch,
		Tag:               opts.Tag,
		IncludeGitignored: opts.IncludeGitignored,
		IncludeSubmodules: opts.IncludeSubmodules,
		Token:             opts.Token,
		Output:            opts.Output,
	})
	if err != nil {
		errors.FatalError(errors.FromIngestErr(err), globals.JSON)
	}

	printResult(result, opts, globals)
}

// jsonResult is the --json rendering of a completed ingest, keeping the
// digest body separate from the summary metadata.
type jsonResult struct {
	Summary string `json:"summary"`
	Tree    string `json:"tree"`
	Content string `json:"content,omitempty"`
}

// printResult writes the digest (when --output wasn't already consumed by
// the orchestrator) and a status banner to stderr, or the whole result as
// pretty-printed JSON to stdout when --json is set.
func printResult(result ingest.Result, opts runOptions, globals GlobalFlags) {
	if globals.JSON {
		body := jsonResult{Summary: result.Summary, Tree: result.Tree}
		if opts.Output == "" {
			body.Content = result.Content
		}
		if err := output.JSON(body); err != nil {
			errors.FatalError(errors.NewInternalError(
				"Failed to encode result as JSON", "", "", err,
			), globals.JSON)
		}
		return
	}

	if opts.Output == "" {
		fmt.Println(clipTreeForTerminal(result.Tree))
		fmt.Println(result.Content)
	}

	if globals.Quiet {
		return
	}

	if opts.Output == "-" {
		fmt.Fprintln(os.Stderr, result.Summary)
		return
	}

	banner(result.Summary, globals)
}

// clipTreeForTerminal clips the tree preview to the detected terminal
// width when stdout is a TTY, so long paths don't wrap mid-line. Piped
// or redirected output is left at full width.
func clipTreeForTerminal(tree string) string {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return tree
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return tree
	}
	return render.ClipTreeWidth(tree, width)
}

var bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00D787"))

// banner renders the summary with a styled lipgloss heading when colors
// are enabled, and falls back to plain text otherwise.
func banner(summary string, globals GlobalFlags) {
	if color.NoColor {
		fmt.Fprintln(os.Stderr, summary)
		return
	}
	fmt.Fprintln(os.Stderr, bannerStyle.Render("Ingest complete"))
	fmt.Fprintln(os.Stderr, summary)
}
