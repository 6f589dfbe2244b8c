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

// Package main implements the gitingest CLI: turn a repository (remote URL,
// owner/repo slug, or local directory) into a single text digest suitable
// for pasting into an LLM prompt.
//
// Usage:
//
//	gitingest [source] [flags]
//	gitingest --version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/gitingest/internal/errors"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		maxSize     = flag.Int64P("max-size", "s", 10<<20, "Maximum file size in bytes")
		excludes    = flag.StringArrayP("exclude-pattern", "e", nil, "Exclude pattern (repeatable)")
		includes    = flag.StringArrayP("include-pattern", "i", nil, "Include pattern (repeatable)")
		branch      = flag.StringP("branch", "b", "", "Branch to checkout")
		tag         = flag.String("tag", "", "Tag to checkout (wins over --branch if both given)")
		gitignored  = flag.Bool("include-gitignored", false, "Do not exclude .gitignore/.gitingestignore entries")
		submodules  = flag.Bool("include-submodules", false, "Recursively check out submodules")
		token       = flag.StringP("token", "t", "", "Host credential (defaults to GITHUB_TOKEN)")
		output      = flag.StringP("output", "o", "", "Output path, - for stdout, or empty for none")
		jsonOutput  = flag.Bool("json", false, "Output result metadata as JSON")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress progress output")
		metricsAddr = flag.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
		configPath  = flag.StringP("config", "c", "", "Path to a .gitingest.yaml config file (none loaded when empty)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `gitingest - turn a repository into a text digest

Usage:
  gitingest [source] [flags]

Arguments:
  source    Repository URL, "owner/repo" slug, or local directory path.
            When omitted and both stdin/stdout are a terminal, gitingest
            prompts for it interactively.

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  gitingest octocat/Hello-World
  gitingest https://github.com/octocat/Hello-World -b main -e "*.md"
  gitingest . -i "src/**/*.py" -o digest.txt
  gitingest owner/repo --output -

Environment:
  GITHUB_TOKEN   Fallback credential when --token is not given.
  NO_COLOR       Disable colored output.
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("gitingest version %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		os.Exit(errors.ExitSuccess)
	}

	globals := GlobalFlags{
		JSON:    *jsonOutput,
		NoColor: *noColor,
		Quiet:   *quiet,
	}

	args := flag.Args()
	var source string
	if len(args) > 0 {
		source = args[0]
	}

	opts := runOptions{
		Source:            source,
		MaxFileSize:       *maxSize,
		ExcludePatterns:   *excludes,
		IncludePatterns:   *includes,
		Branch:            *branch,
		Tag:               *tag,
		IncludeGitignored: *gitignored,
		IncludeSubmodules: *submodules,
		Token:             *token,
		Output:            *output,
		MetricsAddr:       *metricsAddr,
		ConfigPath:        *configPath,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	run(ctx, opts, globals)
}
