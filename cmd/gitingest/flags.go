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

// GlobalFlags holds the subset of flags that affect how output is
// rendered, independent of what source is being ingested.
type GlobalFlags struct {
	JSON    bool
	NoColor bool
	Quiet   bool
}

// runOptions collects every CLI-level input needed to run one ingest,
// before it's translated into pkg/ingest.Options.
type runOptions struct {
	Source            string
	MaxFileSize       int64
	ExcludePatterns   []string
	IncludePatterns   []string
	Branch            string
	Tag               string
	IncludeGitignored bool
	IncludeSubmodules bool
	Token             string
	Output            string
	MetricsAddr       string
	ConfigPath        string
}
