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

// Package ingesterr defines the error taxonomy shared by every core
// component of the ingestion pipeline (pattern engine, resolver, parser,
// clone driver, walker, renderer, orchestrator, cache).
//
// Callers distinguish error categories with errors.Is against the sentinel
// values below; each sentinel may be wrapped with additional context via
// fmt.Errorf("...: %w", ErrXxx).
package ingesterr

import "errors"

// Sentinel error categories. See internal/errors for the full taxonomy and the
// propagation rules (everything except ErrLimitExceeded and per-file
// classifier failures aborts the enclosing Ingest call).
var (
	// ErrInvalidInput marks a malformed URL, slug, pattern, or credential.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownDomain marks a host that is neither a known forge nor
	// matches the git./gitlab./github. heuristic.
	ErrUnknownDomain = errors.New("unknown domain")

	// ErrNoHostFound marks a bare slug for which no known host responded
	// to an existence probe.
	ErrNoHostFound = errors.New("no host found for slug")

	// ErrRepoNotFound marks a remote 404 or a failed existence probe.
	ErrRepoNotFound = errors.New("repository not found")

	// ErrRefNotFound marks a ref absent from the remote's advertised refs.
	ErrRefNotFound = errors.New("ref not found")

	// ErrRemoteError marks a transport failure, rate limit, or 5xx from
	// the remote. Not retried internally; the caller may retry.
	ErrRemoteError = errors.New("remote error")

	// ErrCloneError marks a non-zero exit from a git subprocess after the
	// existence probe succeeded. Carries the subprocess's stderr.
	ErrCloneError = errors.New("clone error")

	// ErrTimedOut marks a deadline exceeded at any network step.
	ErrTimedOut = errors.New("timed out")

	// ErrLimitExceeded marks a tripped traversal cap. Warning, not fatal:
	// the walker truncates and the digest is still returned.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrInvalidNotebook marks malformed notebook JSON. Recorded as an
	// error string in the file's body slot; traversal continues.
	ErrInvalidNotebook = errors.New("invalid notebook")

	// ErrInvalidPattern marks a caller-supplied pattern with disallowed
	// characters. Fatal at parse time.
	ErrInvalidPattern = errors.New("invalid pattern")
)
