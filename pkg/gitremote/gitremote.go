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

// Package gitremote resolves branch/tag/commit information against a
// remote's Git smart-HTTP protocol via "git ls-remote", without cloning.
package gitremote

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/kraklabs/gitingest/pkg/credential"
	"github.com/kraklabs/gitingest/pkg/ingesterr"
)

// Kind selects which ref namespace ListRefs enumerates.
type Kind string

const (
	KindBranches Kind = "branches"
	KindTags     Kind = "tags"
)

// Resolver performs ls-remote queries against a Git smart-HTTP remote.
type Resolver struct {
	logger *slog.Logger
	// run executes "git" with args and returns combined stdout lines. It is
	// a seam for tests; production code always uses execGit.
	run func(ctx context.Context, args []string) (string, error)
}

// New creates a Resolver. A nil logger defaults to slog.Default().
func New(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger, run: execGit}
}

func execGit(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			// Leave the "-c <extraheader>" pair out: it carries the credential.
			shown := args
			if len(shown) >= 2 && shown[0] == "-c" {
				shown = shown[2:]
			}
			return "", fmt.Errorf("%w: git %s: %s", ingesterr.ErrRemoteError, strings.Join(shown, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("%w: %v", ingesterr.ErrRemoteError, err)
	}
	return string(out), nil
}

// lsRemoteArgs builds the argv for a ls-remote invocation, injecting the
// credential's extraheader config only when its family matches the target
// host: a foreign-family token is silently ignored, never attached.
func lsRemoteArgs(repoURL string, cred credential.Credential, extra ...string) []string {
	var args []string

	if host := hostOf(repoURL); host != "" && cred.MatchesHost(host) {
		args = append(args, "-c", fmt.Sprintf("http.%s/.extraheader=%s", repoURL, cred.ExtraHeaderValue()))
		// Scope the extraheader to this exact remote URL rather than the
		// bare host, matching git's documented http.<url>/.extraheader form
		// and avoiding leaking the header to unrelated requests to the
		// same host during this invocation.
	}

	args = append(args, "ls-remote")
	args = append(args, extra...)
	args = append(args, repoURL)
	return args
}

func hostOf(repoURL string) string {
	u, err := url.Parse(repoURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

func retryPolicy(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 5 * time.Millisecond
	bo.Multiplier = 2
	bo.MaxInterval = 320 * time.Millisecond
	bo.RandomizationFactor = 0
	return backoff.WithContext(backoff.WithMaxRetries(bo, 3), ctx)
}

// Exists reports whether url resolves — implemented as "can we resolve
// HEAD?". Ambiguous failures (network down, auth required) surface as
// false; callers should treat private+unauthenticated repos as
// nonexistent.
func (r *Resolver) Exists(ctx context.Context, repoURL string, cred credential.Credential) bool {
	_, err := r.ResolveRef(ctx, repoURL, "HEAD", cred)
	return err == nil
}

// ListRefs enumerates branch or tag names (without their refs/heads/ or
// refs/tags/ prefix). The --refs flag suppresses peeled "^{}" lines for
// tags.
func (r *Resolver) ListRefs(ctx context.Context, repoURL string, kind Kind, cred credential.Credential) ([]string, error) {
	var extra []string
	switch kind {
	case KindBranches:
		extra = []string{"--heads"}
	case KindTags:
		extra = []string{"--tags", "--refs"}
	default:
		return nil, fmt.Errorf("%w: unknown ref kind %q", ingesterr.ErrInvalidInput, kind)
	}

	var out string
	op := func() error {
		var err error
		out, err = r.run(ctx, lsRemoteArgs(repoURL, cred, extra...))
		return err
	}
	if err := backoff.Retry(op, retryPolicy(ctx)); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ingesterr.ErrTimedOut, ctx.Err())
		}
		return nil, err
	}

	var prefix string
	switch kind {
	case KindBranches:
		prefix = "refs/heads/"
	case KindTags:
		prefix = "refs/tags/"
	}

	var refs []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		ref := fields[1]
		if name, ok := strings.CutPrefix(ref, prefix); ok {
			refs = append(refs, name)
		}
	}
	return refs, nil
}

// ResolveRef resolves pattern (e.g. "HEAD", "refs/tags/v1", a branch name)
// to a commit SHA. For annotated tags, the peeled "^{}" line's SHA (the
// commit the tag points to) is preferred over the tag object's own SHA.
func (r *Resolver) ResolveRef(ctx context.Context, repoURL, pattern string, cred credential.Credential) (string, error) {
	var out string
	op := func() error {
		var err error
		out, err = r.run(ctx, lsRemoteArgs(repoURL, cred, pattern))
		return err
	}
	if err := backoff.Retry(op, retryPolicy(ctx)); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ingesterr.ErrTimedOut, ctx.Err())
		}
		return "", err
	}

	sha, err := pickSHA(out)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ingesterr.ErrRefNotFound, pattern, err)
	}
	return sha, nil
}

// pickSHA applies the ls-remote line-selection rules:
// skip blanks; a peeled ("^{}") line's SHA is returned immediately; the
// first non-peeled SHA is remembered and returned only if no peeled line
// follows.
func pickSHA(lsRemoteOutput string) (string, error) {
	scanner := bufio.NewScanner(strings.NewReader(lsRemoteOutput))
	var firstNonPeeled string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		sha, ref := fields[0], fields[1]

		if strings.HasSuffix(ref, "^{}") {
			return sha, nil
		}
		if firstNonPeeled == "" {
			firstNonPeeled = sha
		}
	}

	if firstNonPeeled != "" {
		return firstNonPeeled, nil
	}
	return "", fmt.Errorf("no matching ref")
}
