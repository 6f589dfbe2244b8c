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

// Package urlparse normalizes a user-supplied repository reference — a
// full URL, a scheme-less host path, or a bare slug — into a canonical
// Result with a resolved commit SHA, consulting a HostProbe (normally
// pkg/gitremote) to disambiguate bare slugs and branch names containing
// slashes.
package urlparse

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/kraklabs/gitingest/pkg/credential"
	"github.com/kraklabs/gitingest/pkg/gitremote"
	"github.com/kraklabs/gitingest/pkg/ingesterr"
)

// KnownHosts lists forges probed, in order, when resolving a bare
// "owner/repo" slug with no host segment.
var KnownHosts = []string{
	"github.com",
	"gitlab.com",
	"bitbucket.org",
	"gitea.com",
	"codeberg.org",
	"gist.github.com",
}

var heuristicHostPrefixes = []string{"git.", "gitlab.", "github."}

// Kind is the path-segment kind following owner/repo in a forge URL.
type Kind string

const (
	KindNone   Kind = "none"
	KindTree   Kind = "tree"
	KindBlob   Kind = "blob"
	KindIssues Kind = "issues"
	KindPull   Kind = "pull"
)

// RefKind tags how Result.Ref was determined.
type RefKind string

const (
	RefKindNone   RefKind = ""
	RefKindCommit RefKind = "commit"
	RefKindTag    RefKind = "tag"
	RefKindBranch RefKind = "branch"
)

// Result is the canonical parse of a remote repository reference. The
// ingest orchestrator combines it with its ingest.Options.
type Result struct {
	Host    string
	Owner   string
	Repo    string
	URL     string
	Kind    Kind
	Ref     string
	RefKind RefKind
	Commit  string
	Subpath string
	Slug    string
}

var hexSHA = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

// HostProbe is the subset of gitremote.Resolver that urlparse depends on.
// Tests inject a hand-written double (internal/mocks.MockHostProbe)
// instead of shelling out to git.
type HostProbe interface {
	Exists(ctx context.Context, repoURL string, cred credential.Credential) bool
	ListRefs(ctx context.Context, repoURL string, kind gitremote.Kind, cred credential.Credential) ([]string, error)
	ResolveRef(ctx context.Context, repoURL, pattern string, cred credential.Credential) (string, error)
}

// Parser parses repository references against a HostProbe.
type Parser struct {
	probe HostProbe
}

// New builds a Parser. probe is typically a *gitremote.Resolver.
func New(probe HostProbe) *Parser {
	return &Parser{probe: probe}
}

// LooksRemote reports whether source looks like something Parse should
// handle, as opposed to a local filesystem path: it carries a scheme, a
// recognizable host segment, or is shaped like a bare "owner/repo" slug.
func LooksRemote(source string) bool {
	trimmed := strings.TrimSuffix(source, "/")
	if strings.Contains(trimmed, "://") {
		return true
	}
	first, _, _ := strings.Cut(trimmed, "/")
	if strings.Contains(first, ".") {
		return true
	}
	segs := strings.Split(trimmed, "/")
	return len(segs) == 2 && segs[0] != "" && segs[1] != ""
}

// Parse normalizes source into a Result, resolving commit/ref via the
// Parser's HostProbe. cred is applied only to hosts matching its family.
func (p *Parser) Parse(ctx context.Context, source string, cred credential.Credential) (Result, error) {
	decoded, err := url.QueryUnescape(source)
	if err != nil {
		decoded = source
	}
	decoded = strings.TrimSuffix(strings.TrimSpace(decoded), ".git")

	host, rest, err := splitHostAndPath(decoded)
	if err != nil {
		return Result{}, err
	}

	if host == "" {
		host, err = p.guessHost(ctx, rest, cred)
		if err != nil {
			return Result{}, err
		}
	}
	if !validHost(host) {
		return Result{}, fmt.Errorf("%w: %q", ingesterr.ErrUnknownDomain, host)
	}

	segments := splitPath(rest)
	if len(segments) < 2 {
		return Result{}, fmt.Errorf("%w: expected at least owner/repo", ingesterr.ErrInvalidInput)
	}
	owner, repo := segments[0], segments[1]
	remainder := segments[2:]

	res := Result{
		Host:  host,
		Owner: owner,
		Repo:  repo,
		URL:   fmt.Sprintf("https://%s/%s/%s", host, owner, repo),
		Slug:  owner + "-" + repo,
		Kind:  KindNone,
	}

	if len(remainder) > 0 {
		kindTok := remainder[0]
		switch kindTok {
		case "issues":
			res.Kind = KindIssues
			slog.Warn("urlparse.kind.unsupported", "kind", kindTok, "fallback", "HEAD")
			return p.finalize(ctx, res, cred)
		case "pull":
			res.Kind = KindPull
			slog.Warn("urlparse.kind.unsupported", "kind", kindTok, "fallback", "HEAD")
			return p.finalize(ctx, res, cred)
		case "tree":
			res.Kind = KindTree
			remainder = remainder[1:]
		case "blob":
			res.Kind = KindBlob
			remainder = remainder[1:]
		default:
			// Unsupported kind token: warn and fall back to HEAD of the
			// default branch, treating nothing further as ref/subpath.
			slog.Warn("urlparse.kind.unsupported", "kind", kindTok, "fallback", "HEAD")
			return p.finalize(ctx, res, cred)
		}
	}

	if len(remainder) > 0 {
		if err := p.resolveRefAndSubpath(ctx, &res, remainder, cred); err != nil {
			return Result{}, err
		}
	}

	return p.finalize(ctx, res, cred)
}

// finalize fills Commit via HEAD resolution when nothing else set it.
func (p *Parser) finalize(ctx context.Context, res Result, cred credential.Credential) (Result, error) {
	if res.Commit == "" {
		sha, err := p.probe.ResolveRef(ctx, res.URL, "HEAD", cred)
		if err != nil {
			return Result{}, err
		}
		res.Commit = sha
	}
	if res.Subpath == "" {
		res.Subpath = "/"
	}
	return res, nil
}

// resolveRefAndSubpath implements spec step 7: a 40-hex first segment is
// a literal commit; otherwise the longest "/"-joined prefix of the
// remaining segments that names a known tag (then branch) is consumed as
// the ref, and the rest becomes the subpath.
func (p *Parser) resolveRefAndSubpath(ctx context.Context, res *Result, segments []string, cred credential.Credential) error {
	if hexSHA.MatchString(segments[0]) {
		res.Commit = segments[0]
		res.RefKind = RefKindCommit
		res.Subpath = joinSubpath(segments[1:])
		return nil
	}

	tags, tagErr := p.probe.ListRefs(ctx, res.URL, gitremote.KindTags, cred)
	if tagErr == nil {
		if n, ok := longestPrefixMember(segments, tags); ok {
			res.Ref = strings.Join(segments[:n], "/")
			res.RefKind = RefKindTag
			res.Subpath = joinSubpath(segments[n:])
			sha, err := p.probe.ResolveRef(ctx, res.URL, "refs/tags/"+res.Ref, cred)
			if err != nil {
				return err
			}
			res.Commit = sha
			return nil
		}
	}

	branches, branchErr := p.probe.ListRefs(ctx, res.URL, gitremote.KindBranches, cred)
	if branchErr == nil {
		if n, ok := longestPrefixMember(segments, branches); ok {
			res.Ref = strings.Join(segments[:n], "/")
			res.RefKind = RefKindBranch
			res.Subpath = joinSubpath(segments[n:])
			sha, err := p.probe.ResolveRef(ctx, res.URL, "refs/heads/"+res.Ref, cred)
			if err != nil {
				return err
			}
			res.Commit = sha
			return nil
		}
	}

	if tagErr != nil && branchErr != nil {
		// Network issue on both lookups: best-effort, treat the first
		// segment alone as the ref and the rest as subpath.
		res.Ref = segments[0]
		res.RefKind = RefKindBranch
		res.Subpath = joinSubpath(segments[1:])
		return nil
	}

	// Lists were fetched successfully but nothing matched: fall through
	// to HEAD resolution, whole remainder becomes subpath.
	res.Subpath = joinSubpath(segments)
	return nil
}

// longestPrefixMember finds the longest n such that strings.Join(segments[:n], "/")
// is a member of list, preferring longer matches.
func longestPrefixMember(segments, list []string) (int, bool) {
	set := make(map[string]bool, len(list))
	for _, v := range list {
		set[v] = true
	}
	for n := len(segments); n >= 1; n-- {
		if set[strings.Join(segments[:n], "/")] {
			return n, true
		}
	}
	return 0, false
}

func joinSubpath(segments []string) string {
	if len(segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(segments, "/")
}

// guessHost handles the bare-slug case: iterate KnownHosts in order and
// return the first for which the probe's Exists check succeeds.
func (p *Parser) guessHost(ctx context.Context, rest string, cred credential.Credential) (string, error) {
	segs := splitPath(rest)
	if len(segs) < 2 {
		return "", fmt.Errorf("%w: expected owner/repo slug", ingesterr.ErrInvalidInput)
	}
	owner, repo := segs[0], segs[1]

	for _, host := range KnownHosts {
		candidate := fmt.Sprintf("https://%s/%s/%s", host, owner, repo)
		if p.probe.Exists(ctx, candidate, cred) {
			return host, nil
		}
	}
	return "", fmt.Errorf("%w: no known host has %s/%s", ingesterr.ErrNoHostFound, owner, repo)
}

// splitHostAndPath extracts a lowercased host and the remaining path for
// scheme-qualified and scheme-less-with-host forms. For a bare slug
// (no dot in the first path segment) it returns host="" so the caller
// falls through to guessHost.
func splitHostAndPath(input string) (host, rest string, err error) {
	if strings.Contains(input, "://") {
		u, perr := url.Parse(input)
		if perr != nil {
			return "", "", fmt.Errorf("%w: %v", ingesterr.ErrInvalidInput, perr)
		}
		scheme := strings.ToLower(u.Scheme)
		if scheme != "http" && scheme != "https" {
			return "", "", fmt.Errorf("%w: unsupported scheme %q", ingesterr.ErrInvalidInput, u.Scheme)
		}
		return strings.ToLower(u.Host), strings.Trim(u.Path, "/"), nil
	}

	first, remainder, hasSlash := strings.Cut(input, "/")
	if strings.Contains(first, ".") {
		if !hasSlash {
			return "", "", fmt.Errorf("%w: missing repository path", ingesterr.ErrInvalidInput)
		}
		return strings.ToLower(first), remainder, nil
	}

	return "", input, nil
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func validHost(host string) bool {
	for _, known := range KnownHosts {
		if host == known {
			return true
		}
	}
	for _, prefix := range heuristicHostPrefixes {
		if strings.HasPrefix(host, prefix) {
			return true
		}
	}
	return false
}
