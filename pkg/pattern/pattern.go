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

// Package pattern implements the gitignore-wildmatch pattern engine (parsing,
// normalization, and include/exclude matching) used to decide which files and
// directories a repository walk visits.
//
// Matching is built on github.com/bmatcuk/doublestar/v4 for the underlying
// glob semantics; this package supplies the parts doublestar doesn't: token
// parsing/validation, the Include/Exclude subtraction invariant, gitignore
// file discovery and re-anchoring, and the "could a descendant of this
// directory match an include pattern" predicate the walker needs to decide
// whether to recurse into a directory at all.
package pattern

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kraklabs/gitingest/pkg/ingesterr"
)

var (
	tokenSplit  = regexp.MustCompile(`[,\s]+`)
	validToken  = regexp.MustCompile(`^[A-Za-z0-9_./+*@!-]+$`)
)

// Set holds the normalized, disjoint Include/Exclude pattern lists for a
// single query. Exclude always contains the built-in defaults unless a
// caller's Include pattern removed an entry via the subtraction invariant.
type Set struct {
	Include []string
	Exclude []string
}

// ParsePatterns splits free-form, caller-supplied pattern text into a list
// of normalized pattern tokens. Tokens are separated by commas or
// whitespace ([,\s]+; LoadIgnoreFile does not use this and takes each
// ignore-file line whole as one pattern), back-slashes are
// normalized to forward slashes, and empty tokens are dropped.
//
// Returns ingesterr.ErrInvalidPattern if any token contains a character
// outside [A-Za-z0-9_./+*@!-].
func ParsePatterns(raw string) ([]string, error) {
	normalized := strings.ReplaceAll(raw, `\`, "/")
	fields := tokenSplit.Split(strings.TrimSpace(normalized), -1)

	out := make([]string, 0, len(fields))
	for _, tok := range fields {
		if tok == "" {
			continue
		}
		if !validToken.MatchString(tok) {
			return nil, fmt.Errorf("%w: %q", ingesterr.ErrInvalidPattern, tok)
		}
		out = append(out, tok)
	}
	return out, nil
}

// Merge builds the final Set from caller-supplied include/exclude patterns
// and the built-in defaults, applying the subtraction invariant: a pattern
// present in Include is removed from Exclude.
func Merge(include, exclude []string) Set {
	merged := append(DefaultExcludes(), exclude...)

	inInclude := make(map[string]bool, len(include))
	for _, p := range include {
		inInclude[p] = true
	}

	finalExclude := make([]string, 0, len(merged))
	seen := make(map[string]bool, len(merged))
	for _, p := range merged {
		if inInclude[p] || seen[p] {
			continue
		}
		seen[p] = true
		finalExclude = append(finalExclude, p)
	}

	incCopy := make([]string, len(include))
	copy(incCopy, include)

	return Set{Include: incCopy, Exclude: finalExclude}
}

// LoadIgnoreFile walks root recursively looking for files named filename
// (".gitignore" or ".gitingestignore") and parses each one line by line.
// Blank lines and "#" comments are skipped. A leading "!" negates a pattern
// (preserved as a leading "!" in the returned pattern string). A pattern is
// re-anchored to the discovered file's directory, relative to root: a
// ".gitignore" at "sub/.gitignore" with a line "*.log" yields the pattern
// "sub/*.log"; a root ".gitignore" line "*.log" yields "*.log" unchanged.
// A leading "/" on a line is stripped before the join (it only signals
// "anchored to this ignore file's directory", which the join already does).
func LoadIgnoreFile(root, filename string) ([]string, error) {
	var patterns []string

	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort discovery, matches walker's tolerant error handling
		}
		if info.IsDir() || info.Name() != filename {
			return nil
		}

		relDir, relErr := filepath.Rel(root, filepath.Dir(path))
		if relErr != nil {
			return nil
		}
		relDir = filepath.ToSlash(relDir)

		f, openErr := os.Open(path)
		if openErr != nil {
			return nil
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			negated := strings.HasPrefix(line, "!")
			if negated {
				line = line[1:]
			}
			line = strings.TrimPrefix(line, "/")
			line = filepath.ToSlash(line)

			var body string
			if relDir == "." || relDir == "" {
				body = line
			} else {
				body = relDir + "/" + line
			}

			if negated {
				body = "!" + body
			}
			patterns = append(patterns, body)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return patterns, nil
}

// Result is the outcome of matching a single path against a Matcher.
type Result int

const (
	// Neutral means neither include nor exclude patterns decided the
	// file's fate; the walker's default (keep, unless an include set is
	// active and non-empty) applies.
	Neutral Result = iota
	// Include means an include pattern matched the path.
	Include
	// Exclude means an exclude pattern matched the path and no include
	// pattern overrides it.
	Exclude
)

// compiledPattern is a parsed pattern ready for doublestar matching.
type compiledPattern struct {
	raw          string
	negated      bool
	glob         string // pattern text with leading "!" stripped
	anchored     bool   // contains "/" — matches only the literal path, not at any depth
	literalPrefix []string // path segments before the first wildcard, used by CouldMatchDescendant
}

func compile(raw string) compiledPattern {
	negated := strings.HasPrefix(raw, "!")
	body := strings.TrimPrefix(raw, "!")
	anchored := strings.HasPrefix(body, "/") || strings.Contains(body, "/")
	body = strings.TrimPrefix(body, "/")

	cp := compiledPattern{raw: raw, negated: negated, glob: body, anchored: anchored}
	for _, seg := range strings.Split(body, "/") {
		if strings.ContainsAny(seg, "*?[") {
			break
		}
		cp.literalPrefix = append(cp.literalPrefix, seg)
	}
	return cp
}

// Matcher is a compiled, reusable Set ready for repeated MatchFile calls.
// Matcher is safe for concurrent use.
type Matcher struct {
	include []compiledPattern
	exclude []compiledPattern

	mu    sync.Mutex
	cache map[string]bool // "dirCouldMatch:" + relPath -> result, bounded
}

const descendantCacheCap = 4096

// Compile prepares a Set for matching. Returns ingesterr.ErrInvalidPattern
// if any pattern is structurally invalid for doublestar.
func Compile(set Set) (*Matcher, error) {
	m := &Matcher{cache: make(map[string]bool)}
	for _, p := range set.Include {
		if !doublestar.ValidatePattern(strings.TrimPrefix(strings.TrimPrefix(p, "!"), "/")) {
			return nil, fmt.Errorf("%w: %q", ingesterr.ErrInvalidPattern, p)
		}
		m.include = append(m.include, compile(p))
	}
	for _, p := range set.Exclude {
		if !doublestar.ValidatePattern(strings.TrimPrefix(strings.TrimPrefix(p, "!"), "/")) {
			return nil, fmt.Errorf("%w: %q", ingesterr.ErrInvalidPattern, p)
		}
		m.exclude = append(m.exclude, compile(p))
	}
	return m, nil
}

func matchOne(cp compiledPattern, relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	if cp.anchored {
		ok, _ := doublestar.Match(cp.glob, relPath)
		return ok
	}
	// Basename-only pattern: matches at any depth, including the root.
	if ok, _ := doublestar.Match(cp.glob, relPath); ok {
		return true
	}
	ok, _ := doublestar.Match("**/"+cp.glob, relPath)
	return ok
}

// MatchFile answers whether relPath (slash-separated, relative to the
// query's root) is included, excluded, or neutral.
//
// Exclusion is stateless: if relPath matches any exclude pattern and no
// later-matching negated exclude pattern un-matches it, it is excluded.
// Include overrides exclude by construction (Merge already subtracted
// overlapping patterns before Compile), but an include match always wins
// over a plain exclude match when an include set is active.
func (m *Matcher) MatchFile(relPath string) Result {
	excluded := false
	for _, cp := range m.exclude {
		if matchOne(cp, relPath) {
			excluded = !cp.negated
		}
	}

	if len(m.include) > 0 {
		matched := false
		for _, cp := range m.include {
			if matchOne(cp, relPath) {
				matched = !cp.negated
			}
		}
		if matched {
			return Include
		}
		// An active include set with no match for this file excludes it,
		// regardless of the exclude set's verdict.
		return Exclude
	}

	if excluded {
		return Exclude
	}
	return Neutral
}

// Excluded reports whether relPath matches the exclude spec alone,
// ignoring any active include set. Used by callers (the walker) that
// need to prune a directory by its exclude patterns without prematurely
// rejecting it on the separate "does it match include" question, which
// CouldMatchDescendant answers for directories instead.
func (m *Matcher) Excluded(relPath string) bool {
	excluded := false
	for _, cp := range m.exclude {
		if matchOne(cp, relPath) {
			excluded = !cp.negated
		}
	}
	return excluded
}

// HasInclude reports whether an include set is active.
func (m *Matcher) HasInclude() bool {
	return len(m.include) > 0
}

// CouldMatchDescendant answers whether some descendant of the directory at
// dirRelPath could match an include pattern — i.e. whether the walker
// should recurse into it at all. Only meaningful when an include set is
// active; callers should keep every directory when Include is empty.
//
// A directory is kept when its path is an ancestor of some include
// pattern's anchored literal prefix, or when some include pattern is
// basename-only (those can match at any depth, including inside this
// directory).
func (m *Matcher) CouldMatchDescendant(dirRelPath string) bool {
	if len(m.include) == 0 {
		return true
	}

	dirRelPath = filepath.ToSlash(dirRelPath)
	key := dirRelPath

	m.mu.Lock()
	if v, ok := m.cache[key]; ok {
		m.mu.Unlock()
		return v
	}
	m.mu.Unlock()

	result := m.couldMatchDescendantUncached(dirRelPath)

	m.mu.Lock()
	if len(m.cache) >= descendantCacheCap {
		m.cache = make(map[string]bool)
	}
	m.cache[key] = result
	m.mu.Unlock()

	return result
}

func (m *Matcher) couldMatchDescendantUncached(dirRelPath string) bool {
	var dirSegs []string
	if dirRelPath != "." && dirRelPath != "" {
		dirSegs = strings.Split(dirRelPath, "/")
	}

	for _, cp := range m.include {
		if !cp.anchored {
			// Basename-only patterns can match at any depth.
			return true
		}
		if prefixCompatible(cp.literalPrefix, dirSegs) {
			return true
		}
	}
	return false
}

// prefixCompatible reports whether either of literalPrefix/dirSegs is a
// prefix of the other (segment-wise, case-sensitive). This is the
// "**-aware prefix match": a pattern like "src/**/*.py" has literal prefix
// ["src"], which is compatible with dirSegs ["src"], ["src","nested"], and
// also with the empty root path "" (since dirSegs being empty is always a
// prefix of anything).
func prefixCompatible(literalPrefix, dirSegs []string) bool {
	n := len(literalPrefix)
	if len(dirSegs) < n {
		n = len(dirSegs)
	}
	for i := 0; i < n; i++ {
		if literalPrefix[i] != dirSegs[i] {
			return false
		}
	}
	return true
}

// SortedKey renders a Set into the deterministic "include:...exclude:..."
// form used as an input to the cache's pattern-hash.
func (s Set) SortedKey() string {
	inc := make([]string, len(s.Include))
	copy(inc, s.Include)
	sort.Strings(inc)

	exc := make([]string, len(s.Exclude))
	copy(exc, s.Exclude)
	sort.Strings(exc)

	return "include:" + strings.Join(inc, ",") + "exclude:" + strings.Join(exc, ",")
}
