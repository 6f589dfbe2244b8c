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

// Package ingest wires the rest of the pipeline's components (C1-C8,
// C10, C11) into the single orchestration entry point, Ingest, that the
// CLI and HTTP server both call.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kraklabs/gitingest/pkg/cache"
	"github.com/kraklabs/gitingest/pkg/classify"
	"github.com/kraklabs/gitingest/pkg/clone"
	"github.com/kraklabs/gitingest/pkg/credential"
	"github.com/kraklabs/gitingest/pkg/deadline"
	"github.com/kraklabs/gitingest/pkg/ingesterr"
	"github.com/kraklabs/gitingest/pkg/notebook"
	"github.com/kraklabs/gitingest/pkg/pattern"
	"github.com/kraklabs/gitingest/pkg/render"
	"github.com/kraklabs/gitingest/pkg/urlparse"
	"github.com/kraklabs/gitingest/pkg/walker"
)

// Options is the caller-facing knob set, folding the public API
// option table into a single struct shared by the CLI and HTTP server.
type Options struct {
	MaxFileSize       int64
	IncludePatterns   []string
	ExcludePatterns   []string
	Branch            string
	Tag               string
	IncludeGitignored bool
	IncludeSubmodules bool
	Token             string
	// Output selects where the rendered tree+content blob is written:
	// "" for none, "-" for stdout, or a filesystem path.
	Output string
}

// Result is the digest triple returned by Ingest.
type Result struct {
	Summary string
	Tree    string
	Content string
}

// Orchestrator wires together the resolver, clone driver, walker, and
// optional cache into the 11-step Ingest procedure.
type Orchestrator struct {
	parser       *urlparse.Parser
	cloner       *clone.Driver
	cache        *cache.Cache
	scratchRoot  string
	cloneTimeout time.Duration
	logger       *slog.Logger
}

// New builds an Orchestrator. cacheImpl may be nil to disable caching.
// A nil logger defaults to slog.Default().
func New(parser *urlparse.Parser, cloner *clone.Driver, cacheImpl *cache.Cache, scratchRoot string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		parser:       parser,
		cloner:       cloner,
		cache:        cacheImpl,
		scratchRoot:  scratchRoot,
		cloneTimeout: deadline.DefaultCloneTimeout,
		logger:       logger,
	}
}

// Ingest runs the full pipeline against source and returns the digest
// triple, optionally writing it to opts.Output.
func (o *Orchestrator) Ingest(ctx context.Context, source string, opts Options) (Result, error) {
	cred, err := resolveCredential(opts.Token)
	if err != nil {
		return Result{}, err
	}

	source = strings.TrimSuffix(strings.TrimSpace(source), ".git")

	if info, statErr := os.Stat(source); statErr == nil {
		return o.ingestLocal(source, info, opts)
	}
	if !urlparse.LooksRemote(source) {
		return Result{}, fmt.Errorf("%w: %q is neither an existing local path nor a recognizable remote reference", ingesterr.ErrInvalidInput, source)
	}
	return o.ingestRemote(ctx, source, cred, opts)
}

// resolveCredential validates opts.Token, falling back to GITHUB_TOKEN.
// An empty result (zero Credential) is valid: anonymous access.
func resolveCredential(token string) (credential.Credential, error) {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return credential.Credential{}, nil
	}
	return credential.Validate(token)
}

func (o *Orchestrator) ingestRemote(ctx context.Context, source string, cred credential.Credential, opts Options) (Result, error) {
	parsed, err := o.parser.Parse(ctx, source, cred)
	if err != nil {
		return Result{}, err
	}

	if err := applyRefOverrides(&parsed, opts); err != nil {
		return Result{}, err
	}

	patterns := pattern.Merge(opts.IncludePatterns, opts.ExcludePatterns)

	cacheKey := ""
	if o.cache != nil {
		cacheKey = o.cache.Key(cache.KeyInput{
			Host: parsed.Host, Owner: parsed.Owner, Repo: parsed.Repo,
			Commit: parsed.Commit, Subpath: parsed.Subpath, Patterns: patterns,
		})
		if hit, headErr := o.cache.Head(ctx, cacheKey); headErr == nil && hit {
			digest, getErr := o.cache.Get(ctx, cacheKey)
			if getErr == nil {
				result := Result{Summary: digest.Summary, Tree: digest.Tree, Content: digest.Content}
				if writeErr := writeOutput(opts.Output, result); writeErr != nil {
					return Result{}, writeErr
				}
				return result, nil
			}
		}
	}

	ingestionID := uuid.NewString()
	scratchParent := filepath.Join(o.scratchRoot, ingestionID)
	scratchDir := filepath.Join(scratchParent, parsed.Slug)

	defer removeScratch(scratchParent, o.logger)

	req := clone.Request{
		URL:               parsed.URL,
		Commit:            parsed.Commit,
		Subpath:           parsed.Subpath,
		BlobKind:          parsed.Kind == urlparse.KindBlob,
		IncludeSubmodules: opts.IncludeSubmodules,
		Credential:        cred,
	}
	if err := deadline.Wrap(ctx, o.cloneTimeout, func(scoped context.Context) error {
		return o.cloner.Clone(scoped, req, scratchDir)
	}); err != nil {
		return Result{}, err
	}

	if !opts.IncludeGitignored {
		patterns, err = unionIgnoreFiles(scratchDir, patterns)
		if err != nil {
			return Result{}, err
		}
	}

	result, err := o.walkAndRender(scratchDir, parsed.Subpath, parsed.Kind == urlparse.KindBlob, patterns, opts, summaryInputFor(parsed))
	if err != nil {
		return Result{}, err
	}

	if o.cache != nil && cacheKey != "" {
		if putErr := o.cache.Put(ctx, cacheKey, cache.Digest{Summary: result.Summary, Tree: result.Tree, Content: result.Content}, ingestionID); putErr != nil {
			o.logger.Warn("ingest: failed to persist cache entry", "error", putErr)
		}
	}

	if err := writeOutput(opts.Output, result); err != nil {
		return Result{}, err
	}
	return result, nil
}

func (o *Orchestrator) ingestLocal(root string, info os.FileInfo, opts Options) (Result, error) {
	patterns := pattern.Merge(opts.IncludePatterns, opts.ExcludePatterns)

	if !opts.IncludeGitignored && info.IsDir() {
		var err error
		patterns, err = unionIgnoreFiles(root, patterns)
		if err != nil {
			return Result{}, err
		}
	}

	owner, repo := localSlug(root)
	summaryInput := render.SummaryInput{Owner: owner, Repo: repo}

	result, err := o.walkAndRender(root, "/", !info.IsDir(), patterns, opts, summaryInput)
	if err != nil {
		return Result{}, err
	}
	if err := writeOutput(opts.Output, result); err != nil {
		return Result{}, err
	}
	return result, nil
}

func localSlug(root string) (owner, repo string) {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	repo = filepath.Base(abs)
	owner = filepath.Base(filepath.Dir(abs))
	return owner, repo
}

// applyRefOverrides applies opts.Branch/opts.Tag on top of the parsed
// ref: a tag always wins over a branch when both
// are supplied.
func applyRefOverrides(parsed *urlparse.Result, opts Options) error {
	if opts.Branch == "" && opts.Tag == "" {
		return nil
	}
	if opts.Branch != "" && opts.Tag != "" {
		parsed.Ref = opts.Tag
		parsed.RefKind = urlparse.RefKindTag
		return nil
	}
	if opts.Tag != "" {
		parsed.Ref = opts.Tag
		parsed.RefKind = urlparse.RefKindTag
		return nil
	}
	parsed.Ref = opts.Branch
	parsed.RefKind = urlparse.RefKindBranch
	return nil
}

func unionIgnoreFiles(root string, patterns pattern.Set) (pattern.Set, error) {
	var extra []string
	for _, name := range []string{".gitignore", ".gitingestignore"} {
		found, err := pattern.LoadIgnoreFile(root, name)
		if err != nil {
			return patterns, fmt.Errorf("ingest: loading %s: %w", name, err)
		}
		extra = append(extra, found...)
	}
	if len(extra) == 0 {
		return patterns, nil
	}
	patterns.Exclude = append(patterns.Exclude, extra...)
	return patterns, nil
}

func summaryInputFor(parsed urlparse.Result) render.SummaryInput {
	input := render.SummaryInput{
		Owner:   parsed.Owner,
		Repo:    parsed.Repo,
		Commit:  parsed.Commit,
		Subpath: parsed.Subpath,
	}
	switch parsed.RefKind {
	case urlparse.RefKindBranch:
		input.Branch = parsed.Ref
	case urlparse.RefKindTag:
		input.Tag = parsed.Ref
	}
	return input
}

// walkAndRender runs C6 (walk) then classifies each leaf's content and
// runs C8 (render), building the SummaryInput's blob-kind fields as
// needed.
func (o *Orchestrator) walkAndRender(root, subpath string, singleFile bool, patterns pattern.Set, opts Options, summaryInput render.SummaryInput) (Result, error) {
	matcher, err := pattern.Compile(patterns)
	if err != nil {
		return Result{}, err
	}

	limits := walker.NewLimits(walker.Limits{MaxFileSize: opts.MaxFileSize})
	w := walker.New(o.logger, limits, matcher)

	walkRoot := root
	if subpath != "" && subpath != "/" {
		walkRoot = filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(subpath, "/")))
	}

	tree, err := w.Walk(walkRoot, singleFile)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: walking tree: %w", err)
	}

	records, lines, err := o.classifyTree(walkRoot, tree)
	if err != nil {
		return Result{}, err
	}

	summaryInput.IsBlob = singleFile
	if singleFile {
		summaryInput.Filename = tree.Name
		summaryInput.Lines = lines
	} else {
		summaryInput.HasFilesAnalyzed = true
		summaryInput.FilesAnalyzed = w.Stats().TotalFiles
	}

	summary, treeText, content := render.Render(tree, records, summaryInput)
	return Result{Summary: summary, Tree: treeText, Content: content}, nil
}

// classifyTree flattens the walked tree into render.FileRecords in
// pre-order (matching the sorted child order render.RenderTree uses),
// classifying each leaf's content via C7. The second return value is the
// root's own line count, meaningful only when root is itself a file (the
// "blob" kind), used for the summary's "Lines:" field.
func (o *Orchestrator) classifyTree(walkRoot string, node *walker.FSNode) ([]render.FileRecord, int, error) {
	var records []render.FileRecord
	var rootLines int

	var visit func(n *walker.FSNode, fullPath string)
	visit = func(n *walker.FSNode, fullPath string) {
		switch n.Kind {
		case walker.Directory:
			for _, c := range n.Children {
				visit(c, filepath.Join(fullPath, c.Name))
			}
		case walker.Symlink:
			records = append(records, render.FileRecord{Kind: n.Kind, RelativePath: n.RelativePath, SymlinkTarget: n.SymlinkTarget})
		case walker.File:
			content := classify.Classify(fullPath, notebook.Options{})
			body := bodyForContent(content)
			records = append(records, render.FileRecord{Kind: n.Kind, RelativePath: n.RelativePath, Body: body})
		}
	}

	switch node.Kind {
	case walker.Directory:
		visit(node, walkRoot)
	case walker.Symlink:
		records = append(records, render.FileRecord{Kind: node.Kind, RelativePath: node.RelativePath, SymlinkTarget: node.SymlinkTarget})
	default:
		content := classify.Classify(walkRoot, notebook.Options{})
		body := bodyForContent(content)
		records = append(records, render.FileRecord{Kind: node.Kind, RelativePath: node.RelativePath, Body: body})
		rootLines = strings.Count(body, "\n")
	}

	return records, rootLines, nil
}

// bodyForContent renders a classified file's body slot, including the
// placeholder strings reserved for non-text outcomes.
func bodyForContent(c classify.Content) string {
	switch c.Kind {
	case classify.KindText, classify.KindNotebook:
		return c.Body
	case classify.KindEmpty:
		return "[Empty file]"
	case classify.KindBinary:
		return "[Binary file]"
	default:
		return fmt.Sprintf("Error reading file: %v", c.Err)
	}
}

// writeOutput writes tree+"\n"+content to a
// path, "-" for stdout, or do nothing.
func writeOutput(output string, result Result) error {
	if output == "" {
		return nil
	}
	blob := result.Tree + "\n" + result.Content
	if output == "-" {
		_, err := io.WriteString(os.Stdout, blob)
		return err
	}
	return os.WriteFile(output, []byte(blob), 0o644)
}

// removeScratch implements the cancellation-cleanup guarantee:
// unconditionally remove the scratch directory, clearing the read-only
// bit on any entries git leaves behind (notably inside .git/objects) so
// RemoveAll doesn't fail partway through.
func removeScratch(dir string, logger *slog.Logger) {
	clearReadOnly(dir)
	if err := os.RemoveAll(dir); err != nil {
		logger.Warn("ingest: failed to remove scratch directory", "path", dir, "error", err)
	}
}

func clearReadOnly(root string) {
	_ = filepathWalk(root, func(path string, info os.FileInfo) {
		mode := info.Mode()
		if mode&0o200 == 0 {
			_ = os.Chmod(path, mode|0o200)
		}
	})
}

// filepathWalk is a tolerant directory walk used only by clearReadOnly:
// errors (including a root that doesn't exist) are swallowed, since
// scratch-directory cleanup must never itself fail the caller's request.
func filepathWalk(root string, fn func(path string, info os.FileInfo)) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		if info, statErr := os.Stat(root); statErr == nil {
			fn(root, info)
		}
		return nil
	}
	if info, statErr := os.Stat(root); statErr == nil {
		fn(root, info)
	}
	for _, e := range entries {
		full := filepath.Join(root, e.Name())
		if e.IsDir() {
			_ = filepathWalk(full, fn)
			continue
		}
		if info, infoErr := e.Info(); infoErr == nil {
			fn(full, info)
		}
	}
	return nil
}
