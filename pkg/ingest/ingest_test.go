// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/gitingest/pkg/clone"
	"github.com/kraklabs/gitingest/pkg/urlparse"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func newOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	return New(urlparse.New(nil), clone.New(nil), nil, t.TempDir(), nil)
}

func TestIngest_LocalDirectoryProducesDigest(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.go":   "package main\n",
		"README.md": "# hi\n",
	})

	o := newOrchestrator(t)
	result, err := o.Ingest(context.Background(), root, Options{})
	require.NoError(t, err)

	assert.Contains(t, result.Tree, filepath.Base(root)+"/")
	assert.Contains(t, result.Content, "package main")
	assert.Contains(t, result.Content, "# hi")
	assert.Contains(t, result.Summary, "Files analyzed:")
}

func TestIngest_LocalSingleFileProducesBlobSummary(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "solo.go")
	require.NoError(t, os.WriteFile(path, []byte("package solo\n\nfunc F() {}\n"), 0o644))

	o := newOrchestrator(t)
	result, err := o.Ingest(context.Background(), path, Options{})
	require.NoError(t, err)

	assert.Contains(t, result.Summary, "File: solo.go")
	assert.Contains(t, result.Summary, "Lines:")
	assert.Contains(t, result.Content, "package solo")
}

func TestIngest_ExcludePatternFiltersFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"keep.go":     "package keep\n",
		"secret.env":  "TOKEN=x\n",
	})

	o := newOrchestrator(t)
	result, err := o.Ingest(context.Background(), root, Options{ExcludePatterns: []string{"*.env"}})
	require.NoError(t, err)

	assert.Contains(t, result.Content, "keep.go")
	assert.NotContains(t, result.Content, "secret.env")
}

func TestIngest_GitignoreIsHonoredByDefault(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore": "ignored.txt\n",
		"ignored.txt": "nope\n",
		"kept.txt":    "yes\n",
	})

	o := newOrchestrator(t)
	result, err := o.Ingest(context.Background(), root, Options{})
	require.NoError(t, err)

	assert.NotContains(t, result.Content, "ignored.txt")
	assert.Contains(t, result.Content, "kept.txt")
}

func TestIngest_IncludeGitignoredBypassesGitignore(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":  "ignored.txt\n",
		"ignored.txt": "nope\n",
	})

	o := newOrchestrator(t)
	result, err := o.Ingest(context.Background(), root, Options{IncludeGitignored: true})
	require.NoError(t, err)

	assert.Contains(t, result.Content, "ignored.txt")
}

func TestIngest_EmptyOutputWritesNothing(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "hi\n"})

	o := newOrchestrator(t)
	_, err := o.Ingest(context.Background(), root, Options{Output: ""})
	require.NoError(t, err)
}

func TestIngest_OutputPathWritesTreeAndContent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "hi\n"})
	outPath := filepath.Join(t.TempDir(), "digest.txt")

	o := newOrchestrator(t)
	result, err := o.Ingest(context.Background(), root, Options{Output: outPath})
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, result.Tree+"\n"+result.Content, string(data))
}

func TestIngest_UnrecognizedSourceFails(t *testing.T) {
	o := newOrchestrator(t)
	_, err := o.Ingest(context.Background(), "not a real path or slug!!", Options{})
	assert.Error(t, err)
}

func TestApplyRefOverrides_TagWinsOverBranch(t *testing.T) {
	res := urlparse.Result{}
	err := applyRefOverrides(&res, Options{Branch: "dev", Tag: "v1.0.0"})
	require.NoError(t, err)
	assert.Equal(t, "v1.0.0", res.Ref)
	assert.Equal(t, urlparse.RefKindTag, res.RefKind)
}

func TestApplyRefOverrides_BranchOnlyApplied(t *testing.T) {
	res := urlparse.Result{}
	err := applyRefOverrides(&res, Options{Branch: "dev"})
	require.NoError(t, err)
	assert.Equal(t, "dev", res.Ref)
	assert.Equal(t, urlparse.RefKindBranch, res.RefKind)
}

func TestLocalSlug_DerivesOwnerAndRepoFromParentDirectories(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "acme", "widgets")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	owner, repo := localSlug(nested)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widgets", repo)
}
