// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package clone

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/gitingest/pkg/credential"
	"github.com/kraklabs/gitingest/pkg/ingesterr"
)

// installFakeGit writes a shell script named "git" on PATH that records
// every invocation's argv to a log file, one line per call, and always
// exits with status 0.
// This exercises exec.Command-based
// subprocess drivers against a scripted stand-in rather than real git.
func installFakeGit(t *testing.T, logFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake-git harness is POSIX shell only")
	}

	dir := t.TempDir()
	script := "#!/bin/sh\necho \"$@\" >> " + logFile + "\nexit 0\n"
	path := filepath.Join(dir, "git")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))

	oldPath := os.Getenv("PATH")
	t.Setenv("PATH", dir+string(os.PathListSeparator)+oldPath)
}

func TestClone_RunsExpectedSequenceForRootSubpath(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "calls.log")
	installFakeGit(t, logFile)

	d := New(nil)
	req := Request{
		URL:    "https://github.com/o/r",
		Commit: "1111111111111111111111111111111111111a",
		Subpath: "/",
	}

	err := d.Clone(context.Background(), req, filepath.Join(t.TempDir(), "checkout"))
	require.NoError(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	log := string(data)

	assert.Contains(t, log, "clone --single-branch --no-checkout --depth=1")
	assert.NotContains(t, log, "sparse-checkout")
	assert.Contains(t, log, "fetch --depth=1 origin "+req.Commit)
	assert.Contains(t, log, "checkout "+req.Commit)
}

func TestClone_SparseWhenSubpathSet(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "calls.log")
	installFakeGit(t, logFile)

	d := New(nil)
	req := Request{
		URL:     "https://github.com/o/r",
		Commit:  "1111111111111111111111111111111111111a",
		Subpath: "/sub/dir",
	}

	err := d.Clone(context.Background(), req, filepath.Join(t.TempDir(), "checkout"))
	require.NoError(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	log := string(data)

	assert.Contains(t, log, "--filter=blob:none --sparse")
	assert.Contains(t, log, "sparse-checkout set sub/dir")
}

func TestClone_BlobKindDropsFilenameFromSparsePath(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "calls.log")
	installFakeGit(t, logFile)

	d := New(nil)
	req := Request{
		URL:      "https://github.com/o/r",
		Commit:   "1111111111111111111111111111111111111a",
		Subpath:  "/sub/dir/README.md",
		BlobKind: true,
	}

	err := d.Clone(context.Background(), req, filepath.Join(t.TempDir(), "checkout"))
	require.NoError(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sparse-checkout set sub/dir")
}

func TestClone_SubmodulesOptIn(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "calls.log")
	installFakeGit(t, logFile)

	d := New(nil)
	req := Request{
		URL:               "https://github.com/o/r",
		Commit:            "1111111111111111111111111111111111111a",
		Subpath:           "/",
		IncludeSubmodules: true,
	}

	err := d.Clone(context.Background(), req, filepath.Join(t.TempDir(), "checkout"))
	require.NoError(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "submodule update --init --recursive --depth=1")
}

func TestClone_MissingGitBinaryFailsWithCloneError(t *testing.T) {
	t.Setenv("PATH", "")

	d := New(nil)
	err := d.Clone(context.Background(), Request{URL: "https://github.com/o/r", Commit: "1111111111111111111111111111111111111a", Subpath: "/"}, filepath.Join(t.TempDir(), "checkout"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ingesterr.ErrCloneError)
}

func TestClone_NonZeroExitFailsWithStderrCapturedAsCloneError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake-git harness is POSIX shell only")
	}
	dir := t.TempDir()
	script := "#!/bin/sh\necho 'fatal: repository not found' >&2\nexit 128\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "git"), []byte(script), 0o755))
	t.Setenv("PATH", dir)

	d := New(nil)
	err := d.Clone(context.Background(), Request{URL: "https://github.com/o/missing", Commit: "1111111111111111111111111111111111111a", Subpath: "/"}, filepath.Join(t.TempDir(), "checkout"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ingesterr.ErrCloneError)
	assert.Contains(t, err.Error(), "repository not found")
}

func TestClone_ContextCancellationTerminatesSubprocess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake-git harness is POSIX shell only")
	}
	dir := t.TempDir()
	script := "#!/bin/sh\nsleep 5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "git"), []byte(script), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	d := New(nil)
	start := time.Now()
	err := d.Clone(ctx, Request{URL: "https://github.com/o/r", Commit: "1111111111111111111111111111111111111a", Subpath: "/"}, filepath.Join(t.TempDir(), "checkout"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ingesterr.ErrTimedOut)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestClone_CredentialAttachedOnlyForMatchingHost(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "calls.log")
	installFakeGit(t, logFile)

	tok := "ghp_" + repeat("a", 36)
	cred, err := credential.Validate(tok)
	require.NoError(t, err)

	d := New(nil)
	req := Request{URL: "https://github.com/o/r", Commit: "1111111111111111111111111111111111111a", Subpath: "/", Credential: cred}
	require.NoError(t, d.Clone(context.Background(), req, filepath.Join(t.TempDir(), "checkout")))

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "extraheader")
}

func repeat(s string, n int) string {
	out := make([]byte, 0, n*len(s))
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
