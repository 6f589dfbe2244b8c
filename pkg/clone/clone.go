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

// Package clone drives a bandwidth-minimal Git acquisition: a
// single-branch, depth-1, optionally sparse-and-filtered clone followed
// by a fetch-and-checkout of one resolved commit.
package clone

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kraklabs/gitingest/pkg/credential"
	"github.com/kraklabs/gitingest/pkg/ingesterr"
)

// Request describes a single clone operation.
type Request struct {
	URL     string
	Commit  string // 40-hex SHA, required
	Subpath string // "/" means clone the whole tree
	// BlobKind is true when the caller resolved a "blob" URL — the
	// filename component of Subpath is dropped before sparse-checkout,
	// since sparse-checkout operates on directories.
	BlobKind          bool
	IncludeSubmodules bool
	Credential        credential.Credential
}

// Driver runs Request operations using the system git binary.
type Driver struct {
	logger *slog.Logger
}

// New builds a Driver. A nil logger defaults to slog.Default().
func New(logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{logger: logger}
}

// Clone populates localPath with a checked-out working tree at
// req.Commit. All steps run under ctx; cancelling ctx terminates the
// in-flight subprocess and its process group.
func (d *Driver) Clone(ctx context.Context, req Request, localPath string) error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("%w: git binary not found on PATH", ingesterr.ErrCloneError)
	}
	if runtime.GOOS == "windows" {
		d.warnIfLongPathsDisabled(ctx)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("%w: creating parent directories: %v", ingesterr.ErrCloneError, err)
	}

	sparse := req.Subpath != "" && req.Subpath != "/"

	cloneArgs := []string{"clone", "--single-branch", "--no-checkout", "--depth=1"}
	if sparse {
		cloneArgs = append(cloneArgs, "--filter=blob:none", "--sparse")
	}
	cloneArgs = append(cloneArgs, req.URL, localPath)
	if err := d.run(ctx, req, ".", cloneArgs...); err != nil {
		return err
	}

	if sparse {
		path := sparseCheckoutPath(req.Subpath, req.BlobKind)
		if err := d.run(ctx, req, localPath, "sparse-checkout", "set", path); err != nil {
			return err
		}
	}

	if err := d.run(ctx, req, localPath, "fetch", "--depth=1", "origin", req.Commit); err != nil {
		return err
	}
	if err := d.run(ctx, req, localPath, "checkout", req.Commit); err != nil {
		return err
	}

	if req.IncludeSubmodules {
		if err := d.run(ctx, req, localPath, "submodule", "update", "--init", "--recursive", "--depth=1"); err != nil {
			return err
		}
	}

	return nil
}

// sparseCheckoutPath drops the filename component for a "blob" target,
// since sparse-checkout operates on directory prefixes.
func sparseCheckoutPath(subpath string, blobKind bool) string {
	p := strings.TrimPrefix(subpath, "/")
	if blobKind {
		p = filepath.ToSlash(filepath.Dir(p))
		if p == "." {
			p = "/"
		}
	}
	return p
}

// run executes "git <args...>" with dir as the working directory (or, if
// dir is "." and args starts with "clone", git's positional target is
// used instead of -C). The credential's extraheader config is injected
// only when it matches req.URL's host family.
func (d *Driver) run(ctx context.Context, req Request, dir string, args ...string) error {
	gitArgs := make([]string, 0, len(args)+4)
	if host := hostOf(req.URL); host != "" && req.Credential.MatchesHost(host) {
		gitArgs = append(gitArgs, "-c", fmt.Sprintf("http.%s/.extraheader=%s", req.URL, req.Credential.ExtraHeaderValue()))
	}
	if dir != "." {
		gitArgs = append(gitArgs, "-C", dir)
	}
	gitArgs = append(gitArgs, args...)

	cmd := exec.CommandContext(ctx, "git", gitArgs...)
	setProcessGroup(cmd)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	done := make(chan error, 1)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: starting git %s: %v", ingesterr.ErrCloneError, strings.Join(args, " "), err)
	}
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		killGroup(cmd)
		<-done
		return fmt.Errorf("%w: %v", ingesterr.ErrTimedOut, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: git %s: %s", ingesterr.ErrCloneError, strings.Join(args, " "), strings.TrimSpace(stderr.String()))
		}
	}
	return nil
}

func (d *Driver) warnIfLongPathsDisabled(ctx context.Context) {
	out, err := exec.CommandContext(ctx, "git", "config", "--get", "core.longpaths").Output()
	if err != nil || strings.TrimSpace(string(out)) != "true" {
		d.logger.Warn("git core.longpaths is not enabled; long checkout paths may fail on Windows")
	}
}

func hostOf(repoURL string) string {
	// Same host-extraction shared with pkg/gitremote; duplicated rather
	// than imported to keep clone's subprocess plumbing free of a
	// dependency on the net/url-parsing detail gitremote owns.
	i := strings.Index(repoURL, "://")
	if i < 0 {
		return ""
	}
	rest := repoURL[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	return strings.ToLower(rest)
}
