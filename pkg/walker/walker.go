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

// Package walker performs a bounded, filtered traversal of a checked-out
// working tree, building a typed, deterministically-sorted node tree
// that pkg/render consumes.
package walker

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kraklabs/gitingest/pkg/pattern"
)

// NodeKind tags an FSNode's variant.
type NodeKind int

const (
	Directory NodeKind = iota
	File
	Symlink
)

// FSNode is one entry in the walked tree.
type FSNode struct {
	Kind         NodeKind
	Name         string
	RelativePath string
	Size         int64
	FileCount    int // files+symlinks in this subtree, including self if applicable
	DirCount     int // directories below this node, not counting the node itself
	Depth        int
	SymlinkTarget string
	Children     []*FSNode
}

// Limits bounds a single walk. Zero values are replaced with the
// default caps by NewLimits.
type Limits struct {
	MaxDepth     int
	MaxFiles     int
	MaxTotalSize int64
	MaxFileSize  int64
}

// NewLimits returns the default caps, overridden field-by-field by
// any non-zero field in override.
func NewLimits(override Limits) Limits {
	l := Limits{
		MaxDepth:     20,
		MaxFiles:     10_000,
		MaxTotalSize: 500 * 1024 * 1024,
		MaxFileSize:  10 * 1024 * 1024,
	}
	if override.MaxDepth != 0 {
		l.MaxDepth = override.MaxDepth
	}
	if override.MaxFiles != 0 {
		l.MaxFiles = override.MaxFiles
	}
	if override.MaxTotalSize != 0 {
		l.MaxTotalSize = override.MaxTotalSize
	}
	if override.MaxFileSize != 0 {
		l.MaxFileSize = override.MaxFileSize
	}
	return l
}

// Stats accumulates monotonically-increasing traversal counters, checked
// against Limits before each file/directory is admitted.
type Stats struct {
	TotalFiles int
	TotalSize  int64
}

// Walker performs a single bounded traversal.
type Walker struct {
	logger  *slog.Logger
	limits  Limits
	matcher *pattern.Matcher
	stats   Stats
	capped  bool
}

// New builds a Walker. A nil logger defaults to slog.Default().
func New(logger *slog.Logger, limits Limits, matcher *pattern.Matcher) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{logger: logger, limits: limits, matcher: matcher}
}

// Stats reports the counters accumulated by the most recent Walk call.
func (w *Walker) Stats() Stats { return w.stats }

// Walk builds the tree rooted at root. If singleFile is true (the
// "blob" kind resolved to a single file), root itself is treated as the
// file and traversal is skipped.
func (w *Walker) Walk(root string, singleFile bool) (*FSNode, error) {
	info, err := os.Lstat(root)
	if err != nil {
		return nil, err
	}

	if singleFile || !info.IsDir() {
		return w.fileNode(root, filepath.Base(root), info, 0)
	}

	node, err := w.walkDir(root, ".", filepath.Base(root), 0)
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (w *Walker) fileNode(fullPath, relPath string, info os.FileInfo, depth int) (*FSNode, error) {
	if info.Mode()&os.ModeSymlink != 0 {
		target, _ := os.Readlink(fullPath)
		return &FSNode{Kind: Symlink, Name: filepath.Base(relPath), RelativePath: relPath, Depth: depth, SymlinkTarget: target, FileCount: 1}, nil
	}
	if info.Size() > w.limits.MaxFileSize {
		w.logger.Warn("skipping file over max size", "path", relPath, "size", info.Size())
		return nil, nil
	}
	w.stats.TotalFiles++
	w.stats.TotalSize += info.Size()
	return &FSNode{Kind: File, Name: filepath.Base(relPath), RelativePath: relPath, Size: info.Size(), Depth: depth, FileCount: 1}, nil
}

func (w *Walker) walkDir(fullPath, relPath, name string, depth int) (*FSNode, error) {
	if depth > w.limits.MaxDepth {
		w.logger.Warn("skipping directory past max depth", "path", relPath, "depth", depth)
		return nil, nil
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		w.logger.Warn("skipping unreadable directory", "path", relPath, "error", err)
		return nil, nil
	}

	dirNode := &FSNode{Kind: Directory, Name: name, RelativePath: relPath, Depth: depth}

	for _, entry := range entries {
		if w.capped {
			break
		}

		entryRel := joinRel(relPath, entry.Name())

		entryFull := filepath.Join(fullPath, entry.Name())
		info, err := entry.Info()
		if err != nil {
			w.logger.Warn("skipping entry with unreadable info", "path", entryRel, "error", err)
			continue
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			if w.matcher != nil && w.matcher.MatchFile(entryRel) == pattern.Exclude {
				continue
			}
			if !w.admitFile(info.Size()) {
				w.capped = true
				continue
			}
			child, err := w.fileNode(entryFull, entryRel, info, depth+1)
			if err != nil {
				return nil, err
			}
			if child != nil {
				dirNode.appendChild(child)
			}

		case info.IsDir():
			if w.matcher != nil && w.matcher.Excluded(entryRel) {
				continue
			}
			if w.matcher != nil && w.matcher.HasInclude() && !w.matcher.CouldMatchDescendant(entryRel) {
				continue
			}
			child, err := w.walkDir(entryFull, entryRel, entry.Name(), depth+1)
			if err != nil {
				return nil, err
			}
			if child != nil && len(child.Children) > 0 {
				dirNode.appendChild(child)
			}

		case info.Mode().IsRegular():
			if w.matcher != nil && w.matcher.MatchFile(entryRel) == pattern.Exclude {
				continue
			}
			if !w.admitFile(info.Size()) {
				w.capped = true
				continue
			}
			child, err := w.fileNode(entryFull, entryRel, info, depth+1)
			if err != nil {
				return nil, err
			}
			if child != nil {
				dirNode.appendChild(child)
			}

		default:
			w.logger.Warn("skipping entry of unknown type", "path", entryRel)
		}
	}

	sortChildren(dirNode.Children)
	for _, c := range dirNode.Children {
		dirNode.Size += c.Size
		dirNode.FileCount += c.FileCount
		dirNode.DirCount += c.DirCount
		if c.Kind == Directory {
			dirNode.DirCount++
		}
	}

	return dirNode, nil
}

// admitFile reports whether one more file of size bytes can be admitted
// without breaching MaxFiles or MaxTotalSize. Checked before a file or
// symlink is built, so a breach stops enumeration of the directory
// rather than admitting an over-budget tree.
func (w *Walker) admitFile(size int64) bool {
	if w.stats.TotalFiles+1 > w.limits.MaxFiles {
		w.logger.Warn("max file count reached, stopping enumeration", "limit", w.limits.MaxFiles)
		return false
	}
	if w.stats.TotalSize+size > w.limits.MaxTotalSize {
		w.logger.Warn("max total size reached, stopping enumeration", "limit", w.limits.MaxTotalSize)
		return false
	}
	return true
}

func (n *FSNode) appendChild(c *FSNode) {
	n.Children = append(n.Children, c)
}

func joinRel(relPath, name string) string {
	if relPath == "." || relPath == "" {
		return name
	}
	return relPath + "/" + name
}

// sortChildren orders a Directory's children: README files
// first, then regular files, then dot-files, then regular directories,
// then dot-directories — each group alphanumeric, case-insensitive.
func sortChildren(children []*FSNode) {
	group := func(n *FSNode) int {
		isDir := n.Kind == Directory
		isDot := strings.HasPrefix(n.Name, ".")
		isReadme := !isDir && strings.HasPrefix(strings.ToUpper(n.Name), "README")

		switch {
		case isReadme:
			return 0
		case !isDir && !isDot:
			return 1
		case !isDir && isDot:
			return 2
		case isDir && !isDot:
			return 3
		default:
			return 4
		}
	}

	sort.SliceStable(children, func(i, j int) bool {
		gi, gj := group(children[i]), group(children[j])
		if gi != gj {
			return gi < gj
		}
		return strings.ToLower(children[i].Name) < strings.ToLower(children[j].Name)
	})
}
