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

// Package render emits the final digest triple — summary, ASCII tree,
// and concatenated file content — from a walked tree and its classified
// file bodies, with byte-stable separators so two runs against the same
// commit and patterns produce identical output.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kraklabs/gitingest/pkg/walker"
)

// ClipTreeWidth truncates every line of a rendered tree to width columns,
// marking truncated lines with a trailing ellipsis. Used only for the
// CLI's terminal preview; the tree returned to callers for storage or
// --output is never clipped. width <= 0 disables clipping.
func ClipTreeWidth(tree string, width int) string {
	if width <= 0 {
		return tree
	}
	lines := strings.Split(tree, "\n")
	for i, line := range lines {
		runes := []rune(line)
		if len(runes) > width {
			if width <= 1 {
				lines[i] = string(runes[:width])
				continue
			}
			lines[i] = string(runes[:width-1]) + "…"
		}
	}
	return strings.Join(lines, "\n")
}

// separator is the 48-character "=" run delimiting content records —
// chosen so a common BPE tokenizer emits exactly two tokens for it.
const separator = "================================================"

// SummaryInput carries the query fields the summary's key/value lines
// are drawn from. Fields left empty are simply omitted from the output.
type SummaryInput struct {
	Owner, Repo   string
	Branch, Tag   string
	Commit        string // 40-hex SHA; shortened to 7 chars in the summary
	IsBlob        bool
	Filename      string
	Lines         int
	Subpath       string // non-root, tree kind only
	FilesAnalyzed int
	HasFilesAnalyzed bool
}

// FileRecord is one leaf (File, Symlink, or notebook-classified file)
// included in the content text, in the pre-order walk of the sorted
// tree.
type FileRecord struct {
	Kind          walker.NodeKind
	RelativePath  string
	SymlinkTarget string
	Body          string
}

// Render produces the digest triple.
func Render(root *walker.FSNode, records []FileRecord, input SummaryInput) (summary, treeText, contentText string) {
	content := RenderContent(records)
	tree := RenderTree(root)
	tokens := EstimateTokens(tree + "\n" + content)
	return RenderSummary(input, tokens), tree, content
}

// RenderSummary renders the colon-delimited key/value header, omitting
// any line whose value is absent, and preserving the trailing blank
// line.
func RenderSummary(input SummaryInput, tokenEstimate string) string {
	var lines []string

	if input.Owner != "" && input.Repo != "" {
		lines = append(lines, fmt.Sprintf("Repository: %s/%s", input.Owner, input.Repo))
	}
	if input.Branch != "" && input.Branch != "main" {
		lines = append(lines, "Branch: "+input.Branch)
	}
	if input.Tag != "" {
		lines = append(lines, "Tag: "+input.Tag)
	}
	if input.Commit != "" {
		lines = append(lines, "Commit: "+shortenSHA(input.Commit))
	}
	if !input.IsBlob && input.Subpath != "" && input.Subpath != "/" {
		lines = append(lines, "Subpath: "+input.Subpath)
	}
	if input.IsBlob {
		if input.Filename != "" {
			lines = append(lines, "File: "+input.Filename)
		}
		lines = append(lines, "Lines: "+strconv.Itoa(input.Lines))
	}
	if !input.IsBlob && input.HasFilesAnalyzed {
		lines = append(lines, "Files analyzed: "+strconv.Itoa(input.FilesAnalyzed))
	}
	lines = append(lines, "Estimated tokens: "+tokenEstimate)

	return strings.Join(lines, "\n") + "\n\n"
}

func shortenSHA(sha string) string {
	if len(sha) <= 7 {
		return sha
	}
	return sha[:7]
}

// EstimateTokens renders the fixed length/4 heuristic with SI k/M
// suffixes, always containing at least one digit.
func EstimateTokens(s string) string {
	tokens := float64(len(s)) / 4

	switch {
	case tokens >= 1_000_000:
		return trimTrailingZero(tokens/1_000_000) + "M"
	case tokens >= 1_000:
		return trimTrailingZero(tokens/1_000) + "k"
	default:
		return strconv.Itoa(int(tokens))
	}
}

func trimTrailingZero(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	return strings.TrimSuffix(strings.TrimSuffix(s, "0"), ".")
}

// RenderTree builds the ASCII directory tree rooted at root, with a
// trailing "/" on the root and every directory name.
func RenderTree(root *walker.FSNode) string {
	if root == nil {
		return ""
	}
	var b strings.Builder
	name := root.Name
	if root.Kind == walker.Directory {
		name += "/"
	}
	b.WriteString(name)
	b.WriteString("\n")
	renderChildren(&b, root.Children, "")
	return b.String()
}

func renderChildren(b *strings.Builder, children []*walker.FSNode, prefix string) {
	for i, child := range children {
		last := i == len(children)-1

		connector := "├── "
		nextPrefix := prefix + "│   "
		if last {
			connector = "└── "
			nextPrefix = prefix + "    "
		}

		name := child.Name
		if child.Kind == walker.Directory {
			name += "/"
		}

		b.WriteString(prefix)
		b.WriteString(connector)
		b.WriteString(name)
		b.WriteString("\n")

		if child.Kind == walker.Directory {
			renderChildren(b, child.Children, nextPrefix)
		}
	}
}

// RenderContent concatenates per-file records using the fixed separator
// and body-placeholder rules.
func RenderContent(records []FileRecord) string {
	var b strings.Builder
	for _, rec := range records {
		b.WriteString(separator)
		b.WriteString("\n")
		b.WriteString(kindLabel(rec.Kind))
		b.WriteString(": ")
		b.WriteString(rec.RelativePath)
		if rec.Kind == walker.Symlink && rec.SymlinkTarget != "" {
			b.WriteString(" -> ")
			b.WriteString(rec.SymlinkTarget)
		}
		b.WriteString("\n")
		b.WriteString(separator)
		b.WriteString("\n")
		b.WriteString(rec.Body)
		b.WriteString("\n\n")
	}
	return b.String()
}

func kindLabel(k walker.NodeKind) string {
	switch k {
	case walker.Symlink:
		return "SYMLINK"
	default:
		return "FILE"
	}
}
