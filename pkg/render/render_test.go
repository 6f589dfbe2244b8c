// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kraklabs/gitingest/pkg/walker"
)

func TestRenderTree_NestedDirectories(t *testing.T) {
	root := &walker.FSNode{Kind: walker.Directory, Name: "repo"}
	src := &walker.FSNode{Kind: walker.Directory, Name: "src"}
	src.Children = []*walker.FSNode{
		{Kind: walker.File, Name: "a.go"},
		{Kind: walker.File, Name: "b.go"},
	}
	root.Children = []*walker.FSNode{
		src,
		{Kind: walker.File, Name: "README.md"},
	}

	got := RenderTree(root)
	want := "repo/\n" +
		"├── src/\n" +
		"│   ├── a.go\n" +
		"│   └── b.go\n" +
		"└── README.md\n"
	assert.Equal(t, want, got)
}

func TestRenderContent_UsesFixedSeparatorAndKindLabel(t *testing.T) {
	records := []FileRecord{
		{Kind: walker.File, RelativePath: "main.go", Body: "package main"},
		{Kind: walker.Symlink, RelativePath: "link", SymlinkTarget: "main.go", Body: ""},
	}
	got := RenderContent(records)

	assert.Equal(t, 48, len(separator))
	assert.Contains(t, got, separator+"\nFILE: main.go\n"+separator+"\npackage main\n\n")
	assert.Contains(t, got, separator+"\nSYMLINK: link -> main.go\n"+separator+"\n\n\n")
}

func TestRenderSummary_OmitsAbsentFields(t *testing.T) {
	summary := RenderSummary(SummaryInput{Owner: "o", Repo: "r", Commit: strings.Repeat("a", 40)}, "123")
	assert.Contains(t, summary, "Repository: o/r\n")
	assert.Contains(t, summary, "Commit: aaaaaaa\n")
	assert.NotContains(t, summary, "Branch:")
	assert.NotContains(t, summary, "Tag:")
	assert.True(t, strings.HasSuffix(summary, "\n\n"))
}

func TestRenderSummary_OmitsMainBranch(t *testing.T) {
	summary := RenderSummary(SummaryInput{Owner: "o", Repo: "r", Branch: "main"}, "1")
	assert.NotContains(t, summary, "Branch:")
}

func TestRenderSummary_NonMainBranchShown(t *testing.T) {
	summary := RenderSummary(SummaryInput{Owner: "o", Repo: "r", Branch: "dev"}, "1")
	assert.Contains(t, summary, "Branch: dev\n")
}

func TestRenderSummary_BlobKindShowsFileAndLines(t *testing.T) {
	summary := RenderSummary(SummaryInput{Owner: "o", Repo: "r", IsBlob: true, Filename: "main.go", Lines: 42}, "1")
	assert.Contains(t, summary, "File: main.go\n")
	assert.Contains(t, summary, "Lines: 42\n")
	assert.NotContains(t, summary, "Files analyzed:")
}

func TestEstimateTokens_FormatsWithSISuffixes(t *testing.T) {
	assert.Equal(t, "2", EstimateTokens(strings.Repeat("x", 8)))
	assert.Equal(t, "1k", EstimateTokens(strings.Repeat("x", 4000)))
	assert.Equal(t, "1M", EstimateTokens(strings.Repeat("x", 4_000_000)))
}

func TestEstimateTokens_AlwaysContainsADigit(t *testing.T) {
	assert.Regexp(t, `\d`, EstimateTokens(""))
}
