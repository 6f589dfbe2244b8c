// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package notebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/gitingest/pkg/ingesterr"
)

const sampleNotebook = `{
  "cells": [
    {"cell_type": "code", "source": "print('x')", "outputs": []},
    {"cell_type": "markdown", "source": "# Title"}
  ]
}`

func TestConvert_MatchesSpecExampleExactly(t *testing.T) {
	got, err := Convert([]byte(sampleNotebook), Options{})
	require.NoError(t, err)
	want := "# Jupyter notebook converted to Python script.\n\nprint('x')\n\n\"\"\"\n# Title\n\"\"\"\n"
	assert.Equal(t, want, got)
}

func TestConvert_SkipsEmptySourceCells(t *testing.T) {
	nb := `{"cells": [{"cell_type": "code", "source": ""}, {"cell_type": "code", "source": "x = 1"}]}`
	got, err := Convert([]byte(nb), Options{})
	require.NoError(t, err)
	assert.Equal(t, "# Jupyter notebook converted to Python script.\n\nx = 1\n", got)
}

func TestConvert_UnknownCellTypeFails(t *testing.T) {
	nb := `{"cells": [{"cell_type": "mystery", "source": "x"}]}`
	_, err := Convert([]byte(nb), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ingesterr.ErrInvalidNotebook)
}

func TestConvert_MalformedJSONFails(t *testing.T) {
	_, err := Convert([]byte("not json"), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ingesterr.ErrInvalidNotebook)
}

func TestConvert_LegacyWorksheetsFlattened(t *testing.T) {
	nb := `{"worksheets": [{"cells": [{"cell_type": "code", "source": "a = 1"}]}, {"cells": [{"cell_type": "code", "source": "b = 2"}]}]}`
	got, err := Convert([]byte(nb), Options{})
	require.NoError(t, err)
	assert.Contains(t, got, "a = 1")
	assert.Contains(t, got, "b = 2")
}

func TestConvert_SourceAsArrayOfLinesJoinedWithoutAddedNewlines(t *testing.T) {
	nb := `{"cells": [{"cell_type": "code", "source": ["x = 1\n", "y = 2"]}]}`
	got, err := Convert([]byte(nb), Options{})
	require.NoError(t, err)
	assert.Contains(t, got, "x = 1\ny = 2")
}

func TestConvert_IncludeOutputAppendsStreamText(t *testing.T) {
	nb := `{"cells": [{"cell_type": "code", "source": "print(1)", "outputs": [{"output_type": "stream", "text": "1\n"}]}]}`
	got, err := Convert([]byte(nb), Options{IncludeOutput: true})
	require.NoError(t, err)
	assert.Contains(t, got, "# Output:\n#   1\n")
}

func TestConvert_IncludeOutputRendersErrorOutput(t *testing.T) {
	nb := `{"cells": [{"cell_type": "code", "source": "1/0", "outputs": [{"output_type": "error", "ename": "ZeroDivisionError", "evalue": "division by zero"}]}]}`
	got, err := Convert([]byte(nb), Options{IncludeOutput: true})
	require.NoError(t, err)
	assert.Contains(t, got, "Error: ZeroDivisionError: division by zero")
}

func TestConvert_UnknownOutputTypeFails(t *testing.T) {
	nb := `{"cells": [{"cell_type": "code", "source": "x", "outputs": [{"output_type": "mystery"}]}]}`
	_, err := Convert([]byte(nb), Options{IncludeOutput: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ingesterr.ErrInvalidNotebook)
}

func TestConvert_WithoutIncludeOutputIgnoresOutputs(t *testing.T) {
	nb := `{"cells": [{"cell_type": "code", "source": "print(1)", "outputs": [{"output_type": "stream", "text": "1\n"}]}]}`
	got, err := Convert([]byte(nb), Options{IncludeOutput: false})
	require.NoError(t, err)
	assert.NotContains(t, got, "# Output:")
}
