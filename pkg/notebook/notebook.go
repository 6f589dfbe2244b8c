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

// Package notebook converts Jupyter .ipynb JSON into a single
// Python-script-equivalent text. Convert is a pure function: no I/O, no
// dependency on anything but its input bytes and options.
package notebook

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kraklabs/gitingest/pkg/ingesterr"
)

// Options controls optional output-cell rendering.
type Options struct {
	IncludeOutput bool
}

type rawNotebook struct {
	Cells      []rawCell              `json:"cells"`
	Worksheets []rawWorksheet         `json:"worksheets"`
	Metadata   map[string]interface{} `json:"metadata"`
}

type rawWorksheet struct {
	Cells []rawCell `json:"cells"`
}

type rawCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
	Outputs  []rawOutput     `json:"outputs"`
}

type rawOutput struct {
	OutputType string                 `json:"output_type"`
	Text       json.RawMessage        `json:"text"`
	Data       map[string]interface{} `json:"data"`
	EName      string                 `json:"ename"`
	EValue     string                 `json:"evalue"`
}

// Convert parses notebook JSON and renders it to a Python script. Cell
// types other than "code", "markdown", and "raw" fail with
// ingesterr.ErrInvalidNotebook.
func Convert(data []byte, opts Options) (string, error) {
	var nb rawNotebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return "", fmt.Errorf("%w: %v", ingesterr.ErrInvalidNotebook, err)
	}

	cells := nb.Cells
	if len(nb.Worksheets) > 0 {
		// Legacy notebook format (nbformat 3): cells live under
		// worksheets rather than at the top level.
		cells = nil
		for _, ws := range nb.Worksheets {
			cells = append(cells, ws.Cells...)
		}
	}

	var blocks []string
	for _, cell := range cells {
		source := joinSource(cell.Source)
		if strings.TrimSpace(source) == "" {
			continue
		}

		switch cell.CellType {
		case "code":
			block := source
			if opts.IncludeOutput && len(cell.Outputs) > 0 {
				lines, err := renderOutputs(cell.Outputs)
				if err != nil {
					return "", err
				}
				if len(lines) > 0 {
					block += "\n# Output:\n" + indentLines(lines)
				}
			}
			blocks = append(blocks, block)
		case "markdown", "raw":
			blocks = append(blocks, "\"\"\"\n"+source+"\n\"\"\"")
		default:
			return "", fmt.Errorf("%w: unknown cell type %q", ingesterr.ErrInvalidNotebook, cell.CellType)
		}
	}

	var b strings.Builder
	b.WriteString("# Jupyter notebook converted to Python script.\n")
	for _, block := range blocks {
		b.WriteString("\n")
		b.WriteString(block)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// joinSource accepts either a JSON string or a JSON array of strings —
// nbformat allows source to be either, the array form being
// line-per-element with no implicit trailing newline added.
func joinSource(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}

	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, "")
	}

	return ""
}

func renderOutputs(outputs []rawOutput) ([]string, error) {
	var lines []string
	for _, out := range outputs {
		switch out.OutputType {
		case "stream":
			lines = append(lines, splitNonEmpty(joinSource(out.Text))...)
		case "execute_result", "display_data":
			if textPlain, ok := out.Data["text/plain"]; ok {
				lines = append(lines, splitNonEmpty(renderPlainText(textPlain))...)
			}
		case "error":
			lines = append(lines, fmt.Sprintf("Error: %s: %s", out.EName, out.EValue))
		default:
			return nil, fmt.Errorf("%w: unknown output type %q", ingesterr.ErrInvalidNotebook, out.OutputType)
		}
	}
	return lines, nil
}

func renderPlainText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []interface{}:
		var parts []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "")
	default:
		return ""
	}
}

func splitNonEmpty(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func indentLines(lines []string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString("#   ")
		b.WriteString(l)
		b.WriteString("\n")
	}
	return b.String()
}
