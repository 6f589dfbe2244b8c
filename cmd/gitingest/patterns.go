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

package main

import "github.com/kraklabs/gitingest/pkg/pattern"

// splitPatternFlags re-tokenizes each repeatable -e/-i flag value through
// pattern.ParsePatterns, so a single flag occurrence may itself carry a
// comma- or whitespace-separated list, using the same tokenizer as
// LoadIgnoreFile.
func splitPatternFlags(raw []string) ([]string, error) {
	var out []string
	for _, r := range raw {
		tokens, err := pattern.ParsePatterns(r)
		if err != nil {
			return nil, err
		}
		out = append(out, tokens...)
	}
	return out, nil
}
