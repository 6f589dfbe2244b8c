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

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// promptForSource asks the user for a repository reference when no
// source argument was given, provided both stdin and stdout are a
// terminal (a non-interactive invocation with no source is a usage
// error instead).
func promptForSource() (string, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stdout.Fd()) {
		return "", fmt.Errorf("no source argument given and input is not a terminal")
	}

	var source string
	err := huh.NewInput().
		Title("Repository").
		Placeholder("owner/repo, a git URL, or a local path").
		Description("What should gitingest ingest?").
		Value(&source).
		Validate(func(s string) error {
			if s == "" {
				return errors.New("a repository source is required")
			}
			return nil
		}).
		Run()
	if err != nil {
		return "", err
	}
	return source, nil
}
