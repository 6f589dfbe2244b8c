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

//go:build windows

package clone

import "os/exec"

// setProcessGroup is a no-op on Windows; job objects would be needed for
// true process-tree termination, which exec.Cmd.Process.Kill does not
// give us. A single git.exe invocation with no subprocess fan-out is the
// common case there, so plain Kill (see killGroup) is accepted as
// best-effort.
func setProcessGroup(cmd *exec.Cmd) {}

// killGroup terminates cmd's direct process only.
func killGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
