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

package pattern

// defaultExcludes is the built-in exclude set merged into every query's
// Exclude set unless a caller-supplied Include pattern removes an entry via
// the subtraction invariant. Grouped by ecosystem for readability; order has
// no semantic meaning (matching is unordered set membership, not
// first-match-wins, for the exclude side — see Matcher.MatchFile).
var defaultExcludes = []string{
	// Python
	"*.pyc", "*.pyo", "*.pyd", "__pycache__", ".pytest_cache", ".coverage",
	".tox", ".nox", ".mypy_cache", ".ruff_cache", ".hypothesis",
	"poetry.lock", "Pipfile.lock",
	// JavaScript/TypeScript
	"node_modules", "bower_components", "package-lock.json", "yarn.lock",
	".npm", ".yarn", ".pnpm-store", "bun.lock", "bun.lockb",
	// Java
	"*.class", "*.jar", "*.war", "*.ear", "*.nar", ".gradle/", "build/",
	".settings/", ".classpath", "gradle-app.setting", "*.gradle", ".project",
	// C/C++
	"*.o", "*.obj", "*.dll", "*.dylib", "*.exe", "*.lib", "*.out", "*.a", "*.pdb",
	// Swift/Xcode
	".build/", "*.xcodeproj/", "*.xcworkspace/", "*.pbxuser", "*.mode1v3",
	"*.mode2v3", "*.perspectivev3", "*.xcuserstate", "xcuserdata/", ".swiftpm/",
	// Ruby
	"*.gem", ".bundle/", "vendor/bundle", "Gemfile.lock", ".ruby-version",
	".ruby-gemset", ".rvmrc",
	// Rust / Java shared
	"Cargo.lock", "**/*.rs.bk", "target/",
	// Go
	"pkg/",
	// .NET/C#
	"obj/", "*.suo", "*.user", "*.userosscache", "*.sln.docstates",
	"packages/", "*.nupkg",
	// Go/.NET/C# shared
	"bin/",
	// Version control
	".git", ".svn", ".hg", ".gitignore", ".gitattributes", ".gitmodules",
	// Images and media
	"*.svg", "*.png", "*.jpg", "*.jpeg", "*.gif", "*.ico", "*.pdf", "*.mov",
	"*.mp4", "*.mp3", "*.wav",
	// Virtual environments
	"venv", ".venv", "env", ".env", "virtualenv",
	// IDEs and editors
	".idea", ".vscode", ".vs", "*.swo", "*.swn", ".settings", "*.sublime-*",
	// Temporary and cache files
	"*.log", "*.bak", "*.swp", "*.tmp", "*.temp", ".cache", ".sass-cache",
	".eslintcache", ".DS_Store", "Thumbs.db", "desktop.ini",
	// Build directories and artifacts
	"build", "dist", "target", "out", "*.egg-info", "*.egg", "*.whl", "*.so",
	// Documentation/site generators
	"site-packages", ".docusaurus", ".next", ".nuxt",
	// Minified/generated
	"*.min.js", "*.min.css", "*.map",
	// Terraform
	".terraform", "*.tfstate*",
	// Vendored dependencies
	"vendor/",
	// gitingest's own output, in case it's ingested from a prior run
	"digest.txt",
}

// DefaultExcludes returns a copy of the built-in exclude pattern list.
// Callers must not mutate the returned slice in place — it is shared state.
func DefaultExcludes() []string {
	out := make([]string, len(defaultExcludes))
	copy(out, defaultExcludes)
	return out
}
