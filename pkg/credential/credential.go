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

// Package credential validates host-credential tokens and builds the
// encoded header value git needs to authenticate a single invocation,
// without ever writing the token itself to a log.
package credential

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/kraklabs/gitingest/pkg/ingesterr"
)

// Family identifies which host family a credential's shape belongs to.
type Family string

const (
	// FamilyGitHub covers github.com and GitHub Enterprise-shaped hosts.
	FamilyGitHub Family = "github"
	// FamilyUnknown is returned for tokens that validate against no known
	// shape; Validate rejects these.
	FamilyUnknown Family = ""
)

var (
	// githubClassic matches gh[pousr]_ + 36 alphanumeric characters.
	githubClassic = regexp.MustCompile(`^gh[pousr]_[A-Za-z0-9]{36}$`)
	// githubFineGrained matches github_pat_ + 22 chars + "_" + 59 chars.
	githubFineGrained = regexp.MustCompile(`^github_pat_[A-Za-z0-9]{22}_[A-Za-z0-9]{59}$`)
)

// Credential is an opaque secret tagged with the host family it was
// validated against. Its zero value is the "no credential" case.
type Credential struct {
	token  string
	family Family
}

// Validate checks a token's textual form against the known host-credential
// shapes. Returns ingesterr.ErrInvalidInput if the token matches no known
// shape.
func Validate(token string) (Credential, error) {
	switch {
	case githubClassic.MatchString(token), githubFineGrained.MatchString(token):
		return Credential{token: token, family: FamilyGitHub}, nil
	default:
		return Credential{}, fmt.Errorf("%w: unrecognized token format", ingesterr.ErrInvalidInput)
	}
}

// Family reports which host family this credential was validated against.
func (c Credential) Family() Family { return c.family }

// IsZero reports whether this is the empty, "no credential" value.
func (c Credential) IsZero() bool { return c.token == "" }

// MatchesHost reports whether this credential's family applies to host.
// A credential only ever carries to the host family it validated against;
// credentials for a foreign host family are silently ignored by callers.
func (c Credential) MatchesHost(host string) bool {
	if c.IsZero() {
		return false
	}
	switch c.family {
	case FamilyGitHub:
		return strings.Contains(host, "github.")
	default:
		return false
	}
}

// ExtraHeaderValue returns the value to set git's http.<host>/.extraheader
// config to: "Authorization: Basic base64(x-oauth-basic:<token>)". Never
// logged by callers: pkg/clone and pkg/gitremote pass it only as a "-c"
// argument and leave that argument out of their error messages.
func (c Credential) ExtraHeaderValue() string {
	if c.IsZero() {
		return ""
	}
	encoded := base64.StdEncoding.EncodeToString([]byte("x-oauth-basic:" + c.token))
	return "Authorization: Basic " + encoded
}

// String never reveals the token, to guard against accidental logging via
// fmt.Sprintf("%v", cred) or similar.
func (c Credential) String() string {
	if c.IsZero() {
		return "<no credential>"
	}
	return fmt.Sprintf("<credential family=%s>", c.family)
}
