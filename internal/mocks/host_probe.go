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

// Package mocks holds hand-written golang/mock-style test doubles shared
// across package test suites.
package mocks

import (
	"context"
	"fmt"
	"sync"

	gomock "github.com/golang/mock/gomock"

	"github.com/kraklabs/gitingest/pkg/credential"
	"github.com/kraklabs/gitingest/pkg/gitremote"
)

// MockHostProbe is a hand-written double for pkg/urlparse.HostProbe. It
// follows golang/mock's generated-code shape (an embedded *gomock.Controller
// and a recorder) without depending on mockgen, so it needs no code
// generation step.
type MockHostProbe struct {
	ctrl     *gomock.Controller
	recorder *MockHostProbeRecorder

	mu sync.Mutex

	existsFunc     func(ctx context.Context, repoURL string, cred credential.Credential) bool
	listRefsFunc   func(ctx context.Context, repoURL string, kind gitremote.Kind, cred credential.Credential) ([]string, error)
	resolveRefFunc func(ctx context.Context, repoURL, pattern string, cred credential.Credential) (string, error)
}

// MockHostProbeRecorder is returned by EXPECT() for call-count assertions
// via the embedded gomock.Controller, mirroring generated mock ergonomics.
type MockHostProbeRecorder struct {
	mock *MockHostProbe
}

// NewMockHostProbe constructs a MockHostProbe bound to ctrl. ctrl may be
// nil when the caller only needs stubbed returns, not gomock's
// Finish()-time expectation verification.
func NewMockHostProbe(ctrl *gomock.Controller) *MockHostProbe {
	m := &MockHostProbe{ctrl: ctrl}
	m.recorder = &MockHostProbeRecorder{mock: m}
	return m
}

// EXPECT returns the recorder, for parity with mockgen's generated API.
func (m *MockHostProbe) EXPECT() *MockHostProbeRecorder {
	return m.recorder
}

// SetExists stubs the Exists method's return value.
func (m *MockHostProbe) SetExists(f func(ctx context.Context, repoURL string, cred credential.Credential) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.existsFunc = f
}

// SetListRefs stubs the ListRefs method's return value.
func (m *MockHostProbe) SetListRefs(f func(ctx context.Context, repoURL string, kind gitremote.Kind, cred credential.Credential) ([]string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listRefsFunc = f
}

// SetResolveRef stubs the ResolveRef method's return value.
func (m *MockHostProbe) SetResolveRef(f func(ctx context.Context, repoURL, pattern string, cred credential.Credential) (string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolveRefFunc = f
}

// Exists implements pkg/urlparse.HostProbe.
func (m *MockHostProbe) Exists(ctx context.Context, repoURL string, cred credential.Credential) bool {
	if m.ctrl != nil {
		m.ctrl.Call(m, "Exists", ctx, repoURL, cred)
	}
	m.mu.Lock()
	f := m.existsFunc
	m.mu.Unlock()
	if f == nil {
		panic(fmt.Sprintf("MockHostProbe.Exists called with no stub set (repoURL=%s)", repoURL))
	}
	return f(ctx, repoURL, cred)
}

// ListRefs implements pkg/urlparse.HostProbe.
func (m *MockHostProbe) ListRefs(ctx context.Context, repoURL string, kind gitremote.Kind, cred credential.Credential) ([]string, error) {
	if m.ctrl != nil {
		m.ctrl.Call(m, "ListRefs", ctx, repoURL, kind, cred)
	}
	m.mu.Lock()
	f := m.listRefsFunc
	m.mu.Unlock()
	if f == nil {
		panic(fmt.Sprintf("MockHostProbe.ListRefs called with no stub set (repoURL=%s, kind=%s)", repoURL, kind))
	}
	return f(ctx, repoURL, kind, cred)
}

// ResolveRef implements pkg/urlparse.HostProbe.
func (m *MockHostProbe) ResolveRef(ctx context.Context, repoURL, pattern string, cred credential.Credential) (string, error) {
	if m.ctrl != nil {
		m.ctrl.Call(m, "ResolveRef", ctx, repoURL, pattern, cred)
	}
	m.mu.Lock()
	f := m.resolveRefFunc
	m.mu.Unlock()
	if f == nil {
		panic(fmt.Sprintf("MockHostProbe.ResolveRef called with no stub set (repoURL=%s, pattern=%s)", repoURL, pattern))
	}
	return f(ctx, repoURL, pattern, cred)
}
