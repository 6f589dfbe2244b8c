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
	"sync"
	"time"
)

// rateLimiter is a process-wide token bucket approximating a "~10
// requests/minute per client" guidance. It is explicitly NOT a
// production-grade per-client limiter: real rate limiting (a
// golang.org/x/time/rate.Limiter keyed by client IP) is left as an
// out-of-scope placeholder for the operator to wire in. This bucket
// exists only so /api/ingest and /api/{user}/{repo} have *some* shedding
// behavior under load, not a correctness guarantee.
type rateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	last       time.Time
}

func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 10
	}
	rate := float64(requestsPerMinute) / 60.0
	return &rateLimiter{
		tokens:     float64(requestsPerMinute),
		maxTokens:  float64(requestsPerMinute),
		refillRate: rate,
		last:       time.Now(),
	}
}

// Allow reports whether the caller may proceed, consuming one token if so.
func (l *rateLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(l.last).Seconds()
	l.last = now

	l.tokens += elapsed * l.refillRate
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}
