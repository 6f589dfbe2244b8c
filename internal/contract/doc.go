// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package contract provides validation constants and utilities for gitingestd.
//
// This internal package contains configuration constants and validation
// functions used by the HTTP API server. It provides a minimal subset of
// validation logic needed to guard the server against oversized requests
// before they are decoded.
//
// # Request Size Limits
//
// gitingestd enforces a soft limit on API request bodies to prevent memory
// exhaustion from an oversized input_text or pattern list:
//
//	// Default limit is 4 MiB
//	limit := contract.SoftLimitBytes()
//
//	// Validate a request body before decoding it
//	result := contract.ValidateRequestBody(body)
//	if !result.OK {
//	    log.Printf("Validation failed: %s", result.Message)
//	}
//
// # Configuration via Environment
//
// The soft limit can be adjusted via the GITINGEST_SOFT_LIMIT_BYTES
// environment variable:
//
//	export GITINGEST_SOFT_LIMIT_BYTES=8388608  # 8 MiB
//
// If the environment variable is not set or invalid, the default limit
// of 4 MiB (DefaultSoftLimitBytes) is used.
//
// # Constants
//
// The package exports these constants:
//
//   - DefaultSoftLimitBytes: Baseline soft limit (4 MiB)
//   - IngestionIDMaxBytes: Maximum length for an ingestion id path segment (128 bytes)
package contract
