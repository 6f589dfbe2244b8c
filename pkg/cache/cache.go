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

// Package cache implements the content-addressed digest cache: a key
// derived deterministically from the resolved commit and pattern set, a
// gzip-compressed text blob, and a JSON sibling holding the structured
// (summary, tree, content) triple so a cache hit can reconstruct the full
// Digest without re-rendering.
package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/kraklabs/gitingest/pkg/blobstore"
	"github.com/kraklabs/gitingest/pkg/pattern"
)

// KeyInput carries the fields the cache key is derived from.
type KeyInput struct {
	Host, Owner, Repo, Commit string
	Subpath                   string
	Patterns                  pattern.Set
}

// Digest is the structured triple persisted alongside the compressed blob.
type Digest struct {
	Summary string `json:"summary"`
	Tree    string `json:"tree"`
	Content string `json:"content"`
}

// placeholderDigest is returned on a blob hit whose JSON sibling is
// missing or unreadable: the blob itself (the concatenated content text)
// is still usable, but the summary/tree are lost.
func placeholderDigest(content string) Digest {
	return Digest{
		Summary: "(cached digest metadata unavailable; content recovered from cache)",
		Tree:    "",
		Content: content,
	}
}

// Cache wraps a blobstore.Store with the key-derivation and
// compression/serialization rules the digest cache needs.
type Cache struct {
	store  blobstore.Store
	prefix string
}

// New builds a Cache over store. prefix is the deployment-chosen root
// segment of the key ("ingest" is always appended after it, per spec
// §4.10's "prefix/ingest/...": prefix is typically a bucket name or empty
// for a bare filesystem store).
func New(store blobstore.Store, prefix string) *Cache {
	return &Cache{store: store, prefix: prefix}
}

// Key derives the deterministic cache key for input:
// "prefix/ingest/<host>/<owner>/<repo>/<commit>/<patterns-hash>/<owner>-<repo>-<subpath-hash>.txt".
func (c *Cache) Key(input KeyInput) string {
	patternsHash := shortHash(input.Patterns.SortedKey())
	subpathHash := shortHash(input.Subpath)

	var b bytes.Buffer
	if c.prefix != "" {
		fmt.Fprintf(&b, "%s/", c.prefix)
	}
	fmt.Fprintf(&b, "ingest/%s/%s/%s/%s/%s/%s-%s-%s.txt",
		input.Host, input.Owner, input.Repo, input.Commit,
		patternsHash, input.Owner, input.Repo, subpathHash)
	return b.String()
}

// shortHash returns the first 16 hex characters of the SHA-256 of s.
func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}

func jsonKey(key string) string {
	return key[:len(key)-len(".txt")] + ".json"
}

// Head reports whether a cache entry exists for key.
func (c *Cache) Head(ctx context.Context, key string) (bool, error) {
	return c.store.Head(ctx, key)
}

// Get returns the cached Digest for key. If the blob is present but its
// JSON sibling is missing or unreadable, Get still succeeds, returning a
// placeholder summary/tree with the recovered content.
func (c *Cache) Get(ctx context.Context, key string) (Digest, error) {
	compressed, err := c.store.Get(ctx, key)
	if err != nil {
		return Digest{}, fmt.Errorf("cache: reading blob: %w", err)
	}
	content, err := gunzip(compressed)
	if err != nil {
		return Digest{}, fmt.Errorf("cache: decompressing blob: %w", err)
	}

	raw, err := c.store.Get(ctx, jsonKey(key))
	if err != nil {
		return placeholderDigest(content), nil
	}

	var digest Digest
	if jsonErr := json.Unmarshal(raw, &digest); jsonErr != nil {
		return placeholderDigest(content), nil
	}
	return digest, nil
}

// Put compresses digest.Content and stores it under key, alongside a JSON
// sibling holding the full digest. tag is forwarded to the blobstore (the
// orchestrator passes the ingestion ID).
func (c *Cache) Put(ctx context.Context, key string, digest Digest, tag string) error {
	compressed, err := gzipBytes(digest.Content)
	if err != nil {
		return fmt.Errorf("cache: compressing blob: %w", err)
	}
	if err := c.store.Put(ctx, key, compressed, tag); err != nil {
		return fmt.Errorf("cache: writing blob: %w", err)
	}

	raw, err := json.Marshal(digest)
	if err != nil {
		return fmt.Errorf("cache: marshaling digest: %w", err)
	}
	if err := c.store.Put(ctx, jsonKey(key), raw, tag); err != nil {
		return fmt.Errorf("cache: writing json sibling: %w", err)
	}
	return nil
}

func gzipBytes(s string) ([]byte, error) {
	var b bytes.Buffer
	w := gzip.NewWriter(&b)
	if _, err := w.Write([]byte(s)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func gunzip(data []byte) (string, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
