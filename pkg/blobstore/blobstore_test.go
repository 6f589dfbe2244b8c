// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package blobstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore_PutGetHead(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	ok, err := s.Head(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "k", []byte("body"), "tag"))

	ok, err = s.Head(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "body", string(got))
}

func TestMemStore_GetReturnsCopyNotAlias(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	original := []byte("body")
	require.NoError(t, s.Put(ctx, "k", original, ""))
	original[0] = 'X'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "body", string(got))
}

func TestFileStore_PutGetHead(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "blobs"))

	ok, err := s.Head(ctx, "a/b/c.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "a/b/c.txt", []byte("hello"), "ingest-1"))

	ok, err = s.Head(ctx, "a/b/c.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Get(ctx, "a/b/c.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestFileStore_GetMissingReturnsErrNotFound(t *testing.T) {
	s := NewFileStore(t.TempDir())
	_, err := s.Get(context.Background(), "missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_TagWrittenAsSiblingFile(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "blobs")
	s := NewFileStore(root)
	require.NoError(t, s.Put(ctx, "x.txt", []byte("body"), "ingest-42"))

	tag, err := s.Get(ctx, "x.txt.tag")
	require.NoError(t, err)
	assert.Equal(t, "ingest-42", string(tag))
}
