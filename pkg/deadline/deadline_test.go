// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package deadline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/gitingest/pkg/ingesterr"
)

func TestWrap_ReturnsUnderlyingErrorOnSuccViaError(t *testing.T) {
	err := Wrap(context.Background(), time.Second, func(ctx context.Context) error {
		return assertErr
	})
	assert.ErrorIs(t, err, assertErr)
}

var assertErr = &sentinelErr{}

type sentinelErr struct{}

func (*sentinelErr) Error() string { return "boom" }

func TestWrap_TranslatesDeadlineExceededToErrTimedOut(t *testing.T) {
	err := Wrap(context.Background(), 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, ingesterr.ErrTimedOut)
}

func TestWrap_PassesParentCancellationThrough(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cancel()
	err := Wrap(parent, time.Second, func(ctx context.Context) error {
		return ctx.Err()
	})
	// Parent cancellation surfaces as context.Canceled, not DeadlineExceeded;
	// Wrap only renormalizes the timeout case, so the raw error passes through.
	assert.Error(t, err)
}

func TestCleanupWorker_ReapsOldDirectoriesAndRecordsHistory(t *testing.T) {
	root := t.TempDir()
	historyPath := filepath.Join(t.TempDir(), "history.txt")

	oldDir := filepath.Join(root, "old-scratch")
	require.NoError(t, os.MkdirAll(oldDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(oldDir, "digest.txt"), []byte("Repository: acme/widgets\nCommit: abc1234\n\n"), 0o644))
	oldTime := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(oldDir, oldTime, oldTime))

	freshDir := filepath.Join(root, "fresh-scratch")
	require.NoError(t, os.MkdirAll(freshDir, 0o755))

	w := NewCleanupWorker(root, historyPath, nil)
	w.scanOnce(time.Now())

	_, err := os.Stat(oldDir)
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(freshDir)
	assert.NoError(t, err)

	history, err := os.ReadFile(historyPath)
	require.NoError(t, err)
	assert.Equal(t, "acme/widgets\n", string(history))
}

func TestCleanupWorker_MissingTxtFileStillRemovesDirectory(t *testing.T) {
	root := t.TempDir()
	historyPath := filepath.Join(t.TempDir(), "history.txt")

	oldDir := filepath.Join(root, "no-txt")
	require.NoError(t, os.MkdirAll(oldDir, 0o755))
	oldTime := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(oldDir, oldTime, oldTime))

	w := NewCleanupWorker(root, historyPath, nil)
	w.scanOnce(time.Now())

	_, err := os.Stat(oldDir)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanupWorker_LeavesDirectoriesUnderMaxAge(t *testing.T) {
	root := t.TempDir()
	historyPath := filepath.Join(t.TempDir(), "history.txt")

	dir := filepath.Join(root, "recent")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	w := NewCleanupWorker(root, historyPath, nil)
	w.scanOnce(time.Now())

	_, err := os.Stat(dir)
	assert.NoError(t, err)
}

func TestCleanupWorker_RunStopsOnContextCancellation(t *testing.T) {
	root := t.TempDir()
	historyPath := filepath.Join(t.TempDir(), "history.txt")
	w := NewCleanupWorker(root, historyPath, nil)
	w.ScanInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
