// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package gitremote

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/gitingest/pkg/credential"
	"github.com/kraklabs/gitingest/pkg/ingesterr"
)

func fakeResolver(run func(ctx context.Context, args []string) (string, error)) *Resolver {
	r := New(nil)
	r.run = run
	return r
}

func TestResolveRef_PrefersPeeledSHA(t *testing.T) {
	const out = "abc1111111111111111111111111111111111111\trefs/tags/v1\n" +
		"def2222222222222222222222222222222222222\trefs/tags/v1^{}\n"

	r := fakeResolver(func(ctx context.Context, args []string) (string, error) {
		return out, nil
	})

	sha, err := r.ResolveRef(context.Background(), "https://github.com/o/r", "refs/tags/v1", credential.Credential{})
	require.NoError(t, err)
	assert.Equal(t, "def2222222222222222222222222222222222222", sha)
}

func TestResolveRef_FallsBackToNonPeeledSHA(t *testing.T) {
	const out = "abc1111111111111111111111111111111111111\trefs/heads/main\n"

	r := fakeResolver(func(ctx context.Context, args []string) (string, error) {
		return out, nil
	})

	sha, err := r.ResolveRef(context.Background(), "https://github.com/o/r", "main", credential.Credential{})
	require.NoError(t, err)
	assert.Equal(t, "abc1111111111111111111111111111111111111", sha)
}

func TestResolveRef_EmptyOutputIsRefNotFound(t *testing.T) {
	r := fakeResolver(func(ctx context.Context, args []string) (string, error) {
		return "", nil
	})

	_, err := r.ResolveRef(context.Background(), "https://github.com/o/r", "nope", credential.Credential{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ingesterr.ErrRefNotFound)
}

func TestResolveRef_RetriesTransientErrorThenSucceeds(t *testing.T) {
	calls := 0
	r := fakeResolver(func(ctx context.Context, args []string) (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("connection reset by peer")
		}
		return "abc1111111111111111111111111111111111111\tHEAD\n", nil
	})

	sha, err := r.ResolveRef(context.Background(), "https://github.com/o/r", "HEAD", credential.Credential{})
	require.NoError(t, err)
	assert.Equal(t, "abc1111111111111111111111111111111111111", sha)
	assert.GreaterOrEqual(t, calls, 2)
}

func TestExists_FalseOnPersistentError(t *testing.T) {
	r := fakeResolver(func(ctx context.Context, args []string) (string, error) {
		return "", errors.New("repository not found")
	})

	assert.False(t, r.Exists(context.Background(), "https://github.com/o/missing", credential.Credential{}))
}

func TestListRefs_FiltersByKindAndStripsPrefix(t *testing.T) {
	const out = "a\trefs/heads/main\n" +
		"b\trefs/heads/dev\n"

	r := fakeResolver(func(ctx context.Context, args []string) (string, error) {
		assert.Contains(t, args, "--heads")
		return out, nil
	})

	refs, err := r.ListRefs(context.Background(), "https://github.com/o/r", KindBranches, credential.Credential{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main", "dev"}, refs)
}

func TestLsRemoteArgs_AttachesExtraHeaderOnlyForMatchingHost(t *testing.T) {
	tok := "ghp_" + strings.Repeat("a", 36)
	cred, err := credential.Validate(tok)
	require.NoError(t, err)

	argsGitHub := lsRemoteArgs("https://github.com/o/r", cred)
	assert.Contains(t, strings.Join(argsGitHub, " "), "extraheader")

	argsOther := lsRemoteArgs("https://gitlab.com/o/r", cred)
	assert.NotContains(t, strings.Join(argsOther, " "), "extraheader")
}
