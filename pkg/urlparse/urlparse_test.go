// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package urlparse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/gitingest/internal/mocks"
	"github.com/kraklabs/gitingest/pkg/credential"
	"github.com/kraklabs/gitingest/pkg/gitremote"
	"github.com/kraklabs/gitingest/pkg/ingesterr"
)

const headSHA = "1111111111111111111111111111111111111a"

func newStubProbe() *mocks.MockHostProbe {
	probe := mocks.NewMockHostProbe(nil)
	probe.SetExists(func(ctx context.Context, repoURL string, cred credential.Credential) bool {
		return false
	})
	probe.SetListRefs(func(ctx context.Context, repoURL string, kind gitremote.Kind, cred credential.Credential) ([]string, error) {
		return nil, nil
	})
	probe.SetResolveRef(func(ctx context.Context, repoURL, pattern string, cred credential.Credential) (string, error) {
		return headSHA, nil
	})
	return probe
}

func TestParse_FullyQualifiedURL(t *testing.T) {
	probe := newStubProbe()
	p := New(probe)

	res, err := p.Parse(context.Background(), "https://github.com/kraklabs/gitingest", credential.Credential{})
	require.NoError(t, err)
	assert.Equal(t, "github.com", res.Host)
	assert.Equal(t, "kraklabs", res.Owner)
	assert.Equal(t, "gitingest", res.Repo)
	assert.Equal(t, "kraklabs-gitingest", res.Slug)
	assert.Equal(t, "/", res.Subpath)
	assert.Equal(t, headSHA, res.Commit)
}

func TestParse_TrailingDotGitStripped(t *testing.T) {
	probe := newStubProbe()
	p := New(probe)

	res, err := p.Parse(context.Background(), "https://github.com/o/r.git", credential.Credential{})
	require.NoError(t, err)
	assert.Equal(t, "r", res.Repo)
}

func TestParse_SchemeLessHostPath(t *testing.T) {
	probe := newStubProbe()
	p := New(probe)

	res, err := p.Parse(context.Background(), "gitlab.com/o/r", credential.Credential{})
	require.NoError(t, err)
	assert.Equal(t, "gitlab.com", res.Host)
}

func TestParse_BareSlugGuessesHostByProbing(t *testing.T) {
	probe := mocks.NewMockHostProbe(nil)
	probe.SetExists(func(ctx context.Context, repoURL string, cred credential.Credential) bool {
		return repoURL == "https://gitlab.com/o/r"
	})
	probe.SetListRefs(func(ctx context.Context, repoURL string, kind gitremote.Kind, cred credential.Credential) ([]string, error) {
		return nil, nil
	})
	probe.SetResolveRef(func(ctx context.Context, repoURL, pattern string, cred credential.Credential) (string, error) {
		return headSHA, nil
	})

	p := New(probe)
	res, err := p.Parse(context.Background(), "o/r", credential.Credential{})
	require.NoError(t, err)
	assert.Equal(t, "gitlab.com", res.Host)
}

func TestParse_BareSlugNoHostFound(t *testing.T) {
	probe := newStubProbe()
	p := New(probe)

	_, err := p.Parse(context.Background(), "o/r", credential.Credential{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ingesterr.ErrNoHostFound)
}

func TestParse_UnknownHostRejected(t *testing.T) {
	probe := newStubProbe()
	p := New(probe)

	_, err := p.Parse(context.Background(), "https://example.com/o/r", credential.Credential{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ingesterr.ErrUnknownDomain)
}

func TestParse_HeuristicHostPrefixAccepted(t *testing.T) {
	probe := newStubProbe()
	p := New(probe)

	res, err := p.Parse(context.Background(), "https://git.example.org/o/r", credential.Credential{})
	require.NoError(t, err)
	assert.Equal(t, "git.example.org", res.Host)
}

func TestParse_CommitSHAConsumedAsRef(t *testing.T) {
	sha := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	probe := newStubProbe()
	p := New(probe)

	res, err := p.Parse(context.Background(), "https://github.com/o/r/tree/"+sha+"/sub/dir", credential.Credential{})
	require.NoError(t, err)
	assert.Equal(t, sha, res.Commit)
	assert.Equal(t, RefKindCommit, res.RefKind)
	assert.Equal(t, "/sub/dir", res.Subpath)
}

func TestParse_BranchNameWithSlashRoundTrips(t *testing.T) {
	probe := mocks.NewMockHostProbe(nil)
	probe.SetExists(func(ctx context.Context, repoURL string, cred credential.Credential) bool { return true })
	probe.SetListRefs(func(ctx context.Context, repoURL string, kind gitremote.Kind, cred credential.Credential) ([]string, error) {
		if kind == gitremote.KindTags {
			return nil, nil
		}
		return []string{"main", "feature/fix1"}, nil
	})
	probe.SetResolveRef(func(ctx context.Context, repoURL, pattern string, cred credential.Credential) (string, error) {
		return headSHA, nil
	})

	p := New(probe)
	res, err := p.Parse(context.Background(), "https://github.com/o/r/tree/feature/fix1/src", credential.Credential{})
	require.NoError(t, err)
	assert.Equal(t, "feature/fix1", res.Ref)
	assert.Equal(t, RefKindBranch, res.RefKind)
	assert.Equal(t, "/src", res.Subpath)
}

func TestParse_TagPreferredOverBranchOfSameName(t *testing.T) {
	probe := mocks.NewMockHostProbe(nil)
	probe.SetExists(func(ctx context.Context, repoURL string, cred credential.Credential) bool { return true })
	probe.SetListRefs(func(ctx context.Context, repoURL string, kind gitremote.Kind, cred credential.Credential) ([]string, error) {
		if kind == gitremote.KindTags {
			return []string{"v1"}, nil
		}
		return []string{"v1", "v1-maintenance"}, nil
	})
	probe.SetResolveRef(func(ctx context.Context, repoURL, pattern string, cred credential.Credential) (string, error) {
		return headSHA, nil
	})

	p := New(probe)
	res, err := p.Parse(context.Background(), "https://github.com/o/r/tree/v1", credential.Credential{})
	require.NoError(t, err)
	assert.Equal(t, RefKindTag, res.RefKind)
	assert.Equal(t, "v1", res.Ref)
}

func TestParse_IssuesKindWarnsAndFallsBackToHEAD(t *testing.T) {
	probe := newStubProbe()
	p := New(probe)

	res, err := p.Parse(context.Background(), "https://github.com/o/r/issues/42", credential.Credential{})
	require.NoError(t, err)
	assert.Equal(t, KindIssues, res.Kind)
	assert.Equal(t, headSHA, res.Commit)
	assert.Equal(t, "/", res.Subpath)
}

func TestParse_UnsupportedKindTokenFallsBackToHEAD(t *testing.T) {
	probe := newStubProbe()
	p := New(probe)

	res, err := p.Parse(context.Background(), "https://github.com/o/r/wiki/Home", credential.Credential{})
	require.NoError(t, err)
	assert.Equal(t, KindNone, res.Kind)
	assert.Equal(t, headSHA, res.Commit)
}

func TestParse_TooFewSegmentsFails(t *testing.T) {
	probe := newStubProbe()
	p := New(probe)

	_, err := p.Parse(context.Background(), "https://github.com/o", credential.Credential{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ingesterr.ErrInvalidInput)
}

func TestLooksRemote(t *testing.T) {
	assert.True(t, LooksRemote("https://github.com/o/r"))
	assert.True(t, LooksRemote("github.com/o/r"))
	assert.True(t, LooksRemote("o/r"))
	// Local paths are disambiguated from slugs by the orchestrator's
	// filesystem-existence check done later in the pipeline; LooksRemote only
	// needs to rule out shapes that cannot possibly be remote.
	assert.False(t, LooksRemote("/abs/local/dir/with/many/segments"))
}
