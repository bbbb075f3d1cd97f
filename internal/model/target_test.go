package model

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func TestCanonicalKey_SameResourceSameKey(t *testing.T) {
	// Path order must not matter: same set of files, same key.
	a, err := CanonicalKey(NewFiles([]string{"src/main.go", "README.md"}))
	require.NoError(t, err)
	b, err := CanonicalKey(NewFiles([]string{"README.md", "src/main.go"}))
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestCanonicalKey_StructLiteralMatchesConstructor(t *testing.T) {
	// CanonicalKey sorts collections itself, so a hand-built literal
	// with unsorted paths keys identically to the constructor's result.
	literal, err := CanonicalKey(Files{Paths: []string{"b.go", "a.go", "b.go"}})
	require.NoError(t, err)
	constructed, err := CanonicalKey(NewFiles([]string{"a.go", "b.go"}))
	require.NoError(t, err)
	require.Equal(t, constructed, literal)
}

func TestCanonicalKey_DistinctResourcesDistinctKeys(t *testing.T) {
	issue, err := CanonicalKey(GitHubIssue{Number: 7})
	require.NoError(t, err)
	pr, err := CanonicalKey(GitHubPullRequest{Number: 7})
	require.NoError(t, err)
	require.NotEqual(t, issue, pr)
}

func TestCanonicalKey_DepthDistinguishesTrees(t *testing.T) {
	// MaxDepth is part of what is observed (the walk's extent), so two
	// depths are two targets.
	shallow, err := CanonicalKey(NewDirectoryTree("src", nil, 1))
	require.NoError(t, err)
	deep, err := CanonicalKey(NewDirectoryTree("src", nil, 0))
	require.NoError(t, err)
	require.NotEqual(t, shallow, deep)
}

func TestCanonicalKey_Golden(t *testing.T) {
	g := goldie.New(t)

	cases := []struct {
		name   string
		target Target
	}{
		{"files", NewFiles([]string{"src/main.go", "README.md"})},
		{"directory_tree", NewDirectoryTree("src", []string{"target", "node_modules"}, 3)},
		{"go_project", GoProject{}},
		{"github_issue", GitHubIssue{Number: 42}},
		{"github_pull_request", GitHubPullRequest{Number: 7}},
		{"github_repository", GitHubRepository{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := CanonicalKey(tc.target)
			require.NoError(t, err)
			g.Assert(t, "target_key_"+tc.name, []byte(key))
		})
	}
}

func TestParseTargetKey_RoundTrip(t *testing.T) {
	targets := []Target{
		NewFiles([]string{"a.go", "b.go"}),
		NewDirectoryTree("src", []string{"target"}, 2),
		GoProject{},
		GitHubIssue{Number: 42},
		GitHubPullRequest{Number: 7},
		GitHubRepository{},
	}

	for _, target := range targets {
		key, err := CanonicalKey(target)
		require.NoError(t, err)

		parsed, err := ParseTargetKey(key)
		require.NoError(t, err)

		reKey, err := CanonicalKey(parsed)
		require.NoError(t, err)
		require.Equal(t, key, reKey, "round-trip changed key for %s", target.Kind())
	}
}

func TestParseTargetKey_UnknownKind(t *testing.T) {
	_, err := ParseTargetKey(`{"kind":"telescope"}`)
	require.Error(t, err)
}

func TestParseTargetKey_Malformed(t *testing.T) {
	_, err := ParseTargetKey(`{"kind":`)
	require.Error(t, err)
}
