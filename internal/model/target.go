package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Target identifies something helm can observe.
//
// Each variant describes a domain: the filesystem, a directory walk, or a
// GitHub resource. Variants carry identity only — fetch strategy (how much
// detail to pull) never lives here, so the same resource always produces
// the same key. Adding a domain means adding a variant here and extending
// the exhaustive switches in CanonicalKey and ParseTargetKey.
type Target interface {
	// Kind returns the tag identifying the target's domain.
	Kind() string

	isTarget()
}

// Target kind tags. Stored inside canonical keys, so these are format
// constants — changing one orphans every existing slate and bearing row.
const (
	KindFiles             = "files"
	KindDirectoryTree     = "directoryTree"
	KindGoProject         = "goProject"
	KindGitHubIssue       = "gitHubIssue"
	KindGitHubPullRequest = "gitHubPullRequest"
	KindGitHubRepository  = "gitHubRepository"
)

// Files targets the contents of specific files. Paths are held sorted and
// deduplicated so that the same set of paths yields the same key.
type Files struct {
	Paths []string
}

// NewFiles builds a Files target, sorting and deduplicating paths.
func NewFiles(paths []string) Files {
	return Files{Paths: sortedUnique(paths)}
}

func (Files) Kind() string { return KindFiles }
func (Files) isTarget()    {}

// DirectoryTree targets a recursive directory walk. Skip names directories
// excluded at any depth; MaxDepth limits recursion (0 = unlimited). Skip is
// held sorted and deduplicated.
type DirectoryTree struct {
	Root     string
	Skip     []string
	MaxDepth uint32
}

// NewDirectoryTree builds a DirectoryTree target, sorting and deduplicating
// the skip list.
func NewDirectoryTree(root string, skip []string, maxDepth uint32) DirectoryTree {
	return DirectoryTree{Root: root, Skip: sortedUnique(skip), MaxDepth: maxDepth}
}

func (DirectoryTree) Kind() string { return KindDirectoryTree }
func (DirectoryTree) isTarget()    {}

// GoProject targets the project's orientation: its module definition and
// which packages exist. One fixed shape per working tree, so the variant
// carries no fields.
type GoProject struct{}

func (GoProject) Kind() string { return KindGoProject }
func (GoProject) isTarget()    {}

// GitHubIssue targets a GitHub issue by number.
type GitHubIssue struct {
	Number uint64
}

func (GitHubIssue) Kind() string { return KindGitHubIssue }
func (GitHubIssue) isTarget()    {}

// GitHubPullRequest targets a GitHub pull request by number.
type GitHubPullRequest struct {
	Number uint64
}

func (GitHubPullRequest) Kind() string { return KindGitHubPullRequest }
func (GitHubPullRequest) isTarget()    {}

// GitHubRepository targets the repository itself: its open issues and
// pull requests.
type GitHubRepository struct{}

func (GitHubRepository) Kind() string { return KindGitHubRepository }
func (GitHubRepository) isTarget()    {}

// CanonicalKey serializes a target to its canonical key. The key is the
// target's identity: the slate's primary key, the erase match column, and
// the bearing row's target column all hold this exact byte sequence.
//
// Unordered collections (paths, skip lists) are sorted here as well as in
// the constructors, so a hand-built struct literal still keys
// deterministically.
func CanonicalKey(t Target) (string, error) {
	obj := map[string]any{"kind": t.Kind()}

	switch v := t.(type) {
	case Files:
		obj["paths"] = sortedUnique(v.Paths)
	case DirectoryTree:
		obj["root"] = v.Root
		obj["skip"] = sortedUnique(v.Skip)
		obj["maxDepth"] = v.MaxDepth
	case GitHubIssue:
		obj["number"] = v.Number
	case GitHubPullRequest:
		obj["number"] = v.Number
	case GoProject, GitHubRepository:
		// Kind alone identifies these.
	default:
		return "", fmt.Errorf("unknown target type: %T", t)
	}

	key, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("canonical key for %s: %w", t.Kind(), err)
	}
	return string(key), nil
}

// ParseTargetKey decodes a canonical key back into its target. Keys only
// ever come from CanonicalKey via the store, so a failure here means the
// stored data is malformed.
func ParseTargetKey(key string) (Target, error) {
	var raw struct {
		Kind     string   `json:"kind"`
		Paths    []string `json:"paths"`
		Root     string   `json:"root"`
		Skip     []string `json:"skip"`
		MaxDepth uint32   `json:"maxDepth"`
		Number   uint64   `json:"number"`
	}
	if err := json.Unmarshal([]byte(key), &raw); err != nil {
		return nil, fmt.Errorf("parse target key: %w", err)
	}

	switch raw.Kind {
	case KindFiles:
		return Files{Paths: raw.Paths}, nil
	case KindDirectoryTree:
		return DirectoryTree{Root: raw.Root, Skip: raw.Skip, MaxDepth: raw.MaxDepth}, nil
	case KindGoProject:
		return GoProject{}, nil
	case KindGitHubIssue:
		return GitHubIssue{Number: raw.Number}, nil
	case KindGitHubPullRequest:
		return GitHubPullRequest{Number: raw.Number}, nil
	case KindGitHubRepository:
		return GitHubRepository{}, nil
	default:
		return nil, fmt.Errorf("parse target key: unknown kind %q", raw.Kind)
	}
}

// sortedUnique returns a sorted copy of values with duplicates removed.
// Empty and nil inputs both yield an empty (non-nil) slice so canonical
// serialization sees a consistent value.
func sortedUnique(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
