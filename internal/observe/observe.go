// Package observe materializes targets into payload bytes for the slate.
//
// Local targets (files, directory trees) are read from the filesystem and
// serialized deterministically, so observing unchanged state yields the
// same artifact hash. GitHub targets shell out to the gh CLI and store its
// JSON output verbatim.
package observe

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dyreby/helm/internal/model"
)

// GitHubRunner executes a gh CLI invocation and returns its stdout.
type GitHubRunner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// CLIRunner runs the real gh binary. ConfigDir, when set, is exported as
// GH_CONFIG_DIR so credentials can be routed per identity.
type CLIRunner struct {
	ConfigDir string
}

func (r CLIRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)
	cmd.Env = os.Environ()
	if r.ConfigDir != "" {
		cmd.Env = append(cmd.Env, "GH_CONFIG_DIR="+r.ConfigDir)
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("gh %s: %s: %w", args[0], msg, err)
		}
		return nil, fmt.Errorf("gh %s: %w", args[0], err)
	}
	return out, nil
}

// Fetcher materializes targets. Dir anchors relative paths in file and
// tree targets; GitHub handles the remote targets.
type Fetcher struct {
	Dir    string
	GitHub GitHubRunner
}

// Fetch returns the payload bytes for a target.
func (f *Fetcher) Fetch(ctx context.Context, target model.Target) ([]byte, error) {
	switch t := target.(type) {
	case model.Files:
		return f.fetchFiles(t)
	case model.DirectoryTree:
		return f.fetchTree(t)
	case model.GoProject:
		return f.fetchGoProject()
	case model.GitHubIssue:
		return f.runGitHub(ctx, "issue", "view", fmt.Sprint(t.Number),
			"--json", "number,title,state,body,author,labels,comments")
	case model.GitHubPullRequest:
		return f.runGitHub(ctx, "pr", "view", fmt.Sprint(t.Number),
			"--json", "number,title,state,body,author,labels,reviews,comments,files")
	case model.GitHubRepository:
		return f.runGitHub(ctx, "repo", "view",
			"--json", "name,owner,description,defaultBranchRef,isPrivate")
	default:
		return nil, fmt.Errorf("no fetcher for target kind %q", target.Kind())
	}
}

// fetchFiles reads each path and serializes path -> content canonically,
// so the payload bytes depend only on the observed state.
func (f *Fetcher) fetchFiles(t model.Files) ([]byte, error) {
	contents := make(map[string]any, len(t.Paths))
	for _, path := range t.Paths {
		data, err := os.ReadFile(filepath.Join(f.Dir, path))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("read %s: not valid UTF-8 text", path)
		}
		contents[path] = string(data)
	}
	payload, err := model.MarshalCanonical(contents)
	if err != nil {
		return nil, fmt.Errorf("serialize file contents: %w", err)
	}
	return payload, nil
}

// fetchTree walks the root and serializes the sorted relative paths.
// MaxDepth 0 means unlimited; entries whose base name is on the skip list
// are pruned along with everything beneath them.
func (f *Fetcher) fetchTree(t model.DirectoryTree) ([]byte, error) {
	skip := make(map[string]bool, len(t.Skip))
	for _, name := range t.Skip {
		skip[name] = true
	}

	root := filepath.Join(f.Dir, t.Root)
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if skip[d.Name()] {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		depth := strings.Count(rel, string(filepath.Separator)) + 1
		if t.MaxDepth > 0 && depth > int(t.MaxDepth) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", t.Root, err)
	}
	sort.Strings(paths)

	payload, err := model.MarshalCanonical(paths)
	if err != nil {
		return nil, fmt.Errorf("serialize tree listing: %w", err)
	}
	return payload, nil
}

// fetchGoProject orients on the working tree as a Go project: the module
// definition plus which packages exist. Directories the toolchain ignores
// (hidden, underscore-prefixed, vendor, testdata) are pruned.
func (f *Fetcher) fetchGoProject() ([]byte, error) {
	goMod, err := os.ReadFile(filepath.Join(f.Dir, "go.mod"))
	if err != nil {
		return nil, fmt.Errorf("read go.mod: %w", err)
	}
	if !utf8.Valid(goMod) {
		return nil, fmt.Errorf("read go.mod: not valid UTF-8 text")
	}

	seen := make(map[string]bool)
	err = filepath.WalkDir(f.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() && path != f.Dir {
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
				name == "vendor" || name == "testdata" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(name, ".go") {
			return nil
		}
		rel, err := filepath.Rel(f.Dir, filepath.Dir(path))
		if err != nil {
			return err
		}
		seen[filepath.ToSlash(rel)] = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk project: %w", err)
	}

	packages := make([]string, 0, len(seen))
	for dir := range seen {
		packages = append(packages, dir)
	}
	sort.Strings(packages)

	payload, err := model.MarshalCanonical(map[string]any{
		"module":   string(goMod),
		"packages": packages,
	})
	if err != nil {
		return nil, fmt.Errorf("serialize project orientation: %w", err)
	}
	return payload, nil
}

func (f *Fetcher) runGitHub(ctx context.Context, args ...string) ([]byte, error) {
	if f.GitHub == nil {
		return nil, fmt.Errorf("no GitHub runner configured")
	}
	return f.GitHub.Run(ctx, args...)
}
