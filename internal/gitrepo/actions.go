package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tooldesk/tooldesk/internal/core"
)

// Files larger than this are refused by read_file.
const maxReadSize = 256 * 1024

func (h *handler) clone(ctx context.Context, args map[string]any) (core.ToolResult, error) {
	repoURL, _ := core.StringArg(args, "repo_url")
	if repoURL == "" {
		return core.ToolResult{Content: "Error: Repository URL not provided"}, nil
	}

	// One clone at a time: a new clone replaces the previous one.
	if prev := h.repoCtx.Get().Path; prev != "" {
		os.RemoveAll(prev)
	}

	dir, err := os.MkdirTemp("", "tooldesk-repo-")
	if err != nil {
		return core.ToolResult{Content: fmt.Sprintf("Error cloning repository: %s", err)}, nil
	}

	if _, stderr, err := runGit(ctx, "", "clone", repoURL, dir); err != nil {
		os.RemoveAll(dir)
		detail := strings.TrimSpace(stderr)
		if detail == "" {
			detail = err.Error()
		}
		return core.ToolResult{Content: fmt.Sprintf("Error cloning repository: %s", detail)}, nil
	}

	h.repoCtx.Set(core.RepoInfo{
		Path: dir,
		Name: repoNameFromURL(repoURL),
		URL:  repoURL,
	})
	return core.ToolResult{Content: fmt.Sprintf("Successfully cloned repository: %s to %s", repoURL, dir)}, nil
}

func (h *handler) listFiles(args map[string]any) (core.ToolResult, error) {
	info, ok := h.clonedRepo()
	if !ok {
		return core.ToolResult{Content: "Error: No repository has been cloned yet"}, nil
	}

	root := info.Path
	if sub, _ := core.StringArg(args, "path"); sub != "" {
		resolved, okPath := resolveInRepo(info.Path, sub)
		if !okPath {
			return core.ToolResult{Content: fmt.Sprintf("Error: Path '%s' does not exist in the repository", sub)}, nil
		}
		st, err := os.Stat(resolved)
		if err != nil || !st.IsDir() {
			return core.ToolResult{Content: fmt.Sprintf("Error: Path '%s' does not exist in the repository", sub)}, nil
		}
		root = resolved
	}

	var lines []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		rel, relErr := filepath.Rel(info.Path, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			lines = append(lines, "Directory: "+rel)
		} else {
			lines = append(lines, "File: "+rel)
		}
		return nil
	})
	if err != nil {
		return core.ToolResult{Content: fmt.Sprintf("Error listing directory contents: %s", err)}, nil
	}
	return core.ToolResult{Content: strings.Join(lines, "\n")}, nil
}

func (h *handler) readFile(args map[string]any) (core.ToolResult, error) {
	info, ok := h.clonedRepo()
	if !ok {
		return core.ToolResult{Content: "Error: No repository has been cloned yet"}, nil
	}

	filePath, _ := core.StringArg(args, "file_path")
	if filePath == "" {
		return core.ToolResult{Content: "Error: File path not provided"}, nil
	}

	resolved, okPath := resolveInRepo(info.Path, filePath)
	if !okPath {
		return core.ToolResult{Content: fmt.Sprintf("Error: File '%s' does not exist in the repository", filePath)}, nil
	}
	st, err := os.Stat(resolved)
	if err != nil || st.IsDir() {
		return core.ToolResult{Content: fmt.Sprintf("Error: File '%s' does not exist in the repository", filePath)}, nil
	}
	if st.Size() > maxReadSize {
		return core.ToolResult{Content: fmt.Sprintf("Error: File '%s' is too large to read", filePath)}, nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return core.ToolResult{Content: fmt.Sprintf("Error reading file: %s", err)}, nil
	}
	return core.ToolResult{Content: string(data)}, nil
}

func (h *handler) repoInfo(ctx context.Context) (core.ToolResult, error) {
	info, ok := h.clonedRepo()
	if !ok {
		return core.ToolResult{Content: "Error: No repository has been cloned yet"}, nil
	}

	branch := gitLine(ctx, info.Path, "rev-parse", "--abbrev-ref", "HEAD")
	lastCommit := gitLine(ctx, info.Path, "log", "-1", "--format=%h %s")
	fileCount := "unknown"
	if out, _, err := runGit(ctx, info.Path, "ls-files"); err == nil {
		fileCount = strconv.Itoa(countLines(out))
	}

	var sb strings.Builder
	sb.WriteString("Repository information:\n")
	fmt.Fprintf(&sb, "- Name: %s\n", info.Name)
	fmt.Fprintf(&sb, "- URL: %s\n", info.URL)
	fmt.Fprintf(&sb, "- Path: %s\n", info.Path)
	fmt.Fprintf(&sb, "- Current branch: %s\n", branch)
	fmt.Fprintf(&sb, "- Last commit: %s\n", lastCommit)
	fmt.Fprintf(&sb, "- Files: %s", fileCount)

	if h.api != nil {
		if owner, repo, okURL := ownerRepoFromURL(info.URL); okURL {
			if meta, err := h.api.GetRepo(ctx, owner, repo); err != nil {
				fmt.Fprintf(&sb, "\n- API: unavailable (%s)", err)
			} else {
				fmt.Fprintf(&sb, "\n- Stars: %d", meta.Stars)
				fmt.Fprintf(&sb, "\n- Open issues: %d", meta.OpenIssues)
				fmt.Fprintf(&sb, "\n- Default branch: %s", meta.DefaultBranch)
			}
		}
	}
	return core.ToolResult{Content: sb.String()}, nil
}

// clonedRepo returns the shared repo info when a usable clone exists.
// The directory may have been swept away by a failed re-clone, so the
// path is checked, not just the context.
func (h *handler) clonedRepo() (core.RepoInfo, bool) {
	info := h.repoCtx.Get()
	if info.Path == "" {
		return core.RepoInfo{}, false
	}
	if _, err := os.Stat(info.Path); err != nil {
		return core.RepoInfo{}, false
	}
	return info, true
}

func runGit(ctx context.Context, dir string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func gitLine(ctx context.Context, dir string, args ...string) string {
	out, _, err := runGit(ctx, dir, args...)
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(out)
}

func countLines(s string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

func repoNameFromURL(repoURL string) string {
	name := repoURL[strings.LastIndex(repoURL, "/")+1:]
	return strings.TrimSuffix(name, ".git")
}

// resolveInRepo joins rel onto the repo root, rejecting anything that
// escapes it.
func resolveInRepo(root, rel string) (string, bool) {
	if filepath.IsAbs(rel) {
		return "", false
	}
	joined := filepath.Join(root, rel)
	relBack, err := filepath.Rel(root, joined)
	if err != nil || relBack == ".." || strings.HasPrefix(relBack, ".."+string(filepath.Separator)) {
		return "", false
	}
	return joined, true
}

// ownerRepoFromURL extracts owner and repo from a github.com URL in
// https or ssh form.
func ownerRepoFromURL(repoURL string) (string, string, bool) {
	trimmed := strings.TrimSuffix(repoURL, ".git")
	if at := strings.Index(trimmed, "github.com:"); at >= 0 {
		parts := strings.Split(trimmed[at+len("github.com:"):], "/")
		if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
			return parts[0], parts[1], true
		}
		return "", "", false
	}
	idx := strings.Index(trimmed, "github.com/")
	if idx < 0 {
		return "", "", false
	}
	parts := strings.Split(trimmed[idx+len("github.com/"):], "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
