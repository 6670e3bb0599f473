package analysis

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tooldesk/tooldesk/internal/core"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func runAnalysis(t *testing.T, args map[string]any) string {
	t.Helper()
	tool := Tool(core.NewRepoContext())
	res, err := tool.Handler.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return res.Content
}

func TestAnalyzeLanguages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"), "print('a')\n")
	writeFile(t, filepath.Join(dir, "b.py"), "print('b')\n")
	writeFile(t, filepath.Join(dir, "c.js"), "console.log('c')\n")
	writeFile(t, filepath.Join(dir, "README.md"), "# readme\n")
	writeFile(t, filepath.Join(dir, ".git", "config"), "[core]\n")

	content := runAnalysis(t, map[string]any{"action": "analyze_languages", "repo_path": dir})

	want := "Language distribution in the repository:\n" +
		"- Python: 2 files (50.00%)\n" +
		"- JavaScript: 1 files (25.00%)\n" +
		"- Markdown: 1 files (25.00%)"
	if content != want {
		t.Fatalf("unexpected content:\n%s", content)
	}
}

func TestAnalyzeLanguagesEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "data.bin"), "xx")

	content := runAnalysis(t, map[string]any{"action": "analyze_languages", "repo_path": dir})
	if content != "No recognized programming languages found in the repository." {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestFindTodos(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"), "print('a')\n# TODO: fix this\n")
	writeFile(t, filepath.Join(dir, "c.js"), "// FIXME broken\n")
	writeFile(t, filepath.Join(dir, "img.png"), "TODO: not really, binary\n")
	writeFile(t, filepath.Join(dir, ".git", "notes"), "TODO: skipped\n")

	content := runAnalysis(t, map[string]any{"action": "find_todos", "repo_path": dir})

	if !strings.HasPrefix(content, "TODO comments found in the repository:\n\n") {
		t.Fatalf("unexpected header: %q", content)
	}
	if !strings.Contains(content, "a.py:2: # TODO: fix this") {
		t.Fatalf("missing python todo:\n%s", content)
	}
	if !strings.Contains(content, "c.js:1: // FIXME broken") {
		t.Fatalf("missing js fixme:\n%s", content)
	}
	if strings.Contains(content, "img.png") || strings.Contains(content, "skipped") {
		t.Fatalf("skipped files leaked:\n%s", content)
	}
}

func TestFindTodosNone(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"), "print('a')\n")

	content := runAnalysis(t, map[string]any{"action": "find_todos", "repo_path": dir})
	if content != "No TODO comments found in the repository." {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestAnalyzeComplexityValidation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.js"), "function f() {}\n")

	content := runAnalysis(t, map[string]any{"action": "analyze_complexity", "repo_path": dir})
	if content != "Error: File path not provided" {
		t.Fatalf("unexpected content: %q", content)
	}

	content = runAnalysis(t, map[string]any{"action": "analyze_complexity", "repo_path": dir, "file_path": "nope.py"})
	if content != "Error: File nope.py does not exist" {
		t.Fatalf("unexpected content: %q", content)
	}

	content = runAnalysis(t, map[string]any{"action": "analyze_complexity", "repo_path": dir, "file_path": "app.js"})
	if content != "Error: Complexity analysis is currently only supported for Python files" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestSearchCode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"), "alpha_token = 1\n")
	writeFile(t, filepath.Join(dir, "sub", "b.py"), "print(alpha_token)\n")

	content := runAnalysis(t, map[string]any{"action": "search_code", "repo_path": dir, "query": "alpha_token"})

	if !strings.HasPrefix(content, "Search results for 'alpha_token':\n\n") {
		t.Fatalf("unexpected header: %q", content)
	}
	if !strings.Contains(content, "a.py:1:alpha_token = 1") {
		t.Fatalf("missing root match:\n%s", content)
	}
	if !strings.Contains(content, filepath.Join("sub", "b.py")+":1:") {
		t.Fatalf("missing subdir match:\n%s", content)
	}
	if strings.Contains(content, dir) {
		t.Fatalf("absolute paths leaked:\n%s", content)
	}

	content = runAnalysis(t, map[string]any{"action": "search_code", "repo_path": dir, "query": "zzz_missing"})
	if content != "No matches found for 'zzz_missing' in the repository" {
		t.Fatalf("unexpected content: %q", content)
	}

	content = runAnalysis(t, map[string]any{"action": "search_code", "repo_path": dir})
	if content != "Error: Search query not provided" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestGetDependencies(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "requirements.txt"), "flask==2.0\n# pinned\nrequests\n")
	writeFile(t, filepath.Join(dir, "setup.py"), "from setuptools import setup\n")
	writeFile(t, filepath.Join(dir, "package.json"), `{"dependencies":{"react":"^18.0.0"},"devDependencies":{"vitest":"^1.0.0"}}`)

	content := runAnalysis(t, map[string]any{"action": "get_dependencies", "repo_path": dir})

	for _, want := range []string{
		"Dependencies found in the repository:",
		"Python dependencies:",
		"- Found in: requirements.txt",
		"- Found in: setup.py",
		"  Packages:",
		"  - flask==2.0",
		"  - requests",
		"JavaScript dependencies:",
		"- Found in: package.json",
		"  Dependencies:",
		"  - react@^18.0.0",
		"  Dev Dependencies:",
		"  - vitest@^1.0.0",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("missing %q in:\n%s", want, content)
		}
	}
	if strings.Contains(content, "# pinned") {
		t.Fatalf("comment line leaked:\n%s", content)
	}
}

func TestGetDependenciesNone(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.go"), "package main\n")

	content := runAnalysis(t, map[string]any{"action": "get_dependencies", "repo_path": dir})
	if content != "No dependency files found in the repository" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestRepoPathPreamble(t *testing.T) {
	content := runAnalysis(t, map[string]any{"action": "find_todos"})
	if content != "Error: Repository path not provided. Please clone a repository first." {
		t.Fatalf("unexpected content: %q", content)
	}

	content = runAnalysis(t, map[string]any{"action": "find_todos", "repo_path": "/nonexistent/tooldesk/repo"})
	if content != "Error: Repository path /nonexistent/tooldesk/repo does not exist." {
		t.Fatalf("unexpected content: %q", content)
	}

	dir := t.TempDir()
	content = runAnalysis(t, map[string]any{"action": "transmogrify", "repo_path": dir})
	if content != "Error: Unknown action 'transmogrify'. Available actions: analyze_languages, find_todos, analyze_complexity, search_code, get_dependencies" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestRepoPathFallsBackToContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"), "print('a')\n")

	repoCtx := core.NewRepoContext()
	repoCtx.Set(core.RepoInfo{Path: dir, Name: "demo", URL: "u"})
	tool := Tool(repoCtx)

	res, err := tool.Handler.Execute(context.Background(), map[string]any{"action": "analyze_languages"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Content, "- Python: 1 files (100.00%)") {
		t.Fatalf("context fallback failed:\n%s", res.Content)
	}
}
