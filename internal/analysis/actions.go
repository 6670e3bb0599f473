package analysis

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tooldesk/tooldesk/internal/core"
)

var extensionLanguages = map[string]string{
	".py":    "Python",
	".js":    "JavaScript",
	".jsx":   "JavaScript (React)",
	".ts":    "TypeScript",
	".tsx":   "TypeScript (React)",
	".html":  "HTML",
	".css":   "CSS",
	".scss":  "SCSS",
	".java":  "Java",
	".cpp":   "C++",
	".c":     "C",
	".go":    "Go",
	".rs":    "Rust",
	".rb":    "Ruby",
	".php":   "PHP",
	".swift": "Swift",
	".kt":    "Kotlin",
	".md":    "Markdown",
	".json":  "JSON",
	".yml":   "YAML",
	".yaml":  "YAML",
	".toml":  "TOML",
}

func analyzeLanguages(repoPath string) (core.ToolResult, error) {
	counts := map[string]int{}
	total := 0

	err := walkRepo(repoPath, func(path string, d fs.DirEntry) {
		if d.IsDir() {
			return
		}
		if lang, ok := extensionLanguages[filepath.Ext(d.Name())]; ok {
			counts[lang]++
			total++
		}
	})
	if err != nil {
		return core.ToolResult{Content: fmt.Sprintf("Error analyzing languages: %s", err)}, nil
	}

	if total == 0 {
		return core.ToolResult{Content: "No recognized programming languages found in the repository."}, nil
	}

	type langCount struct {
		name  string
		count int
	}
	sorted := make([]langCount, 0, len(counts))
	for name, n := range counts {
		sorted = append(sorted, langCount{name, n})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].name < sorted[j].name
	})

	lines := []string{"Language distribution in the repository:"}
	for _, lc := range sorted {
		pct := float64(lc.count) / float64(total) * 100
		lines = append(lines, fmt.Sprintf("- %s: %d files (%.2f%%)", lc.name, lc.count, pct))
	}
	return core.ToolResult{Content: strings.Join(lines, "\n")}, nil
}

var todoMarkers = []string{"TODO", "FIXME", "HACK", "XXX", "BUG", "OPTIMIZE"}

var binaryExtensions = map[string]bool{
	".jpg": true, ".png": true, ".gif": true, ".pdf": true,
	".zip": true, ".tar": true, ".gz": true,
}

func findTodos(repoPath string) (core.ToolResult, error) {
	var todos []string

	err := walkRepo(repoPath, func(path string, d fs.DirEntry) {
		if d.IsDir() || binaryExtensions[filepath.Ext(d.Name())] {
			return
		}
		rel, relErr := filepath.Rel(repoPath, path)
		if relErr != nil {
			return
		}
		todos = append(todos, scanFileForTodos(path, rel)...)
	})
	if err != nil {
		return core.ToolResult{Content: fmt.Sprintf("Error finding TODOs: %s", err)}, nil
	}

	if len(todos) == 0 {
		return core.ToolResult{Content: "No TODO comments found in the repository."}, nil
	}
	return core.ToolResult{Content: "TODO comments found in the repository:\n\n" + strings.Join(todos, "\n")}, nil
}

func scanFileForTodos(path, rel string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var hits []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		for _, marker := range todoMarkers {
			if strings.Contains(line, marker+":") || strings.Contains(line, marker+" ") {
				hits = append(hits, fmt.Sprintf("%s:%d: %s", rel, lineNo, strings.TrimSpace(line)))
			}
		}
	}
	// Unscannable files are skipped, same as unreadable ones.
	if scanner.Err() != nil {
		return nil
	}
	return hits
}

func analyzeComplexity(ctx context.Context, repoPath, filePath string) (core.ToolResult, error) {
	if filePath == "" {
		return core.ToolResult{Content: "Error: File path not provided"}, nil
	}

	fullPath := filepath.Join(repoPath, filePath)
	st, err := os.Stat(fullPath)
	if err != nil || st.IsDir() {
		return core.ToolResult{Content: fmt.Sprintf("Error: File %s does not exist", filePath)}, nil
	}
	if filepath.Ext(filePath) != ".py" {
		return core.ToolResult{Content: "Error: Complexity analysis is currently only supported for Python files"}, nil
	}

	if err := exec.CommandContext(ctx, "pip", "show", "radon").Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return core.ToolResult{Content: "Error: The 'radon' package is not installed. Unable to analyze complexity."}, nil
		}
		return core.ToolResult{Content: fmt.Sprintf("Error analyzing code complexity: %s", err)}, nil
	}

	cmd := exec.CommandContext(ctx, "radon", "cc", "-s", fullPath)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return core.ToolResult{Content: fmt.Sprintf("Error analyzing code complexity: %s", err)}, nil
		}
	}

	if stdout.Len() > 0 {
		return core.ToolResult{Content: fmt.Sprintf("Code complexity analysis for %s:\n\n```\n%s\n```", filePath, stdout.String())}, nil
	}
	return core.ToolResult{Content: fmt.Sprintf("No complexity analysis results for %s. The file might be empty or have very simple functions.", filePath)}, nil
}

func searchCode(ctx context.Context, repoPath, query string) (core.ToolResult, error) {
	if query == "" {
		return core.ToolResult{Content: "Error: Search query not provided"}, nil
	}

	cmd := exec.CommandContext(ctx, "grep", "-r", "-F", "--include=*.*", "-n", query, repoPath)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return core.ToolResult{Content: fmt.Sprintf("Error searching code: %s", err)}, nil
		}
		// grep exits 1 when nothing matches.
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return core.ToolResult{Content: fmt.Sprintf("No matches found for '%s' in the repository", query)}, nil
	}

	lines := strings.Split(out, "\n")
	formatted := make([]string, 0, len(lines))
	for _, line := range lines {
		file, _, found := strings.Cut(line, ":")
		if found {
			if rel, relErr := filepath.Rel(repoPath, file); relErr == nil {
				line = strings.Replace(line, file, rel, 1)
			}
		}
		formatted = append(formatted, line)
	}

	shown := formatted
	if len(shown) > 100 {
		shown = shown[:100]
	}
	content := fmt.Sprintf("Search results for '%s':\n\n%s", query, strings.Join(shown, "\n"))
	if len(lines) > 100 {
		content += fmt.Sprintf("\n\n... and %d more matches", len(lines)-100)
	}
	return core.ToolResult{Content: content}, nil
}

func getDependencies(repoPath string) (core.ToolResult, error) {
	var pythonFiles, pythonPackages []string
	var jsFiles, jsDeps, jsDevDeps []string

	err := walkRepo(repoPath, func(path string, d fs.DirEntry) {
		if d.IsDir() {
			return
		}
		rel, relErr := filepath.Rel(repoPath, path)
		if relErr != nil {
			return
		}
		switch d.Name() {
		case "requirements.txt":
			pythonFiles = append(pythonFiles, rel)
			pythonPackages = append(pythonPackages, parseRequirements(path)...)
		case "setup.py":
			pythonFiles = append(pythonFiles, rel)
		case "package.json":
			jsFiles = append(jsFiles, rel)
			deps, devDeps := parsePackageJSON(path)
			jsDeps = append(jsDeps, deps...)
			jsDevDeps = append(jsDevDeps, devDeps...)
		}
	})
	if err != nil {
		return core.ToolResult{Content: fmt.Sprintf("Error analyzing dependencies: %s", err)}, nil
	}

	if len(pythonFiles) == 0 && len(jsFiles) == 0 {
		return core.ToolResult{Content: "No dependency files found in the repository"}, nil
	}

	lines := []string{"Dependencies found in the repository:"}

	if len(pythonFiles) > 0 {
		lines = append(lines, "\nPython dependencies:")
		for _, f := range pythonFiles {
			lines = append(lines, "- Found in: "+f)
		}
		if len(pythonPackages) > 0 {
			lines = append(lines, "  Packages:")
			lines = appendCapped(lines, pythonPackages)
		}
	}

	if len(jsFiles) > 0 {
		lines = append(lines, "\nJavaScript dependencies:")
		for _, f := range jsFiles {
			lines = append(lines, "- Found in: "+f)
		}
		if len(jsDeps) > 0 {
			lines = append(lines, "  Dependencies:")
			lines = appendCapped(lines, jsDeps)
		}
		if len(jsDevDeps) > 0 {
			lines = append(lines, "  Dev Dependencies:")
			lines = appendCapped(lines, jsDevDeps)
		}
	}

	return core.ToolResult{Content: strings.Join(lines, "\n")}, nil
}

func parseRequirements(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var pkgs []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			pkgs = append(pkgs, line)
		}
	}
	return pkgs
}

func parsePackageJSON(path string) (deps, devDeps []string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, nil
	}
	for _, name := range sortedKeys(pkg.Dependencies) {
		deps = append(deps, fmt.Sprintf("%s@%s", name, pkg.Dependencies[name]))
	}
	for _, name := range sortedKeys(pkg.DevDependencies) {
		devDeps = append(devDeps, fmt.Sprintf("%s@%s", name, pkg.DevDependencies[name]))
	}
	return deps, devDeps
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func appendCapped(lines, items []string) []string {
	for i, item := range items {
		if i == 20 {
			lines = append(lines, fmt.Sprintf("  - ... and %d more", len(items)-20))
			break
		}
		lines = append(lines, "  - "+item)
	}
	return lines
}

// walkRepo visits every entry under root except the .git tree.
func walkRepo(root string, visit func(path string, d fs.DirEntry)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if path != root {
			visit(path, d)
		}
		return nil
	})
}
