//go:build !short

package catalog

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"testing"
)

func repoRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file location")
	}
	root := filepath.Join(filepath.Dir(file), "..", "..")
	abs, err := filepath.Abs(root)
	if err != nil {
		t.Fatalf("cannot resolve repo root: %v", err)
	}
	if _, err := os.Stat(filepath.Join(abs, "README.md")); err != nil {
		t.Fatalf("repo root %q does not contain README.md", abs)
	}
	return abs
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("cannot read %s: %v", path, err)
	}
	return string(data)
}

func TestDocDrift_EnvVarsInExample(t *testing.T) {
	root := repoRoot(t)
	envReaders := []string{
		filepath.Join(root, "cmd", "tooldesk", "main.go"),
		filepath.Join(root, "cmd", "tooldesk-agent", "main.go"),
		filepath.Join(root, "internal", "github", "client.go"),
		filepath.Join(root, "internal", "deploy", "manager.go"),
	}
	envExample := readFile(t, filepath.Join(root, ".env.example"))

	reGetenv := regexp.MustCompile(`os\.Getenv\("([A-Z_]+)"\)`)
	codeVars := make(map[string]bool)
	for _, path := range envReaders {
		for _, m := range reGetenv.FindAllStringSubmatch(readFile(t, path), -1) {
			codeVars[m[1]] = true
		}
	}

	reEnvLine := regexp.MustCompile(`^([A-Z][A-Z0-9_]*)=`)
	exampleVars := make(map[string]bool)
	for _, line := range strings.Split(envExample, "\n") {
		if m := reEnvLine.FindStringSubmatch(line); m != nil {
			exampleVars[m[1]] = true
		}
	}

	var missing []string
	for v := range codeVars {
		if !exampleVars[v] {
			missing = append(missing, v)
		}
	}
	sort.Strings(missing)
	if len(missing) > 0 {
		t.Errorf("env vars read in code but missing from .env.example:\n  %s",
			strings.Join(missing, "\n  "))
	}
}

func TestDocDrift_HTTPEndpointsInREADME(t *testing.T) {
	root := repoRoot(t)
	openapi := readFile(t, filepath.Join(root, "openapi.yaml"))
	readme := readFile(t, filepath.Join(root, "README.md"))

	reOpenAPIPath := regexp.MustCompile(`(?m)^  (/[^\s:]+):`)
	matches := reOpenAPIPath.FindAllStringSubmatch(openapi, -1)

	skipPaths := map[string]bool{
		"/healthz": true,
		"/version": true,
	}

	openapiPaths := make(map[string]bool)
	for _, m := range matches {
		if !skipPaths[m[1]] {
			openapiPaths[m[1]] = true
		}
	}
	if len(openapiPaths) == 0 {
		t.Fatal("no paths parsed from openapi.yaml")
	}

	var missing []string
	for path := range openapiPaths {
		if !strings.Contains(readme, path) {
			missing = append(missing, path)
		}
	}
	sort.Strings(missing)
	if len(missing) > 0 {
		t.Errorf("OpenAPI paths not found in README.md:\n  %s",
			strings.Join(missing, "\n  "))
	}
}

func TestDocDrift_ToolsInREADME(t *testing.T) {
	root := repoRoot(t)
	readme := readFile(t, filepath.Join(root, "README.md"))

	registered := make(map[string]bool)
	for _, d := range Build(testDeps()).List() {
		registered[d.Name] = true
	}

	reToolsSection := regexp.MustCompile(`(?s)## Tools\n(.*?)(?:\n## |\z)`)
	sectionMatch := reToolsSection.FindStringSubmatch(readme)
	if sectionMatch == nil {
		t.Fatal("cannot find '## Tools' section in README.md")
	}
	toolsSection := sectionMatch[1]

	reToolInREADME := regexp.MustCompile("`([a-z_]+)`")
	readmeTools := make(map[string]bool)
	for _, m := range reToolInREADME.FindAllStringSubmatch(toolsSection, -1) {
		readmeTools[m[1]] = true
	}

	var missingInREADME []string
	for tool := range registered {
		if !readmeTools[tool] {
			missingInREADME = append(missingInREADME, tool)
		}
	}
	sort.Strings(missingInREADME)

	var missingInCatalog []string
	for tool := range readmeTools {
		if !registered[tool] {
			missingInCatalog = append(missingInCatalog, tool)
		}
	}
	sort.Strings(missingInCatalog)

	if len(missingInREADME) > 0 {
		t.Errorf("tools registered in the catalog but missing from README:\n  %s",
			strings.Join(missingInREADME, "\n  "))
	}
	if len(missingInCatalog) > 0 {
		t.Errorf("tools listed in README but not registered in the catalog:\n  %s",
			strings.Join(missingInCatalog, "\n  "))
	}
}
