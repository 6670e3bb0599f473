package preview

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type appInfo struct {
	path        string
	kind        string
	description string
}

// scanApps walks the repository for plausible entry points and
// classifies each by name and a peek at the first 2KB of content.
// Dot-directories and node_modules are skipped.
func scanApps(repoPath string) string {
	var apps []appInfo
	candidates := 0
	err := filepath.WalkDir(repoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != repoPath && (strings.HasPrefix(name, ".") || name == "node_modules") {
				return fs.SkipDir
			}
			return nil
		}
		if !candidateEntry(d.Name()) {
			return nil
		}
		candidates++
		rel, err := filepath.Rel(repoPath, path)
		if err != nil {
			return err
		}
		head, err := readHead(path, 2000)
		if err != nil {
			return nil // unreadable files are skipped
		}
		kind := detectAppType(rel, head)
		if kind == "" {
			return nil
		}
		apps = append(apps, appInfo{path: rel, kind: kind, description: appDescription(rel, head)})
		return nil
	})
	if err != nil {
		return "Error scanning for applications: " + err.Error()
	}
	if candidates == 0 {
		return "No potential application entry points found in the repository."
	}
	if len(apps) == 0 {
		return "No recognizable applications found in the repository."
	}

	var b strings.Builder
	b.WriteString("Found potential applications in the repository:\n\n")
	for i, app := range apps {
		fmt.Fprintf(&b, "%d. %s (%s)\n   Description: %s\n\n", i+1, app.path, app.kind, app.description)
	}
	b.WriteString("\nYou can generate and run a UI for any of these applications using the 'generate_ui' action with the app_path parameter.")
	return b.String()
}

func candidateEntry(name string) bool {
	switch {
	case strings.HasSuffix(name, ".py"), strings.HasSuffix(name, ".js"):
		return true
	case name == "index.html", name == "package.json", name == "requirements.txt":
		return true
	}
	return false
}

func readHead(path string, n int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, n))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// detectAppType classifies a candidate entry point. Python and
// JavaScript files are refined by framework markers in the content.
func detectAppType(path, content string) string {
	lower := strings.ToLower(content)
	switch {
	case strings.HasSuffix(path, ".py"):
		switch {
		case strings.Contains(lower, "streamlit"):
			return "Streamlit"
		case strings.Contains(lower, "flask"):
			return "Flask"
		case strings.Contains(lower, "django"):
			return "Django"
		case strings.Contains(lower, "fastapi"):
			return "FastAPI"
		}
		return "Python"
	case strings.HasSuffix(path, ".js"):
		switch {
		case strings.Contains(lower, "react"):
			return "React"
		case strings.Contains(lower, "express"):
			return "Express.js"
		case strings.Contains(lower, "vue"):
			return "Vue.js"
		}
		return "JavaScript"
	case strings.HasSuffix(path, ".html"):
		return "HTML"
	case filepath.Base(path) == "package.json":
		return "Node.js"
	case filepath.Base(path) == "requirements.txt":
		return "Python"
	}
	return ""
}

// appDescription pulls the first substantial leading comment block out
// of the file, falling back to a label derived from the file type.
func appDescription(path, content string) string {
	var blocks []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, strings.Join(current, " "))
			current = nil
		}
	}
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#"), strings.HasPrefix(trimmed, "//"), strings.HasPrefix(trimmed, "/*"), strings.HasPrefix(trimmed, "*"):
			if text := strings.TrimSpace(strings.TrimLeft(trimmed, "#/*")); text != "" {
				current = append(current, text)
			}
		case strings.HasPrefix(trimmed, `"""`), strings.HasPrefix(trimmed, "'''"):
			if text := strings.TrimSpace(strings.TrimLeft(trimmed, `"'`)); text != "" {
				current = append(current, text)
			}
		default:
			flush()
		}
	}
	flush()

	for _, block := range blocks {
		if len(block) > 10 {
			if len(block) > 200 {
				return block[:200] + "..."
			}
			return block
		}
	}

	switch {
	case strings.HasSuffix(path, ".py"):
		return "Python application"
	case strings.HasSuffix(path, ".js"):
		return "JavaScript application"
	case strings.HasSuffix(path, ".html"):
		return "HTML application"
	case filepath.Base(path) == "package.json":
		return "Node.js application"
	case filepath.Base(path) == "requirements.txt":
		return "Python application with dependencies"
	}
	return "Application with unknown type"
}
