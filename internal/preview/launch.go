package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Generate builds and runs a preview for the application at appPath,
// relative to the repository root. The launch strategy depends on the
// file type and, for Python and JavaScript, on the file contents.
func (s *Sessions) Generate(ctx context.Context, repoPath, appPath string) string {
	fullPath := filepath.Join(repoPath, appPath)
	if _, err := os.Stat(fullPath); err != nil {
		return fmt.Sprintf("Error: Application path '%s' does not exist", appPath)
	}
	switch {
	case strings.HasSuffix(appPath, ".py"):
		return s.runPython(ctx, fullPath, appPath)
	case strings.HasSuffix(appPath, ".js"):
		return s.runJS(ctx, fullPath, appPath)
	case strings.HasSuffix(appPath, ".html"):
		return s.serveHTML(fullPath, appPath)
	default:
		return fmt.Sprintf("Unsupported application type for %s. Currently supporting .py, .js, and .html files.", appPath)
	}
}

func (s *Sessions) runPython(ctx context.Context, fullPath, appPath string) string {
	appDir := filepath.Dir(fullPath)

	raw, err := os.ReadFile(fullPath)
	if err != nil {
		return "Error running Python application: " + err.Error()
	}

	if reqs := filepath.Join(appDir, "requirements.txt"); fileExists(reqs) {
		if msg, ok := installDeps(ctx, appDir, "Error installing dependencies:\n", "python", "-m", "pip", "install", "-r", reqs); !ok {
			return msg
		}
	}

	port, err := freePort()
	if err != nil {
		return "Error running Python application: " + err.Error()
	}

	l := pythonLaunch(fullPath, string(raw), port)
	l.appPath = appPath
	l.dir = appDir
	l.port = port

	msg, err := s.launchSession(l)
	if err != nil {
		return "Error running Python application: " + err.Error()
	}
	return msg
}

func (s *Sessions) runJS(ctx context.Context, fullPath, appPath string) string {
	appDir := filepath.Dir(fullPath)

	port, err := freePort()
	if err != nil {
		return "Error running JavaScript application: " + err.Error()
	}

	hasStart := false
	if pkgPath := filepath.Join(appDir, "package.json"); fileExists(pkgPath) {
		raw, err := os.ReadFile(pkgPath)
		if err != nil {
			return "Error running JavaScript application: " + err.Error()
		}
		var pkg struct {
			Scripts map[string]string `json:"scripts"`
		}
		if err := json.Unmarshal(raw, &pkg); err != nil {
			return "Error running JavaScript application: " + err.Error()
		}
		if msg, ok := installDeps(ctx, appDir, "Error installing npm dependencies:\n", "npm", "install"); !ok {
			return msg
		}
		_, hasStart = pkg.Scripts["start"]
	}

	l := jsLaunch(fullPath, hasStart, port)
	l.appPath = appPath
	l.dir = appDir
	l.port = port

	msg, err := s.launchSession(l)
	if err != nil {
		return "Error running JavaScript application: " + err.Error()
	}
	return msg
}

func (s *Sessions) serveHTML(fullPath, appPath string) string {
	port, err := freePort()
	if err != nil {
		return "Error serving HTML file: " + err.Error()
	}

	l := htmlLaunch(fullPath, port)
	l.appPath = appPath
	l.dir = filepath.Dir(fullPath)
	l.port = port

	msg, err := s.launchSession(l)
	if err != nil {
		return "Error serving HTML file: " + err.Error()
	}
	return msg
}

// pythonLaunch picks the runner by the script's contents: streamlit,
// flask and fastapi get a web server on the allocated port, anything
// else runs as a plain script.
func pythonLaunch(fullPath, content string, port int) launch {
	lower := strings.ToLower(content)
	p := strconv.Itoa(port)
	l := launch{wait: 3 * time.Second}
	switch {
	case strings.Contains(lower, "streamlit"):
		l.argv = []string{"python", "-m", "streamlit", "run", fullPath, "--server.port", p}
		l.url = "http://localhost:" + p
	case strings.Contains(lower, "flask"):
		l.argv = []string{"python", "-m", "flask", "run", "--port", p}
		l.env = []string{"FLASK_APP=" + fullPath, "FLASK_ENV=development"}
		l.url = "http://localhost:" + p
	case strings.Contains(lower, "fastapi"):
		module := strings.TrimSuffix(filepath.Base(fullPath), ".py")
		l.argv = []string{"python", "-m", "uvicorn", module + ":app", "--port", p}
		l.url = "http://localhost:" + p
	default:
		l.argv = []string{"python", fullPath}
		l.url = "No web interface available for this script type"
	}
	return l
}

func jsLaunch(fullPath string, hasStart bool, port int) launch {
	l := launch{wait: 3 * time.Second}
	if hasStart {
		l.argv = []string{"npm", "start"}
		l.url = "http://localhost:" + strconv.Itoa(port)
	} else {
		l.argv = []string{"node", fullPath}
		l.url = "No web interface directly available for this Node.js script"
	}
	return l
}

func htmlLaunch(fullPath string, port int) launch {
	p := strconv.Itoa(port)
	return launch{
		argv:   []string{"python", "-m", "http.server", p},
		url:    "http://localhost:" + p + "/" + filepath.Base(fullPath),
		wait:   2 * time.Second,
		server: true,
	}
}

// installDeps runs a dependency install synchronously before launch.
func installDeps(ctx context.Context, dir, failPrefix string, argv ...string) (string, bool) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return failPrefix + stderr.String(), false
	}
	return "", true
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
