// Package workspace implements the workspace tool: a pair-programming
// surface that initializes a working directory, reads and writes files
// in it, runs shell and configured test/format commands, and commits
// the results to git.
package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tooldesk/tooldesk/internal/command"
)

// ConfigFile is the per-workspace command configuration, read from the
// workspace root during initialize.
const ConfigFile = "tooldesk.yaml"

// Commands holds the commands configured in tooldesk.yaml.
type Commands struct {
	Test   string `yaml:"test"`
	Format string `yaml:"format"`
}

type fileConfig struct {
	Commands Commands `yaml:"commands"`
}

// Workspace is the state behind the workspace tool: the directory
// selected by initialize, whether that directory is a git repository,
// and the commands loaded from tooldesk.yaml. Actions snapshot the
// state under the mutex and run their commands outside it, so a long
// test run does not block other calls.
type Workspace struct {
	mu   sync.Mutex
	dir  string
	git  bool
	cmds Commands
}

// New returns a Workspace awaiting initialize.
func New() *Workspace {
	return &Workspace{}
}

func (w *Workspace) state() (string, bool, Commands) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dir, w.git, w.cmds
}

// Initialize selects the workspace directory, detects whether it is a
// git repository (creating one when autoInitGit is set), and loads
// tooldesk.yaml when present. A malformed config file leaves the
// commands empty rather than failing the initialize.
func (w *Workspace) Initialize(ctx context.Context, path string, autoInitGit bool) string {
	if path == "" {
		return "Error: workspace_path not provided"
	}
	path = expandHome(path)
	if _, err := os.Stat(path); err != nil {
		return fmt.Sprintf("Error: Directory %s does not exist", path)
	}

	res, err := runGit(ctx, path, "status")
	gitReady := err == nil && res.ExitCode == 0
	if !gitReady && autoInitGit {
		res, err = runGit(ctx, path, "init")
		gitReady = err == nil && res.ExitCode == 0
	}

	var cmds Commands
	if raw, err := os.ReadFile(filepath.Join(path, ConfigFile)); err == nil {
		var cfg fileConfig
		if yaml.Unmarshal(raw, &cfg) == nil {
			cmds = cfg.Commands
		}
	}

	w.mu.Lock()
	w.dir = path
	w.git = gitReady
	w.cmds = cmds
	w.mu.Unlock()

	suffix := "(not a git repository)"
	if gitReady {
		suffix = "(git repository)"
	}
	return fmt.Sprintf("Workspace %s initialized %s", path, suffix)
}

// ReadFile returns the raw contents of a file inside the workspace.
func (w *Workspace) ReadFile(path string) string {
	dir, _, _ := w.state()
	if dir == "" {
		return "Error: Workspace not initialized"
	}
	if path == "" {
		return "Error: file_path not provided"
	}
	full := filepath.Join(dir, path)
	if _, err := os.Stat(full); err != nil {
		return fmt.Sprintf("Error: File %s does not exist", path)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "Error reading file: " + err.Error()
	}
	return string(data)
}

// WriteFile writes content to a file inside the workspace, creating
// parent directories as needed.
func (w *Workspace) WriteFile(path, content string) string {
	dir, _, _ := w.state()
	if dir == "" {
		return "Error: Workspace not initialized"
	}
	if path == "" {
		return "Error: file_path not provided"
	}
	full := filepath.Join(dir, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "Error writing file: " + err.Error()
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return "Error writing file: " + err.Error()
	}
	return fmt.Sprintf("Successfully wrote to %s", path)
}

// ListFiles returns the workspace-relative glob matches under subdir as
// a JSON array. The default pattern matches every entry.
func (w *Workspace) ListFiles(subdir, pattern string) string {
	dir, _, _ := w.state()
	if dir == "" {
		return "Error: Workspace not initialized"
	}
	searchDir := dir
	if subdir != "" {
		searchDir = filepath.Join(dir, subdir)
	}
	if _, err := os.Stat(searchDir); err != nil {
		return fmt.Sprintf("Error: Directory %s does not exist", subdir)
	}
	if pattern == "" {
		pattern = "*"
	}

	matches, err := filepath.Glob(filepath.Join(searchDir, pattern))
	if err != nil {
		return "Error listing files: " + err.Error()
	}
	rel := make([]string, 0, len(matches))
	for _, m := range matches {
		r, err := filepath.Rel(dir, m)
		if err != nil {
			return "Error listing files: " + err.Error()
		}
		rel = append(rel, r)
	}
	out, err := json.MarshalIndent(rel, "", "  ")
	if err != nil {
		return "Error listing files: " + err.Error()
	}
	return string(out)
}

// RunCommand runs an arbitrary shell command in the workspace and
// returns its exit code and output as JSON.
func (w *Workspace) RunCommand(ctx context.Context, cmd string) string {
	dir, _, _ := w.state()
	if dir == "" {
		return "Error: Workspace not initialized"
	}
	if cmd == "" {
		return "Error: command not provided"
	}
	out, err := runShell(ctx, dir, cmd)
	if err != nil {
		return "Error running command: " + err.Error()
	}
	return out
}

// RunTest runs the configured test command, with selector appended when
// given.
func (w *Workspace) RunTest(ctx context.Context, selector string) string {
	dir, _, cmds := w.state()
	if dir == "" {
		return "Error: Workspace not initialized"
	}
	if cmds.Test == "" {
		return "Error: No test command configured in " + ConfigFile
	}
	cmd := cmds.Test
	if selector != "" {
		cmd += " " + selector
	}
	out, err := runShell(ctx, dir, cmd)
	if err != nil {
		return "Error running tests: " + err.Error()
	}
	return out
}

// RunFormat runs the configured format command.
func (w *Workspace) RunFormat(ctx context.Context) string {
	dir, _, cmds := w.state()
	if dir == "" {
		return "Error: Workspace not initialized"
	}
	if cmds.Format == "" {
		return "Error: No format command configured in " + ConfigFile
	}
	out, err := runShell(ctx, dir, cmds.Format)
	if err != nil {
		return "Error running formatter: " + err.Error()
	}
	return out
}

// GitCommit stages every change in the workspace and commits it. A
// clean tree is reported, not committed.
func (w *Workspace) GitCommit(ctx context.Context, message string) string {
	dir, git, _ := w.state()
	if dir == "" {
		return "Error: Workspace not initialized"
	}
	if !git {
		return "Error: Git repository not initialized"
	}
	if message == "" {
		message = "tooldesk commit at " + time.Now().Format(time.RFC3339)
	}

	res, err := runGit(ctx, dir, "add", ".")
	if err != nil {
		return "Error during Git commit: " + err.Error()
	}
	if res.ExitCode != 0 {
		return "Error adding files to Git: " + res.Stderr
	}

	res, err = runGit(ctx, dir, "status", "--porcelain")
	if err != nil {
		return "Error during Git commit: " + err.Error()
	}
	if res.Stdout == "" {
		return "No changes to commit"
	}

	res, err = runGit(ctx, dir, "commit", "-m", message)
	if err != nil {
		return "Error during Git commit: " + err.Error()
	}
	if res.ExitCode != 0 {
		return "Error committing changes: " + res.Stderr
	}
	return "Successfully committed changes: " + res.Stdout
}

type runResult struct {
	ExitCode int    `json:"exitCode"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

func runShell(ctx context.Context, dir, cmd string) (string, error) {
	res, err := command.Run(ctx, cmd, command.Options{Dir: dir})
	if err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(runResult{ExitCode: res.ExitCode, Stdout: res.Stdout, Stderr: res.Stderr}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// runGit executes git with an argument vector, no shell. A non-zero
// exit lands in the Result; the error is reserved for git not running
// at all.
func runGit(ctx context.Context, dir string, args ...string) (command.Result, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	res := command.Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	res.ExitCode = -1
	return res, err
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
