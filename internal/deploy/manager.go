// Package deploy implements the autodeploy tool: a single-slot
// deployment state machine with simulate and execute modes over four
// deployment flavors (static, docker, heroku, custom).
package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tooldesk/tooldesk/internal/core"
	"github.com/tooldesk/tooldesk/internal/telemetry"
)

// Deployment lifecycle states. Terminal states are completed, failed,
// and aborted; only failed stays in the slot for inspection.
const (
	StatusPrepared   = "prepared"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusAborted    = "aborted"
)

// Record tracks one deployment attempt through its lifecycle. The ID
// correlates a record across audit rows and log lines; it never appears
// in tool content.
type Record struct {
	ID     string
	Status string
	Type   string
	Config map[string]any
	Log    []string
}

// Manager owns the single deployment slot: at most one record is
// current at a time, and every record that leaves the slot is appended
// to history, which is never rewritten afterwards. The mutex guards
// slot and history; a deploy routine that finishes after its record was
// aborted or replaced discards its result instead of mutating the
// archived record.
type Manager struct {
	runner   Runner
	simulate bool

	mu      sync.Mutex
	config  map[string]any
	current *Record
	history []Record
}

// NewManager builds a Manager. With simulate set, the deploy routines
// log the final mutating command instead of running it; build and
// validation commands run in both modes.
func NewManager(runner Runner, simulate bool) *Manager {
	return &Manager{runner: runner, simulate: simulate}
}

// FromEnv builds the production Manager: host execution, simulating
// unless TOOLDESK_DEPLOY_EXECUTE is set to a true value.
func FromEnv() *Manager {
	execute, _ := strconv.ParseBool(os.Getenv("TOOLDESK_DEPLOY_EXECUTE"))
	return NewManager(ExecRunner{}, !execute)
}

// Prepare validates config against its deployment type and arms the
// slot. A failed validation leaves the slot untouched.
func (m *Manager) Prepare(ctx context.Context, repoPath string, config map[string]any) string {
	if len(config) == 0 {
		return "Error: Deployment configuration not provided"
	}

	m.mu.Lock()
	m.config = config
	m.mu.Unlock()

	deployType, _ := core.StringArg(config, "type")
	if deployType == "" {
		return "Error: Deployment type not specified in configuration"
	}

	var problem string
	switch deployType {
	case "static":
		problem = prepareStatic(repoPath, config)
	case "docker":
		problem = m.prepareDocker(ctx, repoPath, config)
	case "heroku":
		problem = m.prepareHeroku(ctx, config)
	case "custom":
		problem = prepareCustom(repoPath, config)
	default:
		return fmt.Sprintf("Error: Unsupported deployment type '%s'. Supported types: static, docker, heroku, custom", deployType)
	}
	if problem != "" {
		return problem
	}

	rec := &Record{
		ID:     uuid.NewString(),
		Status: StatusPrepared,
		Type:   deployType,
		Config: config,
		Log:    []string{"Deployment preparation complete"},
	}
	m.mu.Lock()
	if m.current != nil {
		m.history = append(m.history, *m.current)
	}
	m.current = rec
	m.mu.Unlock()

	return fmt.Sprintf("Deployment preparation successful. Type: %s. Ready to start deployment.", deployType)
}

func prepareStatic(repoPath string, config map[string]any) string {
	buildDir, _ := core.StringArg(config, "build_dir")
	if buildDir == "" {
		return "Error: Build directory not specified for static deployment"
	}
	buildCommand, _ := core.StringArg(config, "build_command")
	if buildCommand == "" {
		return "Error: Build command not specified for static deployment"
	}
	deployTarget, _ := core.StringArg(config, "deploy_target")
	if deployTarget == "" {
		return "Error: Deploy target not specified for static deployment"
	}
	if _, err := os.Stat(filepath.Join(repoPath, buildDir)); err != nil && !core.BoolArg(config, "create_if_missing") {
		return fmt.Sprintf("Error: Build directory '%s' does not exist. Set 'create_if_missing' to true if you want it to be created.", buildDir)
	}
	return ""
}

func (m *Manager) prepareDocker(ctx context.Context, repoPath string, config map[string]any) string {
	dockerfilePath, _ := core.StringArg(config, "dockerfile_path")
	if dockerfilePath == "" {
		dockerfilePath = "Dockerfile"
	}
	imageName, _ := core.StringArg(config, "image_name")
	if imageName == "" {
		return "Error: Docker image name not specified"
	}
	if _, err := os.Stat(filepath.Join(repoPath, dockerfilePath)); err != nil {
		return fmt.Sprintf("Error: Dockerfile not found at '%s'", dockerfilePath)
	}
	res, err := m.runner.Run(ctx, "", "docker --version")
	switch {
	case err != nil || res.ExitCode == 127: // 127: shell did not find the binary
		return "Error: Docker is not installed or not in PATH"
	case res.ExitCode != 0:
		return "Error: Docker is not installed or not accessible"
	}
	return ""
}

func (m *Manager) prepareHeroku(ctx context.Context, config map[string]any) string {
	appName, _ := core.StringArg(config, "app_name")
	if appName == "" {
		return "Error: Heroku app name not specified"
	}
	res, err := m.runner.Run(ctx, "", "heroku --version")
	switch {
	case err != nil || res.ExitCode == 127:
		return "Error: Heroku CLI is not installed or not in PATH"
	case res.ExitCode != 0:
		return "Error: Heroku CLI is not installed or not accessible"
	}
	res, err = m.runner.Run(ctx, "", "heroku auth:whoami")
	if err != nil || res.ExitCode != 0 {
		return "Error: Not authenticated with Heroku. Please run 'heroku login' first."
	}
	return ""
}

func prepareCustom(repoPath string, config map[string]any) string {
	scriptPath, _ := core.StringArg(config, "script_path")
	if scriptPath == "" {
		return "Error: Script path not specified for custom deployment"
	}
	info, err := os.Stat(filepath.Join(repoPath, scriptPath))
	if err != nil {
		return fmt.Sprintf("Error: Script not found at '%s'", scriptPath)
	}
	if info.Mode()&0o111 == 0 {
		// the warning is a refusal: nothing is prepared
		return fmt.Sprintf("Warning: Script '%s' is not executable. Will attempt to run with interpreter.", scriptPath)
	}
	return ""
}

// Start runs the prepared deployment. The record transitions to
// in_progress for the duration of the routine and ends completed (and
// archived) or failed (left in the slot for inspection).
func (m *Manager) Start(ctx context.Context, repoPath string) string {
	m.mu.Lock()
	if len(m.config) == 0 {
		m.mu.Unlock()
		return "Error: No deployment configuration. Please run prepare_deployment first."
	}
	if m.current == nil {
		m.mu.Unlock()
		return "Error: No deployment prepared. Please run prepare_deployment first."
	}
	if m.current.Status != StatusPrepared {
		status := m.current.Status
		m.mu.Unlock()
		return fmt.Sprintf("Error: Deployment is in '%s' state, not 'prepared'. Cannot start.", status)
	}
	rec := m.current
	rec.Status = StatusInProgress
	rec.Log = append(rec.Log, "Starting deployment...")
	m.mu.Unlock()

	var result outcome
	switch rec.Type {
	case "static":
		result = m.deployStatic(ctx, rec, repoPath)
	case "docker":
		result = m.deployDocker(ctx, rec, repoPath)
	case "heroku":
		result = m.deployHeroku(ctx, rec, repoPath)
	case "custom":
		result = m.deployCustom(ctx, rec, repoPath)
	default:
		msg := fmt.Sprintf("Error: Unsupported deployment type '%s'", rec.Type)
		m.mu.Lock()
		if m.current == rec {
			rec.Status = StatusFailed
			rec.Log = append(rec.Log, msg)
		}
		m.mu.Unlock()
		telemetry.IncDeployment(StatusFailed)
		return msg
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != rec {
		// the record was aborted or replaced while the routine ran
		return "Deployment was aborted before it could complete."
	}
	if result.ok {
		rec.Status = StatusCompleted
		rec.Log = append(rec.Log, "Deployment completed successfully")
		m.history = append(m.history, *rec)
		m.current = nil
		telemetry.IncDeployment(StatusCompleted)
		return "Deployment successful!\n\n" + result.msg
	}
	rec.Status = StatusFailed
	rec.Log = append(rec.Log, "Deployment failed: "+result.msg)
	telemetry.IncDeployment(StatusFailed)
	return "Deployment failed: " + result.msg
}

// Abort cancels an in_progress deployment and archives it.
func (m *Manager) Abort() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return "No active deployment to abort."
	}
	if m.current.Status != StatusInProgress {
		return fmt.Sprintf("Deployment is in '%s' state, not 'in_progress'. Cannot abort.", m.current.Status)
	}
	m.current.Status = StatusAborted
	m.current.Log = append(m.current.Log, "Deployment aborted by user")
	m.history = append(m.history, *m.current)
	m.current = nil
	telemetry.IncDeployment(StatusAborted)
	return "Deployment aborted successfully."
}

// Status renders the current record and recent history. Read-only.
func (m *Manager) Status() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil && len(m.history) == 0 {
		return "No deployments have been initiated yet."
	}

	lines := []string{"Deployment Status:"}

	if cur := m.current; cur != nil {
		lines = append(lines,
			"\nCurrent Deployment:",
			"- Status: "+cur.Status,
			"- Type: "+cur.Type,
			"- Configuration:")
		keys := make([]string, 0, len(cur.Config))
		for k := range cur.Config {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch cur.Config[k].(type) {
			case map[string]any, []any, []string:
				continue // scalars only
			}
			lines = append(lines, fmt.Sprintf("  - %s: %v", k, cur.Config[k]))
		}
		if len(cur.Log) > 0 {
			lines = append(lines, "- Logs:")
			logs := cur.Log
			if len(logs) > 10 {
				logs = logs[len(logs)-10:]
			}
			for _, entry := range logs {
				lines = append(lines, "  - "+entry)
			}
			if hidden := len(cur.Log) - 10; hidden > 0 {
				lines = append(lines, fmt.Sprintf("  - ... and %d more log entries", hidden))
			}
		}
	}

	if n := len(m.history); n > 0 {
		lines = append(lines, "\nDeployment History:")
		window := m.history
		if n > 5 {
			window = m.history[n-5:]
		}
		for i, rec := range window {
			lines = append(lines,
				fmt.Sprintf("- Deployment %d:", n-i),
				"  - Status: "+rec.Status,
				"  - Type: "+rec.Type)
		}
		if n > 5 {
			lines = append(lines, fmt.Sprintf("  ... and %d more past deployments", n-5))
		}
	}

	return strings.Join(lines, "\n")
}

// appendLog records routine progress on rec while it still occupies the
// slot; appends after rec left the slot are dropped.
func (m *Manager) appendLog(rec *Record, line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == rec {
		rec.Log = append(rec.Log, line)
	}
}
