package deploy

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tooldesk/tooldesk/internal/core"
)

// outcome is a deploy routine's verdict: ok plus the message rendered
// into the start_deployment response.
type outcome struct {
	ok  bool
	msg string
}

func (m *Manager) deployStatic(ctx context.Context, rec *Record, repoPath string) outcome {
	buildDir, _ := core.StringArg(rec.Config, "build_dir")
	buildCommand, _ := core.StringArg(rec.Config, "build_command")
	deployTarget, _ := core.StringArg(rec.Config, "deploy_target")

	if buildCommand != "" {
		m.appendLog(rec, "Running build command: "+buildCommand)
		res, err := m.runner.Run(ctx, repoPath, buildCommand)
		if err != nil {
			return outcome{msg: "Static deployment failed: " + err.Error()}
		}
		if res.Stdout != "" {
			m.appendLog(rec, "Build output: "+clip(res.Stdout, 500)+"...")
		}
		if res.Stderr != "" {
			m.appendLog(rec, "Build errors: "+res.Stderr)
		}
		if res.ExitCode != 0 {
			return outcome{msg: fmt.Sprintf("Build command failed with exit code %d", res.ExitCode)}
		}
	}

	buildPath := filepath.Join(repoPath, buildDir)
	if _, err := os.Stat(buildPath); err != nil {
		if !core.BoolArg(rec.Config, "create_if_missing") {
			return outcome{msg: fmt.Sprintf("Build directory '%s' does not exist", buildDir)}
		}
		if err := os.MkdirAll(buildPath, 0o755); err != nil {
			return outcome{msg: "Static deployment failed: " + err.Error()}
		}
	}

	m.appendLog(rec, "Deploying to "+deployTarget)

	fileCount := 0
	err := filepath.WalkDir(buildPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			fileCount++
		}
		return nil
	})
	if err != nil {
		return outcome{msg: "Static deployment failed: " + err.Error()}
	}

	if m.simulate {
		m.appendLog(rec, fmt.Sprintf("Would deploy %d files from %s to %s", fileCount, buildDir, deployTarget))
		return outcome{ok: true, msg: fmt.Sprintf(
			"Static deployment simulation successful.\n\nWould deploy %d files from '%s' to '%s'.\n\nIn a production environment, use this command to actually copy files:\nrsync -av %s/ %s/",
			fileCount, buildDir, deployTarget, buildPath, deployTarget)}
	}

	syncCmd := fmt.Sprintf("rsync -av %s/ %s/", buildPath, deployTarget)
	m.appendLog(rec, "Running: "+syncCmd)
	res, err := m.runner.Run(ctx, repoPath, syncCmd)
	if err != nil {
		return outcome{msg: "Static deployment failed: " + err.Error()}
	}
	if res.ExitCode != 0 {
		return outcome{msg: fmt.Sprintf("rsync failed with exit code %d", res.ExitCode)}
	}
	return outcome{ok: true, msg: fmt.Sprintf("Static deployment successful.\n\nDeployed %d files from '%s' to '%s'.", fileCount, buildDir, deployTarget)}
}

func (m *Manager) deployDocker(ctx context.Context, rec *Record, repoPath string) outcome {
	dockerfilePath, _ := core.StringArg(rec.Config, "dockerfile_path")
	if dockerfilePath == "" {
		dockerfilePath = "Dockerfile"
	}
	imageName, _ := core.StringArg(rec.Config, "image_name")
	containerName, _ := core.StringArg(rec.Config, "container_name")
	if containerName == "" {
		containerName = imageName + "-container"
	}

	m.appendLog(rec, "Building Docker image: "+imageName)
	buildCmd := fmt.Sprintf("docker build -t %s -f %s .", imageName, dockerfilePath)
	m.appendLog(rec, "Running: "+buildCmd)

	res, err := m.runner.Run(ctx, repoPath, buildCmd)
	if err != nil {
		return outcome{msg: "Docker deployment failed: " + err.Error()}
	}
	if res.Stdout != "" {
		m.appendLog(rec, "Build output: "+clip(res.Stdout, 500)+"...")
	}
	if res.Stderr != "" {
		m.appendLog(rec, "Build errors: "+res.Stderr)
	}
	if res.ExitCode != 0 {
		return outcome{msg: fmt.Sprintf("Docker build failed with exit code %d", res.ExitCode)}
	}

	ports := stringList(rec.Config, "ports")
	mappings := make([]string, 0, len(ports))
	for _, p := range ports {
		mappings = append(mappings, "-p "+p)
	}
	runCmd := fmt.Sprintf("docker run -d --name %s %s %s", containerName, strings.Join(mappings, " "), imageName)

	if m.simulate {
		m.appendLog(rec, "Would start container with: "+runCmd)
		return outcome{ok: true, msg: fmt.Sprintf(
			"Docker deployment simulation successful.\n\nDocker image '%s' built successfully.\n\nIn a production environment, use this command to run the container:\n%s",
			imageName, runCmd)}
	}

	m.appendLog(rec, "Running: "+runCmd)
	res, err = m.runner.Run(ctx, repoPath, runCmd)
	if err != nil {
		return outcome{msg: "Docker deployment failed: " + err.Error()}
	}
	if res.ExitCode != 0 {
		return outcome{msg: fmt.Sprintf("Docker run failed with exit code %d", res.ExitCode)}
	}
	return outcome{ok: true, msg: fmt.Sprintf("Docker deployment successful.\n\nDocker image '%s' built and container '%s' started.", imageName, containerName)}
}

func (m *Manager) deployHeroku(ctx context.Context, rec *Record, repoPath string) outcome {
	appName, _ := core.StringArg(rec.Config, "app_name")

	m.appendLog(rec, "Checking Heroku app: "+appName)
	checkCmd := "heroku apps:info --app " + appName
	m.appendLog(rec, "Running: "+checkCmd)

	res, err := m.runner.Run(ctx, repoPath, checkCmd)
	if err != nil {
		return outcome{msg: "Heroku deployment failed: " + err.Error()}
	}
	appExists := res.ExitCode == 0

	if !appExists && core.BoolArg(rec.Config, "create_if_missing") {
		createCmd := "heroku apps:create " + appName
		m.appendLog(rec, "Creating Heroku app: "+createCmd)
		res, err = m.runner.Run(ctx, repoPath, createCmd)
		if err != nil {
			return outcome{msg: "Heroku deployment failed: " + err.Error()}
		}
		if res.ExitCode != 0 {
			return outcome{msg: "Failed to create Heroku app: " + stderrOrUnknown(res.Stderr)}
		}
	} else if !appExists {
		return outcome{msg: fmt.Sprintf("Heroku app '%s' does not exist. Set 'create_if_missing' to true to create it automatically.", appName)}
	}

	res, err = m.runner.Run(ctx, repoPath, "git remote -v")
	if err != nil {
		return outcome{msg: "Heroku deployment failed: " + err.Error()}
	}
	if !strings.Contains(res.Stdout, "heroku\t") {
		addCmd := "heroku git:remote -a " + appName
		m.appendLog(rec, "Adding git remote: "+addCmd)
		res, err = m.runner.Run(ctx, repoPath, addCmd)
		if err != nil {
			return outcome{msg: "Heroku deployment failed: " + err.Error()}
		}
		if res.ExitCode != 0 {
			return outcome{msg: "Failed to add Heroku git remote: " + stderrOrUnknown(res.Stderr)}
		}
	}

	pushCmd := "git push heroku master"
	if m.simulate {
		m.appendLog(rec, "Would push to Heroku with: "+pushCmd)
		return outcome{ok: true, msg: fmt.Sprintf(
			"Heroku deployment simulation successful.\n\nHeroku app '%s' is ready for deployment.\n\nIn a production environment, use this command to deploy:\n%s",
			appName, pushCmd)}
	}

	m.appendLog(rec, "Running: "+pushCmd)
	res, err = m.runner.Run(ctx, repoPath, pushCmd)
	if err != nil {
		return outcome{msg: "Heroku deployment failed: " + err.Error()}
	}
	if res.ExitCode != 0 {
		return outcome{msg: "Failed to push to Heroku: " + stderrOrUnknown(res.Stderr)}
	}
	return outcome{ok: true, msg: fmt.Sprintf("Heroku deployment successful.\n\nPushed to Heroku app '%s'.", appName)}
}

func (m *Manager) deployCustom(ctx context.Context, rec *Record, repoPath string) outcome {
	scriptPath, _ := core.StringArg(rec.Config, "script_path")

	fullPath := filepath.Join(repoPath, scriptPath)
	info, err := os.Stat(fullPath)
	if err != nil {
		return outcome{msg: fmt.Sprintf("Script not found at '%s'", scriptPath)}
	}

	m.appendLog(rec, "Running custom deployment script: "+scriptPath)

	var cmdLine string
	if info.Mode()&0o111 != 0 {
		cmdLine = "./" + scriptPath
	} else {
		switch {
		case strings.HasSuffix(scriptPath, ".py"):
			cmdLine = "python " + scriptPath
		case strings.HasSuffix(scriptPath, ".js"):
			cmdLine = "node " + scriptPath
		default:
			cmdLine = "bash " + scriptPath
		}
	}
	if args := stringList(rec.Config, "args"); len(args) > 0 {
		cmdLine = cmdLine + " " + strings.Join(args, " ")
	}

	m.appendLog(rec, "Running: "+cmdLine)

	if m.simulate {
		m.appendLog(rec, fmt.Sprintf("Would execute: %s in %s", cmdLine, repoPath))
		return outcome{ok: true, msg: fmt.Sprintf("Custom deployment simulation successful.\n\nWould execute:\n%s\n\nIn directory: %s", cmdLine, repoPath)}
	}

	res, err := m.runner.Run(ctx, repoPath, cmdLine)
	if err != nil {
		return outcome{msg: "Custom deployment failed: " + err.Error()}
	}
	if res.Stdout != "" {
		m.appendLog(rec, "Script output: "+clip(res.Stdout, 500)+"...")
	}
	if res.Stderr != "" {
		m.appendLog(rec, "Script errors: "+res.Stderr)
	}
	if res.ExitCode != 0 {
		return outcome{msg: fmt.Sprintf("Deployment script failed with exit code %d", res.ExitCode)}
	}
	return outcome{ok: true, msg: fmt.Sprintf("Custom deployment successful.\n\nExecuted:\n%s\n\nIn directory: %s", cmdLine, repoPath)}
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func stderrOrUnknown(stderr string) string {
	if stderr == "" {
		return "Unknown error"
	}
	return stderr
}

func stringList(config map[string]any, key string) []string {
	switch v := config[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
