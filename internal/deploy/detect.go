package deploy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Detect scans the repository root for framework signatures and
// recommends a deployment configuration. It never touches manager
// state.
func Detect(repoPath string) string {
	entries, err := os.ReadDir(repoPath)
	if err != nil {
		return "Error detecting deployment type: " + err.Error()
	}
	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		present[e.Name()] = true
	}

	var frameworks []string

	if present["package.json"] {
		raw, err := os.ReadFile(filepath.Join(repoPath, "package.json"))
		if err != nil {
			return "Error detecting deployment type: " + err.Error()
		}
		var pkg struct {
			Dependencies map[string]string `json:"dependencies"`
		}
		if err := json.Unmarshal(raw, &pkg); err != nil {
			return "Error detecting deployment type: " + err.Error()
		}
		dep := func(name string) bool {
			_, ok := pkg.Dependencies[name]
			return ok
		}
		if dep("react") {
			frameworks = append(frameworks, "React")
		}
		if dep("vue") {
			frameworks = append(frameworks, "Vue.js")
		}
		if dep("next") {
			frameworks = append(frameworks, "Next.js")
		}
		if dep("gatsby") {
			frameworks = append(frameworks, "Gatsby")
		}
		if dep("angular") || dep("@angular/core") {
			frameworks = append(frameworks, "Angular")
		}
	}

	if present["requirements.txt"] {
		raw, err := os.ReadFile(filepath.Join(repoPath, "requirements.txt"))
		if err != nil {
			return "Error detecting deployment type: " + err.Error()
		}
		content := strings.ToLower(string(raw))
		if strings.Contains(content, "django") {
			frameworks = append(frameworks, "Django")
		}
		if strings.Contains(content, "flask") {
			frameworks = append(frameworks, "Flask")
		}
		if strings.Contains(content, "fastapi") {
			frameworks = append(frameworks, "FastAPI")
		}
	}

	if present["Dockerfile"] || present["docker-compose.yml"] {
		frameworks = append(frameworks, "Docker")
	}
	if present["server.js"] || present["app.js"] {
		frameworks = append(frameworks, "Node.js")
	}

	var buildDirs []string
	for _, dir := range []string{"build", "dist", "public", "out", "static"} {
		if info, err := os.Stat(filepath.Join(repoPath, dir)); err == nil && info.IsDir() {
			buildDirs = append(buildDirs, dir)
		}
	}

	detected := func(names ...string) bool {
		for _, n := range names {
			if slices.Contains(frameworks, n) {
				return true
			}
		}
		return false
	}

	base := strings.ToLower(filepath.Base(repoPath))
	var recommended map[string]any
	switch {
	case detected("Docker"):
		dockerfile := "docker/Dockerfile"
		if present["Dockerfile"] {
			dockerfile = "Dockerfile"
		}
		recommended = map[string]any{
			"type":            "docker",
			"dockerfile_path": dockerfile,
			"image_name":      base,
			"container_name":  base + "-container",
			"ports":           []string{"8080:80"},
		}
	case detected("React", "Vue.js", "Angular", "Next.js", "Gatsby"):
		var buildCommand, buildDir string
		switch {
		case detected("React", "Vue.js", "Angular"):
			buildCommand = "npm run build"
			buildDir = "dist"
			if slices.Contains(buildDirs, "build") {
				buildDir = "build"
			}
		case detected("Next.js"):
			buildCommand = "npm run build"
			buildDir = ".next"
			if slices.Contains(buildDirs, "out") {
				buildDir = "out"
			}
		case detected("Gatsby"):
			buildCommand = "gatsby build"
			buildDir = "public"
		}
		recommended = map[string]any{
			"type":              "static",
			"build_command":     buildCommand,
			"build_dir":         buildDir,
			"deploy_target":     "/var/www/html",
			"create_if_missing": true,
		}
	case detected("Django", "Flask", "FastAPI"):
		wsgiApp := "project.wsgi:application"
		if detected("Flask", "FastAPI") {
			wsgiApp = "app:app"
		}
		recommended = map[string]any{
			"type":         "custom",
			"script_path":  "deploy.sh",
			"requirements": "requirements.txt",
			"wsgi_app":     wsgiApp,
		}
	case detected("Node.js"):
		recommended = map[string]any{
			"type":          "custom",
			"script_path":   "deploy.sh",
			"start_command": "npm start",
			"env_file":      ".env",
		}
	default:
		return "Could not determine specific deployment type. Please specify deployment configuration manually."
	}

	configJSON, err := json.MarshalIndent(recommended, "", "  ")
	if err != nil {
		return "Error detecting deployment type: " + err.Error()
	}
	return fmt.Sprintf(
		"Detected frameworks/technologies: %s\n\nRecommended deployment configuration:\n```json\n%s\n```\n\nUse this configuration with the 'prepare_deployment' action to set up deployment.",
		strings.Join(frameworks, ", "), configJSON)
}
