package preview

import (
	"context"
	"fmt"
	"os"

	"github.com/tooldesk/tooldesk/internal/core"
)

type handler struct {
	repoCtx  *core.RepoContext
	sessions *Sessions
}

// Tool builds the ui_generator tool over a shared session tracker. All
// actions require a cloned repository.
func Tool(repoCtx *core.RepoContext, sessions *Sessions) core.Tool {
	h := &handler{repoCtx: repoCtx, sessions: sessions}
	return core.Tool{
		Descriptor: core.Descriptor{
			Name:        "ui_generator",
			Description: "Generate UI for a repository",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"action": map[string]any{
						"type":        "string",
						"description": "The UI action to perform",
						"enum":        []string{"scan_apps", "generate_ui", "stop_ui"},
					},
					"app_path": map[string]any{
						"type":        "string",
						"description": "The path to the application entry point (for generate_ui action)",
					},
					"session_id": map[string]any{
						"type":        "string",
						"description": "The UI session to stop (for stop_ui action)",
					},
				},
				"required": []string{"action"},
			},
		},
		Handler: core.HandlerFunc(h.execute),
	}
}

func (h *handler) execute(ctx context.Context, args map[string]any) (core.ToolResult, error) {
	action, _ := core.StringArg(args, "action")

	repo := h.repoCtx.Get()
	if repo.Path == "" {
		return core.ToolResult{Content: "Error: No repository is currently cloned. Please clone a repository first."}, nil
	}
	if _, err := os.Stat(repo.Path); err != nil {
		return core.ToolResult{Content: fmt.Sprintf("Error: Repository path %s does not exist.", repo.Path)}, nil
	}

	switch action {
	case "scan_apps":
		return core.ToolResult{Content: scanApps(repo.Path)}, nil
	case "generate_ui":
		appPath, _ := core.StringArg(args, "app_path")
		if appPath == "" {
			return core.ToolResult{Content: "Error: Application path not provided"}, nil
		}
		return core.ToolResult{Content: h.sessions.Generate(ctx, repo.Path, appPath)}, nil
	case "stop_ui":
		sessionID, _ := core.StringArg(args, "session_id")
		if sessionID == "" {
			return core.ToolResult{Content: "Error: Session ID not provided"}, nil
		}
		return core.ToolResult{Content: h.sessions.Stop(sessionID)}, nil
	default:
		return core.ToolResult{Content: fmt.Sprintf("Error: Unknown action '%s'. Available actions: scan_apps, generate_ui, stop_ui", action)}, nil
	}
}
