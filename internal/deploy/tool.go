package deploy

import (
	"context"
	"fmt"
	"os"

	"github.com/tooldesk/tooldesk/internal/core"
)

type handler struct {
	repoCtx *core.RepoContext
	manager *Manager
}

// Tool builds the autodeploy tool around a shared Manager. The
// repo_path argument falls back to the shared repository context; the
// path checks are skipped for get_status and abort_deployment, which
// operate on manager state alone.
func Tool(repoCtx *core.RepoContext, m *Manager) core.Tool {
	h := &handler{repoCtx: repoCtx, manager: m}
	return core.Tool{
		Descriptor: core.Descriptor{
			Name:        "autodeploy",
			Description: "Automatically deploy a repository",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"action": map[string]any{
						"type":        "string",
						"description": "The deployment action to perform",
						"enum":        []string{"prepare_deployment", "start_deployment", "get_status", "abort_deployment", "detect_deployment_type"},
					},
					"repo_path": map[string]any{
						"type":        "string",
						"description": "The path to the repository to deploy",
					},
					"deploy_config": map[string]any{
						"type":        "object",
						"description": "The deployment configuration (for prepare_deployment action)",
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

	repoPath, _ := core.StringArg(args, "repo_path")
	if repoPath == "" {
		repoPath = h.repoCtx.Get().Path
	}
	if action != "get_status" && action != "abort_deployment" {
		if repoPath == "" {
			return core.ToolResult{Content: "Error: Repository path not provided. Please clone a repository first."}, nil
		}
		if _, err := os.Stat(repoPath); err != nil {
			return core.ToolResult{Content: fmt.Sprintf("Error: Repository path %s does not exist.", repoPath)}, nil
		}
	}

	switch action {
	case "prepare_deployment":
		return core.ToolResult{Content: h.manager.Prepare(ctx, repoPath, core.MapArg(args, "deploy_config"))}, nil
	case "start_deployment":
		return core.ToolResult{Content: h.manager.Start(ctx, repoPath)}, nil
	case "get_status":
		return core.ToolResult{Content: h.manager.Status()}, nil
	case "abort_deployment":
		return core.ToolResult{Content: h.manager.Abort()}, nil
	case "detect_deployment_type":
		return core.ToolResult{Content: Detect(repoPath)}, nil
	default:
		return core.ToolResult{
			Content: fmt.Sprintf("Error: Unknown action '%s'. Available actions: prepare_deployment, start_deployment, get_status, abort_deployment, detect_deployment_type", action),
		}, nil
	}
}
