// Package gitrepo implements the github_repo tool: cloning a repository
// into a scratch directory and inspecting the clone.
package gitrepo

import (
	"context"
	"fmt"

	"github.com/tooldesk/tooldesk/internal/core"
	"github.com/tooldesk/tooldesk/internal/github"
)

// RepoAPI is the optional GitHub metadata source used by get_repo_info.
// A nil RepoAPI disables enrichment, not the action.
type RepoAPI interface {
	GetRepo(ctx context.Context, owner, repo string) (*github.Repo, error)
}

type handler struct {
	repoCtx *core.RepoContext
	api     RepoAPI
}

// Tool builds the github_repo tool around the shared repository context.
func Tool(repoCtx *core.RepoContext, api RepoAPI) core.Tool {
	h := &handler{repoCtx: repoCtx, api: api}
	return core.Tool{
		Descriptor: core.Descriptor{
			Name:        "github_repo",
			Description: "Clone and analyze GitHub repositories",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"action": map[string]any{
						"type":        "string",
						"description": "The action to perform",
						"enum":        []string{"clone", "list_files", "read_file", "get_repo_info"},
					},
					"repo_url": map[string]any{
						"type":        "string",
						"description": "The URL of the GitHub repository",
					},
					"path": map[string]any{
						"type":        "string",
						"description": "The path to list files from (for list_files action)",
					},
					"file_path": map[string]any{
						"type":        "string",
						"description": "The path of the file to read (for read_file action)",
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
	switch action {
	case "clone":
		return h.clone(ctx, args)
	case "list_files":
		return h.listFiles(args)
	case "read_file":
		return h.readFile(args)
	case "get_repo_info":
		return h.repoInfo(ctx)
	default:
		return core.ToolResult{
			Content: fmt.Sprintf("Error: Unknown action '%s'. Available actions: clone, list_files, read_file, get_repo_info", action),
		}, nil
	}
}
