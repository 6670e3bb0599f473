package workspace

import (
	"context"
	"fmt"

	"github.com/tooldesk/tooldesk/internal/core"
)

type handler struct {
	ws *Workspace
}

// Tool builds the workspace tool around shared workspace state. Every
// action except initialize requires a prior successful initialize.
func Tool(ws *Workspace) core.Tool {
	h := &handler{ws: ws}
	return core.Tool{
		Descriptor: core.Descriptor{
			Name:        "workspace",
			Description: "Read, write, and test code in a local workspace",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"action": map[string]any{
						"type":        "string",
						"description": "The workspace action to perform",
						"enum":        []string{"initialize", "read_file", "write_file", "list_files", "run_command", "run_test", "run_format", "git_commit"},
					},
					"workspace_path": map[string]any{
						"type":        "string",
						"description": "The directory to use as the workspace (for initialize)",
					},
					"auto_init_git": map[string]any{
						"type":        "boolean",
						"description": "Create a git repository when the workspace has none (for initialize)",
					},
					"file_path": map[string]any{
						"type":        "string",
						"description": "File path relative to the workspace (for read_file and write_file)",
					},
					"content": map[string]any{
						"type":        "string",
						"description": "The content to write (for write_file)",
					},
					"subdir": map[string]any{
						"type":        "string",
						"description": "Subdirectory to list (for list_files)",
					},
					"pattern": map[string]any{
						"type":        "string",
						"description": "Glob pattern for list_files, default *",
					},
					"command": map[string]any{
						"type":        "string",
						"description": "Shell command to run in the workspace (for run_command)",
					},
					"test_selector": map[string]any{
						"type":        "string",
						"description": "Selector appended to the configured test command (for run_test)",
					},
					"message": map[string]any{
						"type":        "string",
						"description": "Commit message (for git_commit)",
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
	case "initialize":
		path, _ := core.StringArg(args, "workspace_path")
		return core.ToolResult{Content: h.ws.Initialize(ctx, path, core.BoolArg(args, "auto_init_git"))}, nil
	case "read_file":
		path, _ := core.StringArg(args, "file_path")
		return core.ToolResult{Content: h.ws.ReadFile(path)}, nil
	case "write_file":
		path, _ := core.StringArg(args, "file_path")
		content, _ := core.StringArg(args, "content")
		return core.ToolResult{Content: h.ws.WriteFile(path, content)}, nil
	case "list_files":
		subdir, _ := core.StringArg(args, "subdir")
		pattern, _ := core.StringArg(args, "pattern")
		return core.ToolResult{Content: h.ws.ListFiles(subdir, pattern)}, nil
	case "run_command":
		cmd, _ := core.StringArg(args, "command")
		return core.ToolResult{Content: h.ws.RunCommand(ctx, cmd)}, nil
	case "run_test":
		selector, _ := core.StringArg(args, "test_selector")
		return core.ToolResult{Content: h.ws.RunTest(ctx, selector)}, nil
	case "run_format":
		return core.ToolResult{Content: h.ws.RunFormat(ctx)}, nil
	case "git_commit":
		message, _ := core.StringArg(args, "message")
		return core.ToolResult{Content: h.ws.GitCommit(ctx, message)}, nil
	default:
		return core.ToolResult{
			Content: fmt.Sprintf("Error: Unknown action '%s'. Available actions: initialize, read_file, write_file, list_files, run_command, run_test, run_format, git_commit", action),
		}, nil
	}
}
