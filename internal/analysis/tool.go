// Package analysis implements the analyze_code tool: language
// statistics, TODO scanning, complexity reports, code search, and
// dependency discovery over a checked-out repository.
package analysis

import (
	"context"
	"fmt"
	"os"

	"github.com/tooldesk/tooldesk/internal/core"
)

type handler struct {
	repoCtx *core.RepoContext
}

// Tool builds the analyze_code tool. The repo_path argument falls back
// to the shared repository context when absent.
func Tool(repoCtx *core.RepoContext) core.Tool {
	h := &handler{repoCtx: repoCtx}
	return core.Tool{
		Descriptor: core.Descriptor{
			Name:        "analyze_code",
			Description: "Analyze code in the repository",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"action": map[string]any{
						"type":        "string",
						"description": "The analysis action to perform",
						"enum":        []string{"analyze_languages", "find_todos", "analyze_complexity", "search_code", "get_dependencies"},
					},
					"repo_path": map[string]any{
						"type":        "string",
						"description": "The path to the repository",
					},
					"file_path": map[string]any{
						"type":        "string",
						"description": "The path of the file to analyze (for analyze_complexity action)",
					},
					"query": map[string]any{
						"type":        "string",
						"description": "The search query (for search_code action)",
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
	if repoPath == "" {
		return core.ToolResult{Content: "Error: Repository path not provided. Please clone a repository first."}, nil
	}
	if _, err := os.Stat(repoPath); err != nil {
		return core.ToolResult{Content: fmt.Sprintf("Error: Repository path %s does not exist.", repoPath)}, nil
	}

	switch action {
	case "analyze_languages":
		return analyzeLanguages(repoPath)
	case "find_todos":
		return findTodos(repoPath)
	case "analyze_complexity":
		filePath, _ := core.StringArg(args, "file_path")
		return analyzeComplexity(ctx, repoPath, filePath)
	case "search_code":
		query, _ := core.StringArg(args, "query")
		return searchCode(ctx, repoPath, query)
	case "get_dependencies":
		return getDependencies(repoPath)
	default:
		return core.ToolResult{
			Content: fmt.Sprintf("Error: Unknown action '%s'. Available actions: analyze_languages, find_todos, analyze_complexity, search_code, get_dependencies", action),
		}, nil
	}
}
