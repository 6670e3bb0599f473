package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tooldesk/tooldesk/internal/core"
)

const defaultTimeoutSeconds = 30

// Tool executes an arbitrary shell command and reports stdout, stderr,
// and the exit status as tool content. Failures are content for the
// calling model, never infrastructure errors.
func Tool() core.Tool {
	return core.Tool{
		Descriptor: core.Descriptor{
			Name:        "execute_command",
			Description: "Execute a command in the system shell and return the result",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"command": map[string]any{
						"type":        "string",
						"description": "The command to execute",
					},
					"working_dir": map[string]any{
						"type":        "string",
						"description": "The working directory to execute the command in (optional)",
					},
					"timeout": map[string]any{
						"type":        "number",
						"description": "Timeout in seconds (default: 30)",
					},
				},
				"required": []string{"command"},
			},
		},
		Handler: core.HandlerFunc(executeHandler),
	}
}

func executeHandler(ctx context.Context, args map[string]any) (core.ToolResult, error) {
	cmdline, _ := core.StringArg(args, "command")
	if cmdline == "" {
		return core.ToolResult{Content: "Error: Command not provided"}, nil
	}
	workingDir, _ := core.StringArg(args, "working_dir")
	timeoutSec, ok := core.NumberArg(args, "timeout")
	if !ok {
		timeoutSec = defaultTimeoutSeconds
	}

	res, err := Run(ctx, cmdline, Options{
		Dir:     workingDir,
		Timeout: time.Duration(timeoutSec * float64(time.Second)),
	})
	if err != nil {
		return core.ToolResult{Content: fmt.Sprintf("Error executing command: %s", err)}, nil
	}
	if res.TimedOut {
		return core.ToolResult{Content: fmt.Sprintf("Error: Command execution timed out after %s seconds", formatSeconds(timeoutSec))}, nil
	}

	if res.ExitCode != 0 {
		return core.ToolResult{
			Content: fmt.Sprintf("Command execution failed with exit code %d:\n\nSTDOUT:\n%s\n\nSTDERR:\n%s", res.ExitCode, res.Stdout, res.Stderr),
		}, nil
	}

	content := fmt.Sprintf("Command executed successfully:\n\nSTDOUT:\n%s", res.Stdout)
	if strings.TrimSpace(res.Stderr) != "" {
		content += fmt.Sprintf("\n\nSTDERR:\n%s", res.Stderr)
	}
	return core.ToolResult{Content: content}, nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
