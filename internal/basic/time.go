package basic

import (
	"context"
	"time"

	"github.com/tooldesk/tooldesk/internal/core"
)

// TimeTool reports the server's current local time.
func TimeTool() core.Tool {
	return core.Tool{
		Descriptor: core.Descriptor{
			Name:        "get_time",
			Description: "Get the current time",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
				"required":   []string{},
			},
		},
		Handler: core.HandlerFunc(func(ctx context.Context, args map[string]any) (core.ToolResult, error) {
			return core.ToolResult{Content: time.Now().Format("2006-01-02 15:04:05")}, nil
		}),
	}
}
