// Package core holds the transport-neutral pieces of the tool server:
// the tool registry, the dispatch loop, the wire envelopes, and the
// shared repository context.
package core

import "context"

// ToolResult wraps the single string payload a handler produces.
// Tool-level failures are normal results whose content is a descriptive
// "Error: ..." string; a non-nil Go error from a handler means the
// handler itself broke, not the tool invocation.
type ToolResult struct {
	Content string
}

// Handler is the executable behavior bound to a tool.
type Handler interface {
	Execute(ctx context.Context, args map[string]any) (ToolResult, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, args map[string]any) (ToolResult, error)

func (f HandlerFunc) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	return f(ctx, args)
}

// Descriptor is the wire-visible description of one tool. InputSchema is
// a JSON-Schema-shaped object map; the wire key is camelCase for client
// compatibility.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Tool binds a descriptor to its handler instance.
type Tool struct {
	Descriptor
	Handler Handler
}

// StringArg returns args[key] as a string. The bool reports whether the
// key held a string value.
func StringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	return v, ok
}

// NumberArg returns args[key] as a float64. JSON numbers decode to
// float64; integer literals from in-process callers are accepted too.
func NumberArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// BoolArg returns args[key] as a bool, false when absent.
func BoolArg(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

// MapArg returns args[key] as an object map, nil when absent.
func MapArg(args map[string]any, key string) map[string]any {
	v, _ := args[key].(map[string]any)
	return v
}

// SliceArg returns args[key] as a generic slice, nil when absent.
func SliceArg(args map[string]any, key string) []any {
	v, _ := args[key].([]any)
	return v
}
