package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tooldesk/tooldesk/internal/telemetry"
)

type ctxKey string

const ctxKeyTraceID ctxKey = "trace_id"

// WithTraceID attaches a trace id to the context. Transports call this
// once per request so log lines and audit rows correlate.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKeyTraceID, traceID)
}

// TraceIDFrom returns the trace id on the context, generating one when
// the transport did not set any.
func TraceIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKeyTraceID).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

// ToolCallRecord is one audited execute_tool invocation.
type ToolCallRecord struct {
	TraceID   string
	Tool      string
	Arguments map[string]any
	Content   string
	Status    string
	Duration  time.Duration
}

// Recorder is the dispatcher's optional audit sink. A nil recorder
// disables auditing; recording failures are logged, never surfaced to
// the caller.
type Recorder interface {
	RecordToolCall(ctx context.Context, rec ToolCallRecord) error
}

// Dispatcher routes transport-neutral requests to handlers and wraps the
// outcome in a response envelope. Dispatcher-level failures (unknown
// tool, invalid arguments, handler error) are always recovered locally
// and surfaced as an error envelope, never as a transport failure.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
	recorder Recorder
}

func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, logger: logger}
}

// SetRecorder installs the audit sink. Call before serving traffic.
func (d *Dispatcher) SetRecorder(r Recorder) {
	d.recorder = r
}

// Initialize returns the full catalog plus the supported protocol versions.
func (d *Dispatcher) Initialize() Response {
	return InitializeResult(d.registry.List())
}

// ListTools returns the same catalog under its own envelope tag. The
// wire protocol models initialize and list_tools as separate operations
// for client compatibility; both stay.
func (d *Dispatcher) ListTools() Response {
	return ListToolsResult(d.registry.List())
}

// ExecuteTool resolves name, validates args against the tool's declared
// schema, invokes the handler, and wraps the result. Handlers never
// crash the dispatcher: panics and returned errors both become error
// envelopes.
func (d *Dispatcher) ExecuteTool(ctx context.Context, name string, args map[string]any) Response {
	if args == nil {
		args = map[string]any{}
	}
	start := time.Now()
	resp := d.executeTool(ctx, name, args)
	d.finish(ctx, name, args, resp, time.Since(start))
	return resp
}

func (d *Dispatcher) executeTool(ctx context.Context, name string, args map[string]any) Response {
	handler, ok := d.registry.Resolve(name)
	if !ok {
		return ErrorResponse(fmt.Sprintf("Tool '%s' not found", name))
	}

	desc, _ := d.registry.Describe(name)
	if err := ValidateArgs(desc, args); err != nil {
		return ErrorResponse(fmt.Sprintf("Invalid arguments for tool '%s': %s", name, err))
	}

	result, err := safeExecute(ctx, handler, args)
	if err != nil {
		return ErrorResponse(fmt.Sprintf("Error executing tool: %s", err))
	}
	return ExecuteToolResult(result.Content)
}

func (d *Dispatcher) finish(ctx context.Context, name string, args map[string]any, resp Response, duration time.Duration) {
	status := "ok"
	if resp.Type == TypeError {
		status = "error"
	}
	traceID := TraceIDFrom(ctx)

	telemetry.IncToolCall(name, status)
	telemetry.ObserveToolDuration(name, duration)
	d.logger.Info("tool call completed",
		"trace_id", traceID,
		"tool", name,
		"status", status,
		"duration_ms", duration.Milliseconds(),
	)

	if d.recorder == nil {
		return
	}
	rec := ToolCallRecord{
		TraceID:   traceID,
		Tool:      name,
		Arguments: args,
		Status:    status,
		Duration:  duration,
	}
	if resp.Type == TypeError {
		rec.Content = resp.Message
	} else {
		rec.Content = resp.ContentText()
	}
	if err := d.recorder.RecordToolCall(ctx, rec); err != nil {
		d.logger.Error("tool call audit failed", "trace_id", traceID, "tool", name, "err", err)
	}
}

func safeExecute(ctx context.Context, h Handler, args map[string]any) (result ToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return h.Execute(ctx, args)
}
