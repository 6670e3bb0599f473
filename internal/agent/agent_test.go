package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/openai/openai-go/v2/option"

	"github.com/tooldesk/tooldesk/internal/core"
)

const toolCallCompletion = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"choices": [{
		"index": 0,
		"finish_reason": "tool_calls",
		"message": {
			"role": "assistant",
			"content": "Let me check.",
			"tool_calls": [{
				"id": "call_1",
				"type": "function",
				"function": {"name": "echo", "arguments": "{\"text\":\"hi\"}"}
			}]
		}
	}]
}`

const finalCompletion = `{
	"id": "chatcmpl-2",
	"object": "chat.completion",
	"choices": [{
		"index": 0,
		"finish_reason": "stop",
		"message": {"role": "assistant", "content": "The tool said: echoed hi."}
	}]
}`

// scriptedModel serves canned chat completions in order and records the
// request bodies the agent sent.
type scriptedModel struct {
	mu        sync.Mutex
	responses []string
	requests  []map[string]any
}

func (m *scriptedModel) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			m.requests = append(m.requests, body)
		}
		if len(m.responses) == 0 {
			http.Error(w, "no scripted response", http.StatusBadRequest)
			return
		}
		resp := m.responses[0]
		m.responses = m.responses[1:]
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, resp)
	}
}

func (m *scriptedModel) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *scriptedModel) request(i int) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[i]
}

// countingTool serves a fixed envelope from /execute_tool and counts
// how often it ran.
type countingTool struct {
	mu    sync.Mutex
	count int
	resp  core.Response
}

func (c *countingTool) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.count++
		c.mu.Unlock()
		serveEnvelope(c.resp)(w, r)
	}
}

func (c *countingTool) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// testAgent wires an agent to a scripted model and a fake tool server
// whose echo tool records how often it ran.
func testAgent(t *testing.T, model *scriptedModel, execute http.HandlerFunc) *Agent {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/initialize", serveEnvelope(core.InitializeResult([]core.Descriptor{echoDescriptor()})))
	mux.HandleFunc("/list_tools", serveEnvelope(core.ListToolsResult([]core.Descriptor{echoDescriptor()})))
	if execute != nil {
		mux.HandleFunc("/execute_tool", execute)
	}
	toolSrv := httptest.NewServer(mux)
	t.Cleanup(toolSrv.Close)

	modelSrv := httptest.NewServer(model.handler())
	t.Cleanup(modelSrv.Close)

	client := NewClient(toolSrv.URL)
	if _, err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return NewAgent(client, "gpt-4o-mini",
		option.WithAPIKey("test-key"),
		option.WithBaseURL(modelSrv.URL),
		option.WithMaxRetries(0),
	)
}

func TestProcessQueryExecutesToolCalls(t *testing.T) {
	model := &scriptedModel{responses: []string{toolCallCompletion, finalCompletion}}
	tool := &countingTool{resp: core.ExecuteToolResult("echoed hi")}

	a := testAgent(t, model, tool.handler())
	out, err := a.ProcessQuery(context.Background(), "say hi")
	if err != nil {
		t.Fatalf("ProcessQuery: %v", err)
	}
	want := "Let me check.\n\n[Called tool echo]\n\nThe tool said: echoed hi."
	if out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}
	if tool.calls() != 1 {
		t.Fatalf("tool executed %d times, want 1", tool.calls())
	}
	if model.requestCount() != 2 {
		t.Fatalf("model called %d times, want 2", model.requestCount())
	}

	tools, ok := model.request(0)["tools"].([]any)
	if !ok || len(tools) != 1 {
		t.Fatalf("first request tools = %v", model.request(0)["tools"])
	}
	def, _ := tools[0].(map[string]any)
	fn, _ := def["function"].(map[string]any)
	if fn["name"] != "echo" {
		t.Fatalf("tool definition = %v", def)
	}

	// The second request must carry the assistant tool call and the
	// tool result so the model can see what happened.
	messages, ok := model.request(1)["messages"].([]any)
	if !ok || len(messages) != 3 {
		t.Fatalf("second request messages = %v", model.request(1)["messages"])
	}
	last, _ := messages[2].(map[string]any)
	if last["role"] != "tool" || last["tool_call_id"] != "call_1" {
		t.Fatalf("tool message = %v", last)
	}
}

func TestProcessQueryPlainAnswer(t *testing.T) {
	model := &scriptedModel{responses: []string{finalCompletion}}

	execute := func(w http.ResponseWriter, r *http.Request) {
		t.Error("tool executed for a plain answer")
	}

	a := testAgent(t, model, execute)
	out, err := a.ProcessQuery(context.Background(), "just answer")
	if err != nil {
		t.Fatalf("ProcessQuery: %v", err)
	}
	if out != "The tool said: echoed hi." {
		t.Fatalf("output = %q", out)
	}
	if model.requestCount() != 1 {
		t.Fatalf("model called %d times, want 1", model.requestCount())
	}
}

func TestProcessQueryKeepsHistory(t *testing.T) {
	model := &scriptedModel{responses: []string{finalCompletion, finalCompletion}}

	a := testAgent(t, model, nil)
	if _, err := a.ProcessQuery(context.Background(), "first"); err != nil {
		t.Fatalf("first query: %v", err)
	}
	if _, err := a.ProcessQuery(context.Background(), "second"); err != nil {
		t.Fatalf("second query: %v", err)
	}

	messages, ok := model.request(1)["messages"].([]any)
	if !ok || len(messages) != 3 {
		t.Fatalf("second request messages = %v", model.request(1)["messages"])
	}
	first, _ := messages[0].(map[string]any)
	if first["role"] != "user" || first["content"] != "first" {
		t.Fatalf("history start = %v", first)
	}
}

func TestProcessQueryStopsAfterMaxIterations(t *testing.T) {
	responses := make([]string, maxToolIterations)
	for i := range responses {
		responses[i] = toolCallCompletion
	}
	model := &scriptedModel{responses: responses}
	tool := &countingTool{resp: core.ExecuteToolResult("echoed hi")}

	a := testAgent(t, model, tool.handler())
	out, err := a.ProcessQuery(context.Background(), "loop forever")
	if err != nil {
		t.Fatalf("ProcessQuery: %v", err)
	}
	if model.requestCount() != maxToolIterations {
		t.Fatalf("model called %d times, want %d", model.requestCount(), maxToolIterations)
	}
	if tool.calls() != maxToolIterations {
		t.Fatalf("tool executed %d times, want %d", tool.calls(), maxToolIterations)
	}
	if got := strings.Count(out, "[Called tool echo]"); got != maxToolIterations {
		t.Fatalf("markers = %d, want %d", got, maxToolIterations)
	}
}

func TestProcessQueryToolFailure(t *testing.T) {
	model := &scriptedModel{responses: []string{toolCallCompletion}}

	execute := serveEnvelope(core.ErrorResponse("Workspace not initialized"))

	a := testAgent(t, model, execute)
	_, err := a.ProcessQuery(context.Background(), "break")
	if err == nil || err.Error() != "Workspace not initialized" {
		t.Fatalf("ProcessQuery error = %v", err)
	}
}
