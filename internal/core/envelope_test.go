package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestResponseJSONShapes(t *testing.T) {
	init, err := json.Marshal(InitializeResult([]Descriptor{{
		Name:        "get_time",
		Description: "current time",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
	}}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(init)
	if !strings.Contains(s, `"type":"initialize_result"`) ||
		!strings.Contains(s, `"supportedVersions":["0.1.0"]`) ||
		!strings.Contains(s, `"inputSchema"`) {
		t.Fatalf("unexpected initialize payload: %s", s)
	}
	if strings.Contains(s, `"content"`) || strings.Contains(s, `"message"`) {
		t.Fatalf("initialize payload must omit content and message: %s", s)
	}

	errResp, err := json.Marshal(ErrorResponse("Tool 'x' not found"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(errResp) != `{"type":"error","message":"Tool 'x' not found"}` {
		t.Fatalf("unexpected error payload: %s", errResp)
	}
}

func TestExecuteToolResultKeepsEmptyContent(t *testing.T) {
	out, err := json.Marshal(ExecuteToolResult(""))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"type":"execute_tool_result","content":""}` {
		t.Fatalf("empty content must still serialize: %s", out)
	}
}
