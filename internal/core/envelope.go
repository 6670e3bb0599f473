package core

// Protocol version advertised by initialize responses.
const ProtocolVersion = "0.1.0"

// Request type tags accepted on the wire.
const (
	TypeInitialize  = "initialize"
	TypeListTools   = "list_tools"
	TypeExecuteTool = "execute_tool"
)

// Response type tags.
const (
	TypeInitializeResult  = "initialize_result"
	TypeListToolsResult   = "list_tools_result"
	TypeExecuteToolResult = "execute_tool_result"
	TypeError             = "error"
)

// Request is the transport-neutral request envelope. Name and Arguments
// are meaningful only for execute_tool; Arguments defaults to an empty
// map when absent.
type Request struct {
	Type      string         `json:"type"`
	Name      string         `json:"name,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Response is the tagged-union reply envelope used by both transports.
// Exactly one payload group is populated for a given Type. Content is a
// pointer so an empty tool result still serializes as "content": "".
type Response struct {
	Type              string       `json:"type"`
	SupportedVersions []string     `json:"supportedVersions,omitempty"`
	Tools             []Descriptor `json:"tools,omitempty"`
	Content           *string      `json:"content,omitempty"`
	Message           string       `json:"message,omitempty"`
}

// ContentText returns the content payload, empty for non-result envelopes.
func (r Response) ContentText() string {
	if r.Content == nil {
		return ""
	}
	return *r.Content
}

func InitializeResult(tools []Descriptor) Response {
	return Response{
		Type:              TypeInitializeResult,
		SupportedVersions: []string{ProtocolVersion},
		Tools:             tools,
	}
}

func ListToolsResult(tools []Descriptor) Response {
	return Response{Type: TypeListToolsResult, Tools: tools}
}

func ExecuteToolResult(content string) Response {
	return Response{Type: TypeExecuteToolResult, Content: &content}
}

func ErrorResponse(message string) Response {
	return Response{Type: TypeError, Message: message}
}
