package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/param"
	"github.com/openai/openai-go/v2/shared"
	"github.com/openai/openai-go/v2/shared/constant"
)

// maxToolIterations bounds how many model turns a single query may take.
const maxToolIterations = 5

// Agent drives an OpenAI-compatible model against a tool server. The
// conversation history persists across queries, so follow-ups can refer
// to earlier answers and tool results.
type Agent struct {
	client  *Client
	oai     openai.Client
	model   string
	history []openai.ChatCompletionMessageParamUnion
}

// NewAgent builds an agent speaking to the given tool server client.
// opts configure the OpenAI SDK (API key, base URL).
func NewAgent(client *Client, model string, opts ...option.RequestOption) *Agent {
	return &Agent{
		client: client,
		oai:    openai.NewClient(opts...),
		model:  model,
	}
}

// ProcessQuery runs one user query through the model, executing any
// tool calls the model makes against the server, and returns the
// assistant text joined with the tool-call markers.
func (a *Agent) ProcessQuery(ctx context.Context, query string) (string, error) {
	a.history = append(a.history, openai.UserMessage(query))

	var finalText []string
	for i := 0; i < maxToolIterations; i++ {
		completion, err := a.oai.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(a.model),
			Messages: a.history,
			Tools:    a.toolDefinitions(),
		})
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(completion.Choices) == 0 {
			return "", fmt.Errorf("chat completion returned no choices")
		}
		msg := completion.Choices[0].Message

		if msg.Content != "" {
			finalText = append(finalText, msg.Content)
		}
		a.history = append(a.history, assistantTurn(msg))

		if len(msg.ToolCalls) == 0 {
			break
		}
		for _, tc := range msg.ToolCalls {
			var args map[string]any
			if tc.Function.Arguments != "" {
				if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
					return "", fmt.Errorf("decode arguments for tool %s: %w", tc.Function.Name, err)
				}
			}
			content, err := a.client.CallTool(ctx, tc.Function.Name, args)
			if err != nil {
				return "", err
			}
			finalText = append(finalText, fmt.Sprintf("[Called tool %s]", tc.Function.Name))
			a.history = append(a.history, openai.ToolMessage(content, tc.ID))
		}
	}

	return strings.Join(finalText, "\n\n"), nil
}

// toolDefinitions converts the cached server descriptors into OpenAI
// function-tool definitions.
func (a *Agent) toolDefinitions() []openai.ChatCompletionToolUnionParam {
	descriptors := a.client.Tools()
	defs := make([]openai.ChatCompletionToolUnionParam, 0, len(descriptors))
	for _, d := range descriptors {
		defs = append(defs, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        d.Name,
			Description: openai.String(d.Description),
			Parameters:  shared.FunctionParameters(d.InputSchema),
		}))
	}
	return defs
}

// assistantTurn converts a completion message back into the param shape
// the next request needs. Tool calls must ride on the assistant turn so
// the tool result messages that follow have a call to answer.
func assistantTurn(msg openai.ChatCompletionMessage) openai.ChatCompletionMessageParamUnion {
	assistant := openai.ChatCompletionAssistantMessageParam{}
	assistant.Content.OfString = param.NewOpt(msg.Content)
	for _, tc := range msg.ToolCalls {
		assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: tc.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Arguments: tc.Function.Arguments,
					Name:      tc.Function.Name,
				},
				Type: constant.Function("function"),
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}
