// Package agent implements the LLM-driven client: an HTTP client for
// the tool server plus a chat loop that lets an OpenAI-compatible model
// call the served tools.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tooldesk/tooldesk/internal/core"
)

// Client talks to a tool server over its HTTP surface.
type Client struct {
	baseURL string
	httpc   *http.Client
	tools   []core.Descriptor
}

// NewClient builds a client for the server at serverURL. Connect must
// succeed before CallTool or Tools are useful.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(serverURL, "/"),
		httpc:   &http.Client{Timeout: 5 * time.Minute},
	}
}

// Connect verifies the protocol handshake and caches the tool catalog.
func (c *Client) Connect(ctx context.Context) ([]core.Descriptor, error) {
	init, err := c.get(ctx, "/initialize", "failed to initialize connection")
	if err != nil {
		return nil, err
	}
	if init.Type != core.TypeInitializeResult {
		return nil, fmt.Errorf("unexpected response type: %s", init.Type)
	}

	list, err := c.get(ctx, "/list_tools", "failed to list tools")
	if err != nil {
		return nil, err
	}
	if list.Type != core.TypeListToolsResult {
		return nil, fmt.Errorf("unexpected response type: %s", list.Type)
	}

	c.tools = list.Tools
	return c.tools, nil
}

// Tools returns the descriptors cached by Connect.
func (c *Client) Tools() []core.Descriptor {
	return c.tools
}

// CallTool executes one tool on the server and returns its content. An
// error envelope comes back as an error carrying the envelope message.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	payload, err := json.Marshal(map[string]any{"name": name, "arguments": args})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute_tool", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to execute tool: %s", strings.TrimSpace(string(body)))
	}

	var envelope core.Response
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if envelope.Type == core.TypeError {
		return "", errors.New(envelope.Message)
	}
	return envelope.ContentText(), nil
}

func (c *Client) get(ctx context.Context, path, failPrefix string) (core.Response, error) {
	var envelope core.Response

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return envelope, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return envelope, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope, err
	}
	if resp.StatusCode != http.StatusOK {
		return envelope, fmt.Errorf("%s: %s", failPrefix, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return envelope, fmt.Errorf("decode response: %w", err)
	}
	return envelope, nil
}
