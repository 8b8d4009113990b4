// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package toolset

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/2kartheek10-droid/githubagent/agent"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type (
	// Session is a connected MCP client session.
	Session interface {
		// ListTools returns one page of tools and the cursor of the next page,
		// which is empty on the last page.
		ListTools(
			ctx context.Context,
			cursor string,
		) ([]agent.Tool, string, error)
		CallTool(
			ctx context.Context,
			name string,
			args map[string]any,
		) (*agent.ToolResult, error)
		Close() error
	}

	// Dialer connects to the server described by params. Every request of the
	// session must be sent with client.
	Dialer func(
		ctx context.Context,
		params TransportParams,
		client *http.Client,
	) (Session, error)

	mcpSession struct{ cs *mcp.ClientSession }
)

// Client identification sent during MCP initialization.
const (
	ClientName    = "githubagent"
	ClientVersion = "0.1.0"
)

// DialStreamableHTTP connects to an MCP server over the streamable HTTP
// transport.
func DialStreamableHTTP(
	ctx context.Context,
	params TransportParams,
	client *http.Client,
) (Session, error) {
	c := mcp.NewClient(&mcp.Implementation{
		Name:    ClientName,
		Version: ClientVersion,
	}, nil)

	cs, err := c.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint:   params.URL(),
		HTTPClient: client,
	}, nil)
	if err != nil {
		return nil, err
	}
	return &mcpSession{cs}, nil
}

func (s *mcpSession) ListTools(
	ctx context.Context,
	cursor string,
) ([]agent.Tool, string, error) {
	res, err := s.cs.ListTools(ctx, &mcp.ListToolsParams{Cursor: cursor})
	if err != nil {
		return nil, "", err
	}

	tools := make([]agent.Tool, 0, len(res.Tools))
	for _, t := range res.Tools {
		tools = append(tools, agent.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return tools, res.NextCursor, nil
}

func (s *mcpSession) CallTool(
	ctx context.Context,
	name string,
	args map[string]any,
) (*agent.ToolResult, error) {
	res, err := s.cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return nil, err
	}

	parts := make([]string, 0, len(res.Content))
	for _, c := range res.Content {
		if text, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
			continue
		}
		// Non-text content is passed to the model in its wire form.
		b, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		parts = append(parts, string(b))
	}

	return &agent.ToolResult{
		Content: strings.Join(parts, "\n"),
		IsError: res.IsError,
	}, nil
}

func (s *mcpSession) Close() error {
	return s.cs.Close()
}
