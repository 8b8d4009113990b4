// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package agent

import "context"

type (
	// Tool describes a tool offered by a ToolConnection. InputSchema is a JSON
	// Schema document in its decoded form, passed to the model unchanged.
	Tool struct {
		Name        string
		Description string
		InputSchema any
	}

	// ToolResult is the output of a tool invocation. IsError reports a failure
	// the tool itself described in Content; the call still reached the tool.
	ToolResult struct {
		Content string
		IsError bool
	}

	// ToolConnection is a live source of tools, such as an MCP server session.
	ToolConnection interface {
		Name() string
		ListTools(ctx context.Context) ([]Tool, error)
		CallTool(
			ctx context.Context,
			name string,
			args map[string]any,
		) (*ToolResult, error)
		Close() error
	}

	// Role identifies the author of a Message.
	Role string

	// Message is one turn of a conversation. A model turn may request tool
	// calls; the following user turn carries their responses.
	Message struct {
		Role          Role
		Text          string
		ToolCalls     []ToolCall
		ToolResponses []ToolResponse
	}

	// ToolCall is a tool invocation requested by the model.
	ToolCall struct {
		ID   string
		Name string
		Args map[string]any
	}

	// ToolResponse answers the ToolCall with the same ID and Name.
	ToolResponse struct {
		ID     string
		Name   string
		Result ToolResult
	}

	// Request is everything a Model needs to produce the next turn.
	Request struct {
		Instruction string
		Messages    []Message
		Tools       []Tool
	}

	// Response is the model's next turn. When ToolCalls is empty, Text is the
	// final answer.
	Response struct {
		Text      string
		ToolCalls []ToolCall
	}

	// Model is a hosted language model capable of function calling.
	Model interface {
		Name() string
		Generate(ctx context.Context, req *Request) (*Response, error)
	}
)

// Conversation roles.
const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)
