// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package gemini

import (
	"fmt"
	"strings"

	"github.com/2kartheek10-droid/githubagent/agent"
	"google.golang.org/genai"
)

// Keys of a function response, as the Gemini API expects them.
const (
	responseOutput = "output"
	responseError  = "error"
)

func (m *Model) request(
	req *agent.Request,
) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{
		Temperature:     m.temperature,
		MaxOutputTokens: m.maxOutputTokens,
	}

	if req.Instruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.Instruction}},
		}
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 t.Name,
				Description:          t.Description,
				ParametersJsonSchema: t.InputSchema,
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if c := content(msg); len(c.Parts) > 0 {
			contents = append(contents, c)
		}
	}
	return contents, config
}

func content(msg agent.Message) *genai.Content {
	role := string(genai.RoleUser)
	if msg.Role == agent.RoleModel {
		role = string(genai.RoleModel)
	}

	c := &genai.Content{Role: role}
	if msg.Text != "" {
		c.Parts = append(c.Parts, &genai.Part{Text: msg.Text})
	}
	for _, call := range msg.ToolCalls {
		c.Parts = append(c.Parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   call.ID,
				Name: call.Name,
				Args: call.Args,
			},
		})
	}
	for _, res := range msg.ToolResponses {
		key := responseOutput
		if res.Result.IsError {
			key = responseError
		}
		c.Parts = append(c.Parts, &genai.Part{
			FunctionResponse: &genai.FunctionResponse{
				ID:       res.ID,
				Name:     res.Name,
				Response: map[string]any{key: res.Result.Content},
			},
		})
	}
	return c
}

// Thought parts are the model's reasoning and never part of the answer.
func response(res *genai.GenerateContentResponse) (*agent.Response, error) {
	if res == nil || len(res.Candidates) == 0 ||
		res.Candidates[0].Content == nil {
		reason := ""
		if res != nil && res.PromptFeedback != nil {
			reason = fmt.Sprint(res.PromptFeedback.BlockReason)
		}
		return nil, &EmptyResponseError{Reason: reason}
	}

	var text strings.Builder
	out := &agent.Response{}
	for _, p := range res.Candidates[0].Content.Parts {
		switch {
		case p == nil || p.Thought:
		case p.FunctionCall != nil:
			out.ToolCalls = append(out.ToolCalls, agent.ToolCall{
				ID:   p.FunctionCall.ID,
				Name: p.FunctionCall.Name,
				Args: p.FunctionCall.Args,
			})
		default:
			text.WriteString(p.Text)
		}
	}
	out.Text = text.String()
	return out, nil
}
