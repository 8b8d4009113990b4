// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package agent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/2kartheek10-droid/githubagent/agent"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type (
	mockModel struct{ mock.Mock }
	mockConn  struct{ mock.Mock }
)

func (m *mockModel) Name() string { return "mock-model" }

func (m *mockModel) Generate(
	ctx context.Context,
	req *agent.Request,
) (*agent.Response, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*agent.Response)
	return res, args.Error(1)
}

func (m *mockConn) Name() string {
	return m.Called().String(0)
}

func (m *mockConn) ListTools(ctx context.Context) ([]agent.Tool, error) {
	args := m.Called(ctx)
	tools, _ := args.Get(0).([]agent.Tool)
	return tools, args.Error(1)
}

func (m *mockConn) CallTool(
	ctx context.Context,
	name string,
	params map[string]any,
) (*agent.ToolResult, error) {
	args := m.Called(ctx, name, params)
	res, _ := args.Get(0).(*agent.ToolResult)
	return res, args.Error(1)
}

func (m *mockConn) Close() error {
	return m.Called().Error(0)
}

func newConn(name string, tools ...agent.Tool) *mockConn {
	conn := &mockConn{}
	conn.On("Name").Return(name)
	conn.On("ListTools", mock.Anything).Return(tools, nil).Maybe()
	return conn
}

var getIssue = agent.Tool{
	Name:        "get_issue",
	Description: "Get details of a specific issue.",
	InputSchema: map[string]any{"type": "object"},
}

func TestNewValidation(t *testing.T) {
	model := &mockModel{}

	tests := map[string]struct {
		name  string
		model agent.Model
		opts  []agent.Option
		field string
	}{
		"empty name":     {"", model, nil, "name"},
		"invalid name":   {"github agent", model, nil, "name"},
		"reserved name":  {"user", model, nil, "name"},
		"nil model":      {"github_agent", nil, nil, "model"},
		"zero max turns": {"a", model, []agent.Option{
			agent.WithMaxTurns(0),
		}, "MaxTurns"},
		"nil tool": {"a", model, []agent.Option{
			agent.WithTools(nil),
		}, "Tools"},
		"duplicate tools": {"a", model, []agent.Option{
			agent.WithTools(newConn("github"), newConn("github")),
		}, "Tools"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			a, err := agent.New(test.name, test.model, test.opts...)
			require.Nil(t, a)

			var valErr *agent.ValidationError
			require.ErrorAs(t, err, &valErr)
			require.Equal(t, test.field, valErr.Name)
		})
	}
}

func TestNewOptions(t *testing.T) {
	model := &mockModel{}
	a, err := agent.New("github_agent", model,
		&agent.Options{Instruction: "Be brief.", MaxTurns: 3},
		agent.WithDescription("Analyzes GitHub issues."),
	)
	require.NoError(t, err)

	require.Equal(t, "github_agent", a.Name())
	require.Equal(t, "Analyzes GitHub issues.", a.Description())
	require.Equal(t, "Be brief.", a.Instruction())
	require.Same(t, model, a.Model())
}

func TestRunWithoutTools(t *testing.T) {
	model := &mockModel{}
	model.On("Generate", mock.Anything, mock.MatchedBy(
		func(req *agent.Request) bool {
			return req.Instruction == "Be brief." &&
				len(req.Messages) == 1 &&
				req.Messages[0].Role == agent.RoleUser &&
				req.Messages[0].Text == "hello" &&
				len(req.Tools) == 0
		},
	)).Return(&agent.Response{Text: "hi"}, nil).Once()

	a, err := agent.New("github_agent", model,
		agent.WithInstruction("Be brief."),
	)
	require.NoError(t, err)

	answer, err := a.Run(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "hi", answer)
	model.AssertExpectations(t)
}

func TestRunCallsTools(t *testing.T) {
	ctx := context.Background()
	args := map[string]any{"owner": "octo", "repo": "demo", "issue": 7.0}

	conn := newConn("github", getIssue)
	conn.On("CallTool", mock.Anything, "get_issue", args).
		Return(&agent.ToolResult{Content: `{"title":"crash"}`}, nil).
		Once()

	model := &mockModel{}
	model.On("Generate", mock.Anything, mock.MatchedBy(
		func(req *agent.Request) bool { return len(req.Messages) == 1 },
	)).Return(&agent.Response{ToolCalls: []agent.ToolCall{{
		ID:   "call-1",
		Name: "get_issue",
		Args: args,
	}}}, nil).Once()
	model.On("Generate", mock.Anything, mock.MatchedBy(
		func(req *agent.Request) bool {
			if len(req.Messages) != 3 {
				return false
			}
			res := req.Messages[2]
			return req.Messages[1].Role == agent.RoleModel &&
				res.Role == agent.RoleUser &&
				len(res.ToolResponses) == 1 &&
				res.ToolResponses[0].ID == "call-1" &&
				res.ToolResponses[0].Result.Content == `{"title":"crash"}`
		},
	)).Return(&agent.Response{Text: "Issue 7 reports a crash."}, nil).Once()

	a, err := agent.New("github_agent", model, agent.WithTools(conn))
	require.NoError(t, err)

	tools, err := a.ListTools(ctx)
	require.NoError(t, err)
	require.Equal(t, []agent.Tool{getIssue}, tools)

	answer, err := a.Run(ctx, "What is issue 7 about?")
	require.NoError(t, err)
	require.Equal(t, "Issue 7 reports a crash.", answer)

	model.AssertExpectations(t)
	conn.AssertExpectations(t)
}

func TestRunReportsToolFailuresToModel(t *testing.T) {
	conn := newConn("github", getIssue)
	conn.On("CallTool", mock.Anything, "get_issue", mock.Anything).
		Return(nil, errors.New("not found")).
		Once()

	model := &mockModel{}
	model.On("Generate", mock.Anything, mock.MatchedBy(
		func(req *agent.Request) bool { return len(req.Messages) == 1 },
	)).Return(&agent.Response{ToolCalls: []agent.ToolCall{
		{ID: "1", Name: "get_issue"},
		{ID: "2", Name: "delete_repo"},
	}}, nil).Once()
	model.On("Generate", mock.Anything, mock.MatchedBy(
		func(req *agent.Request) bool {
			if len(req.Messages) != 3 {
				return false
			}
			res := req.Messages[2].ToolResponses
			return len(res) == 2 &&
				res[0].Result.IsError &&
				res[0].Result.Content == "not found" &&
				res[1].Result.IsError &&
				res[1].Name == "delete_repo"
		},
	)).Return(&agent.Response{Text: "I could not find it."}, nil).Once()

	a, err := agent.New("github_agent", model, agent.WithTools(conn))
	require.NoError(t, err)

	answer, err := a.Run(context.Background(), "issue?")
	require.NoError(t, err)
	require.Equal(t, "I could not find it.", answer)
	model.AssertExpectations(t)
}

func TestRunTurnLimit(t *testing.T) {
	conn := newConn("github", getIssue)
	conn.On("CallTool", mock.Anything, "get_issue", mock.Anything).
		Return(&agent.ToolResult{Content: "{}"}, nil)

	model := &mockModel{}
	model.On("Generate", mock.Anything, mock.Anything).
		Return(&agent.Response{ToolCalls: []agent.ToolCall{
			{Name: "get_issue"},
		}}, nil)

	a, err := agent.New("github_agent", model,
		agent.WithTools(conn),
		agent.WithMaxTurns(2),
	)
	require.NoError(t, err)

	_, err = a.Run(context.Background(), "loop")

	var limitErr *agent.TurnLimitError
	require.ErrorAs(t, err, &limitErr)
	require.Equal(t, 2, limitErr.Turns)
	model.AssertNumberOfCalls(t, "Generate", 2)
}

func TestRunStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	conn := newConn("github", getIssue)
	conn.On("CallTool", mock.Anything, "get_issue", mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled).
		Once()

	model := &mockModel{}
	model.On("Generate", mock.Anything, mock.Anything).
		Return(&agent.Response{ToolCalls: []agent.ToolCall{
			{Name: "get_issue"},
		}}, nil).
		Once()

	a, err := agent.New("github_agent", model, agent.WithTools(conn))
	require.NoError(t, err)

	_, err = a.Run(ctx, "issue?")
	require.ErrorIs(t, err, context.Canceled)
	model.AssertExpectations(t)
}

func TestRunPropagatesModelErrors(t *testing.T) {
	model := &mockModel{}
	model.On("Generate", mock.Anything, mock.Anything).
		Return(nil, errors.New("quota")).
		Once()

	a, err := agent.New("github_agent", model)
	require.NoError(t, err)

	_, err = a.Run(context.Background(), "hello")
	require.EqualError(t, err, "quota")
}

func TestDuplicateToolNames(t *testing.T) {
	model := &mockModel{}
	a, err := agent.New("github_agent", model, agent.WithTools(
		newConn("one", getIssue),
		newConn("two", getIssue),
	))
	require.NoError(t, err)

	_, err = a.Run(context.Background(), "hello")
	require.ErrorContains(t, err, `tool "get_issue" of two is already provided`)
	model.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestClose(t *testing.T) {
	ok := newConn("one")
	ok.On("Close").Return(nil).Once()
	bad := newConn("two")
	bad.On("Close").Return(errors.New("boom")).Once()

	a, err := agent.New("github_agent", &mockModel{},
		agent.WithTools(ok, bad),
	)
	require.NoError(t, err)

	require.EqualError(t, a.Close(), "closing two: boom")
	ok.AssertExpectations(t)
	bad.AssertExpectations(t)
}
