package hooks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shCommandRule(event Event, script string, timeoutMS int) Rule {
	return Rule{
		Event:     event,
		TimeoutMS: timeoutMS,
		Action:    Action{Kind: ActionCommand, Command: "sh", Args: []string{"-c", script}},
	}
}

func TestProcessRunnerTimeoutIsReportedAsHookExecutionError(t *testing.T) {
	ex := NewExecutor()
	rule := shCommandRule(PreToolUse, "sleep 5", 50)

	allowed, _, err := ex.dispatch(context.Background(), "PreToolUse[0]:command:sh", rule, nil, nil)
	assert.False(t, allowed)
	require.Error(t, err)
	var hookErr *HookExecutionError
	require.True(t, errors.As(err, &hookErr))
	assert.Equal(t, HookTimeout, hookErr.Code)
}

func TestExecuteFailClosedDeniesOnProcessRunnerTimeout(t *testing.T) {
	ex := NewExecutor()
	rule := shCommandRule(PreToolUse, "sleep 5", 50)
	rule.FailBehavior = FailClosed
	rule.explicitFailBehavior = true

	res := ex.Execute(context.Background(), PreToolUse, ExecContext{Input: map[string]any{}}, []Rule{rule})
	assert.False(t, res.Allowed)
}

func TestProcessRunnerNonZeroExitIsDeniedNotError(t *testing.T) {
	runner := processRunner{}
	rule := shCommandRule(PreToolUse, "exit 1", DefaultTimeoutMS)

	allowed, modified, err := runner.run(context.Background(), rule, nil, nil)
	assert.False(t, allowed)
	assert.Nil(t, modified)
	assert.NoError(t, err)
}

func TestProcessRunnerStdoutJSONBecomesModifiedInput(t *testing.T) {
	runner := processRunner{}
	rule := shCommandRule(PreToolUse, `echo '{"tool_name":"write_file"}'`, DefaultTimeoutMS)

	allowed, modified, err := runner.run(context.Background(), rule, nil, nil)
	require.NoError(t, err)
	assert.True(t, allowed)
	m, ok := modified.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "write_file", m["tool_name"])
}

func TestProcessRunnerNonJSONStdoutIsIgnored(t *testing.T) {
	runner := processRunner{}
	rule := shCommandRule(PreToolUse, `echo "not json"`, DefaultTimeoutMS)

	allowed, modified, err := runner.run(context.Background(), rule, nil, nil)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Nil(t, modified)
}

func TestProcessRunnerPassesHookInputEnvVar(t *testing.T) {
	runner := processRunner{}
	rule := shCommandRule(PreToolUse, `echo "{\"seen\":\"$HOOK_INPUT\"}"`, DefaultTimeoutMS)

	allowed, modified, err := runner.run(context.Background(), rule, "hello", nil)
	require.NoError(t, err)
	assert.True(t, allowed)
	m, ok := modified.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hello", m["seen"])
}

func TestProcessRunnerRespectsParentContextCancellation(t *testing.T) {
	runner := processRunner{}
	rule := shCommandRule(PreToolUse, "sleep 5", 5000)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := runner.run(ctx, rule, nil, nil)
	assert.Less(t, time.Since(start), 4*time.Second)
	_ = err
	assert.True(t, errors.Is(ctx.Err(), context.DeadlineExceeded))
}
