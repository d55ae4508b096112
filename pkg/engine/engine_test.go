package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwl-core/cwlrun/pkg/config"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEngine_RunExpressionToolAssignsExecutionID(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "double.cwl", `
class: ExpressionTool
inputs:
  id: "#x"
  depth: 0
expression:
  value: "{ result: inputs.x * 2 }"
`)

	e := New(WithConfig(config.Testing()))
	result, err := e.Run(context.Background(), path, map[string]interface{}{"x": 21})
	require.NoError(t, err)

	assert.NotEmpty(t, result.ExecutionID)
	assert.EqualValues(t, 42, result.Outputs["result"])
}

func TestEngine_LoadReturnsReusableRunnable(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "triple.cwl", `
class: ExpressionTool
inputs:
  id: "#x"
  depth: 0
expression:
  value: "{ result: inputs.x * 3 }"
`)

	e := New(WithConfig(config.Testing()))
	r, err := e.Load(path)
	require.NoError(t, err)

	first, err := r.Run(map[string]interface{}{"x": 2})
	require.NoError(t, err)
	second, err := r.Run(map[string]interface{}{"x": 5})
	require.NoError(t, err)

	assert.EqualValues(t, 6, first["result"])
	assert.EqualValues(t, 15, second["result"])
}

func TestEngine_RunPropagatesLoadError(t *testing.T) {
	e := New(WithConfig(config.Testing()))
	_, err := e.Run(context.Background(), "/nonexistent/path.cwl", map[string]interface{}{})
	require.Error(t, err)
}
