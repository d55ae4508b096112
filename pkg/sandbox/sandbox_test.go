package sandbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExprEvaluator_BareExpression(t *testing.T) {
	e := NewExprEvaluator(time.Second)
	out, err := e.Eval(map[string]interface{}{"inputs": map[string]interface{}{"x": 3}}, "inputs.x * inputs.x")
	require.NoError(t, err)
	assert.Equal(t, 9, out)
}

func TestExprEvaluator_MapLiteralExpression(t *testing.T) {
	e := NewExprEvaluator(time.Second)
	out, err := e.Eval(map[string]interface{}{"inputs": map[string]interface{}{"x": 2}}, "{result: inputs.x + 1}")
	require.NoError(t, err)
	m := out.(map[string]interface{})
	assert.Equal(t, 3, m["result"])
}

func TestExprEvaluator_Helpers(t *testing.T) {
	e := NewExprEvaluator(time.Second)
	out, err := e.Eval(nil, `upper("ok")`)
	require.NoError(t, err)
	assert.Equal(t, "OK", out)
}

func TestExprEvaluator_CompileError(t *testing.T) {
	e := NewExprEvaluator(time.Second)
	_, err := e.Eval(nil, "inputs.x +")
	assert.Error(t, err)
}

func TestExprEvaluator_Timeout(t *testing.T) {
	e := NewExprEvaluator(10 * time.Millisecond)
	_, err := e.Eval(map[string]interface{}{"spin": func() bool {
		time.Sleep(200 * time.Millisecond)
		return true
	}}, "spin()")
	assert.Error(t, err)
}
