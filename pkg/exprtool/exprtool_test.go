package exprtool

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwl-core/cwlrun/pkg/config"
	"github.com/cwl-core/cwlrun/pkg/sandbox"
	"github.com/cwl-core/cwlrun/pkg/wfError"
)

func doc(source string) map[string]interface{} {
	return map[string]interface{}{
		"class":      "ExpressionTool",
		"expression": map[string]interface{}{"value": source},
		"inputs": []interface{}{
			map[string]interface{}{"id": "#x", "depth": 0},
		},
	}
}

func TestTool_SquareScatter(t *testing.T) {
	r, err := New(doc("{result: inputs.x * inputs.x}"), "square.cwl", sandbox.NewExprEvaluator(5*time.Second), config.Testing())
	require.NoError(t, err)

	out, err := r.Run(map[string]interface{}{"x": []interface{}{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1, 4, 9}, out["result"])
}

func TestTool_MissingExpressionIsMalformed(t *testing.T) {
	_, err := New(map[string]interface{}{"class": "ExpressionTool"}, "bad.cwl", sandbox.NewExprEvaluator(time.Second), config.Testing())
	require.Error(t, err)
	assert.True(t, wfError.Of(err, wfError.KindMalformedDocument))
}

type failingEvaluator struct{}

func (failingEvaluator) Eval(map[string]interface{}, string) (interface{}, error) {
	return nil, errors.New("boom")
}

func TestTool_SandboxFailureSurfacesAsExpressionFailure(t *testing.T) {
	r, err := New(doc("inputs.x"), "tool.cwl", failingEvaluator{}, config.Testing())
	require.NoError(t, err)

	_, err = r.Run(map[string]interface{}{"x": 1})
	require.Error(t, err)
	assert.True(t, wfError.Of(err, wfError.KindExpressionFailure))
}
