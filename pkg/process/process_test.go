package process

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwl-core/cwlrun/pkg/config"
	"github.com/cwl-core/cwlrun/pkg/value"
	"github.com/cwl-core/cwlrun/pkg/wfError"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.WorkDirRoot = t.TempDir()
	return cfg
}

func TestTool_StdoutRedirectionAndFileOutputBinding(t *testing.T) {
	doc := map[string]interface{}{
		"class":         "CommandLineTool",
		"baseCmd":       []interface{}{"echo"},
		"arguments":     []interface{}{"hi"},
		"stdout":        "outfile",
		"inputs":        []interface{}{map[string]interface{}{"id": "#outfile", "depth": 0}},
		"outputs": []interface{}{
			map[string]interface{}{
				"id":            "#output",
				"type":          "File",
				"outputBinding": map[string]interface{}{"glob": "output.txt"},
			},
		},
	}

	r, err := New(doc, "echo-tool.cwl", testConfig(t))
	require.NoError(t, err)

	out, err := r.Run(map[string]interface{}{"outfile": "output.txt"})
	require.NoError(t, err)

	file, ok := out["output"].(map[string]interface{})
	require.True(t, ok)
	assert.True(t, value.IsFile(file))
	assert.Equal(t, map[string]interface{}{"name": "output.txt"}, value.Basename(file))
}

func TestTool_ArrayOfFileOutputs(t *testing.T) {
	doc := map[string]interface{}{
		"class":     "CommandLineTool",
		"baseCmd":   []interface{}{"touch"},
		"arguments": []interface{}{"a.out", "b.out"},
		"outputs": []interface{}{
			map[string]interface{}{
				"id":            "#files",
				"type":          map[string]interface{}{"type": "array"},
				"outputBinding": map[string]interface{}{"glob": "*.out"},
			},
		},
	}

	r, err := New(doc, "multi-tool.cwl", testConfig(t))
	require.NoError(t, err)

	out, err := r.Run(map[string]interface{}{})
	require.NoError(t, err)
	assert.Len(t, out["files"], 2)
	assert.Equal(t,
		[]interface{}{map[string]interface{}{"name": "a.out"}, map[string]interface{}{"name": "b.out"}},
		value.Basename(out["files"]))
}

func TestTool_NonZeroExitIsProcessFailed(t *testing.T) {
	doc := map[string]interface{}{
		"class":   "CommandLineTool",
		"baseCmd": []interface{}{"false"},
	}

	r, err := New(doc, "failing.cwl", testConfig(t))
	require.NoError(t, err)

	_, err = r.Run(map[string]interface{}{})
	require.Error(t, err)
	assert.True(t, wfError.Of(err, wfError.KindProcessFailed))
}

func TestTool_SelfDescribedResultTakesPrecedence(t *testing.T) {
	fixture := filepath.Join(t.TempDir(), "result.cwl.json")
	require.NoError(t, os.WriteFile(fixture, []byte(`{"output": 42}`), 0o644))

	doc := map[string]interface{}{
		"class":   "CommandLineTool",
		"baseCmd": []interface{}{"cp"},
		"inputBindings": []interface{}{
			map[string]interface{}{"input": "src", "position": 1},
			map[string]interface{}{"input": "dest", "position": 2},
		},
		"inputs": []interface{}{
			map[string]interface{}{"id": "#src", "depth": 0},
			map[string]interface{}{"id": "#dest", "depth": 0, "value": "result.cwl.json"},
		},
		"outputs": []interface{}{
			map[string]interface{}{
				"id":            "#output",
				"type":          "File",
				"outputBinding": map[string]interface{}{"glob": "nonexistent.txt"},
			},
		},
	}

	r, err := New(doc, "self-describing.cwl", testConfig(t))
	require.NoError(t, err)

	out, err := r.Run(map[string]interface{}{"src": fixture})
	require.NoError(t, err)
	assert.EqualValues(t, 42, out["output"])
}

func TestTool_InputBindingFlowsToArgv(t *testing.T) {
	doc := map[string]interface{}{
		"class":   "CommandLineTool",
		"baseCmd": []interface{}{"touch"},
		"inputBindings": []interface{}{
			map[string]interface{}{"input": "filename", "position": 1},
		},
		"inputs": []interface{}{
			map[string]interface{}{"id": "#filename", "depth": 0},
		},
		"outputs": []interface{}{
			map[string]interface{}{
				"id":            "#marker",
				"type":          "File",
				"outputBinding": map[string]interface{}{"glob": "marker.txt"},
			},
		},
	}

	r, err := New(doc, "scripted.cwl", testConfig(t))
	require.NoError(t, err)

	out, err := r.Run(map[string]interface{}{"filename": "marker.txt"})
	require.NoError(t, err)
	_, ok := out["marker"]
	assert.True(t, ok)
}

func TestTool_WorkDirRootIsRespected(t *testing.T) {
	cfg := testConfig(t)
	doc := map[string]interface{}{
		"class":   "CommandLineTool",
		"baseCmd": []interface{}{"pwd"},
	}
	r, err := New(doc, "pwd.cwl", cfg)
	require.NoError(t, err)

	_, err = r.Run(map[string]interface{}{})
	require.NoError(t, err)

	entries, err := os.ReadDir(cfg.WorkDirRoot)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
