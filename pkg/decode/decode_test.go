package decode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestYAMLDecoder_DecodesYAML(t *testing.T) {
	path := writeFixture(t, "tool.yaml", "class: CommandLineTool\nbaseCmd: echo\n")

	v, err := Default().Decode(path)
	require.NoError(t, err)

	doc := v.(map[string]interface{})
	assert.Equal(t, "CommandLineTool", doc["class"])
	assert.Equal(t, "echo", doc["baseCmd"])
}

func TestYAMLDecoder_DecodesJSON(t *testing.T) {
	path := writeFixture(t, "tool.json", `{"class": "ExpressionTool", "expression": {"value": "{return 1;}"}}`)

	v, err := Default().Decode(path)
	require.NoError(t, err)

	doc := v.(map[string]interface{})
	assert.Equal(t, "ExpressionTool", doc["class"])
}

func TestYAMLDecoder_MissingFile(t *testing.T) {
	_, err := Default().Decode(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestYAMLDecoder_MalformedYAML(t *testing.T) {
	path := writeFixture(t, "bad.yaml", "class: [unterminated\n")
	_, err := Default().Decode(path)
	assert.Error(t, err)
}
