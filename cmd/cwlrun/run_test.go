package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(args ...string) (string, error) {
	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRunCommand_PrintsOutputsAsJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "square.cwl", `
class: ExpressionTool
inputs:
  id: "#x"
  depth: 0
outputs:
  id: "#result"
  depth: 0
expression:
  value: "{ result: inputs.x * inputs.x }"
`)
	inputs := writeFixture(t, dir, "inputs.json", `{"x": 6}`)

	stdout, err := execute("--profile", "testing", "run", path, "--inputs", inputs)
	require.NoError(t, err)

	var payload struct {
		ExecutionID string                 `json:"executionId"`
		Outputs     map[string]interface{} `json:"outputs"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	assert.NotEmpty(t, payload.ExecutionID)
	assert.EqualValues(t, 36, payload.Outputs["result"])
}

func TestRunCommand_MissingDocumentFails(t *testing.T) {
	_, err := execute("run", "/no/such/document.cwl")
	require.Error(t, err)
}

func TestValidateCommand_ReportsValidDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "ok.cwl", `
class: ExpressionTool
expression:
  value: "{ result: 1 }"
`)

	stdout, err := execute("--profile", "testing", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "is valid")
}

func TestValidateCommand_ReportsMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "bad.cwl", `
inputs: []
`)

	_, err := execute("validate", path)
	require.Error(t, err)
}

func TestPrintDAGCommand_ListsNodesInTopologicalOrder(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "square.cwl", `
class: ExpressionTool
inputs:
  id: "#x"
  depth: 0
outputs:
  id: "#value"
  depth: 0
expression:
  value: "{ value: inputs.x * inputs.x }"
`)
	path := writeFixture(t, dir, "wf.cwl", `
class: Workflow
inputs:
  id: "#x"
  depth: 0
outputs:
  id: "#result"
  depth: 0
  links:
    source: "#square/value"
steps:
  id: "#square"
  impl: "square.cwl"
  inputs:
    id: "#square/x"
    depth: 0
    links:
      source: "#x"
  outputs:
    id: "#square/value"
    depth: 0
`)

	stdout, err := execute("--profile", "testing", "print-dag", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "#x")
	assert.Contains(t, stdout, "#square")
	assert.Contains(t, stdout, "#result")
}

func TestPrintDAGCommand_RejectsNonWorkflowDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "square.cwl", `
class: ExpressionTool
expression:
  value: "{ result: 1 }"
`)

	_, err := execute("--profile", "testing", "print-dag", path)
	require.Error(t, err)
}
