package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out

	err := app.Run(t.Context(), append([]string{"updlflow"}, args...))

	return out.String(), err
}

func TestLoadFlowFile(t *testing.T) {
	t.Parallel()

	yamlFlow, err := loadFlowFile("testdata/room.yaml")
	require.NoError(t, err)
	assert.Equal(t, models.FlowTypeUPDL, yamlFlow.Type)
	require.Len(t, yamlFlow.FlowData.Nodes, 3)
	assert.Equal(t, "objects", yamlFlow.FlowData.Edges[0].TargetHandle)

	jsonFlow, err := loadFlowFile("testdata/tutor.json")
	require.NoError(t, err)
	assert.Equal(t, "Tutor", jsonFlow.Name)
	assert.Equal(t, "local", jsonFlow.ID)
	assert.Equal(t, "gpt-4o-mini", jsonFlow.FlowData.Nodes[0].Data.Inputs["modelName"])

	_, err = loadFlowFile("testdata/missing.yaml")
	require.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	out, err := runApp(t, "validate", "testdata/tutor.json")
	require.NoError(t, err)
	assert.Contains(t, out, `flow "Tutor" is valid`)

	_, err = runApp(t, "validate", "testdata/broken.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unregistered node")
	assert.Contains(t, err.Error(), "unknown node")

	_, err = runApp(t, "validate")
	require.ErrorContains(t, err, "flow file is required")
}

func TestRunCommand_SceneFlow(t *testing.T) {
	out, err := runApp(t, "run", "--data-dir", filepath.Join(t.TempDir(), "data"), "-q", "Play room", "testdata/room.yaml")
	require.NoError(t, err)

	var scene struct {
		Name    string `json:"name"`
		Objects []struct {
			Name string `json:"name"`
		} `json:"objects"`
		Lights []struct {
			Type string `json:"type"`
		} `json:"lights"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &scene))

	assert.Equal(t, "Play room", scene.Name)
	require.Len(t, scene.Objects, 1)
	assert.Equal(t, "crate", scene.Objects[0].Name)
	require.Len(t, scene.Lights, 1)
	assert.Equal(t, "point", scene.Lights[0].Type)
}

func TestParseVars(t *testing.T) {
	t.Parallel()

	vars, err := parseVars([]string{"persona=A pirate", "tone=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"vars": map[string]any{"persona": "A pirate", "tone": "a=b"}}, vars)

	vars, err = parseVars(nil)
	require.NoError(t, err)
	assert.Nil(t, vars)

	_, err = parseVars([]string{"novalue"})
	require.Error(t, err)
}

func TestPrintResult(t *testing.T) {
	t.Parallel()

	text := "hello"

	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, &models.ExecutionResult{Text: &text}, false))
	assert.Equal(t, "hello\n", buf.String())

	buf.Reset()
	require.NoError(t, printResult(&buf, &models.ExecutionResult{Text: &text}, true))
	assert.Equal(t, "\n", buf.String())
}
