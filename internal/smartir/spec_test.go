package smartir

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSpec = `{
	"manufacturer": "Acme",
	"supportedModels": ["AC-1000"],
	"supportedController": "Broadlink",
	"commandsEncoding": "Base64",
	"minTemperature": 16,
	"maxTemperature": 30,
	"precision": 1,
	"operationModes": ["heat", "cool"],
	"fanModes": ["low", "high"],
	"swingModes": ["auto"],
	"commands": {}
}`

func TestParseValid(t *testing.T) {
	spec, err := Parse([]byte(validSpec))
	require.NoError(t, err)

	assert.Equal(t, "Broadlink", spec.Controller)
	assert.Equal(t, "Base64", spec.Encoding)
	assert.Equal(t, 16, spec.MinTemperature)
	assert.Equal(t, 30, spec.MaxTemperature)
	assert.Equal(t, []string{"heat", "cool"}, spec.OperationModes)
	assert.Equal(t, []string{"low", "high"}, spec.FanModes)
	assert.Equal(t, []string{"auto"}, spec.SwingModes)
	assert.True(t, spec.HasModes())
	assert.True(t, spec.HasOperationMode("cool"))
	assert.False(t, spec.HasOperationMode("dry"))
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"missing controller", `{"commandsEncoding":"Base64","minTemperature":16,"maxTemperature":30}`},
		{"wrong controller", `{"supportedController":"MQTT","commandsEncoding":"Base64","minTemperature":16,"maxTemperature":30}`},
		{"wrong encoding", `{"supportedController":"Broadlink","commandsEncoding":"Hex","minTemperature":16,"maxTemperature":30}`},
		{"missing min", `{"supportedController":"Broadlink","commandsEncoding":"Base64","maxTemperature":30}`},
		{"inverted range", `{"supportedController":"Broadlink","commandsEncoding":"Base64","minTemperature":31,"maxTemperature":30}`},
		{"zero precision", `{"supportedController":"Broadlink","commandsEncoding":"Base64","minTemperature":16,"maxTemperature":30,"precision":0}`},
		{"duplicate mode", `{"supportedController":"Broadlink","commandsEncoding":"Base64","minTemperature":16,"maxTemperature":30,"operationModes":["cool","cool"]}`},
		{"empty mode name", `{"supportedController":"Broadlink","commandsEncoding":"Base64","minTemperature":16,"maxTemperature":30,"operationModes":[""]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSpec)
		})
	}
}

func TestParseNoModesIsValid(t *testing.T) {
	spec, err := Parse([]byte(`{
		"supportedController": "Broadlink",
		"commandsEncoding": "Base64",
		"minTemperature": 16,
		"maxTemperature": 18
	}`))
	require.NoError(t, err)
	assert.False(t, spec.HasModes())
	// Only off remains learnable; the caller warns but does not fail.
	assert.Len(t, spec.Space().Enumerate(), 1)
}

func TestTemperatureSteps(t *testing.T) {
	spec := &ClimateSpec{MinTemperature: 16, MaxTemperature: 30, Precision: 1}
	assert.Len(t, spec.TemperatureSteps(), 15)

	// Precision that does not divide the range evenly never overshoots max.
	spec = &ClimateSpec{MinTemperature: 16, MaxTemperature: 21, Precision: 4}
	assert.Equal(t, []int{16, 20}, spec.TemperatureSteps())

	// Sub-degree precision collapses to whole-degree steps.
	spec = &ClimateSpec{MinTemperature: 16, MaxTemperature: 18, Precision: 0.5}
	assert.Equal(t, []int{16, 17, 18}, spec.TemperatureSteps())
}

func TestLoadFileAndOutputPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "living_room_ac.json")
	require.NoError(t, os.WriteFile(path, []byte(validSpec), 0644))

	spec, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, spec.SourcePath())

	out := spec.OutputPath(time.Date(2024, 3, 9, 14, 30, 5, 0, time.UTC))
	assert.Equal(t, filepath.Join(dir, "living_room_ac_20240309_143005.json"), out)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSpec)
}
