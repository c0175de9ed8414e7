package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "irlisten.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
device:
  type: "0x2712"
  host: "192.168.1.20:80"
  mac: "aa:bb:cc:dd:ee:ff"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Capture.Timeout)
	assert.Equal(t, time.Second, cfg.Capture.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.Capture.AuthTimeout)
	assert.NoError(t, cfg.ValidateDevice())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("IRLISTEN_TEST_HOST", "10.0.0.9:80")
	path := writeConfig(t, `
device:
  type: "0x2712"
  host: "${IRLISTEN_TEST_HOST}"
  mac: "aa:bb:cc:dd:ee:ff"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.9:80", cfg.Device.Host)
}

func TestValidateDevice(t *testing.T) {
	cases := []struct {
		name   string
		device DeviceConfig
		ok     bool
	}{
		{"complete", DeviceConfig{Type: "0x2712", Host: "192.168.1.20:80", MAC: "aa:bb:cc:dd:ee:ff"}, true},
		{"missing type", DeviceConfig{Host: "192.168.1.20:80", MAC: "aa:bb:cc:dd:ee:ff"}, false},
		{"bad type", DeviceConfig{Type: "rm-mini", Host: "192.168.1.20:80", MAC: "aa:bb:cc:dd:ee:ff"}, false},
		{"missing host", DeviceConfig{Type: "0x2712", MAC: "aa:bb:cc:dd:ee:ff"}, false},
		{"bad mac", DeviceConfig{Type: "0x2712", Host: "192.168.1.20:80", MAC: "nope"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{Device: tc.device}
			err := cfg.ValidateDevice()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "irlisten.yaml")
	require.NoError(t, Init(path, false))

	// Existing file is protected without force.
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0x2712", cfg.Device.Type)
}
