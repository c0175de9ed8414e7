// Package config loads the application configuration: which Broadlink device
// to talk to and how patient the capture loop should be.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	Capture CaptureConfig `yaml:"capture"`
	Retry   RetryConfig   `yaml:"retry,omitempty"`
}

// DeviceConfig identifies a Broadlink device on the local network. The values
// come from a prior `irlisten discover` run.
type DeviceConfig struct {
	Type string `yaml:"type"` // device type id, e.g. "0x2712"
	Host string `yaml:"host"` // ip:port, port defaults to 80
	MAC  string `yaml:"mac"`
}

// CaptureConfig bounds the listen/poll cycle.
type CaptureConfig struct {
	Timeout      time.Duration `yaml:"timeout"`       // max wait for one IR code
	PollInterval time.Duration `yaml:"poll_interval"` // device poll cadence while listening
	AuthTimeout  time.Duration `yaml:"auth_timeout"`  // device communication timeout
}

// RetryConfig configures backoff for transient device I/O (discovery, auth).
type RetryConfig struct {
	Backoff    string        `yaml:"backoff,omitempty"` // fixed|linear|exponential
	Initial    time.Duration `yaml:"initial,omitempty"`
	Max        time.Duration `yaml:"max,omitempty"`
	MaxRetries int           `yaml:"max_retries"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just log it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Capture.Timeout <= 0 {
		c.Capture.Timeout = 30 * time.Second
	}
	if c.Capture.PollInterval <= 0 {
		c.Capture.PollInterval = time.Second
	}
	if c.Capture.AuthTimeout <= 0 {
		c.Capture.AuthTimeout = 10 * time.Second
	}
	if c.Retry.MaxRetries < 0 {
		c.Retry.MaxRetries = 0
	}
}

// ValidateDevice checks that the device section is complete enough to connect.
// Discovery-only commands do not need it, so Load does not enforce it.
func (c *Config) ValidateDevice() error {
	if c.Device.Type == "" {
		return fmt.Errorf("device.type is required (run `irlisten discover` first)")
	}
	if _, err := strconv.ParseUint(c.Device.Type, 0, 16); err != nil {
		return fmt.Errorf("device.type %q is not a valid device type id: %w", c.Device.Type, err)
	}
	if c.Device.Host == "" {
		return fmt.Errorf("device.host is required (run `irlisten discover` first)")
	}
	if _, err := net.ParseMAC(c.Device.MAC); err != nil {
		return fmt.Errorf("device.mac %q is not a valid MAC address: %w", c.Device.MAC, err)
	}
	return nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Device: DeviceConfig{
			Type: "0x2712",
			Host: "192.168.1.20:80",
			MAC:  "aa:bb:cc:dd:ee:ff",
		},
		Capture: CaptureConfig{
			Timeout:      30 * time.Second,
			PollInterval: time.Second,
			AuthTimeout:  10 * time.Second,
		},
		Retry: RetryConfig{
			Backoff:    "linear",
			Initial:    time.Second,
			Max:        10 * time.Second,
			MaxRetries: 2,
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// loadEnvFile loads environment variables from .env file
func loadEnvFile() error {
	envPaths := []string{".env", ".env.local"}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err == nil {
			fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", envPath)
			return nil
		}
	}

	return fmt.Errorf("no .env file found")
}
