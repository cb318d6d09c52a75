// Package config holds the host monitor's settings: which console to read
// and what the firmware is expected to report.
package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"h7boot/core"
	"h7boot/host/serial"
)

// MonitorConfig describes the expected boot report.
type MonitorConfig struct {
	Device string `json:"device"`
	Baud   int    `json:"baud"`

	CoreHz uint32 `json:"core_hz"`
	AHBHz  uint32 `json:"ahb_hz"`
	TickHz uint32 `json:"tick_hz"`

	// BlinkInterval is the minimum number of ticks between LED records.
	BlinkInterval uint32 `json:"blink_interval"`

	// Transitions is the number of LED records to check before stopping.
	Transitions int `json:"transitions"`

	// Stages are the bring-up stage names, in order.
	Stages []string `json:"stages"`
}

// LoadConfig parses a JSON configuration and fills in defaults.
func LoadConfig(jsonData []byte) (*MonitorConfig, error) {
	var config MonitorConfig

	if err := json.Unmarshal(jsonData, &config); err != nil {
		return nil, errors.Wrap(err, "parse monitor config")
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadFile reads and parses a JSON configuration file.
func LoadFile(path string) (*MonitorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read monitor config %s", path)
	}
	cfg, err := LoadConfig(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return cfg, nil
}

// DefaultConfig returns the configuration matching the firmware's build-time
// clock profile.
func DefaultConfig() *MonitorConfig {
	var config MonitorConfig
	applyDefaults(&config)
	return &config
}

// applyDefaults fills in missing configuration values from the firmware's
// clock profile
func applyDefaults(config *MonitorConfig) {
	if config.Device == "" {
		config.Device = "/dev/ttyACM0"
	}
	if config.Baud == 0 {
		config.Baud = serial.DefaultBaud
	}
	if config.CoreHz == 0 {
		config.CoreHz = core.CoreClockFrequency
	}
	if config.AHBHz == 0 {
		config.AHBHz = core.AHBFrequency
	}
	if config.TickHz == 0 {
		config.TickHz = core.TickFrequency
	}
	if config.BlinkInterval == 0 {
		config.BlinkInterval = core.BlinkInterval
	}
	if config.Transitions == 0 {
		config.Transitions = 4
	}
	if len(config.Stages) == 0 {
		config.Stages = append([]string(nil), core.StageNames[:]...)
	}
}

// Validate checks values defaults cannot repair.
func (c *MonitorConfig) Validate() error {
	if c.Transitions < 0 {
		return errors.Errorf("transitions must not be negative, got %d", c.Transitions)
	}
	if c.AHBHz > c.CoreHz {
		return errors.Errorf("AHB clock %d Hz above core clock %d Hz", c.AHBHz, c.CoreHz)
	}
	seen := make(map[string]bool, len(c.Stages))
	for _, s := range c.Stages {
		if s == "" {
			return errors.New("empty stage name")
		}
		if seen[s] {
			return errors.Errorf("stage %q listed twice", s)
		}
		seen[s] = true
	}
	return nil
}

// SerialConfig returns the serial settings for the console.
func (c *MonitorConfig) SerialConfig() *serial.Config {
	cfg := serial.DefaultConfig(c.Device)
	cfg.Baud = c.Baud
	return cfg
}
