// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// DefaultPath is the config file looked up when no --config flag is given.
const DefaultPath = "quatviz_config.txt"

// Source kinds accepted by SOURCE.
const (
	SourceSerial = "serial"
	SourceStdin  = "stdin"
	SourceMQTT   = "mqtt"
	SourceMock   = "mock"
)

// Render backends accepted by RENDER_BACKEND.
const (
	BackendWindow = "window"
	BackendOLED   = "oled"
	BackendWeb    = "web"
)

// Config holds all application configuration values.
type Config struct {
	// Input
	Source         string
	SerialPort     string
	SerialBaudRate int
	MockInterval   int // milliseconds

	// MQTT
	MQTTBroker           string
	MQTTClientIDViewer   string
	MQTTClientIDProducer string
	TopicFrames          string

	// Rendering
	RenderBackend      string // comma separated list of backends
	WindowWidth        int
	WindowHeight       int
	DisplayLeftI2CBus  string
	DisplayRightI2CBus string
	WebServerPort      int

	// Timing
	ConsoleLogInterval int // milliseconds, 0 disables the console readout

	// Logging
	LogLevel       string
	GraylogAddress string
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

var defaults = map[string]string{
	"SOURCE":                  SourceSerial,
	"SERIAL_PORT":             "/dev/ttyACM0",
	"SERIAL_BAUD_RATE":        "115200",
	"MOCK_INTERVAL":           "20",
	"MQTT_BROKER":             "tcp://localhost:1883",
	"MQTT_CLIENT_ID_VIEWER":   "quatviz-viewer",
	"MQTT_CLIENT_ID_PRODUCER": "quatviz-mock-producer",
	"TOPIC_FRAMES":            "quatviz/frames",
	"RENDER_BACKEND":          BackendWindow,
	"WINDOW_WIDTH":            "1200",
	"WINDOW_HEIGHT":           "600",
	"DISPLAY_LEFT_I2C_BUS":    "1",
	"DISPLAY_RIGHT_I2C_BUS":   "3",
	"WEB_SERVER_PORT":         "8080",
	"CONSOLE_LOG_INTERVAL":    "0",
	"LOG_LEVEL":               "info",
	"GRAYLOG_ADDRESS":         "",
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	// QUATVIZ_SERIAL_PORT=/dev/ttyUSB0 overrides the file
	v.SetEnvPrefix("QUATVIZ")
	v.AutomaticEnv()
	return v
}

// Load reads the KEY=VALUE configuration file and returns a Config struct.
// A missing file is not an error: every key has a default.
func Load(configPath string) (*Config, error) {
	v := newViper()

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	for _, key := range v.AllKeys() {
		if _, ok := defaults[strings.ToUpper(key)]; !ok {
			return nil, fmt.Errorf("unknown config key: %q", strings.ToUpper(key))
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Source:               strings.ToLower(strings.TrimSpace(v.GetString("SOURCE"))),
		SerialPort:           v.GetString("SERIAL_PORT"),
		MQTTBroker:           v.GetString("MQTT_BROKER"),
		MQTTClientIDViewer:   v.GetString("MQTT_CLIENT_ID_VIEWER"),
		MQTTClientIDProducer: v.GetString("MQTT_CLIENT_ID_PRODUCER"),
		TopicFrames:          v.GetString("TOPIC_FRAMES"),
		RenderBackend:        v.GetString("RENDER_BACKEND"),
		DisplayLeftI2CBus:    v.GetString("DISPLAY_LEFT_I2C_BUS"),
		DisplayRightI2CBus:   v.GetString("DISPLAY_RIGHT_I2C_BUS"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		GraylogAddress:       v.GetString("GRAYLOG_ADDRESS"),
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"SERIAL_BAUD_RATE", &cfg.SerialBaudRate},
		{"MOCK_INTERVAL", &cfg.MockInterval},
		{"WINDOW_WIDTH", &cfg.WindowWidth},
		{"WINDOW_HEIGHT", &cfg.WindowHeight},
		{"WEB_SERVER_PORT", &cfg.WebServerPort},
		{"CONSOLE_LOG_INTERVAL", &cfg.ConsoleLogInterval},
	}
	for _, field := range ints {
		raw := strings.TrimSpace(v.GetString(field.key))
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", field.key, raw, err)
		}
		*field.dst = n
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Backends returns RENDER_BACKEND split into its entries, lower-cased and
// without blanks.
func (c *Config) Backends() []string {
	var out []string
	for _, b := range strings.Split(c.RenderBackend, ",") {
		b = strings.ToLower(strings.TrimSpace(b))
		if b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Validate re-checks a Config after command-line overrides were applied.
func (c *Config) Validate() error {
	return c.validate()
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	switch c.Source {
	case SourceSerial:
		if c.SerialPort == "" {
			return fmt.Errorf("SERIAL_PORT is required")
		}
		if c.SerialBaudRate <= 0 {
			return fmt.Errorf("SERIAL_BAUD_RATE must be positive, got %d", c.SerialBaudRate)
		}
	case SourceMQTT:
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT_BROKER is required")
		}
		if c.TopicFrames == "" {
			return fmt.Errorf("TOPIC_FRAMES is required")
		}
	case SourceStdin:
	case SourceMock:
		if c.MockInterval <= 0 {
			return fmt.Errorf("MOCK_INTERVAL must be positive, got %d", c.MockInterval)
		}
	default:
		return fmt.Errorf("SOURCE must be one of serial, stdin, mqtt, mock; got %q", c.Source)
	}

	backends := c.Backends()
	if len(backends) == 0 {
		return fmt.Errorf("RENDER_BACKEND is required")
	}
	for _, b := range backends {
		switch b {
		case BackendWindow:
			if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
				return fmt.Errorf("WINDOW_WIDTH and WINDOW_HEIGHT must be positive, got %dx%d", c.WindowWidth, c.WindowHeight)
			}
		case BackendOLED:
			if c.DisplayLeftI2CBus == "" || c.DisplayRightI2CBus == "" {
				return fmt.Errorf("DISPLAY_LEFT_I2C_BUS and DISPLAY_RIGHT_I2C_BUS are required")
			}
		case BackendWeb:
			if c.WebServerPort <= 0 || c.WebServerPort > 65535 {
				return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", c.WebServerPort)
			}
		default:
			return fmt.Errorf("unknown RENDER_BACKEND entry %q", b)
		}
	}

	if c.ConsoleLogInterval < 0 {
		return fmt.Errorf("CONSOLE_LOG_INTERVAL must not be negative, got %d", c.ConsoleLogInterval)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
