package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. PIXEL_THRESHOLD=0.85.
const EnvPrefix = "PIXEL"

// Capture and input backends.
const (
	CaptureWindow = "window"
	CaptureScreen = "screen"
	InputSystem   = "system"
	InputSerial   = "serial"
)

// Config holds runtime configuration for matching, polling and input.
// Fields may be loaded from a JSON file and overridden by environment
// variables or command-line flags.
type Config struct {
	Debug bool `json:"debug" mapstructure:"debug"`

	// Target window and element manifest
	Window      string `json:"window" mapstructure:"window"`
	TargetsFile string `json:"targets_file" mapstructure:"targets_file"`

	// Matching parameters
	ReferenceWidth  int     `json:"reference_width" mapstructure:"reference_width"`
	Threshold       float64 `json:"threshold" mapstructure:"threshold"`
	Stride          int     `json:"stride" mapstructure:"stride"`
	Refine          bool    `json:"refine" mapstructure:"refine"`
	StopOnThreshold bool    `json:"stop_on_threshold" mapstructure:"stop_on_threshold"`

	// Poll loop timing
	PollIntervalMs   int `json:"poll_interval_ms" mapstructure:"poll_interval_ms"`
	ClickIntervalMs  int `json:"click_interval_ms" mapstructure:"click_interval_ms"`
	CaptureBudgetMs  int `json:"capture_budget_ms" mapstructure:"capture_budget_ms"`
	CaptureBackoffMs int `json:"capture_backoff_ms" mapstructure:"capture_backoff_ms"`

	// Backends
	Capture    string `json:"capture" mapstructure:"capture"`
	Input      string `json:"input" mapstructure:"input"`
	SettleMs   int    `json:"settle_ms" mapstructure:"settle_ms"`
	SerialPort string `json:"serial_port" mapstructure:"serial_port"`
	SerialBaud int    `json:"serial_baud" mapstructure:"serial_baud"`
	StopHotkey bool   `json:"stop_hotkey" mapstructure:"stop_hotkey"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:            false,
		Window:           "",
		TargetsFile:      "targets.yaml",
		ReferenceWidth:   1920,
		Threshold:        0.90,
		Stride:           1,
		Refine:           true,
		StopOnThreshold:  false,
		PollIntervalMs:   500,
		ClickIntervalMs:  10,
		CaptureBudgetMs:  10000,
		CaptureBackoffMs: 500,
		Capture:          CaptureWindow,
		Input:            InputSystem,
		SettleMs:         50,
		SerialPort:       "",
		SerialBaud:       9600,
		StopHotkey:       true,
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	d := DefaultConfig()
	if c.ReferenceWidth <= 0 {
		c.ReferenceWidth = d.ReferenceWidth
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		c.Threshold = d.Threshold
	}
	if c.Stride <= 0 {
		c.Stride = 1
	}
	if c.PollIntervalMs <= 0 {
		c.PollIntervalMs = d.PollIntervalMs
	}
	if c.ClickIntervalMs <= 0 {
		c.ClickIntervalMs = d.ClickIntervalMs
	}
	if c.CaptureBudgetMs < 0 {
		c.CaptureBudgetMs = d.CaptureBudgetMs
	}
	if c.CaptureBackoffMs <= 0 {
		c.CaptureBackoffMs = d.CaptureBackoffMs
	}
	if c.CaptureBackoffMs > c.CaptureBudgetMs && c.CaptureBudgetMs > 0 {
		c.CaptureBackoffMs = c.CaptureBudgetMs
	}
	switch c.Capture = strings.ToLower(strings.TrimSpace(c.Capture)); c.Capture {
	case CaptureWindow, CaptureScreen:
	default:
		c.Capture = CaptureWindow
	}
	switch c.Input = strings.ToLower(strings.TrimSpace(c.Input)); c.Input {
	case InputSystem, InputSerial:
	default:
		c.Input = InputSystem
	}
	if c.SettleMs <= 0 {
		c.SettleMs = d.SettleMs
	}
	if c.SerialBaud <= 0 {
		c.SerialBaud = d.SerialBaud
	}
	if c.Input == InputSerial && c.SerialPort == "" {
		return errors.New("config: serial input requires serial_port")
	}
	return nil
}

// NewViper returns a viper instance preloaded with defaults and environment
// overrides. Callers may bind flags to it before passing it to LoadWith.
func NewViper() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()
	v.SetDefault("debug", d.Debug)
	v.SetDefault("window", d.Window)
	v.SetDefault("targets_file", d.TargetsFile)
	v.SetDefault("reference_width", d.ReferenceWidth)
	v.SetDefault("threshold", d.Threshold)
	v.SetDefault("stride", d.Stride)
	v.SetDefault("refine", d.Refine)
	v.SetDefault("stop_on_threshold", d.StopOnThreshold)
	v.SetDefault("poll_interval_ms", d.PollIntervalMs)
	v.SetDefault("click_interval_ms", d.ClickIntervalMs)
	v.SetDefault("capture_budget_ms", d.CaptureBudgetMs)
	v.SetDefault("capture_backoff_ms", d.CaptureBackoffMs)
	v.SetDefault("capture", d.Capture)
	v.SetDefault("input", d.Input)
	v.SetDefault("settle_ms", d.SettleMs)
	v.SetDefault("serial_port", d.SerialPort)
	v.SetDefault("serial_baud", d.SerialBaud)
	v.SetDefault("stop_hotkey", d.StopHotkey)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from the given JSON file path. If the file does
// not exist the defaults (plus environment overrides) are returned.
func Load(path string) (*Config, error) {
	return LoadWith(NewViper(), path)
}

// LoadWith is Load using a caller-prepared viper instance.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return cfg, err
			}
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return DefaultConfig(), err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
