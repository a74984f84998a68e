package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"window": "Plot", "threshold": 0.85, "poll_interval_ms": 250, "capture": "SCREEN"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PIXEL_STRIDE", "3")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Window != "Plot" || cfg.Threshold != 0.85 || cfg.PollIntervalMs != 250 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Capture != CaptureScreen {
		t.Fatalf("capture backend not normalized: %q", cfg.Capture)
	}
	if cfg.Stride != 3 {
		t.Fatalf("env override not applied, stride=%d", cfg.Stride)
	}
	if cfg.SettleMs != 50 {
		t.Fatalf("unset key should keep default, got %d", cfg.SettleMs)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidate_Clamps(t *testing.T) {
	c := &Config{Threshold: 3, Stride: -1, CaptureBudgetMs: 100, CaptureBackoffMs: 500, Capture: "bogus", Input: ""}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if c.Threshold != 0.90 || c.Stride != 1 || c.ReferenceWidth != 1920 {
		t.Fatalf("clamp failed: %+v", c)
	}
	if c.CaptureBackoffMs != 100 {
		t.Fatalf("backoff should not exceed budget, got %d", c.CaptureBackoffMs)
	}
	if c.Capture != CaptureWindow || c.Input != InputSystem {
		t.Fatalf("backends not defaulted: %q %q", c.Capture, c.Input)
	}
}

func TestValidate_SerialNeedsPort(t *testing.T) {
	c := DefaultConfig()
	c.Input = InputSerial
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error without serial port")
	}
	c.SerialPort = "COM3"
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	c := DefaultConfig()
	c.Window = "Plot"
	c.Threshold = 0.8
	if err := c.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Window != "Plot" || got.Threshold != 0.8 {
		t.Fatalf("round trip lost values: %+v", got)
	}
}
