package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soocke/pixel-clicker-go/domain/action"
	"github.com/soocke/pixel-clicker-go/domain/geometry"
	"github.com/soocke/pixel-clicker-go/domain/match"
)

// Click modes for a target.
const (
	ClickNone    = "none"    // only record that the target is visible
	ClickCenter  = "center"  // move to the match center and click
	ClickPointer = "pointer" // click where the pointer already is, if it is over the window
)

// Target is one element the poller looks for each cycle.
type Target struct {
	Name      string              `yaml:"name"`
	Path      string              `yaml:"path"`
	Threshold float64             `yaml:"threshold,omitempty"`
	Crop      *geometry.CropRatio `yaml:"crop,omitempty"`
	Scales    *match.ScaleRange   `yaml:"scales,omitempty"`
	AutoScale bool                `yaml:"auto_scale,omitempty"`
	Click     string              `yaml:"click,omitempty"`
	Button    string              `yaml:"button,omitempty"`
	Clicks    int                 `yaml:"clicks,omitempty"`
	// Requires lists earlier targets; at least one of them must have matched
	// in the same cycle for this target to be evaluated.
	Requires []string `yaml:"requires,omitempty"`

	button action.Button
}

// Manifest is the YAML document listing targets in evaluation order.
type Manifest struct {
	Window  string   `yaml:"window"`
	Targets []Target `yaml:"targets"`
}

// LoadManifest reads and validates a manifest. Relative template paths are
// resolved against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	base := filepath.Dir(path)
	for i := range m.Targets {
		if p := m.Targets[i].Path; p != "" && !filepath.IsAbs(p) {
			m.Targets[i].Path = filepath.Join(base, p)
		}
	}
	return m, nil
}

// ParseManifest decodes and validates manifest YAML.
func ParseManifest(raw []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks names, click modes, crops and requirement ordering, and
// fills defaults.
func (m *Manifest) Validate() error {
	if len(m.Targets) == 0 {
		return fmt.Errorf("manifest has no targets")
	}
	seen := make(map[string]bool, len(m.Targets))
	for i := range m.Targets {
		t := &m.Targets[i]
		if t.Name == "" {
			return fmt.Errorf("target %d: missing name", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("target %q: duplicate name", t.Name)
		}
		if t.Path == "" {
			return fmt.Errorf("target %q: missing path", t.Name)
		}
		if t.Threshold < 0 || t.Threshold > 1 {
			return fmt.Errorf("target %q: threshold %v out of range", t.Name, t.Threshold)
		}
		if t.Crop != nil {
			if err := t.Crop.Validate(); err != nil {
				return fmt.Errorf("target %q: %w", t.Name, err)
			}
		}
		if t.Scales != nil && t.AutoScale {
			return fmt.Errorf("target %q: scales and auto_scale are exclusive", t.Name)
		}
		switch t.Click = strings.ToLower(strings.TrimSpace(t.Click)); t.Click {
		case "":
			t.Click = ClickNone
		case ClickNone, ClickCenter, ClickPointer:
		default:
			return fmt.Errorf("target %q: unknown click mode %q", t.Name, t.Click)
		}
		b, err := action.ParseButton(t.Button)
		if err != nil {
			return fmt.Errorf("target %q: %w", t.Name, err)
		}
		t.button = b
		if t.Clicks <= 0 {
			t.Clicks = 1
		}
		for _, r := range t.Requires {
			if !seen[r] {
				return fmt.Errorf("target %q: requires %q which is not an earlier target", t.Name, r)
			}
		}
		seen[t.Name] = true
	}
	return nil
}

// threshold returns the target's threshold or fallback when unset.
func (t Target) threshold(fallback float64) float64 {
	if t.Threshold > 0 {
		return t.Threshold
	}
	return fallback
}

// scaleRange resolves the sweep for a window of the given width.
func (t Target) scaleRange(windowWidth, referenceWidth int) *match.ScaleRange {
	if t.AutoScale {
		r := match.AutoScaleRange(windowWidth, referenceWidth)
		return &r
	}
	return t.Scales
}

// satisfied reports whether any requirement matched, or there are none.
func (t Target) satisfied(found map[string]bool) bool {
	if len(t.Requires) == 0 {
		return true
	}
	for _, r := range t.Requires {
		if found[r] {
			return true
		}
	}
	return false
}
