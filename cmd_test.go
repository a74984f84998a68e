package main

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/soocke/pixel-clicker-go/app"
	"github.com/soocke/pixel-clicker-go/domain/capture"
	"github.com/soocke/pixel-clicker-go/domain/geometry"
	"github.com/soocke/pixel-clicker-go/domain/status"
	"github.com/soocke/pixel-clicker-go/domain/window"
	"github.com/soocke/pixel-clicker-go/ui/preview"
)

func TestParseCrop(t *testing.T) {
	c, err := parseCrop("0.25, 0.5,0.5,0.25")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if *c != (geometry.CropRatio{X: 0.25, Y: 0.5, W: 0.5, H: 0.25}) {
		t.Fatalf("crop = %+v", *c)
	}
	if c, err := parseCrop(""); c != nil || err != nil {
		t.Fatalf("empty crop should be nil, got %v %v", c, err)
	}
	for _, bad := range []string{"1,2,3", "a,b,c,d", "0.8,0,0.5,1"} {
		if _, err := parseCrop(bad); err == nil {
			t.Errorf("parseCrop(%q) should fail", bad)
		}
	}
	if _, err := parseCrop("0.8,0,0.5,1"); !errors.Is(err, geometry.ErrGeometry) {
		t.Fatalf("overflowing crop should be a geometry error, got %v", err)
	}
}

func TestParseScales(t *testing.T) {
	r, err := parseScales("0.9,1.1")
	if err != nil || r.Lo != 0.9 || r.Hi != 1.1 {
		t.Fatalf("scales = %+v, %v", r, err)
	}
	for _, bad := range []string{"1", "0,1", "1.2,1.1", "x,1"} {
		if _, err := parseScales(bad); err == nil {
			t.Errorf("parseScales(%q) should fail", bad)
		}
	}
}

func TestSnapshotOf(t *testing.T) {
	if snapshotOf(nil) != nil {
		t.Fatalf("nil report should give nil snapshot")
	}
	frame := image.NewRGBA(image.Rect(0, 0, 200, 150))
	box := geometry.Box{TopLeft: geometry.Point{X: 160, Y: 90}, BottomRight: geometry.Point{X: 184, Y: 108}}
	rep := &app.CycleReport{
		At:     time.Unix(10, 0),
		State:  status.Active,
		Window: window.Handle{X: 100, Y: 50, Width: 200, Height: 150},
		Frame:  &capture.Frame{Image: frame, Scale: 1},
		Targets: []app.TargetReport{
			{Name: "start", Box: &box, Clicked: true},
			{Name: "select", Skipped: true},
		},
	}
	s := snapshotOf(rep)
	if s.Status != "active" || s.Frame != image.Image(frame) {
		t.Fatalf("snapshot = %+v", s)
	}
	want := preview.Marker{Label: "start", Rect: image.Rect(60, 40, 84, 58)}
	if len(s.Marks) != 1 || s.Marks[0] != want {
		t.Fatalf("marks = %+v", s.Marks)
	}
	if len(s.Lines) != 2 || !strings.HasSuffix(s.Lines[0], "clicked") || s.Lines[1] != "select: skipped" {
		t.Fatalf("lines = %q", s.Lines)
	}
}

func TestInitWritesConfigAndManifest(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	targets := filepath.Join(dir, "targets.yaml")
	t.Setenv("PIXEL_TARGETS_FILE", targets)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--config", cfgPath, "init"})
	if err := root.Execute(); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, p := range []string{cfgPath, targets} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("%s not written: %v", p, err)
		}
	}
	if !strings.Contains(out.String(), "wrote "+targets) {
		t.Fatalf("output = %q", out.String())
	}
}

func TestFindRequiresWindow(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.json"), "find", "x.png"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "no window configured") {
		t.Fatalf("expected missing window error, got %v", err)
	}
}
