package window

import (
	"errors"
	"testing"

	"github.com/soocke/pixel-clicker-go/domain/geometry"
)

func visibleCandidate() candidate {
	return candidate{
		visible: true,
		class:   "UnityWndClass",
		title:   "Game",
		frame:   geometry.Region{X: 0, Y: 0, Width: 800, Height: 600},
	}
}

func TestAccept(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*candidate)
		want   bool
	}{
		{"plain window", func(c *candidate) {}, true},
		{"invisible", func(c *candidate) { c.visible = false }, false},
		{"own process", func(c *candidate) { c.ownProcess = true }, false},
		{"empty class", func(c *candidate) { c.class = "" }, false},
		{"untitled tool window", func(c *candidate) { c.toolWindow = true; c.title = "" }, false},
		{"titled tool window", func(c *candidate) { c.toolWindow = true }, true},
		{"taskbar tool window", func(c *candidate) { c.toolWindow = true; c.title = ""; c.class = trayClass }, true},
		{"desktop", func(c *candidate) { c.class = "Progman" }, false},
		{"button", func(c *candidate) { c.class = "Button" }, false},
		{"cloaked", func(c *candidate) { c.cloaked = true }, false},
		{"empty frame", func(c *candidate) { c.frame = geometry.Region{X: 5, Y: 5} }, false},
		{"untitled normal window", func(c *candidate) { c.title = "" }, true},
	}
	for _, tc := range cases {
		c := visibleCandidate()
		tc.mutate(&c)
		if got := accept(c); got != tc.want {
			t.Fatalf("%s: accept=%v want %v", tc.name, got, tc.want)
		}
	}
}

type staticDirectory struct {
	list []Handle
	err  error
}

func (s staticDirectory) List() ([]Handle, error) { return s.list, s.err }

func TestFind(t *testing.T) {
	d := staticDirectory{list: []Handle{
		{ID: 1, Title: "Notepad"},
		{ID: 2, Title: "Plot - Farm"},
		{ID: 3, Title: "Plot - Farm 2"},
	}}
	h, ok, err := Find(d, "Plot")
	if err != nil || !ok {
		t.Fatalf("expected window, ok=%v err=%v", ok, err)
	}
	if h.ID != 2 {
		t.Fatalf("expected first match in enumeration order, got %d", h.ID)
	}
}

func TestFind_NotFoundIsAbsent(t *testing.T) {
	d := staticDirectory{list: []Handle{{ID: 1, Title: "Notepad"}}}
	h, ok, err := Find(d, "nonexistent-title-xyz")
	if err != nil {
		t.Fatalf("not found must not be an error: %v", err)
	}
	if ok || h.ID != 0 {
		t.Fatalf("expected absent handle, got %+v", h)
	}
}

func TestFind_PropagatesListError(t *testing.T) {
	boom := errors.New("boom")
	if _, _, err := Find(staticDirectory{err: boom}, "x"); !errors.Is(err, boom) {
		t.Fatalf("expected list error, got %v", err)
	}
}

func TestHandle_Region(t *testing.T) {
	h := Handle{X: 10, Y: 20, Width: 300, Height: 200}
	if r := h.Region(); r != (geometry.Region{X: 10, Y: 20, Width: 300, Height: 200}) {
		t.Fatalf("unexpected region %v", r)
	}
}
