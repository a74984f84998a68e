package action

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/soocke/pixel-clicker-go/domain/geometry"
)

var (
	// ErrBusy is returned when another input sequence holds the device.
	ErrBusy = errors.New("input device busy")
	// ErrPointerOutside is returned by ClickInside when the pointer is not
	// over the given region.
	ErrPointerOutside = errors.New("pointer outside region")
	// ErrUnsupported is returned by pointers that lack a capability.
	ErrUnsupported = errors.New("input not supported")
)

// Button identifies a mouse button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	default:
		return fmt.Sprintf("button(%d)", int(b))
	}
}

// ParseButton maps "left"/"right" (any case) to a Button. Empty means left.
func ParseButton(s string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left":
		return ButtonLeft, nil
	case "right":
		return ButtonRight, nil
	default:
		return ButtonLeft, fmt.Errorf("unknown button %q", s)
	}
}

// Pointer is a device that can move the cursor and press buttons. It is not
// required to be safe for concurrent use; Clicker serializes access.
type Pointer interface {
	MovePointer(x, y int) error
	PressButton(b Button) error
	ReleaseButton(b Button) error
	Position() (x, y int, err error)
}

// DefaultSettle is the pause between press and release.
const DefaultSettle = 50 * time.Millisecond

// Clicker owns a Pointer and runs complete input sequences on it one at a
// time. A caller that finds the device in use gets ErrBusy immediately
// instead of waiting.
type Clicker struct {
	mu     sync.Mutex
	p      Pointer
	settle time.Duration
	logger *slog.Logger
	sleep  func(time.Duration)
}

// NewClicker wraps p. A non-positive settle uses DefaultSettle.
func NewClicker(p Pointer, settle time.Duration, logger *slog.Logger) *Clicker {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Clicker{p: p, settle: settle, logger: logger, sleep: time.Sleep}
}

// Click moves to pt and clicks b there.
func (c *Clicker) Click(pt geometry.Point, b Button) error {
	if !c.mu.TryLock() {
		return ErrBusy
	}
	defer c.mu.Unlock()
	if err := c.p.MovePointer(pt.X, pt.Y); err != nil {
		return fmt.Errorf("move pointer to %d,%d: %w", pt.X, pt.Y, err)
	}
	return c.press(b)
}

// ClickBox clicks the center of box.
func (c *Clicker) ClickBox(box geometry.Box, b Button) error {
	return c.Click(box.Center(), b)
}

// ClickInside clicks b at the current pointer position, but only while the
// pointer is inside r. It returns the position clicked.
func (c *Clicker) ClickInside(r geometry.Region, b Button) (geometry.Point, error) {
	if !c.mu.TryLock() {
		return geometry.Point{}, ErrBusy
	}
	defer c.mu.Unlock()
	x, y, err := c.p.Position()
	if err != nil {
		return geometry.Point{}, fmt.Errorf("pointer position: %w", err)
	}
	pt := geometry.Point{X: x, Y: y}
	if !r.Contains(pt) {
		return pt, ErrPointerOutside
	}
	return pt, c.press(b)
}

// Move positions the pointer without clicking.
func (c *Clicker) Move(pt geometry.Point) error {
	if !c.mu.TryLock() {
		return ErrBusy
	}
	defer c.mu.Unlock()
	return c.p.MovePointer(pt.X, pt.Y)
}

// press must be called with mu held.
func (c *Clicker) press(b Button) error {
	if err := c.p.PressButton(b); err != nil {
		return fmt.Errorf("press %s: %w", b, err)
	}
	c.sleep(c.settle)
	if err := c.p.ReleaseButton(b); err != nil {
		return fmt.Errorf("release %s: %w", b, err)
	}
	if c.logger != nil {
		c.logger.Debug("input.click", "button", b.String())
	}
	return nil
}
