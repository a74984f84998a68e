package action

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/tarm/serial"
)

// SerialPointer drives a microcontroller that emulates a USB mouse. Each
// command is one line and the device answers every line with "ok":
//
//	move:<x>,<y>
//	press:<button>
//	release:<button>
//
// The device cannot report the cursor, so Position returns the last position
// this pointer moved to.
type SerialPointer struct {
	mu    sync.Mutex
	rw    io.ReadWriter
	r     *bufio.Reader
	x, y  int
	moved bool
}

// NewSerialPointer speaks the line protocol over rw.
func NewSerialPointer(rw io.ReadWriter) *SerialPointer {
	return &SerialPointer{rw: rw, r: bufio.NewReader(rw)}
}

// OpenSerialPointer opens a serial port at baud and wraps it. The returned
// closer releases the port.
func OpenSerialPointer(name string, baud int) (*SerialPointer, io.Closer, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:     name,
		Baud:     baud,
		Parity:   serial.ParityNone,
		StopBits: serial.Stop1,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open serial %s: %w", name, err)
	}
	return NewSerialPointer(port), port, nil
}

func (p *SerialPointer) MovePointer(x, y int) error {
	if err := p.command(fmt.Sprintf("move:%d,%d", x, y)); err != nil {
		return err
	}
	p.mu.Lock()
	p.x, p.y, p.moved = x, y, true
	p.mu.Unlock()
	return nil
}

func (p *SerialPointer) PressButton(b Button) error {
	return p.command("press:" + b.String())
}

func (p *SerialPointer) ReleaseButton(b Button) error {
	return p.command("release:" + b.String())
}

func (p *SerialPointer) Position() (int, int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.moved {
		return 0, 0, fmt.Errorf("%w: serial pointer position unknown before first move", ErrUnsupported)
	}
	return p.x, p.y, nil
}

func (p *SerialPointer) command(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := io.WriteString(p.rw, line+"\n"); err != nil {
		return fmt.Errorf("serial write %q: %w", line, err)
	}
	resp, err := p.r.ReadString('\n')
	if err != nil {
		return fmt.Errorf("serial read after %q: %w", line, err)
	}
	if resp = strings.TrimSpace(resp); resp != "ok" {
		return fmt.Errorf("unexpected response to %q: %q", line, resp)
	}
	return nil
}
