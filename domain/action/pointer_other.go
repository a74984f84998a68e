//go:build !windows && !linux

package action

// UnsupportedPointer rejects every request.
type UnsupportedPointer struct{}

// NewSystemPointer returns the fallback pointer.
func NewSystemPointer() UnsupportedPointer { return UnsupportedPointer{} }

func (UnsupportedPointer) MovePointer(int, int) error  { return ErrUnsupported }
func (UnsupportedPointer) PressButton(Button) error    { return ErrUnsupported }
func (UnsupportedPointer) ReleaseButton(Button) error  { return ErrUnsupported }
func (UnsupportedPointer) Position() (int, int, error) { return 0, 0, ErrUnsupported }
