//go:build !windows && !linux

package window

// UnsupportedDirectory is the fallback on platforms without a backend.
type UnsupportedDirectory struct{}

// NewDirectory returns a directory whose List always fails.
func NewDirectory() UnsupportedDirectory { return UnsupportedDirectory{} }

func (UnsupportedDirectory) List() ([]Handle, error) { return nil, ErrUnsupported }
