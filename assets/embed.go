package assets

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ExampleTargets is a starter target manifest written by the init command.
//
//go:embed targets.example.yaml
var ExampleTargets []byte

// WriteExampleTargets writes ExampleTargets to path unless the file exists.
// It reports whether the file was written.
func WriteExampleTargets(path string) (bool, error) {
	if len(ExampleTargets) == 0 {
		return false, fmt.Errorf("embedded targets.example.yaml is empty")
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := f.Write(ExampleTargets); err != nil {
		f.Close()
		return false, err
	}
	return true, f.Close()
}
