package site

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotBuilt is returned when the site output is missing its index document.
var ErrNotBuilt = errors.New("site is not prepared to upload")

// CheckBuilt verifies that localRoot contains the index document as a regular file.
func CheckBuilt(localRoot, index string) error {
	p := filepath.Join(localRoot, index)
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s does not exist", ErrNotBuilt, p)
		}
		return fmt.Errorf("%w: %w", ErrNotBuilt, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrNotBuilt, p)
	}
	return nil
}
