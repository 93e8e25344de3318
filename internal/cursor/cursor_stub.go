//go:build !windows

package cursor

import "errors"

// ErrUnsupported is returned on platforms without a cursor accessor.
var ErrUnsupported = errors.New("cursor position not supported on this platform")

type osReader struct{}

func (osReader) Position() (int, int, error) {
	return 0, 0, ErrUnsupported
}
