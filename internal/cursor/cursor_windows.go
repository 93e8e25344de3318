//go:build windows

package cursor

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	procGetCursorPos = user32.NewProc("GetCursorPos")
)

type point struct {
	X, Y int32
}

type osReader struct{}

// Position reads the cursor via GetCursorPos. Coordinates are global
// virtual-screen coordinates and can be negative on multi-monitor
// setups.
func (osReader) Position() (int, int, error) {
	var pt point
	ret, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return 0, 0, fmt.Errorf("GetCursorPos failed: %w", err)
	}
	return int(pt.X), int(pt.Y), nil
}
