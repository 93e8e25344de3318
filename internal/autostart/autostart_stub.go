//go:build !windows

package autostart

import "fmt"

func enable() error {
	return fmt.Errorf("auto-start is only supported on Windows")
}

func disable() error {
	return fmt.Errorf("auto-start is only supported on Windows")
}

func isEnabled() bool {
	return false
}
