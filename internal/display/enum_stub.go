//go:build !windows

package display

// enumMonitors is a stub for non-Windows platforms. Mouse tracking is
// Windows-only; other platforms see a single default rectangle so the
// rest of the pipeline keeps working with centered input.
func enumMonitors() []Monitor {
	m := DefaultMonitor
	m.Name = "All Monitors (Virtual Screen)"
	return []Monitor{m}
}
