//go:build windows

package display

import (
	"fmt"
	"log"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procGetSystemMetrics    = user32.NewProc("GetSystemMetrics")
	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfo      = user32.NewProc("GetMonitorInfoW")
)

const (
	smXVirtualScreen  = 76
	smYVirtualScreen  = 77
	smCXVirtualScreen = 78
	smCYVirtualScreen = 79

	monitorinfofPrimary = 1
)

type rect struct {
	Left, Top, Right, Bottom int32
}

type monitorInfo struct {
	Size    uint32
	Monitor rect
	Work    rect
	Flags   uint32
}

// enumMonitors lists the virtual screen first (ID 0), then each
// physical monitor from EnumDisplayMonitors (IDs from 1).
func enumMonitors() []Monitor {
	xv, _, _ := procGetSystemMetrics.Call(smXVirtualScreen)
	yv, _, _ := procGetSystemMetrics.Call(smYVirtualScreen)
	cxv, _, _ := procGetSystemMetrics.Call(smCXVirtualScreen)
	cyv, _, _ := procGetSystemMetrics.Call(smCYVirtualScreen)

	vw, vh := int(int32(cxv)), int(int32(cyv))
	if vw <= 0 || vh <= 0 {
		vw, vh = 1920, 1080
	}

	monitors := []Monitor{{
		ID:     VirtualScreenID,
		Name:   "All Monitors (Virtual Screen)",
		X:      int(int32(xv)),
		Y:      int(int32(yv)),
		Width:  vw,
		Height: vh,
	}}

	var physical []Monitor
	cb := syscall.NewCallback(func(hMonitor, hdc uintptr, lprc *rect, lparam uintptr) uintptr {
		var mi monitorInfo
		mi.Size = uint32(unsafe.Sizeof(mi))
		ret, _, _ := procGetMonitorInfo.Call(hMonitor, uintptr(unsafe.Pointer(&mi)))
		if ret != 0 {
			physical = append(physical, Monitor{
				X:       int(mi.Monitor.Left),
				Y:       int(mi.Monitor.Top),
				Width:   int(mi.Monitor.Right - mi.Monitor.Left),
				Height:  int(mi.Monitor.Bottom - mi.Monitor.Top),
				Primary: mi.Flags&monitorinfofPrimary != 0,
			})
		}
		return 1 // continue enumeration
	})

	ret, _, err := procEnumDisplayMonitors.Call(0, 0, cb, 0)
	if ret == 0 {
		log.Printf("Display: EnumDisplayMonitors failed: %v", err)
	}

	for i := range physical {
		m := &physical[i]
		m.ID = i + 1
		m.Name = fmt.Sprintf("Monitor %d (%dx%d)", m.ID, m.Width, m.Height)
		if m.Primary {
			m.Name += " - Primary"
		}
		switch {
		case m.X < 0:
			m.Name += " - Left"
		case m.X > 0:
			m.Name += " - Right"
		default:
			m.Name += " - Center"
		}
	}

	return append(monitors, physical...)
}
