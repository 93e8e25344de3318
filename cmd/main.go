// PanZoomer - mouse-driven pan/zoom control for OBS sources
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"panzoomer/internal/api"
	"panzoomer/internal/autostart"
	"panzoomer/internal/config"
	"panzoomer/internal/cursor"
	"panzoomer/internal/display"
	"panzoomer/internal/engine"
	"panzoomer/internal/hotkey"
	"panzoomer/internal/osutils"
	"panzoomer/internal/scene/obsws"
	"panzoomer/internal/tray"
)

var (
	version  = "1.0.0"
	listMons = flag.Bool("list", false, "List detected monitors")
	showVer  = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("panzoomer version %s\n", version)
		return
	}

	// Initialize config
	cfgMgr, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}
	if err := cfgMgr.Load(); err != nil {
		log.Printf("Warning: failed to load config: %v", err)
	}

	if *listMons {
		listMonitors()
		return
	}

	runService(cfgMgr)
}

func listMonitors() {
	displays := display.NewResolver()

	fmt.Println("Detected Monitors:")
	fmt.Println("------------------")
	for _, mon := range displays.List() {
		fmt.Printf("ID: %d\n", mon.ID)
		fmt.Printf("  Name: %s\n", mon.Name)
		fmt.Printf("  Geometry: %dx%d at (%d,%d)\n", mon.Width, mon.Height, mon.X, mon.Y)
		if mon.Primary {
			fmt.Printf("  Primary: yes\n")
		}
		fmt.Println()
	}
}

func runService(cfgMgr *config.Manager) {
	log.Println("PanZoomer service starting...")

	cfg := cfgMgr.Get()

	// Handle signals early so the OBS wait loop is interruptible.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	client := dialOBS(cfg.General.OBSAddress, cfg.General.OBSPassword, sigCh)
	if client == nil {
		return
	}

	displays := display.NewResolver()
	eng := engine.New(client, displays, cursor.OS(), cfgMgr)

	refresh := func() error {
		displays.Invalidate()
		cfg := cfgMgr.Get()
		return client.Reconnect(cfg.General.OBSAddress, cfg.General.OBSPassword)
	}

	// Start API server if enabled
	var apiServer *api.Server
	if cfg.General.APIEnabled {
		if runtime.GOOS == "windows" {
			go func() {
				if err := osutils.EnsureFirewallRule(cfg.General.APIPort); err != nil {
					log.Printf("Firewall warning: %v", err)
				}
			}()
		}

		apiServer = api.NewServer(cfgMgr, eng, refresh)
		go func() {
			if err := apiServer.Start(cfg.General.APIPort); err != nil {
				log.Printf("API server error: %v", err)
			}
		}()
	}

	// Hotkey manager
	hkMgr := hotkey.NewManager()
	if err := hkMgr.Start(); err != nil {
		log.Printf("Warning: hotkey hooks failed to start: %v", err)
	}

	// Debouncer for hotkeys
	var lastHkTime time.Time
	var hkMux sync.Mutex
	debounce := func() bool {
		hkMux.Lock()
		defer hkMux.Unlock()
		if time.Since(lastHkTime) < 300*time.Millisecond {
			return false
		}
		lastHkTime = time.Now()
		return true
	}

	// Re-register hotkeys from the current config; called again on
	// every config change.
	refreshShortcuts := func() {
		cfg := cfgMgr.Get()
		hkMgr.Clear()

		for i := range cfg.Slots {
			slot := i
			sc := cfg.Slots[i]
			if !sc.Enabled {
				continue
			}
			if sc.PanHotkey != "" {
				hkMgr.Register(sc.PanHotkey, func() {
					if !debounce() {
						return
					}
					if err := eng.TogglePan(slot); err != nil {
						log.Printf("Toggle error: %v", err)
					}
				})
			}
			if sc.ZoomHotkey != "" {
				hkMgr.Register(sc.ZoomHotkey, func() {
					if !debounce() {
						return
					}
					if err := eng.ToggleZoom(slot); err != nil {
						log.Printf("Toggle error: %v", err)
					}
				})
			}
		}
		log.Printf("Shortcuts: registered hotkeys for %d slots", config.NumSlots)
	}

	refreshShortcuts()

	// Reconnect watchdog: OBS restarts should not require restarting
	// the service.
	stopCh := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !client.Connected() {
					cfg := cfgMgr.Get()
					if err := client.Reconnect(cfg.General.OBSAddress, cfg.General.OBSPassword); err != nil {
						log.Printf("OBS reconnect failed: %v", err)
					}
				}
			case <-stopCh:
				return
			}
		}
	}()

	// Tray instance
	t := tray.New("PanZoomer - mouse pan/zoom for OBS")

	panItems := make([]int, config.NumSlots)
	zoomItems := make([]int, config.NumSlots)
	for i := 0; i < config.NumSlots; i++ {
		slot := i
		panItems[i] = t.AddMenuItem(fmt.Sprintf("Slot %d: Toggle Pan", i+1), func() {
			if err := eng.TogglePan(slot); err != nil {
				log.Printf("Toggle error: %v", err)
			}
		})
		zoomItems[i] = t.AddMenuItem(fmt.Sprintf("Slot %d: Toggle Zoom", i+1), func() {
			if err := eng.ToggleZoom(slot); err != nil {
				log.Printf("Toggle error: %v", err)
			}
		})
		if i < config.NumSlots-1 {
			t.AddSeparator()
		}
	}

	t.AddSeparator()
	t.AddMenuItem("Refresh Monitors", func() {
		if err := refresh(); err != nil {
			log.Printf("Refresh error: %v", err)
		}
	})
	var autostartItem int
	autostartItem = t.AddMenuItem("Start at Login", func() {
		if autostart.IsEnabled() {
			if err := autostart.Disable(); err != nil {
				log.Printf("Autostart error: %v", err)
				return
			}
		} else {
			if err := autostart.Enable(); err != nil {
				log.Printf("Autostart error: %v", err)
				return
			}
		}
		t.SetItemChecked(autostartItem, autostart.IsEnabled())
	})
	t.AddSeparator()
	t.AddMenuItem("Quit", func() {
		t.Stop()
	})

	// Reflect live pan/zoom state in the tray and push it to API
	// WebSocket clients.
	eng.SetOnChange(func() {
		for _, st := range eng.Status() {
			t.SetItemChecked(panItems[st.Slot-1], st.PanActive)
			t.SetItemChecked(zoomItems[st.Slot-1], st.ZoomActive)
		}
		if apiServer != nil {
			apiServer.BroadcastStatus()
		}
	})

	// Tick loop. Interval follows the configured update rate; config
	// changes re-arm the ticker.
	intervalCh := make(chan time.Duration, 1)
	cfgMgr.RegisterChangeCallback(func() {
		refreshShortcuts()
		cfg := cfgMgr.Get()
		select {
		case intervalCh <- time.Duration(cfg.TickIntervalMS()) * time.Millisecond:
		default:
		}
	})
	go func() {
		cfg := cfgMgr.Get()
		interval := time.Duration(cfg.TickIntervalMS()) * time.Millisecond
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		log.Printf("Engine: tick loop running at %v", interval)
		for {
			select {
			case <-ticker.C:
				eng.Tick()
			case d := <-intervalCh:
				if d != interval {
					interval = d
					ticker.Reset(interval)
					log.Printf("Engine: tick interval now %v", interval)
				}
			case <-stopCh:
				return
			}
		}
	}()

	go func() {
		<-sigCh
		log.Println("Shutting down...")
		t.Stop()
	}()

	log.Println("PanZoomer running. Press Ctrl+C to stop.")
	t.Run()

	// Shutdown order matters: ticks must stop before the engine
	// restores transforms, and the socket closes last.
	close(stopCh)
	eng.Shutdown()
	client.Close()
	log.Println("PanZoomer stopped.")
}

// dialOBS retries until obs-websocket answers or the process is told
// to quit. Returns nil on interrupt.
func dialOBS(addr, password string, sigCh chan os.Signal) *obsws.Client {
	for {
		client, err := obsws.Dial(addr, password)
		if err == nil {
			return client
		}
		log.Printf("OBS not reachable (%v), retrying in 5s...", err)

		select {
		case <-time.After(5 * time.Second):
		case <-sigCh:
			log.Println("Interrupted while waiting for OBS.")
			return nil
		}
	}
}
