// Package config provides configuration management for the pan/zoom
// controller.
package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// NumSlots is the number of independent pan/zoom slots.
const NumSlots = 2

// UseSceneDimensions is the viewport name sentinel meaning "derive the
// viewport from the enclosing scene's dimensions".
const UseSceneDimensions = "::USE_SCENE_DIMENSIONS::"

// Slot configures one independent pan/zoom slot.
type Slot struct {
	// Enabled is the master switch for this slot.
	Enabled bool `json:"enabled"`

	// TargetName/TargetUUID identify the source being panned/zoomed.
	TargetName string `json:"target_name"`
	TargetUUID string `json:"target_uuid,omitempty"`

	// ViewportName/ViewportUUID identify the viewport source, or
	// ViewportName holds UseSceneDimensions.
	ViewportName string `json:"viewport_name"`
	ViewportUUID string `json:"viewport_uuid,omitempty"`

	// SceneName/SceneUUID identify the scene holding both items.
	SceneName string `json:"scene_name"`
	SceneUUID string `json:"scene_uuid,omitempty"`

	// ZoomLevel is the zoom multiplier, 1.0 to 5.0.
	ZoomLevel float64 `json:"zoom_level"`

	// ZoomInDuration/ZoomOutDuration are transition times in seconds,
	// 0.0 to 1.0 each.
	ZoomInDuration  float64 `json:"zoom_in_duration"`
	ZoomOutDuration float64 `json:"zoom_out_duration"`

	// OffsetX/OffsetY shift the panned position by a constant pixel
	// amount, -2000 to 2000.
	OffsetX int `json:"offset_x"`
	OffsetY int `json:"offset_y"`

	// MonitorID selects the monitor tracked for mouse movement.
	// 0 means the whole virtual screen.
	MonitorID int `json:"monitor_id"`

	// PanHotkey/ZoomHotkey are global key combinations, e.g.
	// "Ctrl+Alt+P".
	PanHotkey  string `json:"pan_hotkey,omitempty"`
	ZoomHotkey string `json:"zoom_hotkey,omitempty"`
}

// UsesSceneDimensions reports whether the slot derives its viewport
// from the scene rather than a dedicated source.
func (s *Slot) UsesSceneDimensions() bool {
	return s.ViewportName == UseSceneDimensions
}

// Normalize clamps all values into their documented domains.
func (s *Slot) Normalize() {
	s.ZoomLevel = clampF(s.ZoomLevel, 1.0, 5.0)
	s.ZoomInDuration = clampF(s.ZoomInDuration, 0.0, 1.0)
	s.ZoomOutDuration = clampF(s.ZoomOutDuration, 0.0, 1.0)
	s.OffsetX = clampI(s.OffsetX, -2000, 2000)
	s.OffsetY = clampI(s.OffsetY, -2000, 2000)
	if s.MonitorID < 0 {
		s.MonitorID = 0
	}
}

// GeneralConfig contains settings shared by all slots.
type GeneralConfig struct {
	// UpdateRate is the tick frequency in Hz, 30 to 240.
	UpdateRate int `json:"update_rate"`

	// OBSAddress is the obs-websocket endpoint (host:port).
	OBSAddress string `json:"obs_address"`

	// OBSPassword authenticates against obs-websocket when set.
	OBSPassword string `json:"obs_password,omitempty"`

	// APIEnabled enables the local HTTP/WebSocket control server.
	APIEnabled bool `json:"api_enabled"`

	// APIPort is the control server port.
	APIPort int `json:"api_port"`

	// APIToken is an optional bearer token for control requests.
	APIToken string `json:"api_token,omitempty"`
}

// Config is the persisted application configuration.
type Config struct {
	Slots   [NumSlots]Slot `json:"slots"`
	General GeneralConfig  `json:"general"`
}

// Normalize clamps every value into its domain.
func (c *Config) Normalize() {
	for i := range c.Slots {
		c.Slots[i].Normalize()
	}
	if c.General.UpdateRate < 30 {
		c.General.UpdateRate = 30
	} else if c.General.UpdateRate > 240 {
		c.General.UpdateRate = 240
	}
}

// TickIntervalMS returns the timer interval derived from the update
// rate, rounded to whole milliseconds.
func (c *Config) TickIntervalMS() int {
	rate := c.General.UpdateRate
	if rate <= 0 {
		rate = 60
	}
	ms := (1000 + rate/2) / rate
	if ms < 1 {
		ms = 1
	}
	return ms
}

// DefaultConfig returns a new Config with sensible defaults.
func DefaultConfig() *Config {
	cfg := &Config{
		General: GeneralConfig{
			UpdateRate: 60,
			OBSAddress: "localhost:4455",
			APIEnabled: true,
			APIPort:    18090,
		},
	}
	for i := range cfg.Slots {
		cfg.Slots[i] = Slot{
			ViewportName:    UseSceneDimensions,
			ZoomLevel:       1.0,
			ZoomInDuration:  0.3,
			ZoomOutDuration: 0.3,
		}
	}
	cfg.Slots[0].PanHotkey = "Ctrl+Alt+P"
	cfg.Slots[0].ZoomHotkey = "Ctrl+Alt+Z"
	cfg.Slots[1].PanHotkey = "Ctrl+Alt+O"
	cfg.Slots[1].ZoomHotkey = "Ctrl+Alt+X"
	return cfg
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Manager handles loading and saving configuration.
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func()
}

// NewManager creates a new configuration manager.
func NewManager() (*Manager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return &Manager{
		configPath: configPath,
		config:     DefaultConfig(),
	}, nil
}

// NewManagerAt creates a manager on an explicit config file path.
func NewManagerAt(path string) *Manager {
	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}
}

func getConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "panzoomer")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "panzoomer")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "panzoomer")
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// Load reads the configuration from disk. A missing file keeps the
// defaults.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, m.config); err != nil {
		return err
	}
	m.config.Normalize()
	if m.onChanged != nil {
		m.onChanged()
	}
	return nil
}

// Save writes the configuration to disk.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config.Normalize()
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}

	log.Printf("Config: saving configuration to %s (%d bytes)", m.configPath, len(data))
	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.config
}

// Slot returns a copy of one slot's configuration, normalized. The
// index is 0-based.
func (m *Manager) Slot(i int) Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.config.Slots[i]
	s.Normalize()
	return s
}

// Set replaces the configuration.
func (m *Manager) Set(cfg Config) {
	m.mu.Lock()
	cfg.Normalize()
	*m.config = cfg
	m.mu.Unlock()
	if m.onChanged != nil {
		m.onChanged()
	}
}

// RegisterChangeCallback registers a function called when the config
// changes.
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}
