// Package api provides the local HTTP/WebSocket server for remote
// pan/zoom control and status monitoring.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"panzoomer/internal/config"
	"panzoomer/internal/engine"
)

// Server exposes toggle, refresh, config and status endpoints.
type Server struct {
	configMgr *config.Manager
	eng       *engine.Engine
	refresh   func() error
	token     string
	wsMgr     *WSManager
	proc      *process.Process
	started   time.Time
}

// NewServer wires the control server. refresh is called on
// POST /api/refresh and re-resolves external state such as the monitor
// layout; it may be nil.
func NewServer(configMgr *config.Manager, eng *engine.Engine, refresh func() error) *Server {
	s := &Server{
		configMgr: configMgr,
		eng:       eng,
		refresh:   refresh,
		started:   time.Now(),
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		s.proc = p
	}
	s.wsMgr = newWSManager(s)
	return s
}

// Start listens on the given port and serves until the listener fails.
// Blocking; run it on its own goroutine.
func (s *Server) Start(port int) error {
	cfg := s.configMgr.Get()
	s.token = cfg.General.APIToken

	go s.wsMgr.start()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/toggle", s.handleToggle)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/refresh", s.handleRefresh)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/ws", s.wsMgr.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	// tcp4 explicitly; plain ":port" can end up IPv6-only on Windows.
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Printf("API: starting control server on %s", addr)

	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		log.Printf("ERROR: API server failed to listen on %s: %v", addr, err)
		log.Printf("Note: pan/zoom keeps running without remote control.")
		return err
	}

	server := &http.Server{
		Handler: s.authMiddleware(s.recoverMiddleware(mux)),
	}
	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Printf("ERROR: API server stopped: %v", err)
		return err
	}
	return nil
}

// recoverMiddleware prevents a handler panic from taking the whole
// process down.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("PANIC RECOV: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks the bearer token when one is configured.
// /health stays open for monitoring.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("API: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		if s.token != "" {
			if r.Header.Get("Authorization") != "Bearer "+s.token {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// handleToggle handles POST /api/toggle?slot=<1..2>&action=pan|zoom
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	slot, err := strconv.Atoi(r.URL.Query().Get("slot"))
	if err != nil || slot < 1 || slot > config.NumSlots {
		http.Error(w, "Invalid slot parameter", http.StatusBadRequest)
		return
	}
	action := r.URL.Query().Get("action")

	log.Printf("API: toggle %s on slot %d (remote request from %s)", action, slot, r.RemoteAddr)

	switch action {
	case "pan":
		err = s.eng.TogglePan(slot - 1)
	case "zoom":
		err = s.eng.ToggleZoom(slot - 1)
	default:
		http.Error(w, "Invalid action parameter", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"slot":   slot,
		"action": action,
	})
}

// handleRefresh handles POST /api/refresh - re-resolves monitors and
// other external state after a layout change.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.refresh != nil {
		if err := s.refresh(); err != nil {
			log.Printf("API: refresh error: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleConfig handles GET (read) and POST (replace) for the
// configuration.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		cfg := s.configMgr.Get()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cfg)

	case "POST":
		var newCfg config.Config
		if err := json.NewDecoder(r.Body).Decode(&newCfg); err != nil {
			http.Error(w, "Invalid configuration data", http.StatusBadRequest)
			return
		}

		log.Printf("API: receiving configuration update from %s", r.RemoteAddr)

		s.configMgr.Set(newCfg)
		if err := s.configMgr.Save(); err != nil {
			log.Printf("API: failed to save received config: %v", err)
			http.Error(w, "Failed to save configuration", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.statusPayload())
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type statusPayload struct {
	Slots         []engine.SlotStatus `json:"slots"`
	UptimeSeconds int64               `json:"uptime_seconds"`
	CPUPercent    float64             `json:"cpu_percent,omitempty"`
	MemoryMB      float64             `json:"memory_mb,omitempty"`
}

func (s *Server) statusPayload() statusPayload {
	p := statusPayload{
		Slots:         s.eng.Status(),
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}
	if s.proc != nil {
		if cpu, err := s.proc.CPUPercent(); err == nil {
			p.CPUPercent = cpu
		}
		if mem, err := s.proc.MemoryInfo(); err == nil && mem != nil {
			p.MemoryMB = float64(mem.RSS) / (1024 * 1024)
		}
	}
	return p
}

// BroadcastStatus pushes the current slot status to all WebSocket
// clients. Wired to the engine's change callback.
func (s *Server) BroadcastStatus() {
	if s.wsMgr != nil {
		s.wsMgr.BroadcastStatus()
	}
}
