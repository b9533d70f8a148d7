// Package api exposes the game to a presentation layer over HTTP.
// GET endpoints and the WebSocket stream are read-only. Player commands
// are rate-limited POSTs. Session control needs the admin bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/pigeon-pope/internal/engine"
	"github.com/talgya/pigeon-pope/internal/persistence"
)

const (
	maxWSConns        = 8
	defaultStreamRate = time.Second
)

// Server serves one game session over HTTP.
type Server struct {
	Game     *engine.Game
	Eng      *engine.Engine
	DB       *persistence.DB
	Port     int
	AdminKey string // Bearer token for admin endpoints. Empty disables them.
	SaveSlot string

	// StreamEvery is the WebSocket snapshot cadence.
	StreamEvery time.Duration
	// Commands limits player commands per client.
	Commands *RateLimiter

	upgrader websocket.Upgrader
	wsConns  atomic.Int32
}

// CommandRequest is the body of POST /api/v1/command/{name}. Which fields
// matter depends on the command.
type CommandRequest struct {
	ID     string `json:"id,omitempty"`
	Option int    `json:"option,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// CommandResponse wraps an engine result with its failure class.
type CommandResponse struct {
	engine.Result
	Error string `json:"error,omitempty"`
}

type command func(g *engine.Game, req CommandRequest) engine.Result

var commands = map[string]command{
	"play_card":        func(g *engine.Game, req CommandRequest) engine.Result { return g.PlayCard(req.ID) },
	"upgrade_building": func(g *engine.Game, req CommandRequest) engine.Result { return g.UpgradeBuilding(req.ID) },
	"propose_treaty":   func(g *engine.Game, req CommandRequest) engine.Result { return g.ProposeTreaty(req.ID) },
	"select_dogma":     func(g *engine.Game, req CommandRequest) engine.Result { return g.SelectDogma(req.ID) },
	"start_dialogue":   func(g *engine.Game, req CommandRequest) engine.Result { return g.StartDialogue(req.ID) },
	"open_next_message": func(g *engine.Game, _ CommandRequest) engine.Result {
		return g.OpenNextMessage()
	},
	"resolve_dialogue": func(g *engine.Game, req CommandRequest) engine.Result {
		return g.ResolveDialogueChoice(req.Option)
	},
	"open_loot_box": func(g *engine.Game, req CommandRequest) engine.Result { return g.OpenLootBox(req.ID) },
	"praise":        func(g *engine.Game, req CommandRequest) engine.Result { return g.PraiseFollower(req.ID) },
	"excommunicate": func(g *engine.Game, req CommandRequest) engine.Result { return g.Excommunicate(req.ID) },
	"unlock_skill":  func(g *engine.Game, req CommandRequest) engine.Result { return g.UnlockSkill(req.ID) },
	"use_skill":     func(g *engine.Game, req CommandRequest) engine.Result { return g.UseSkill(req.ID) },
	"use_ability":   func(g *engine.Game, req CommandRequest) engine.Result { return g.UseBossAbility(req.ID) },
	// The map panel reports how many sectors the player holds.
	"set_territory": func(g *engine.Game, req CommandRequest) engine.Result {
		n := g.SetTerritory(req.Count)
		return engine.Result{OK: true, Message: fmt.Sprintf("The flock holds %d sector(s).", n)}
	},
	"draw_cards": func(g *engine.Game, req CommandRequest) engine.Result {
		n := g.DrawCards(max(req.Count, 1))
		return engine.Result{OK: n > 0, Message: fmt.Sprintf("Drew %d card(s).", n)}
	},
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	if s.Commands == nil {
		s.Commands = NewRateLimiter(600, time.Minute)
	}
	if s.StreamEvery <= 0 {
		s.StreamEvery = defaultStreamRate
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()

	// Public read-only endpoints.
	mux.HandleFunc("GET /api/v1/state", s.handleState)
	mux.HandleFunc("GET /api/v1/chronicle", s.handleChronicle)
	mux.HandleFunc("GET /api/v1/ws", s.handleWS)

	// Player commands.
	mux.HandleFunc("POST /api/v1/command/{name}", s.Commands.Limit(s.handleCommand))

	// Admin endpoints.
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("POST /api/v1/save", s.adminOnly(s.handleSave))
	mux.HandleFunc("GET /api/v1/slots", s.adminOnly(s.handleSlots))

	return corsMiddleware(mux)
}

// Start serves the API in a goroutine until ctx is done.
func (s *Server) Start(ctx context.Context) *http.Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "")

	go s.Commands.Sweep(ctx)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			slog.Warn("HTTP shutdown", "error", err)
		}
	}()
	return srv
}

// corsMiddleware allows localhost dev servers plus any origin listed in
// ROOST_CORS_ORIGINS (comma-separated).
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range strings.Split(os.Getenv("ROOST_CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return found && token == s.AdminKey
}

// adminOnly requires the admin bearer token.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no admin_key set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Game.Snapshot())
}

func (s *Server) handleChronicle(w http.ResponseWriter, r *http.Request) {
	limit := engine.VisibleEvents
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= engine.MaxEvents {
			limit = n
		}
	}
	writeJSON(w, s.Game.Chronicle(limit))
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	cmd, ok := commands[name]
	if !ok {
		http.Error(w, "unknown command", http.StatusNotFound)
		return
	}
	if s.Eng != nil && !s.Eng.Playing() {
		http.Error(w, "session is not playing", http.StatusConflict)
		return
	}

	var req CommandRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}

	res := cmd(s.Game, req)
	resp := CommandResponse{Result: res}
	status := http.StatusOK
	if !res.OK && res.Err != nil {
		resp.Error = res.Err.Error()
		status = statusFor(res.Err)
	}
	slog.Debug("command", "name", name, "id", req.ID, "ok", res.OK)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidReference):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInsufficientResources):
		return http.StatusPaymentRequired
	case errors.Is(err, engine.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "no engine", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 100 {
			http.Error(w, "speed must be 0-100", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}
	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "no engine", http.StatusServiceUnavailable)
		return
	}
	if err := s.Eng.SaveNow(r.Context()); err != nil {
		slog.Error("manual save failed", "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"tick":    s.Game.CurrentTick(),
		"slot":    s.SaveSlot,
		"message": "session saved",
	})
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	slots, err := s.DB.Slots(r.Context())
	if err != nil {
		http.Error(w, "list slots failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, slots)
}

// handleWS streams a snapshot on connect and then every StreamEvery until
// the client goes away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.wsConns.Add(1) > maxWSConns {
		s.wsConns.Add(-1)
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	defer s.wsConns.Add(-1)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// The read pump only exists to notice the client closing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	slog.Debug("stream client connected", "remote", r.RemoteAddr)
	ticker := time.NewTicker(s.StreamEvery)
	defer ticker.Stop()

	for {
		b, err := json.Marshal(s.Game.Snapshot())
		if err != nil {
			slog.Error("snapshot encode", "error", err)
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return
		}

		select {
		case <-ticker.C:
		case <-gone:
			slog.Debug("stream client disconnected", "remote", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
