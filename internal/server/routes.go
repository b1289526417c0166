package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/scythe504/speedboard/internal"
	"github.com/scythe504/speedboard/internal/game"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(s.corsMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/rooms/current", s.handleCurrentRoom).Methods(http.MethodGet)
	r.HandleFunc("/ranking/game/{sessionId}", s.handleGameRanking).Methods(http.MethodGet)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/ready", s.handleSetReady).Methods(http.MethodPost, http.MethodOptions)
	admin.HandleFunc("/rooms/{roomId}/reset", s.handleReset).Methods(http.MethodPost, http.MethodOptions)

	r.HandleFunc("/ws", s.handleWS)

	return r
}

func (s *Server) originAllowed(origin string) bool {
	if len(s.cfg.AllowedOrigins) == 0 || origin == "" {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigins, origin)
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(s.cfg.AllowedOrigins) == 0 {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		// Websocket upgrades check the origin themselves
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeResponse sends data in the standard envelope with response timings.
func writeResponse(w http.ResponseWriter, status int, start time.Time, data any) {
	end := time.Now().UnixMilli()
	resp := internal.Response{
		StatusCode:    status,
		RespStartTime: start.UnixMilli(),
		RespEndTime:   end,
		NetRespTime:   end - start.UnixMilli(),
		Data:          data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Str("module", "server").Msg("encode response")
	}
}

type healthData struct {
	Status  string `json:"status"`
	Store   string `json:"store"`
	Clients int    `json:"clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	data := healthData{Status: "ok", Store: "ok", Clients: s.hub.Count()}
	status := http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("module", "server").Msg("store ping failed")
		data.Status, data.Store = "degraded", "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeResponse(w, status, start, data)
}

type currentRoomData struct {
	RoomID    string              `json:"roomId"`
	Status    internal.RoomStatus `json:"status"`
	SessionID string              `json:"sessionId,omitempty"`
	Members   []internal.Member   `json:"members"`
}

func (s *Server) handleCurrentRoom(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	room, ok := s.ctrl.Active().Get()
	if !ok {
		writeResponse(w, http.StatusNotFound, start, "No active room")
		return
	}

	status, sid := s.ctrl.Status(room)
	writeResponse(w, http.StatusOK, start, currentRoomData{
		RoomID:    room,
		Status:    status,
		SessionID: sid,
		Members:   s.ctrl.Registry().Members(room),
	})
}

func (s *Server) handleGameRanking(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sessionID := mux.Vars(r)["sessionId"]
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", internal.DefaultRankingLimit)

	records, err := s.store.SessionRanking(r.Context(), sessionID, page, limit)
	if err != nil {
		log.Error().Err(err).Str("module", "server").Str("session", sessionID).Msg("ranking query failed")
		writeResponse(w, http.StatusServiceUnavailable, start, "Ranking unavailable")
		return
	}
	writeResponse(w, http.StatusOK, start, records)
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

type readyRequest struct {
	Ready bool `json:"ready"`
}

type readyData struct {
	Settings internal.Settings `json:"settings"`
	RoomID   string            `json:"roomId,omitempty"`
}

func (s *Server) handleSetReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req readyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, http.StatusBadRequest, start, "Invalid body")
		return
	}

	settings, room, err := s.ctrl.SetReady(r.Context(), req.Ready)
	switch {
	case errors.Is(err, game.ErrMinParticipantsRequired):
		writeResponse(w, http.StatusConflict, start, err.Error())
	case err != nil:
		log.Error().Err(err).Str("module", "server").Bool("ready", req.Ready).Msg("set ready failed")
		writeResponse(w, http.StatusServiceUnavailable, start, "Settings unavailable")
	default:
		writeResponse(w, http.StatusOK, start, readyData{Settings: settings, RoomID: room})
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	room := mux.Vars(r)["roomId"]
	s.ctrl.Reset(room)
	writeResponse(w, http.StatusOK, start, room)
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return s.originAllowed(r.Header.Get("Origin"))
		},
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if !s.limiter.Allow(ip) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("module", "server").Str("ip", ip).Msg("upgrade failed")
		return
	}

	game.NewClient(s.hub, s.ctrl, conn, s.cfg.TimeSyncInterval).Run()
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
