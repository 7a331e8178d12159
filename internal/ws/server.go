// Package ws serves the light server's command surface: JSON over HTTP
// plus websocket streams of frames and diagnostics.
package ws

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-lightserver/internal/codec"
	"github.com/coreman2200/funtimes-lightserver/internal/config"
	"github.com/coreman2200/funtimes-lightserver/internal/engine"
	"github.com/coreman2200/funtimes-lightserver/internal/program"
	"github.com/coreman2200/funtimes-lightserver/internal/selftest"
	"github.com/coreman2200/funtimes-lightserver/internal/store"
	"github.com/coreman2200/funtimes-lightserver/internal/validate"
	"github.com/coreman2200/funtimes-lightserver/model"
)

// Default and ceiling for the GET /programs limit.
const (
	programsLimit    = 20
	maxProgramsLimit = 100
)

// maxBody bounds request bodies. Program size itself is judged by the
// validator so an oversized program still gets a ProgramTooBig result.
const maxBody = 1 << 20

// Controller is what the server drives.
type Controller interface {
	LoadProgram(ctx context.Context, text string, store bool) (Load, error)
	ValidateProgram(text string) validate.Result
	Programs(ctx context.Context, limit int) ([]StoredProgram, error)
	StopProgram()
	PauseProgram()
	ResumeProgram()
	PowerOff() error
	PowerOn(c model.Colour) error
	Powered() bool
	SetLeds(ctx context.Context, n int) error
	SelfTest(kind selftest.Kind) error
	About() About
	Health() Health
}

// Load is the outcome of a program load.
type Load struct {
	validate.Result
	Name   string `json:"name,omitempty"`
	Stored bool   `json:"stored"`
}

// StoredProgram is one entry of the program store.
type StoredProgram struct {
	Name        string    `json:"name"`
	Fingerprint string    `json:"fingerprint"`
	StoredAt    time.Time `json:"stored_at"`
}

type ProgramInfo struct {
	Name        string    `json:"name"`
	Fingerprint string    `json:"fingerprint"`
	Leaves      int       `json:"leaves"`
	Repeats     int       `json:"repeats"`
	LoadedAt    time.Time `json:"loaded_at"`
}

type About struct {
	Leds    int                `json:"leds"`
	Version string             `json:"version"`
	Driver  string             `json:"driver"`
	State   engine.PlayerState `json:"state"`
	Program *ProgramInfo       `json:"program,omitempty"`
}

type Health struct {
	FrameID uint64  `json:"frame_id"`
	Ticks   uint64  `json:"ticks"`
	UptimeS float64 `json:"uptime_s"`
	Leds    int     `json:"leds"`
	State   string  `json:"state"`
}

type Server struct {
	ctrl     Controller
	hub      *Hub
	user     string
	password string
	log      zerolog.Logger
}

func NewServer(ctrl Controller, hub *Hub, auth config.HTTP) *Server {
	return &Server{
		ctrl:     ctrl,
		hub:      hub,
		user:     auth.User,
		password: auth.Password,
		log:      log.Logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /program", s.handleLoad)
	mux.HandleFunc("POST /program/validate", s.handleValidate)
	mux.HandleFunc("DELETE /program", s.handleStop)
	mux.HandleFunc("GET /programs", s.handlePrograms)
	mux.HandleFunc("POST /program/pause", s.handlePause)
	mux.HandleFunc("POST /program/resume", s.handleResume)
	mux.HandleFunc("GET /power", s.handlePower)
	mux.HandleFunc("POST /power/on", s.handlePowerOn)
	mux.HandleFunc("POST /power/off", s.handlePowerOff)
	mux.HandleFunc("GET /about", s.handleAbout)
	mux.HandleFunc("POST /leds", s.handleLeds)
	mux.HandleFunc("POST /selftest", s.handleSelfTest)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.hub.HandleFramesWS)
	mux.HandleFunc("GET /diag", s.hub.HandleDiagWS)
	return withCORS(s.withAuth(mux))
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	text, ok := readBody(w, r)
	if !ok {
		return
	}
	store := r.URL.Query().Get("store") == "1"
	res, err := s.ctrl.LoadProgram(r.Context(), text, store)
	status := http.StatusOK
	switch {
	case errors.Is(err, program.ErrArenaFull):
		status = http.StatusInsufficientStorage
	case errors.Is(err, engine.ErrInvalidProgram):
		status = http.StatusBadRequest
	case err != nil && res.OK():
		// activated, but persisting it failed
		s.log.Warn().Err(err).Msg("store program")
	case err != nil:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, loadResponse{Load: res, Code: res.Code.String()})
}

type loadResponse struct {
	Load
	Code string `json:"code"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	text, ok := readBody(w, r)
	if !ok {
		return
	}
	res := s.ctrl.ValidateProgram(text)
	status := http.StatusOK
	if !res.OK() {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, loadResponse{Load: Load{Result: res}, Code: res.Code.String()})
}

func (s *Server) handlePrograms(w http.ResponseWriter, r *http.Request) {
	limit := programsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = min(n, maxProgramsLimit)
	}
	ps, err := s.ctrl.Programs(r.Context(), limit)
	switch {
	case errors.Is(err, store.ErrNoStore):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if ps == nil {
		ps = []StoredProgram{}
	}
	writeJSON(w, http.StatusOK, map[string][]StoredProgram{"programs": ps})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.ctrl.StopProgram()
	writeJSON(w, http.StatusOK, s.ctrl.About())
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.ctrl.PauseProgram()
	writeJSON(w, http.StatusOK, s.ctrl.About())
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.ctrl.ResumeProgram()
	writeJSON(w, http.StatusOK, s.ctrl.About())
}

type powerResponse struct {
	Power string `json:"power"`
}

func (s *Server) power(w http.ResponseWriter) {
	p := "off"
	if s.ctrl.Powered() {
		p = "on"
	}
	writeJSON(w, http.StatusOK, powerResponse{Power: p})
}

func (s *Server) handlePower(w http.ResponseWriter, r *http.Request) {
	s.power(w)
}

func (s *Server) handlePowerOn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Colour string `json:"colour"`
	}
	// an absent or unreadable body means white
	_ = json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req)
	c := model.White
	if len(req.Colour) == codec.ColourLen {
		if v, ok := codec.DecodeColour(req.Colour); ok {
			c = v
		}
	}
	if err := s.ctrl.PowerOn(c); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.power(w)
}

func (s *Server) handlePowerOff(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.PowerOff(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.power(w)
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.About())
}

func (s *Server) handleLeds(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Leds int `json:"leds"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Leds < 1 || req.Leds > config.MaxLEDs {
		writeError(w, http.StatusBadRequest, errors.New("leds must be 1..1000"))
		return
	}
	if err := s.ctrl.SetLeds(r.Context(), req.Leds); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.About())
}

func (s *Server) handleSelfTest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pattern string `json:"pattern"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	kind, err := selftest.Parse(req.Pattern)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.ctrl.SelfTest(kind); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"pattern": string(kind)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Health())
}

func readBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return "", false
	}
	return string(b), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) withAuth(h http.Handler) http.Handler {
	if s.user == "" {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), []byte(s.user)) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), []byte(s.password)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="lightserver"`)
			writeError(w, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}
		h.ServeHTTP(w, r)
	})
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}
