// Package api exposes the move engine and game sessions over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/twipi/tttbot/game"
	"github.com/twipi/tttbot/service"
)

// Handler is the HTTP handler of the service.
type Handler struct {
	svc       *service.Service
	router    chi.Router
	logger    *slog.Logger
	closed    chan struct{}
	closeOnce sync.Once
}

var _ http.Handler = (*Handler)(nil)

// NewHandler creates a new HTTP handler for svc.
func NewHandler(svc *service.Service, logger *slog.Logger) *Handler {
	h := &Handler{
		svc:    svc,
		logger: logger,
		closed: make(chan struct{}),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthCheck)
	r.Get("/move", h.move)
	r.Post("/clear-cache", h.clearCache)
	r.Get("/stats", h.stats)
	r.Route("/games", func(r chi.Router) {
		r.Post("/", h.newGame)
		r.Get("/{id}", h.getGame)
		r.Post("/{id}/moves", h.place)
	})
	r.Get("/ws/events", h.events)

	h.router = r
	return h
}

// ServeHTTP implements [http.Handler].
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// Close disconnects every event stream. It does not stop regular requests.
func (h *Handler) Close() error {
	h.closeOnce.Do(func() { close(h.closed) })
	return nil
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

type moveResponse struct {
	Move      int     `json:"move"`
	Source    string  `json:"source"`
	ElapsedMS float64 `json:"elapsed_ms"`
	CacheSize int     `json:"cache_size"`
}

func (h *Handler) move(w http.ResponseWriter, r *http.Request) {
	b, err := parseBoard(r.URL.Query().Get("board"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	res := h.svc.BestMove(b)
	elapsed := time.Since(start)

	writeJSON(w, http.StatusOK, moveResponse{
		Move:      res.Move,
		Source:    res.Source.String(),
		ElapsedMS: float64(elapsed.Microseconds()) / 1000,
		CacheSize: h.svc.Engine().CacheSize(),
	})
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) clearCache(w http.ResponseWriter, r *http.Request) {
	h.svc.Engine().ClearCache()
	writeJSON(w, http.StatusOK, messageResponse{Message: "cache cleared"})
}

type statsResponse struct {
	CacheSize        int `json:"cache_size"`
	OpeningPositions int `json:"opening_positions"`
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	e := h.svc.Engine()
	writeJSON(w, http.StatusOK, statsResponse{
		CacheSize:        e.CacheSize(),
		OpeningPositions: e.OpeningBookSize(),
	})
}

func (h *Handler) newGame(w http.ResponseWriter, r *http.Request) {
	humanFirst := true
	if v := r.URL.Query().Get("human_first"); v != "" {
		var err error
		humanFirst, err = strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("human_first must be a boolean"))
			return
		}
	}

	writeJSON(w, http.StatusCreated, h.svc.NewGame(humanFirst))
}

func (h *Handler) getGame(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Game(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) place(w http.ResponseWriter, r *http.Request) {
	pos, err := game.ParsePosition(r.URL.Query().Get("position"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	snap, err := h.svc.Place(chi.URLParam(r, "id"), pos)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrIllegalMove), errors.Is(err, service.ErrGameOver):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		h.logger.Debug(
			"handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
