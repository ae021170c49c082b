// Package httpapi serves the JSON HTTP API.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/xtding233/gacha-battle/internal/service"
)

// maxBody caps request bodies.
const maxBody = 1 << 20

type errResp struct {
	Err  string       `json:"err"`
	Code service.Code `json:"code"`
}

// Handler routes every endpoint to the service.
type Handler struct {
	svc *service.Service
	log *slog.Logger
	mux *http.ServeMux
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{svc: svc, log: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	h.mux.HandleFunc("POST /profiles", h.handleCreateProfile)
	h.mux.HandleFunc("GET /profiles/{id}", h.handleGetProfile)
	h.mux.HandleFunc("PUT /profiles/{id}/decks/{deck}", h.handlePutDeck)
	h.mux.HandleFunc("POST /profiles/{id}/pull", h.handlePull)
	h.mux.HandleFunc("GET /gacha/simulate", h.handleSimulate)
	h.mux.HandleFunc("GET /shop", h.handleShop)
	h.mux.HandleFunc("GET /shop/budget", h.handleShopBudget)
	h.mux.HandleFunc("GET /profiles/{id}/shop/quote", h.handleShopQuote)
	h.mux.HandleFunc("POST /battles", h.handleStartBattle)
	h.mux.HandleFunc("GET /battles/{id}", h.handleGetBattle)
	h.mux.HandleFunc("GET /battles/{id}/events", h.handleBattleEvents)
	h.mux.HandleFunc("POST /battles/{id}/play", h.handlePlay)
	h.mux.HandleFunc("POST /battles/{id}/skip", h.handleSkip)
	return h
}

// ServeHTTP logs each request after it is served.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.mux.ServeHTTP(rec, r)
	h.log.Debug("http request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"duration", time.Since(start),
	)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err through the shared code table. Server faults are
// logged; client faults are not.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := service.CodeOf(err)
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errResp{Err: err.Error(), Code: code})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errResp{Err: msg, Code: service.CodeInvalidArgument})
}

// decodeBody reads a JSON body into v. An empty body leaves v unchanged.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func parseFloat(r *http.Request, key string) (float64, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, "invalid " + key
	}
	return v, true, ""
}

func parseInt(r *http.Request, key string) (int, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, "invalid " + key
	}
	return v, true, ""
}

func parseBool(r *http.Request, key string) (bool, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return false, false, ""
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, false, "invalid " + key
	}
	return v, true, ""
}
