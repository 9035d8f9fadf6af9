package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agurod42/outfox-health/internal/apperr"
	"github.com/agurod42/outfox-health/internal/query"
	"github.com/agurod42/outfox-health/internal/search"
)

const maxAskBody = 64 * 1024

type handlers struct {
	svc Searcher
	log zerolog.Logger
}

// GET /providers?drg=&zip=&radius_km=
func (h *handlers) providers(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	f := query.Filter{
		DRG: strings.TrimSpace(qs.Get("drg")),
		ZIP: strings.TrimSpace(qs.Get("zip")),
	}
	if f.DRG == "" && f.ZIP == "" {
		respondError(w, http.StatusBadRequest, "Please provide at least drg or zip")
		return
	}
	if f.ZIP != "" && !isZip5(f.ZIP) {
		respondError(w, http.StatusBadRequest, "zip must be exactly 5 digits")
		return
	}
	if raw := strings.TrimSpace(qs.Get("radius_km")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "radius_km must be a number")
			return
		}
		f.RadiusKm = v
	}

	out, err := h.svc.Providers(r.Context(), f)
	if err != nil {
		kind := apperr.KindOf(err)
		if kind == apperr.KindUnknown || kind == apperr.KindQueryExecution {
			h.log.Error().Err(err).Msg("provider search failed")
		}
		respondError(w, kind.HTTPStatus(), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// POST /ask
func (h *handlers) ask(w http.ResponseWriter, r *http.Request) {
	var req search.AskRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAskBody))
	if err := dec.Decode(&req); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	respondJSON(w, http.StatusOK, h.svc.Ask(r.Context(), req))
}

// GET /healthz
func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "db_unavailable: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

func isZip5(s string) bool {
	if len(s) != 5 {
		return false
	}
	for i := 0; i < 5; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
