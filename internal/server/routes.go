package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lguimbarda/reportflow/report"
	"github.com/lguimbarda/reportflow/report/importer"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	maxSubmitBody       = 64 << 10
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Get("/status", statusHandler(cfg))
	r.Get("/slots/{name}", slotHandler(cfg))
	r.Post("/submit", submitHandler(cfg))
	r.Get("/history", historyHandler(cfg))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, StatusResponse{Status: cfg.Pipeline.Status().Current()})
	}
}

func slotHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		var resp SlotResponse
		switch name {
		case "content":
			resp = slotView(name, cfg.Pipeline.Content().Current())
		case "report":
			resp = slotView(name, cfg.Pipeline.Report().Current())
		case "project":
			resp = slotView(name, cfg.Pipeline.Project().Current())
		default:
			WriteError(w, http.StatusNotFound, "unknown slot "+strconv.Quote(name), "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func submitHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmitBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		switch {
		case req.URL != nil && req.File != nil:
			WriteError(w, http.StatusBadRequest, "set either url or file", "BAD_REQUEST")
			return
		case req.URL != nil:
			cfg.Pipeline.SubmitURL(report.URL(*req.URL))
		case req.File != nil:
			cfg.Pipeline.Submit(importer.Import(*req.File))
		default:
			WriteError(w, http.StatusBadRequest, "url or file is required", "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusAccepted, StatusResponse{Status: cfg.Pipeline.Status().Current()})
	}
}

func historyHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.History == nil {
			WriteError(w, http.StatusNotFound, "history is disabled", "NOT_FOUND")
			return
		}

		limit := defaultHistoryLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				WriteError(w, http.StatusBadRequest, "limit must be a positive integer", "BAD_REQUEST")
				return
			}
			limit = min(n, maxHistoryLimit)
		}

		entries, err := cfg.History.Recent(r.Context(), limit)
		if err != nil {
			cfg.Logger.Error("Failed to read history", "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to read history", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, HistoryResponse{Runs: entries})
	}
}
