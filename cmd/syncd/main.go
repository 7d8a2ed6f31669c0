// syncd exposes the sync pipeline over HTTP: health, on-demand sync
// sessions per source, and the weather backfill job. One sync session
// runs at a time; concurrent triggers are rejected rather than queued.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	shared "github.com/stridelog/server/pkg"
	"github.com/stridelog/server/pkg/bootstrap"
	"github.com/stridelog/server/pkg/enrich/weather"
	"github.com/stridelog/server/pkg/infrastructure/sentry"
	"github.com/stridelog/server/pkg/processor"
	"github.com/stridelog/server/pkg/source"
	"github.com/stridelog/server/pkg/syncer"
	"github.com/stridelog/server/pkg/types"
)

type server struct {
	db     shared.Database
	syncer *syncer.Syncer
	proc   *processor.Processor

	// Guards the single-session rule: the scraper and weather API are
	// rate-limited, so sessions never overlap.
	busy sync.Mutex
}

func main() {
	ctx := context.Background()

	svc, err := bootstrap.NewService(ctx)
	if err != nil {
		slog.Error("Service init failed", "error", err)
		os.Exit(1)
	}

	if err := sentry.Init(sentry.Config{
		DSN:         svc.Config.SentryDSN,
		Environment: os.Getenv("ENVIRONMENT"),
		ServerName:  "syncd",
	}, slog.Default()); err != nil {
		slog.Warn("Sentry init failed", "error", err)
	}
	defer sentry.Flush(2 * time.Second)

	srv := &server{
		db:     svc.DB,
		syncer: syncer.New(svc),
		proc: &processor.Processor{
			DB:      svc.DB,
			Weather: weather.NewClient(),
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", srv.handleHealthz)
	r.Post("/sync/{source}", srv.handleSync)
	r.Post("/backfill/weather", srv.handleBackfill)
	r.Get("/activities/{id}", srv.handleGetActivity)
	r.Delete("/activities/{id}", srv.handleDeleteActivity)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	slog.Info("syncd listening", "port", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSync runs one sync session. Optional query params: limit,
// start_date and end_date (RFC 3339).
func (s *server) handleSync(w http.ResponseWriter, r *http.Request) {
	if !s.busy.TryLock() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a sync session is already running"})
		return
	}
	defer s.busy.Unlock()

	src := types.Source(chi.URLParam(r, "source"))

	query := source.Query{}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		query.Limit = limit
	}
	for param, dst := range map[string]*time.Time{
		"start_date": &query.StartDate,
		"end_date":   &query.EndDate,
	} {
		if v := r.URL.Query().Get(param); v != "" {
			ts, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + param})
				return
			}
			*dst = ts
		}
	}

	result, err := s.syncer.Sync(r.Context(), src, query)
	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, result)
}

func (s *server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	if !s.busy.TryLock() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a sync session is already running"})
		return
	}
	defer s.busy.Unlock()

	delay := time.Duration(0)
	if v := r.URL.Query().Get("delay_ms"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid delay_ms"})
			return
		}
		delay = time.Duration(ms) * time.Millisecond
	}

	result, err := s.proc.BackfillMissingWeather(r.Context(), delay)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetActivity returns one activity with its splits.
func (s *server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := s.db.GetActivity(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	splits, err := s.db.ListSplits(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"activity": record,
		"splits":   splits,
	})
}

// handleDeleteActivity removes an activity and its splits. Re-syncing
// the source will re-ingest it with a fresh ID.
func (s *server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.db.DeleteActivity(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}
