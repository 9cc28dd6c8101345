package devserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/aerstatic/aer/internal/metrics"
	"github.com/aerstatic/aer/internal/orchestrator"
	"github.com/aerstatic/aer/internal/store"
)

// Config wires together everything the dev server needs: where to
// serve built assets from, how to trigger a rebuild, and the optional
// build-history store.
type Config struct {
	Addr       string
	TargetRoot string
	Rebuild    func(context.Context) (orchestrator.Report, error)
	Store      *store.Store
	Registry   *prom.Registry
	Logger     *slog.Logger
}

// Server is the running dev server: an HTTP file server over the
// target tree, with live-reload injection, a /metrics endpoint, and a
// /history endpoint, refreshed by a debounced source-tree watcher.
type Server struct {
	cfg    Config
	hub    *LiveReloadHub
	logger *slog.Logger
}

// New constructs a Server. Call ListenAndServe to run it.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{cfg: cfg, hub: NewLiveReloadHub(cfg.Logger), logger: cfg.Logger}
}

// RebuildAndBroadcast runs cfg.Rebuild, records it to the history store
// (if configured), and broadcasts a live-reload signal derived from the
// build's report. It is the callback a SourceWatcher should call.
func (s *Server) RebuildAndBroadcast(ctx context.Context) error {
	report, err := s.cfg.Rebuild(ctx)
	if err != nil {
		return err
	}

	if s.cfg.Store != nil {
		_ = s.cfg.Store.Record(ctx, store.BuildRecord{
			BuildID:    report.BuildID,
			Timestamp:  time.Now(),
			DurationMS: report.Duration.Milliseconds(),
			Written:    report.AssetsWritten,
			Skipped:    report.AssetsWriteSkipped,
			Errored:    len(report.AssetsErrored),
		})
	}

	s.hub.Broadcast(buildHash(report))
	return nil
}

func buildHash(report orchestrator.Report) string {
	sum := sha256.Sum256([]byte(report.BuildID))
	return hex.EncodeToString(sum[:8])
}

// Handler builds the complete dev server mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	fileServer := http.FileServer(http.Dir(s.cfg.TargetRoot))
	mux.Handle("/", injectLiveReload(fileServer))

	mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		_, _ = w.Write([]byte(LiveReloadScript))
	})
	mux.Handle("/livereload", s.hub)

	if s.cfg.Registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.cfg.Registry))
	}

	if s.cfg.Store != nil {
		mux.HandleFunc("/history", s.serveHistory)
	}

	return mux
}

func (s *Server) serveHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.cfg.Store.Recent(r.Context(), 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp.After(records[j].Timestamp) })

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		s.logger.Error("failed to encode build history", "error", err)
	}
}

// ListenAndServe starts the HTTP server on cfg.Addr. It blocks until
// the server errors or is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("dev server listening", "addr", s.cfg.Addr)
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.Handler()}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("devserver: %w", err)
	}
	return nil
}
