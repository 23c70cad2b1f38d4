// Package serverapp wires the whole application together: config in,
// one http.Handler out.
package serverapp

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/burnsbert/crumbwise/internal/board"
	"github.com/burnsbert/crumbwise/internal/calendar"
	"github.com/burnsbert/crumbwise/internal/clock"
	"github.com/burnsbert/crumbwise/internal/config"
	"github.com/burnsbert/crumbwise/internal/httpmw"
	"github.com/burnsbert/crumbwise/internal/section"
	"github.com/burnsbert/crumbwise/internal/settings"
	"github.com/burnsbert/crumbwise/internal/store"
	"github.com/burnsbert/crumbwise/internal/wiki"
)

type Options struct {
	Config *config.Config
	Logger *log.Logger
	Clock  clock.Clock
}

func NewHandler(opts Options) (http.Handler, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	dataDir := strings.TrimSpace(opts.Config.Server.DataDir)
	if dataDir == "" {
		dataDir = "data"
	}

	sections := section.NewTable(opts.Config.Sections)
	timeout := time.Duration(opts.Config.External.RequestTimeoutSeconds) * time.Second

	svc := board.NewService(board.Options{
		Store:    store.New(dataDir, sections, opts.Clock),
		Settings: settings.NewFileStore(dataDir),
		Sections: sections,
		Wiki:     wiki.NewClient(timeout),
		Calendar: calendar.NewClient(opts.Config.External.CalendarBaseURL, timeout),
		Clock:    opts.Clock,
	})

	mux := http.NewServeMux()
	board.NewHandler(svc).Register(mux)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "crumbwise",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := svc.Tasks(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "task storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "crumbwise",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	return httpmw.Chain(
		mux,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRequestID,
		httpmw.WithRecover(opts.Logger),
	), nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
