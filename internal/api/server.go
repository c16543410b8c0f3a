// Package api serves the signaling relay, health and metrics over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/davebowl/Canna-spot-mobile/internal/database"
	"github.com/davebowl/Canna-spot-mobile/internal/metrics"
	"github.com/davebowl/Canna-spot-mobile/internal/rtc"
)

// Options configure the HTTP server.
type Options struct {
	Addr   string
	Secret []byte
	// StaleAfter hides participants whose last heartbeat is older.
	StaleAfter time.Duration
}

// Server is the HTTP surface of the serve command.
type Server struct {
	http *http.Server
	log  zerolog.Logger
}

// NewRouter builds the handler tree. Exposed for tests.
func NewRouter(db *database.DB, store *rtc.Store, opts Options, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(Logger(log))
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(metrics.InstrumentHandler)

	r.Get("/healthz", healthHandler(db))
	r.Handle("/metrics", promhttp.Handler())

	relay := &relayHandler{store: store, staleAfter: opts.StaleAfter}

	r.Route("/api/rtc/rooms/{room}", func(r chi.Router) {
		r.Use(BearerAuth(opts.Secret))
		r.Post("/join", relay.join)
		r.Post("/heartbeat", relay.heartbeat)
		r.Post("/leave", relay.leave)
		r.Get("/participants", relay.participants)
		r.Post("/signals", relay.send)
		r.Get("/signals", relay.poll)
	})

	return r
}

// NewServer creates a server listening on opts.Addr.
func NewServer(db *database.DB, store *rtc.Store, opts Options, log zerolog.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           NewRouter(db, store, opts, log),
			ReadHeaderTimeout: 10 * time.Second, //nolint:mnd // header read budget
			IdleTimeout:       2 * time.Minute,  //nolint:mnd // keep-alive
		},
		log: log,
	}
}

// Start serves until Shutdown.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")

	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")

	return s.http.Shutdown(ctx)
}

func healthHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second) //nolint:mnd // ping budget
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			WriteErrorDetail(w, http.StatusServiceUnavailable, "database unreachable", err.Error())

			return
		}

		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "engine": string(db.Target.Engine)})
	}
}
