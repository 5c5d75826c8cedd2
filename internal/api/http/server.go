package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	appCooldown "github.com/engagement-ledger/ledger/internal/application/cooldown"
	appIngest "github.com/engagement-ledger/ledger/internal/application/ingest"
	appParticipation "github.com/engagement-ledger/ledger/internal/application/participation"
	appQuery "github.com/engagement-ledger/ledger/internal/application/query"
	appSettings "github.com/engagement-ledger/ledger/internal/application/settings"
	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	participationSvc *appParticipation.Service
	querySvc         *appQuery.Service
	ingestSvc        *appIngest.Service
	cooldownSvc      *appCooldown.Service
	settingsSvc      *appSettings.Service
	tokenHash        string
	requestTimeout   time.Duration
	logger           zerolog.Logger
}

// Deps are the services the API exposes.
type Deps struct {
	Participation *appParticipation.Service
	Query         *appQuery.Service
	Ingest        *appIngest.Service
	Cooldown      *appCooldown.Service
	Settings      *appSettings.Service
}

// NewServer builds the API. tokenHash is the bcrypt hash of the bearer token
// the platform integration presents; empty disables token checks.
func NewServer(deps Deps, tokenHash string, requestTimeout time.Duration, logger zerolog.Logger) *Server {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &Server{
		participationSvc: deps.Participation,
		querySvc:         deps.Query,
		ingestSvc:        deps.Ingest,
		cooldownSvc:      deps.Cooldown,
		settingsSvc:      deps.Settings,
		tokenHash:        tokenHash,
		requestTimeout:   requestTimeout,
		logger:           logger.With().Str("service", "http").Logger(),
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))
	r.Use(s.accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.requireToken)

		r.Route("/ingest", func(r chi.Router) {
			r.Post("/messages", s.ingestMessage)
			r.Post("/members", s.ingestMembers)
			r.Post("/stats-requests", s.requestStats)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.withActor)

			r.Route("/events/{event}", func(r chi.Router) {
				r.Post("/join", s.joinEvent)
				r.Post("/winners", s.markWinners)
				r.Post("/remove", s.removeFromEvent)
				r.Post("/fix", s.fixEvent)
				r.Post("/copy", s.copyEvent)
				r.Delete("/", s.deleteEvent)
			})

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)

				r.Get("/participants/{participantId}", s.getParticipant)
				r.Get("/reports", s.getReport)
				r.Post("/reports", s.createReport)

				r.Route("/config", func(r chi.Router) {
					r.Get("/", s.getConfig)
					r.Put("/roles/{set}/{roleId}", s.addRole)
					r.Delete("/roles/{set}/{roleId}", s.removeRole)
					r.Put("/cooldowns/{roleId}", s.setCooldown)
					r.Delete("/cooldowns/{roleId}", s.clearCooldown)
					r.Put("/stats-prompt", s.setStatsPrompt)
				})

				r.Route("/channels", func(r chi.Router) {
					r.Put("/link/{channelId}", s.registerLinkChannel)
					r.Put("/media/{channelId}", s.registerMediaChannel)
					r.Delete("/{channelId}", s.unregisterChannel)
				})
			})
		})
	})

	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondServiceError maps application errors to HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appParticipation.ErrForbidden):
		respondError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ledger.ErrInvalidID),
		errors.Is(err, ledger.ErrInvalidEventName),
		errors.Is(err, ledger.ErrInvalidMode),
		errors.Is(err, appQuery.ErrInvalidFilter),
		errors.Is(err, appQuery.ErrInvalidRange),
		errors.Is(err, appQuery.ErrDuplicateRoleFilter),
		errors.Is(err, appQuery.ErrInvalidSort),
		errors.Is(err, appSettings.ErrInvalidCooldown),
		errors.Is(err, appSettings.ErrUnknownRoleSet):
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseIDParam(r *http.Request, key string) (ledger.ID, error) {
	return ledger.ParseID(chi.URLParam(r, key))
}

func eventParam(r *http.Request) string {
	raw := chi.URLParam(r, "event")
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
