package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"alightgram/interceptor"
	"alightgram/media"
	"alightgram/model"
	"alightgram/realtime"
	"alightgram/service"
)

const defaultMaxUploadBytes = 50 << 20

type Config struct {
	HeartbeatTTL   time.Duration
	Theme          string
	MaxUploadBytes int64
}

// Gateway is the HTTP face of the service: health, media uploads and the
// websocket realtime sessions.
type Gateway struct {
	auth     *interceptor.AuthInterceptor
	host     media.Host
	profiles   *service.ProfileService
	presence   *service.PresenceTracker
	visibility *service.Visibility
	store      realtime.Store
	cfg        Config
	logger     *logrus.Logger
	upgrader   websocket.Upgrader
}

func New(
	auth *interceptor.AuthInterceptor,
	host media.Host,
	profiles *service.ProfileService,
	presence *service.PresenceTracker,
	visibility *service.Visibility,
	store realtime.Store,
	cfg Config,
	logger *logrus.Logger,
) *Gateway {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.HeartbeatTTL <= 0 {
		cfg.HeartbeatTTL = 45 * time.Second
	}
	return &Gateway{
		auth:       auth,
		host:       host,
		profiles:   profiles,
		presence:   presence,
		visibility: visibility,
		store:      store,
		cfg:        cfg,
		logger:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (g *Gateway) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(g.logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(g.requireAuth)
		api.Post("/media", g.handleUpload)
		api.Post("/profile/photo", g.handleProfilePhoto)
	})

	r.Get("/ws", g.handleWebsocket)
	return r
}

func (g *Gateway) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := g.authenticateRequest(r.Context(), r.Header.Get("Authorization"))
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(interceptor.WithPrincipal(r.Context(), principal)))
	})
}

func (g *Gateway) authenticateRequest(ctx context.Context, header string) (*models.Principal, bool) {
	token, ok := interceptor.BearerToken(header)
	if !ok {
		return nil, false
	}
	principal, err := g.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, false
	}
	return principal, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": message})
}
