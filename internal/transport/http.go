package transport

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vasiliy-maslov/laundry-service/internal/auth"
	handlerhttp "github.com/vasiliy-maslov/laundry-service/internal/handler/http"
)

type RouteRegistrar interface {
	RegisterRoutes(router chi.Router)
}

type RouterConfig struct {
	Auth    auth.Service
	Public  *handlerhttp.AuthHandler
	Private []RouteRegistrar
	// Blobs serves uploaded photos below BlobsPath; both are optional.
	// BlobsPath is a request path, never a full URL.
	Blobs     http.Handler
	BlobsPath string
}

func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	if cfg.Blobs != nil && strings.HasPrefix(cfg.BlobsPath, "/") {
		r.With(middleware.SetHeader("Cache-Control", "public, max-age=86400")).
			Handle(strings.TrimRight(cfg.BlobsPath, "/")+"/*", cfg.Blobs)
	}

	if cfg.Public != nil {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			cfg.Public.RegisterPublicRoutes(r)
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(handlerhttp.RequireSession(cfg.Auth))
		for _, reg := range cfg.Private {
			reg.RegisterRoutes(r)
		}
	})

	return r
}
