package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/colefleming/inkwell/internal/config"
	"github.com/colefleming/inkwell/internal/handlers"
	mw "github.com/colefleming/inkwell/internal/middleware"
	"github.com/colefleming/inkwell/internal/repo"
	"github.com/colefleming/inkwell/internal/token"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newRouter wires repositories, handlers, and the middleware chain into the
// full HTTP surface. Split from main so tests can build the router against a
// mocked database.
func newRouter(database *sql.DB, cfg config.Config) http.Handler {
	userRepo := repo.NewUserRepo(database)
	postRepo := repo.NewPostRepo(database)
	tokens := token.NewService([]byte(cfg.JWTSecret), time.Duration(cfg.JWTExpireHours)*time.Hour)

	authHandler := handlers.NewAuthHandler(userRepo, tokens)
	postHandler := handlers.NewPostHandler(postRepo)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(mw.RequestLog)
	r.Use(mw.Recoverer)
	r.Use(mw.Prometheus)
	r.Use(mw.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(mw.CORS(cfg.CORSAllowedOrigins))
	r.Use(mw.MaxBytes(mw.DefaultMaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	authLimiter := mw.AuthRateLimiter()

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Route("/posts", func(r chi.Router) {
			// Public reads; the listing picks up the caller identity when a
			// token is presented.
			r.With(mw.OptionalAuth(tokens, userRepo)).Get("/", postHandler.ListPosts)
			r.Get("/{slug:[a-z0-9-]+}", postHandler.GetPostBySlug)

			// Mutations require an authenticated caller.
			r.Group(func(r chi.Router) {
				r.Use(mw.Auth(tokens, userRepo))
				r.Post("/", postHandler.CreatePost)
				r.Put("/{id:[0-9]+}", postHandler.UpdatePost)
				r.Delete("/{id:[0-9]+}", postHandler.DeletePost)
			})
		})
	})

	return r
}
