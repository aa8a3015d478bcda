package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dekarrin/express/server/api"
	"github.com/dekarrin/express/server/dao"
	"github.com/dekarrin/express/server/middle"
	"github.com/dekarrin/express/server/tunas"
	"github.com/go-chi/chi/v5"
)

// Server holds an established connection to persistence and the API+router
// built on top of it. Use New to construct one, then Serve or ListenAndServe
// to run it.
type Server struct {
	Config Config

	db     dao.Store
	router chi.Router
}

// New validates cfg, connects to the configured persistence layer, and
// builds the full routed API. The returned Server is ready to serve
// requests; call Close when finished with it to release the DB connection.
func New(cfg Config) (*Server, error) {
	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	db, err := cfg.DB.Connect()
	if err != nil {
		return nil, fmt.Errorf("connect to DB: %w", err)
	}

	svc := tunas.Service{DB: db}

	theAPI := api.API{
		Backend:     svc,
		UnauthDelay: cfg.UnauthDelay(),
		Secret:      cfg.TokenSecret,
	}

	r := chi.NewRouter()
	r.Use(middle.DontPanic())

	r.Route(api.PathPrefix, func(r chi.Router) {
		r.Get("/info", theAPI.HTTPGetInfo())

		r.Post("/login", theAPI.HTTPCreateLogin())

		r.Group(func(r chi.Router) {
			r.Use(middle.RequireAuth(db.Users(), cfg.TokenSecret, cfg.UnauthDelay(), dao.User{}))

			r.Delete("/login/{id}", theAPI.HTTPDeleteLogin())
			r.Post("/tokens", theAPI.HTTPCreateToken())

			r.Get("/users", theAPI.HTTPGetAllUsers())
			r.Post("/users", theAPI.HTTPCreateUser())
			r.Get("/users/{id}", theAPI.HTTPGetUser())
			r.Patch("/users/{id}", theAPI.HTTPUpdateUser())
			r.Put("/users/{id}", theAPI.HTTPReplaceUser())
			r.Delete("/users/{id}", theAPI.HTTPDeleteUser())

			r.Get("/programs", theAPI.HTTPGetAllPrograms())
			r.Post("/programs", theAPI.HTTPCreateProgram())
			r.Get("/programs/{id}", theAPI.HTTPGetProgram())
			r.Put("/programs/{id}", theAPI.HTTPUpdateProgram())
			r.Delete("/programs/{id}", theAPI.HTTPDeleteProgram())

			r.With(middle.LimitTickBody(cfg.MaxTickBodyBytes)).Post("/programs/{id}/tick", theAPI.HTTPCreateRun())
			r.Get("/programs/{id}/runs", theAPI.HTTPGetAllRuns())
			r.Get("/runs/{id}", theAPI.HTTPGetRun())
			r.Delete("/runs/{id}", theAPI.HTTPDeleteRun())
		})
	})

	return &Server{Config: cfg, db: db, router: r}, nil
}

// Handler returns the server's routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the server's persistence connection.
func (s *Server) Close() error {
	return s.db.Close()
}

// ServeForever starts an HTTP listener on addr and blocks until it returns an
// error (including, on normal shutdown, http.ErrServerClosed).
func (s *Server) ServeForever(addr string) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	return httpServer.ListenAndServe()
}

// CreateInitialAdmin creates an admin user with the given credentials if, and
// only if, no users currently exist in persistence. It is meant to be called
// once at startup so a freshly-initialized server always has a way to log
// in.
func (s *Server) CreateInitialAdmin(ctx context.Context, username, password string) error {
	existing, err := s.db.Users().GetAll(ctx)
	if err != nil {
		return fmt.Errorf("check existing users: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	svc := tunas.Service{DB: s.db}
	_, err = svc.CreateUser(ctx, username, password, "", dao.Admin)
	if err != nil {
		return fmt.Errorf("create initial admin: %w", err)
	}
	return nil
}
