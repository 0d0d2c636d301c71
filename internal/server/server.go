package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/happythoughts/apiserver/config"
	"github.com/happythoughts/apiserver/internal/auth"
	"github.com/happythoughts/apiserver/internal/handlers"
	"github.com/happythoughts/apiserver/internal/mq"
	"github.com/happythoughts/apiserver/internal/services"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	repos      Repositories
	queue      *mq.MQ
	logger     *zap.Logger
}

// RouterDeps are the collaborators the HTTP router is built from.
type RouterDeps struct {
	Thoughts       *services.ThoughtService
	Identity       *services.IdentityService
	Gate           *auth.Gate
	Logger         *zap.Logger
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// New wires storage, the optional event broker, services and the router
// from configuration.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	policy, err := auth.ParsePolicy(cfg.Auth.GatedOperations)
	if err != nil {
		return nil, fmt.Errorf("auth policy: %w", err)
	}

	repos, err := OpenRepositories(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queue, err := mq.NewFromConfig(ctx, cfg)
	if err != nil {
		_ = repos.Close(context.Background())
		return nil, err
	}

	serviceOpts := []services.Option{services.WithLogger(logger)}
	if queue != nil {
		serviceOpts = append(serviceOpts, services.WithEventPublisher(mq.NewEventPublisher(queue, cfg.MQ.Channel)))
	}

	thoughts := services.NewThoughtService(repos.Thoughts, serviceOpts...)
	identity := services.NewIdentityService(repos.Users,
		services.WithLogger(logger),
		services.WithBcryptCost(cfg.Auth.BcryptCost),
	)

	router := NewRouter(RouterDeps{
		Thoughts:       thoughts,
		Identity:       identity,
		Gate:           auth.NewGate(identity, policy),
		Logger:         logger,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server configured",
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("mq_backend", cfg.MQ.Backend),
		zap.Strings("gated_operations", cfg.Auth.GatedOperations),
		zap.Int("port", port),
	)

	return &Server{
		httpServer: httpServer,
		router:     router,
		repos:      repos,
		queue:      queue,
		logger:     logger,
	}, nil
}

// NewRouter builds the chi router with the middleware stack and all
// routes mounted.
func NewRouter(deps RouterDeps) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		handlers.RequestLogger(logger),
		middleware.Timeout(timeout),
		cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}),
	)

	router.Get("/", handlers.Root)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, deps.Identity, logger)
	})
	router.Route("/thoughts", func(r chi.Router) {
		handlers.ThoughtRouter(r, deps.Thoughts, deps.Gate, logger)
	})

	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the broker and storage
// connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.queue != nil {
		if closeErr := s.queue.Close(); closeErr != nil {
			s.logger.Warn("close mq", zap.Error(closeErr))
		}
	}
	if closeErr := s.repos.Close(ctx); closeErr != nil {
		s.logger.Warn("close store", zap.Error(closeErr))
	}
	return err
}
