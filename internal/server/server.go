package server

import (
	"context"
	"net/http"
	"time"

	apihttp "github.com/GriffinCanCode/conscope/internal/api/http"
	"github.com/GriffinCanCode/conscope/internal/api/middleware"
	"github.com/GriffinCanCode/conscope/internal/config"
	"github.com/GriffinCanCode/conscope/internal/logging"
	"github.com/GriffinCanCode/conscope/internal/monitoring"
	"github.com/GriffinCanCode/conscope/internal/process"
	"github.com/GriffinCanCode/conscope/internal/session"
	"github.com/GriffinCanCode/conscope/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server wires the session registry, process lister, and HTTP surface.
type Server struct {
	router   *gin.Engine
	registry *session.Registry
	log      *logging.Logger
	httpSrv  *http.Server
}

// New builds a server from configuration. factory supplies the console
// backend for each created session.
func New(cfg *config.Config, factory session.Factory, log *logging.Logger) *Server {
	metrics := monitoring.NewMetrics(nil)

	cadence := session.Cadence{
		Interval:  cfg.Poll.Interval(),
		LineCount: cfg.Poll.Lines,
	}
	registry := session.NewRegistry(factory, cadence, log, metrics)
	lister := process.NewLister(cfg.Process.NameFilter)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(monitoring.Middleware(metrics))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(registry, lister, log)
	wsHandler := ws.NewHandler(registry, log, metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/processes", handlers.ListProcesses)

	router.POST("/sessions", handlers.CreateSession)
	router.GET("/sessions", handlers.ListSessions)
	router.GET("/sessions/:id", handlers.GetSession)
	router.DELETE("/sessions/:id", handlers.DestroySession)

	router.POST("/sessions/:id/attach", handlers.Attach)
	router.POST("/sessions/:id/detach", handlers.Detach)
	router.POST("/sessions/:id/input", handlers.SendInput)
	router.POST("/sessions/:id/control", handlers.SendControl)
	router.PUT("/sessions/:id/cadence", handlers.SetCadence)
	router.GET("/sessions/:id/events", handlers.Events)
	router.GET("/sessions/:id/stream", wsHandler.Stream)

	return &Server{
		router:   router,
		registry: registry,
		log:      log,
	}
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run(addr string) error {
	s.log.Info("starting server", zap.String("addr", addr))
	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains HTTP and stops every session so no console binding is
// leaked.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		err = s.httpSrv.Shutdown(shutdownCtx)
	}
	s.registry.CloseAll()
	return err
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
