package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apihttp "github.com/GriffinCanCode/swipereader/internal/api/http"
	"github.com/GriffinCanCode/swipereader/internal/api/middleware"
	"github.com/GriffinCanCode/swipereader/internal/api/ws"
	"github.com/GriffinCanCode/swipereader/internal/content"
	"github.com/GriffinCanCode/swipereader/internal/gesture"
	"github.com/GriffinCanCode/swipereader/internal/infrastructure/config"
	"github.com/GriffinCanCode/swipereader/internal/infrastructure/logging"
	"github.com/GriffinCanCode/swipereader/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/swipereader/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/swipereader/internal/session"
	"github.com/GriffinCanCode/swipereader/internal/surface"
)

// ShutdownTimeout bounds graceful HTTP shutdown.
const ShutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and its dependencies.
type Server struct {
	cfg         *config.Config
	logger      *logging.Logger
	metrics     *monitoring.Metrics
	tracer      *tracing.Tracer
	rules       *content.RuleSet
	sessions    *session.Manager
	closeDriver func() error
	router      *gin.Engine
	http        *http.Server
}

// NewServer builds a server from cfg.
func NewServer(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
	}
	logger.Info("Initializing swipereader",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("driver", cfg.Surface.Driver),
		zap.String("origin", cfg.Surface.Origin),
	)

	metrics := monitoring.NewMetrics()

	rules, err := content.NewRuleSet(cfg.Extraction.Rules, logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("load extraction rules: %w", err)
	}

	tracer := tracing.New("swipereader", logger.Logger)
	driver, closeDriver, err := NewDriver(ctx, cfg.Surface, logger.Logger, metrics, tracer)
	if err != nil {
		tracer.Close()
		return nil, err
	}

	sessions, err := session.NewManager(driver, session.Options{
		Origin:  cfg.Surface.Origin,
		Gesture: GestureConfig(cfg.Gesture),
		Pool: surface.Options{
			Content: content.Options{
				Delay:    cfg.Extraction.Delay,
				MaxDelay: cfg.Extraction.MaxDelay,
			},
			RuleSource: rules.Current,
		},
		Logger:  logger.Logger,
		Metrics: metrics,
	})
	if err != nil {
		_ = closeDriver()
		tracer.Close()
		return nil, err
	}

	s := &Server{
		cfg:         cfg,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
		rules:       rules,
		sessions:    sessions,
		closeDriver: closeDriver,
	}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server initialized")
	return s, nil
}

// GestureConfig converts recognizer settings.
func GestureConfig(cfg config.GestureConfig) gesture.Config {
	return gesture.Config{
		EdgeWidth:         cfg.EdgeWidth,
		DragThreshold:     cfg.DragThreshold,
		VelocityThreshold: cfg.VelocityThreshold,
		ScreenWidth:       cfg.ScreenWidth,
		SampleWindow:      gesture.DefaultSampleWindow,
	}
}

func (s *Server) routes() *gin.Engine {
	if !s.cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID(s.logger.Logger))
	router.Use(tracing.HTTPMiddleware(s.tracer))
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig().WithOrigins(s.cfg.Server.CORSOrigins...)))
	if s.cfg.RateLimit.Enabled {
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = s.cfg.RateLimit.RequestsPerSecond
		rl.Burst = s.cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", rl.RequestsPerSecond),
			zap.Int("burst", rl.Burst),
		)
	}

	handlers := apihttp.NewHandlers(s.sessions, s.metrics, s.logger.Logger)
	handlers.Register(router)

	wsHandler := ws.NewHandler(s.sessions, s.metrics, s.logger.Logger)
	router.GET("/sessions/:id/stream", wsHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	return router
}

// Handler returns the root handler. Responses are gzip-compressed except
// WebSocket upgrades, which need the raw connection.
func (s *Server) Handler() http.Handler {
	gz := gzhttp.GzipHandler(s.router)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			s.router.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

// Sessions exposes the session manager.
func (s *Server) Sessions() *session.Manager { return s.sessions }

// Run serves HTTP and watches the rules file until ctx ends or either
// fails.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.rules.Watch(ctx)
	})
	g.Go(func() error {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close releases sessions and the driver.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	s.sessions.Close()

	var err error
	if s.closeDriver != nil {
		if cerr := s.closeDriver(); cerr != nil {
			s.logger.Error("Failed to close surface driver", zap.Error(cerr))
			err = fmt.Errorf("close surface driver: %w", cerr)
		}
	}
	s.tracer.Close()
	_ = s.logger.Sync()
	return err
}
