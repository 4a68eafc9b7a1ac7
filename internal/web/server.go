package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/vitos/perp_board/internal/usecase"
	"go.uber.org/zap"
)

type Server struct {
	engine    *gin.Engine
	server    *http.Server
	board     *usecase.BoardService
	hub       *Hub
	staticDir string
	logger    *zap.Logger
}

func NewServer(
	port int,
	staticDir string,
	allowedOrigins []string,
	board *usecase.BoardService,
	hub *Hub,
	logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine:    gin.New(),
		board:     board,
		hub:       hub,
		staticDir: staticDir,
		logger:    logger,
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes(allowedOrigins)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(allowedOrigins []string) {
	// Subscribers
	s.engine.GET("/ws", func(c *gin.Context) {
		s.hub.ServeWS(c.Writer, c.Request)
	})

	corsCfg := cors.DefaultConfig()
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
	}

	api := s.engine.Group("/api", cors.New(corsCfg))
	api.GET("/snapshot", s.handleSnapshot)

	s.engine.GET("/healthz", s.handleHealth)

	// Frontend
	s.engine.NoRoute(s.handleStatic)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleSnapshot(c *gin.Context) {
	_, payload := s.board.Current()
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

type healthResponse struct {
	Status      string                 `json:"status"`
	Subscribers int                    `json:"subscribers"`
	Records     int                    `json:"records"`
	CachesReady bool                   `json:"cachesReady"`
	BuiltAt     *time.Time             `json:"builtAt,omitempty"`
	References  usecase.ReferenceStats `json:"references"`
}

func (s *Server) handleHealth(c *gin.Context) {
	snap, _ := s.board.Current()
	stats := s.board.Refs().Stats()

	resp := healthResponse{
		Status:      "ok",
		Subscribers: s.hub.Count(),
		Records:     len(snap),
		CachesReady: stats.Ready,
		References:  stats,
	}
	if builtAt := s.board.BuiltAt(); !builtAt.IsZero() {
		resp.BuiltAt = &builtAt
	}
	if !stats.Ready {
		resp.Status = "warming_up"
	}
	c.JSON(http.StatusOK, resp)
}

// handleStatic serves files from the static directory and falls back to
// index.html for unknown paths.
func (s *Server) handleStatic(c *gin.Context) {
	if s.staticDir == "" || c.Request.Method != http.MethodGet {
		c.Status(http.StatusNotFound)
		return
	}

	name := filepath.Join(s.staticDir, filepath.Clean("/"+c.Request.URL.Path))
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		c.File(name)
		return
	}

	index := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.File(index)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Request.URL.Path == "/ws" {
			return
		}
		s.logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
