// Package server exposes the workspace and the gateway over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nuln/workbox/gateway"
	"github.com/nuln/workbox/internal/util"
	"github.com/nuln/workbox/workspace"
)

// Response common response structure
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// FileSystemRequest invokes one workspace operation.
type FileSystemRequest struct {
	Type string   `json:"type" binding:"required"`
	Args []string `json:"args"`
}

// VisitRequest visits one URL through the gateway.
type VisitRequest struct {
	URL string `json:"url" binding:"required"`
}

// ToolResult carries the text an agent would receive.
type ToolResult struct {
	Result string `json:"result"`
}

// Server serves both tools as JSON endpoints.
type Server struct {
	store   *workspace.Store
	gateway *gateway.Gateway
	log     zerolog.Logger
	engine  *gin.Engine
}

// New builds the routes.
func New(store *workspace.Store, g *gateway.Gateway) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		store:   store,
		gateway: g,
		log:     util.GetLogger("server"),
		engine:  gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.accessLog())

	s.engine.GET("/healthz", s.health)
	v1 := s.engine.Group("/v1")
	v1.GET("/tools", s.tools)
	v1.POST("/file_system", s.fileSystem)
	v1.POST("/visit_webpage", s.visit)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          util.NewLogLogger("server", util.WarnLevel),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request served")
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Code: 200, Message: "OK", Data: gin.H{"root": s.store.Root()}})
}

func (s *Server) tools(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Code: 200, Message: "OK", Data: []gin.H{
		{"name": workspace.ToolName, "description": s.store.Description(), "operations": workspace.Operations()},
		{"name": gateway.ToolName, "description": gateway.Description},
	}})
}

func (s *Server) fileSystem(c *gin.Context) {
	var req FileSystemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: 400, Message: "Invalid request: " + err.Error()})
		return
	}
	result := s.store.Invoke(c.Request.Context(), req.Type, req.Args)
	c.JSON(http.StatusOK, Response{Code: 200, Message: "OK", Data: ToolResult{Result: result}})
}

func (s *Server) visit(c *gin.Context) {
	var req VisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: 400, Message: "Invalid request: " + err.Error()})
		return
	}
	result := s.gateway.Invoke(c.Request.Context(), req.URL)
	c.JSON(http.StatusOK, Response{Code: 200, Message: "OK", Data: ToolResult{Result: result}})
}
