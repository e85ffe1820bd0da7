package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"auto_blog_tagger/generator"
)

// Server exposes the workflow over HTTP. Each request runs its own session;
// nothing is shared between requests except the model client.
type Server struct {
	llm  generator.LLMClient
	opts generator.Options
	log  *zap.Logger
	e    *echo.Echo
}

func New(llm generator.LLMClient, opts generator.Options, log *zap.Logger) (*Server, error) {
	if llm == nil {
		return nil, errors.New("llm client required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	opts.Logger = log

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	s := &Server{llm: llm, opts: opts, log: log, e: e}

	e.Use(middleware.Recover())
	e.Use(logMiddleware(log))
	e.GET("/healthz", s.handleHealth)
	e.POST("/api/workflows", s.handleWorkflowCreate)
	return s, nil
}

func (s *Server) Routes() http.Handler {
	return s.e
}

// Start blocks serving on addr until Shutdown.
func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// --- Handlers ---

type workflowReq struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	MaxTurns   *int   `json:"max_turns,omitempty"`
	Finalize   *bool  `json:"finalize,omitempty"`
	Transcript bool   `json:"transcript,omitempty"`
}

type errorResp struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWorkflowCreate(c echo.Context) error {
	var req workflowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResp{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, errorResp{Error: "title and content are required"})
	}

	opts := s.opts
	if req.MaxTurns != nil {
		if *req.MaxTurns < 1 {
			return c.JSON(http.StatusBadRequest, errorResp{Error: "max_turns must be at least 1"})
		}
		opts.MaxTurns = *req.MaxTurns
	}
	if req.Finalize != nil {
		opts.Finalize = *req.Finalize
	}

	rec, err := generator.Run(c.Request().Context(), s.llm, req.Title, req.Content, generator.WithOptions(opts))
	if err != nil {
		if errors.Is(err, generator.ErrModelUnavailable) {
			return c.JSON(http.StatusBadGateway, errorResp{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
	}
	if !req.Transcript {
		rec.Transcript = nil
	}
	return c.JSON(http.StatusOK, rec)
}

// --- Helpers ---

func logMiddleware(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			path := c.Request().URL.Path
			if path == "" {
				path = "/"
			}
			log.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("path", path),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)))
			return nil
		}
	}
}
