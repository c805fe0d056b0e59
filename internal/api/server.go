// Package api exposes the orchestrator over HTTP for dashboard-style use:
// trigger pulls, inspect and reorder the staged rows, push to sinks.
package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mgoncalves/expense-sync-backend/internal/fetcher"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server. The orchestrator is single-caller by
// design, so every handler runs under one mutex.
type Server struct {
	config  Config
	engine  *gin.Engine
	fetcher *fetcher.ExpensesFetcher
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewServer creates a new API server around one orchestrator instance.
func NewServer(cfg Config, f *fetcher.ExpensesFetcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	s := &Server{
		config:  cfg,
		engine:  engine,
		fetcher: f,
		logger:  logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := s.engine.Group("/api")
	apiGroup.POST("/pull", s.handlePull)
	apiGroup.POST("/sort", s.handleSort)
	apiGroup.POST("/push", s.handlePush)
	apiGroup.GET("/staged", s.handleStaged)
	apiGroup.GET("/balances", s.handleBalances)
	apiGroup.DELETE("/staged", s.handleRemoveStaged)
}

// Run starts the server on the configured port. Blocks until the server
// stops.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.logger.Info("starting API server", slog.String("addr", addr))
	return s.engine.Run(addr)
}

type pullRequest struct {
	Start           string `json:"start"` // 2006-01-02, empty = from pivot sink
	End             string `json:"end"`   // 2006-01-02, empty = now
	Account         string `json:"account"`
	ApplyCategories bool   `json:"apply_categories"`
}

// bindOptionalJSON decodes the request body into out. Every request type here
// has only optional fields, so an empty body is fine and leaves the zero
// values.
func bindOptionalJSON(c *gin.Context, out any) error {
	err := c.ShouldBindJSON(out)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) handlePull(c *gin.Context) {
	var req pullRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := fetcher.PullOptions{
		Account:         req.Account,
		ApplyCategories: req.ApplyCategories,
	}
	var err error
	if req.Start != "" {
		if opts.Start, err = time.Parse("2006-01-02", req.Start); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date: " + err.Error()})
			return
		}
	}
	if req.End != "" {
		if opts.End, err = time.Parse("2006-01-02", req.End); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date: " + err.Error()})
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fetcher.Pull(c.Request.Context(), opts); err != nil {
		s.logger.Error("pull failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"staged": len(s.fetcher.Staged())})
}

type sortRequest struct {
	By      string `json:"by"` // "auth_date" (default) or "capture_date"
	Reverse bool   `json:"reverse"`
}

func (s *Server) handleSort(c *gin.Context) {
	var req sortRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	by := fetcher.ByAuthDate
	switch req.By {
	case "", "auth_date":
	case "capture_date":
		by = fetcher.ByCaptureDate
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown sort column: " + req.By})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetcher.Sort(by, req.Reverse)
	c.JSON(http.StatusOK, gin.H{"staged": len(s.fetcher.Staged())})
}

type pushRequest struct {
	Repository string `json:"repository"` // empty = all registered sinks
}

func (s *Server) handlePush(c *gin.Context) {
	var req pushRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fetcher.Push(req.Repository); err != nil {
		s.logger.Error("push failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pushed": len(s.fetcher.Staged())})
}

func (s *Server) handleStaged(c *gin.Context) {
	s.mu.Lock()
	staged := s.fetcher.Staged()
	s.mu.Unlock()

	rows := make([][]string, len(staged))
	for i, row := range staged {
		rows[i] = row.Row("")
	}
	c.JSON(http.StatusOK, gin.H{"count": len(rows), "rows": rows})
}

func (s *Server) handleBalances(c *gin.Context) {
	s.mu.Lock()
	balances := s.fetcher.StagedBalances()
	s.mu.Unlock()

	rows := make([][]string, len(balances))
	for i, balance := range balances {
		rows[i] = balance.Row("")
	}
	c.JSON(http.StatusOK, gin.H{"count": len(rows), "rows": rows})
}

func (s *Server) handleRemoveStaged(c *gin.Context) {
	account := c.Query("account")

	s.mu.Lock()
	s.fetcher.RemoveStaged(account)
	remaining := len(s.fetcher.Staged())
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"staged": remaining})
}
