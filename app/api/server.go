// Package api contains the HTTP server and handlers.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Semior001/newsjackal/app/feed"
	"github.com/Semior001/newsjackal/app/headlines"
	"github.com/Semior001/newsjackal/pkg/logx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/exp/slog"
)

const (
	defaultCategory = "general"
	defaultPage     = 1
	defaultPageSize = 9
)

// Server provides HTTP handlers over the headlines service.
type Server struct {
	log *slog.Logger
	svc *headlines.Service
}

// NewServer creates a new server.
func NewServer(lg *slog.Logger, svc *headlines.Service) *Server {
	return &Server{log: lg, svc: svc}
}

// Register attaches routes and middleware to the engine.
func (s *Server) Register(r *gin.Engine) {
	api := r.Group("/api", s.requestID(), s.cors(), s.recovery(), s.logger())

	api.GET("/health", s.health)
	api.GET("/sources", s.sources)
	api.GET("/top-headlines", s.topHeadlines)
	api.GET("/cache/stats", s.cacheStats)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) sources(c *gin.Context) {
	type source struct {
		ID         string   `json:"id"`
		Name       string   `json:"name"`
		Categories []string `json:"categories"`
	}

	resp := lo.Map(s.svc.Sources(), func(src feed.Source, _ int) source {
		return source{ID: src.ID, Name: src.Name, Categories: src.Categories()}
	})

	c.JSON(http.StatusOK, resp)
}

func (s *Server) topHeadlines(c *gin.Context) {
	category := strings.ToLower(c.DefaultQuery("category", defaultCategory))
	source := c.Query("source")
	page := intQuery(c, "page", defaultPage)
	pageSize := intQuery(c, "pageSize", defaultPageSize)

	articles, fromCache := s.svc.TopHeadlines(c.Request.Context(), source, category)

	s.log.DebugCtx(c.Request.Context(), "headlines assembled",
		slog.String("category", category),
		slog.Int("total", len(articles)),
		slog.Bool("from_cache", fromCache))

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"totalResults": len(articles),
		"articles":     paginate(articles, page, pageSize),
	})
}

func (s *Server) cacheStats(c *gin.Context) {
	stats := s.svc.CacheStat()
	c.JSON(http.StatusOK, gin.H{
		"hits":      stats.Hits,
		"misses":    stats.Misses,
		"evictions": stats.Evicted,
		"added":     stats.Added,
	})
}

// paginate slices one page out of the aggregated list; out-of-range pages
// yield an empty page, never an error.
func paginate[T any](items []T, page, size int) []T {
	start := (page - 1) * size
	if start < 0 {
		start = 0
	}
	if start >= len(items) {
		return []T{}
	}

	end := start + size
	if end > len(items) {
		end = len(items)
	}

	return items[start:end]
}

func intQuery(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// requestID injects a request id into the request context, so every log
// record written along the way carries it.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()
		c.Request = c.Request.WithContext(logx.ContextWithRequestID(c.Request.Context(), id))
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// recovery turns an unhandled fault into the structured error payload.
func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.log.ErrorCtx(c.Request.Context(), "panic recovered", slog.Any("panic", r))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"status":  "error",
					"message": fmt.Sprintf("%v", r),
				})
			}
		}()

		c.Next()
	}
}

func (s *Server) logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		s.log.InfoCtx(c.Request.Context(), "request processed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}
