// Package server exposes backer resolution over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/alimgiray/backers/internal/models"
	"github.com/alimgiray/backers/internal/query"
	"github.com/alimgiray/backers/internal/render"
	"github.com/alimgiray/backers/internal/resolve"
	"github.com/gin-gonic/gin"
)

// Server serves resolve-and-render requests.
type Server struct {
	defaults models.Options
	cache    query.Cache
}

// New creates a server. The defaults supply credentials and thresholds for
// every request; per-request query parameters override the target and format.
func New(defaults models.Options, cache query.Cache) *Server {
	return &Server{defaults: defaults, cache: cache}
}

// Router builds the HTTP router.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()
	router.GET("/health", s.health)
	router.GET("/backers", s.backers)
	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) backers(c *gin.Context) {
	slug := c.Query("slug")
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slug query parameter is required"})
		return
	}
	format := render.Format(c.DefaultQuery("format", string(render.FormatJSON)))

	opts := s.defaults
	opts.Slug = slug
	opts.Offline = c.Query("offline") == "true"

	engine := query.NewEngine(query.Config{
		Credentials: opts.Credentials,
		Concurrency: opts.Concurrency,
		Offline:     opts.Offline,
		Cache:       s.cache,
	})
	backers := resolve.New(opts, engine).Resolve(c.Request.Context())

	result, err := render.Render(backers, format, render.Options{Slug: opts.Slug, ProjectName: opts.Slug})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch value := result.(type) {
	case string:
		c.String(http.StatusOK, value)
	case []byte:
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", value)
	default:
		c.JSON(http.StatusOK, value)
	}
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
