package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	log "github.com/cantara/bragi/sbragi"
	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"

	"github.com/cantara/playbookgen/ansible"
	"github.com/cantara/playbookgen/library"
)

var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Server renders playbooks over HTTP from a shared library. Reads of the library hold
// the read lock, reloads the write lock.
type Server struct {
	lib       *library.Library
	lock      sync.RWMutex
	outputDir string
	authKey   string
	engine    *gin.Engine
}

type Options struct {
	// OutputDir is passed on to the builders, nothing is written by the API itself.
	OutputDir string
	// AuthKey protects the mutating routes when set.
	AuthKey string
}

func New(lib *library.Library, opts Options) *Server {
	s := &Server{
		lib:       lib,
		outputDir: opts.OutputDir,
		authKey:   opts.AuthKey,
	}
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), requestLogger())
	s.engine.GET("/health", s.health)
	s.engine.GET("/modules", s.listModules)
	s.engine.GET("/modules/:name", s.getModule)
	s.engine.POST("/playbooks", s.auth, s.buildPlaybook)
	s.engine.POST("/reload", s.auth, s.reload)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Locker is the write side of the library lock, for watchers reloading outside a request.
func (s *Server) Locker() sync.Locker {
	return &s.lock
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		log.Info("serving playbook api", "addr", addr)
		errs <- srv.ListenAndServe()
	}()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		log.WithError(err).Error("while shutting down playbook api")
	}
	return err
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request", "method", c.Request.Method, "path", c.FullPath(), "status", c.Writer.Status(), "duration", time.Since(start))
	}
}

func (s *Server) auth(c *gin.Context) {
	if s.authKey == "" {
		c.Next()
		return
	}
	auth := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	if auth == "" {
		errorResponse(c, "authorization not provided", http.StatusForbidden)
		c.Abort()
		return
	}
	if auth != s.authKey {
		errorResponse(c, "unauthorized", http.StatusUnauthorized)
		c.Abort()
		return
	}
	c.Next()
}

func writeJSON(c *gin.Context, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Error("while encoding response")
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(status, "application/json; charset=utf-8", b)
}

func errorResponse(c *gin.Context, msg string, status int) {
	writeJSON(c, status, gin.H{"error": msg})
}

// statusOf maps domain errors to a response status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, ansible.ErrModuleNotFound):
		return http.StatusNotFound
	case errors.Is(err, ansible.ErrMissingParameters),
		errors.Is(err, ansible.ErrDefinition),
		errors.Is(err, ansible.ErrTemplate),
		errors.Is(err, ansible.ErrMissingName),
		errors.Is(err, ansible.ErrMissingTasks):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
