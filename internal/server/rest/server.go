// Package rest exposes the intake API over HTTP: record CRUD per entity
// type, a reachability probe, and document presigning.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/healthfair/clinicsync/internal/logging"
	"github.com/healthfair/clinicsync/internal/server/documents"
	"github.com/healthfair/clinicsync/internal/server/notify"
	"github.com/healthfair/clinicsync/internal/server/repositories/records"
)

// entityTypes the API accepts in the :entity path segment.
var entityTypes = map[string]bool{
	"patient":        true,
	"vitals":         true,
	"doctor":         true,
	"recommendation": true,
}

// Server is the HTTP front of the intake API.
type Server struct {
	addr      string
	records   records.Repository
	documents *documents.Service
	notifier  notify.Notifier
	logger    logging.Logger

	http *http.Server
}

func NewServer(addr string, repo records.Repository, docs *documents.Service, notifier notify.Notifier, logger logging.Logger) *Server {
	return &Server{
		addr:      addr,
		records:   repo,
		documents: docs,
		notifier:  notifier,
		logger:    logger.With("component", "rest"),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	api := r.Group("/api")
	api.GET("/ping", s.ping)
	api.POST("/documents/presign", s.presignDocument)
	api.POST("/:entity", s.createRecord)
	api.GET("/:entity", s.listRecords)
	api.PUT("/:entity/:id", s.updateRecord)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:    s.addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logger.Info(ctx, "http server listening", "addr", s.addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
