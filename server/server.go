// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes docvault over HTTP with gin.
//
// Routes:
//
//	GET    /health
//	GET    /api/documents
//	POST   /api/documents          multipart: file, optional name
//	GET    /api/documents/:id
//	DELETE /api/documents/:id
//	GET    /api/tags
//	POST   /api/tags               {"names": [...]}
//	GET    /api/search?q=&limit=
//
// Errors are returned as {"error_code", "message", "details"}.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/ingestion"
	"github.com/poiesic/docvault/storage"
)

const (
	// DefaultAddr is the listen address used when none is configured.
	DefaultAddr = ":8080"

	// DefaultMaxUploadBytes bounds the size of an uploaded PDF.
	DefaultMaxUploadBytes = 32 << 20
)

// Uploader stores an uploaded PDF.
type Uploader interface {
	Upload(ctx context.Context, name string, pdf []byte) (*ingestion.Result, error)
}

// Searcher finds facts similar to a query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]*core.SearchResult, error)
}

// Config holds HTTP server settings.
type Config struct {
	Addr           string
	AllowOrigins   []string
	MaxUploadBytes int64
	ShutdownGrace  time.Duration
}

// DefaultConfig returns a Config listening on DefaultAddr that accepts
// requests from local development origins.
func DefaultConfig() Config {
	return Config{
		Addr:           DefaultAddr,
		AllowOrigins:   []string{"http://localhost:3000", "http://localhost:5173", "http://localhost:8501"},
		MaxUploadBytes: DefaultMaxUploadBytes,
		ShutdownGrace:  10 * time.Second,
	}
}

// Server serves the docvault HTTP API.
type Server struct {
	config    Config
	engine    *gin.Engine
	documents storage.DocumentRepository
	tags      storage.TagRepository
	uploader  Uploader
	searcher  Searcher
	logger    *slog.Logger
}

// New creates a server and registers its routes.
func New(config Config, documents storage.DocumentRepository, tags storage.TagRepository, uploader Uploader, searcher Searcher) *Server {
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}

	s := &Server{
		config:    config,
		documents: documents,
		tags:      tags,
		uploader:  uploader,
		searcher:  searcher,
		logger:    slog.Default().With("component", "http"),
	}
	s.engine = s.newRouter()
	return s
}

func (s *Server) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger))
	router.MaxMultipartMemory = s.config.MaxUploadBytes

	if len(s.config.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: s.config.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{"Content-Type", "X-Requested-With"},
			MaxAge:       12 * time.Hour,
		}))
	}

	router.GET("/health", s.health)

	api := router.Group("/api")
	{
		api.GET("/documents", s.listDocuments)
		api.POST("/documents", s.uploadDocument)
		api.GET("/documents/:id", s.getDocument)
		api.DELETE("/documents/:id", s.deleteDocument)

		api.GET("/tags", s.listTags)
		api.POST("/tags", s.addTags)

		api.GET("/search", s.search)
	}

	return router
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
