// Package api exposes a Resolver over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andreiashu/tripgeo"
)

// Server holds the handlers' dependencies.
type Server struct {
	resolver *tripgeo.Resolver
	logger   *slog.Logger
	registry *prometheus.Registry
}

// NewRouter builds the gin engine serving resolver. The metrics endpoint
// uses its own registry so tests can build several routers.
func NewRouter(resolver *tripgeo.Resolver, logger *slog.Logger) *gin.Engine {
	registry := prometheus.NewRegistry()
	registry.MustRegister(tripgeo.NewCollector(resolver))

	s := &Server{
		resolver: resolver,
		logger:   logger,
		registry: registry,
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/ping", s.handlePing)
	r.GET("/quota", s.handleQuota)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	places := r.Group("/places")
	places.GET("", s.handleResolve)
	places.GET("/autocomplete", s.handleAutocomplete)
	places.GET("/popular", s.handlePopular)
	places.GET("/nearby", s.handleNearby)
	places.GET("/reverse", s.handleReverse)

	return r
}

// requestLogger logs method, path and status. The query string is left
// out since it carries user input.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
		)
	}
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
