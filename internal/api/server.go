// Package api exposes the stored postings and run control over HTTP.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a gin engine with all routes configured
func NewServer(handler *Handler, logger *slog.Logger) *gin.Engine {
	r := gin.New()

	accessLog := slog.NewLogLogger(logger.With("component", "http").Handler(), slog.LevelInfo)
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    accessLog.Writer(),
		SkipPaths: []string{"/health"},
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s %s %s %d %s %s",
				param.ClientIP,
				param.Method,
				param.Path,
				param.StatusCode,
				param.Latency,
				param.ErrorMessage,
			)
		},
	}))
	r.Use(gin.Recovery())

	setupRoutes(r, handler)
	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/health", handler.HealthCheck)

	api := r.Group("/api")
	{
		api.GET("/sources", handler.ListSources)
		api.GET("/keywords", handler.ListKeywords)
		api.GET("/keywords/:keyword/jobs", handler.GetKeywordJobs)

		api.POST("/runs", handler.StartRun)
		api.GET("/runs/:id", handler.GetRun)
		api.POST("/runs/:id/stop", handler.StopRun)
	}
}

// ServerConfig holds http.Server settings
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         ":8080",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func (c ServerConfig) HTTPServer(handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         c.Addr,
		Handler:      handler,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
		IdleTimeout:  c.IdleTimeout,
	}
}
