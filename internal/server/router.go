// Package server exposes a workspace over a JSON HTTP API.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Options configures the router.
type Options struct {
	GinMode        string
	AllowedOrigins []string
	MaxUploadBytes int64
}

// SetupRouter configures the Gin engine and its routes.
func SetupRouter(h *QuizHandler, opts Options, log zerolog.Logger) *gin.Engine {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	SetupValidator()

	router := gin.New()
	router.Use(gin.Recovery())
	if opts.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = opts.MaxUploadBytes
	}

	// Without configured origins every origin is allowed; the API is meant
	// for a local front end.
	corsConfig := cors.DefaultConfig()
	if len(opts.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = opts.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(RequestIDMiddleware())
	router.Use(accessLog(log))

	router.GET("/health", func(c *gin.Context) {
		Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/quizzes", h.CreateQuiz)

		q := v1.Group("/quiz")
		q.GET("", h.GetQuiz)
		q.DELETE("", h.Reset)
		q.PUT("/answers", h.SelectAnswer)
		q.POST("/reveal", h.Reveal)
		q.POST("/retry", h.Retry)
		q.GET("/export", h.Export)
		q.GET("/print", h.Print)
	}

	return router
}

func accessLog(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("request_id", c.GetString(ContextKeyRequestID)).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
