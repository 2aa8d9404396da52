// Package api provides the REST API server for fractune
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/james-see/fractune/internal/config"
	"github.com/james-see/fractune/pkg/converter"
	"github.com/james-see/fractune/pkg/engine"
	"github.com/james-see/fractune/pkg/store"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Fractune API
// @version 1.0
// @description API for generating procedural compositions and exporting them as MIDI
// @host localhost:8080
// @BasePath /api/v1

// Server serves generation, conversion and the composition library
type Server struct {
	cfg    *config.Config
	engine *engine.Engine
	conv   *converter.Converter
	repo   store.Repository
}

// NewServer wires a server around an engine and a repository
func NewServer(cfg *config.Config, eng *engine.Engine, repo store.Repository) *Server {
	return &Server{
		cfg:    cfg,
		engine: eng,
		conv:   converter.New(eng.Config()),
		repo:   repo,
	}
}

// Router builds the gin engine with middleware and every route registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()

	// Recovery must be first
	r.Use(RecoverWithSentry())
	r.Use(SentryMiddleware())
	r.Use(RequestTracking())
	r.Use(corsMiddleware())
	r.Use(Identity(s.cfg))

	// Health check
	r.GET("/health", s.healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", s.healthCheck)
		v1.GET("/scales", s.listScales)
		v1.GET("/instruments", s.listInstruments)
		v1.GET("/defaults", s.defaults)
		v1.GET("/formats", listFormats)

		v1.POST("/generate", s.generate)
		v1.POST("/generate/midi", s.generateMIDI)
		v1.POST("/convert", s.convert)

		v1.POST("/compositions", s.createComposition)
		v1.GET("/compositions", s.listCompositions)
		v1.GET("/compositions/:id", s.getComposition)
		v1.GET("/compositions/:id/midi", s.getCompositionMIDI)
		v1.DELETE("/compositions/:id", s.deleteComposition)
		v1.PUT("/compositions/:id/favorite", s.addFavorite)
		v1.DELETE("/compositions/:id/favorite", s.removeFavorite)
		v1.GET("/favorites", s.listFavorites)
		v1.GET("/history", s.history)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// Run starts the API server on the configured port
func (s *Server) Run() error {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return s.Router().Run(":" + s.cfg.Port)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (s *Server) healthCheck(c *gin.Context) {
	storage := "memory"
	if s.cfg.UsesDatabase() {
		storage = "postgres"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "fractune",
		"storage": storage,
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns the export formats and conversion paths
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats":     []string{string(converter.FormatMIDI), string(converter.FormatJSON)},
		"conversions": converter.GetSupportedConversions(),
	})
}
