package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router assembles the gin engine with middleware and all routes.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "sportswire"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/api/register", s.register)
	router.POST("/api/login", s.login)

	authed := router.Group("/api", requireAuth(s.sessions))
	authed.GET("/breaking-news", s.breakingNews)
	authed.POST("/halt-loop", s.haltLoop)
	authed.POST("/process-url", s.processURL)
	authed.GET("/captions", s.listCaptions)
	authed.POST("/captions", s.saveCaption)
	authed.DELETE("/captions/:id", s.deleteCaption)

	return router
}
