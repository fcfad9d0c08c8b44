package server

import (
	"github.com/nulzo/image-router-api/internal/server/middleware"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.Tracing("image-router-api"))
	s.router.Use(middleware.ErrorHandler(s.logger))

	// Public endpoints
	s.router.GET("/", s.handler.HandleRoot)
	s.router.GET("/health", s.handler.HandleHealth)

	// Generated images are served straight off disk
	s.router.Static("/images", s.config.Storage.Path)

	api := s.router.Group("/v1")
	api.Use(middleware.Auth(s.config.Server.BearerToken))
	{
		api.POST("/generate", s.handler.HandleGenerate)
		api.POST("/generate/stream", s.handler.HandleGenerateStream)
		api.POST("/edit", s.handler.HandleEdit)

		api.GET("/models", s.handler.HandleListModels)
		api.POST("/models/refresh", s.handler.HandleRefreshModels)
	}
}
