package routes

import (
	"github.com/gin-gonic/gin"

	"audio-sessions/internal/api/v1/handlers"
	"audio-sessions/internal/api/v1/services"
)

// RegisterRoutes registers all v1 API routes
func RegisterRoutes(router *gin.RouterGroup, container *ServiceContainer) {
	sessionHandler := handlers.NewSessionHandler(container.SessionService)
	sessions := router.Group("/sessions")
	{
		sessions.GET("", sessionHandler.List)
		sessions.POST("", sessionHandler.Create)
		sessions.GET("/:id", sessionHandler.Get)
		sessions.PATCH("/:id", sessionHandler.Update)
		sessions.DELETE("/:id", sessionHandler.Delete)
		sessions.POST("/:id/transcribe", sessionHandler.Transcribe)
		sessions.POST("/:id/transform", sessionHandler.Transform)
	}

	if container.ExportService != nil {
		exportHandler := handlers.NewExportHandler(container.ExportService)
		sessions.GET("/export", exportHandler.Export)
	}

	if container.ArchiveService != nil {
		archiveHandler := handlers.NewArchiveHandler(container.ArchiveService)
		sessions.POST("/:id/archive", archiveHandler.Archive)
	}
}

// ServiceContainer holds all services needed by handlers
type ServiceContainer struct {
	SessionService services.SessionService
	ExportService  services.ExportService
	ArchiveService services.ArchiveService
}
