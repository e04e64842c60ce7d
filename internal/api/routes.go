package api

import (
	"github.com/gin-gonic/gin"

	"propertyhub/web/internal/access"
	"propertyhub/web/internal/models"
	"propertyhub/web/internal/session"
)

func SetupRoutes(router *gin.Engine, handler *Handler, sessions *session.Store) {
	api := router.Group("/api")
	{
		api.POST("/auth/login", handler.Login)
		api.POST("/auth/register", handler.Register)
		api.GET("/session", handler.CurrentSession)
		api.GET("/properties", handler.ListProperties)
		api.GET("/properties/:id", handler.GetProperty)

		authed := api.Group("", access.Require(sessions, access.Authenticated()))
		{
			authed.POST("/auth/logout", handler.Logout)
			authed.GET("/dashboard", handler.Dashboard)
			authed.POST("/favorites/:id/toggle", handler.ToggleFavorite)
		}

		owners := api.Group("", access.Require(sessions, access.RoleOrAdmin(models.RolePropertyOwner)))
		{
			owners.POST("/properties", handler.CreateProperty)
		}

		// Owner dashboard section: exact role, no admin override.
		ownerSection := api.Group("", access.Require(sessions, access.RoleOnly(models.RolePropertyOwner)))
		{
			ownerSection.GET("/dashboard/listings", handler.OwnerListings)
		}
	}
}
