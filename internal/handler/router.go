package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/middleware"
	"github.com/noah-isme/student-portal-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Accounts      *AccountHandler
	Imports       *ImportHandler
	Exports       *ExportHandler
	Uploads       *UploadHandler
	Announcements *AnnouncementHandler
}

// RegisterRoutes mounts the API on router. Admin routes require the admin role.
func RegisterRoutes(router gin.IRouter, h Handlers, resolver middleware.IdentityResolver, cookieName string) {
	authenticated := middleware.Authenticate(resolver, cookieName)

	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", authenticated, h.Auth.Me)
	}

	public := router.Group("", middleware.OptionalIdentity(resolver, cookieName))
	{
		public.GET("/announcements", h.Announcements.List)
		public.GET("/announcements/headers", h.Announcements.Headers)
		public.GET("/announcements/:id", h.Announcements.Get)
		public.GET("/files/:token", h.Uploads.Download)
		// Registration happens before a session exists, so the card upload is open.
		public.POST("/uploads", h.Uploads.Upload)
		// Confirm answers every failure, 401 included, with a plain error string.
		public.POST("/accounts/confirm", h.Accounts.Confirm)
	}

	protected := router.Group("", authenticated)
	{
		protected.GET("/profile", h.Users.Profile)
		protected.PUT("/profile", h.Users.UpdateProfile)

		protected.POST("/announcements", h.Announcements.Create)
		protected.PUT("/announcements/:id", h.Announcements.Update)
		protected.DELETE("/announcements/:id", h.Announcements.Delete)
		protected.POST("/announcements/:id/like", h.Announcements.Like)
		protected.POST("/announcements/:id/comments", h.Announcements.Comment)
		protected.POST("/announcements/:id/replies", h.Announcements.Reply)
	}

	admin := router.Group("/admin", authenticated, middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/accounts", h.Accounts.List)
		admin.PUT("/accounts/status", h.Accounts.SetStatus)
		admin.GET("/accounts/:id", h.Accounts.Get)
		admin.PUT("/accounts/:id", h.Accounts.Update)
		admin.DELETE("/accounts/:id", h.Accounts.Delete)

		admin.POST("/imports", h.Imports.Upload)
		admin.GET("/imports/:id", h.Imports.Status)

		admin.GET("/export/accounts", h.Exports.Accounts)
		admin.GET("/export/users", h.Exports.Users)

		admin.GET("/users", h.Users.List)
		admin.PUT("/users", h.Users.ChangeRole)
		admin.GET("/roles", h.Users.Roles)

		admin.POST("/announcement-categories", h.Announcements.CreateCategory)
	}
}
