package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-account-service/internal/interface/http"
	"github.com/oksasatya/go-account-service/internal/interface/middleware"
)

// AdminModule serves /api/admin behind the admin_session cookie.
type AdminModule struct {
	Handler *handlers.AdminHandler
	Guard   *middleware.SessionGuard
}

func NewAdminModule(h *handlers.AdminHandler, guard *middleware.SessionGuard) *AdminModule {
	return &AdminModule{Handler: h, Guard: guard}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.POST("/login", m.Guard.RequireAnonymous(), m.Handler.Login)
	// logout succeeds with or without a live session
	admin.GET("/logout", m.Handler.Logout)

	panel := admin.Group("")
	panel.Use(m.Guard.RequireAuthenticated(), middleware.RequireAdminRole())
	{
		panel.GET("/dashboard", m.Handler.Dashboard)
		panel.POST("/users", m.Handler.CreateUser)
		panel.GET("/users/:id", m.Handler.GetUser)
		panel.PUT("/users/:id", m.Handler.UpdateUser)
		panel.PATCH("/users/:id/ban", m.Handler.SetBanned)
		panel.DELETE("/users/:id", m.Handler.DeleteUser)
	}
}
