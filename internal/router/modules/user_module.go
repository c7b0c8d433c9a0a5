package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-account-service/internal/interface/http"
	"github.com/oksasatya/go-account-service/internal/interface/middleware"
)

// UserModule serves /api/users behind the user_session cookie.
type UserModule struct {
	Handler *handlers.UserHandler
	Guard   *middleware.SessionGuard
}

func NewUserModule(h *handlers.UserHandler, guard *middleware.SessionGuard) *UserModule {
	return &UserModule{Handler: h, Guard: guard}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	anon := m.Guard.RequireAnonymous()
	auth := m.Guard.RequireAuthenticated()

	users.POST("/register", anon, m.Handler.Register)
	users.POST("/verify-email", m.Handler.VerifyEmail)
	users.POST("/login", anon, m.Handler.Login)
	users.GET("/logout", m.Handler.Logout)
	users.POST("/forget-password", anon, m.Handler.ForgetPassword)
	users.POST("/reset-password", anon, m.Handler.ResetPassword)

	users.GET("", auth, m.Handler.Profile)
	users.PUT("", auth, m.Handler.UpdateProfile)
	users.DELETE("", auth, m.Handler.DeleteSelf)
}
