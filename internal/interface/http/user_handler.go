package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/interface/middleware"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/response"
)

type UserHandler struct {
	Auth     *application.AuthService
	Accounts *application.AccountService
	Logger   *logrus.Logger
	Cookies  *helpers.Manager
}

func NewUserHandler(auth *application.AuthService, accounts *application.AccountService, logger *logrus.Logger, cookies *helpers.Manager) *UserHandler {
	return &UserHandler{Auth: auth, Accounts: accounts, Logger: logger, Cookies: cookies}
}

type registerForm struct {
	Name     string `form:"name" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Phone    string `form:"phone" binding:"required,phone"`
	Password string `form:"password" binding:"required,pwd"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type updateProfileForm struct {
	Name     string `form:"name"`
	Phone    string `form:"phone" binding:"omitempty,phone"`
	Password string `form:"password" binding:"omitempty,pwd"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		bindFailed(c, err)
		return
	}
	img, closer, err := formImage(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	defer func() { _ = closer.Close() }()

	token, err := h.Auth.Register(c.Request.Context(), application.RegisterInput{
		Name:     form.Name,
		Email:    form.Email,
		Phone:    form.Phone,
		Password: form.Password,
		Image:    img,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"token": token}, "a verification link has been sent to your email", nil)
}

func (h *UserHandler) VerifyEmail(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	a, err := h.Auth.VerifyEmail(c.Request.Context(), req.Token)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, a.Public(), "user was created, ready to sign in", nil)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	sess, a, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Fail(c, err)
		return
	}
	h.Cookies.SetSession(c, sess.Token, sess.ExpiresAt)
	response.Success(c, http.StatusOK, a.Public(), "login successful", gin.H{"expires_at": sess.ExpiresAt})
}

func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.Auth.Logout(c.Request.Context(), h.Cookies.Read(c), entity.AudienceUser); err != nil {
		response.Fail(c, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true}, "logout successful", nil)
}

func (h *UserHandler) Profile(c *gin.Context) {
	a, err := h.Accounts.Profile(c.Request.Context(), middleware.CurrentAccountID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, a.Public(), "profile is returned", nil)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var form updateProfileForm
	if err := c.ShouldBind(&form); err != nil {
		bindFailed(c, err)
		return
	}
	img, closer, err := formImage(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	defer func() { _ = closer.Close() }()

	a, err := h.Accounts.UpdateProfile(c.Request.Context(), middleware.CurrentAccountID(c), application.UpdateProfileInput{
		Name:     form.Name,
		Phone:    form.Phone,
		Password: form.Password,
		Image:    img,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, a.Public(), "user was updated successfully", nil)
}

func (h *UserHandler) DeleteSelf(c *gin.Context) {
	if err := h.Accounts.DeleteSelf(c.Request.Context(), middleware.CurrentAccountID(c)); err != nil {
		response.Fail(c, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, "user was deleted successfully", nil)
}

func (h *UserHandler) ForgetPassword(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	token, err := h.Auth.ForgetPassword(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"token": token}, "an email has been sent for reset password", nil)
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	if err := h.Auth.ResetPassword(c.Request.Context(), req.Token); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reset": true}, "reset password was successful", nil)
}
