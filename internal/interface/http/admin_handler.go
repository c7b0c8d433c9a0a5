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

type AdminHandler struct {
	Admin   *application.AdminService
	Auth    *application.AuthService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAdminHandler(admin *application.AdminService, auth *application.AuthService, logger *logrus.Logger, cookies *helpers.Manager) *AdminHandler {
	return &AdminHandler{Admin: admin, Auth: auth, Logger: logger, Cookies: cookies}
}

type createUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required,phone"`
	Password string `json:"password" binding:"required,pwd"`
}

type banRequest struct {
	Banned *bool `json:"banned" binding:"required"`
}

type listQuery struct {
	Query  string `form:"q"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

func views(accounts []*entity.Account) []entity.AccountView {
	out := make([]entity.AccountView, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Public())
	}
	return out
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	sess, a, err := h.Admin.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Fail(c, err)
		return
	}
	h.Cookies.SetSession(c, sess.Token, sess.ExpiresAt)
	response.Success(c, http.StatusOK, a.Public(), "login successful", gin.H{"expires_at": sess.ExpiresAt})
}

func (h *AdminHandler) Logout(c *gin.Context) {
	if err := h.Auth.Logout(c.Request.Context(), h.Cookies.Read(c), entity.AudienceAdmin); err != nil {
		response.Fail(c, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true}, "logout successful", nil)
}

// Dashboard lists user accounts. Supports ?q=, ?limit= and ?offset=.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}
	users, err := h.Admin.ListUsers(c.Request.Context(), application.ListUsersInput{Query: q.Query, Limit: q.Limit, Offset: q.Offset})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, views(users), "returned all users", gin.H{
		"count":  len(users),
		"limit":  q.Limit,
		"offset": q.Offset,
		"next":   q.Offset + len(users),
	})
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	a, err := h.Admin.GetUser(c.Request.Context(), middleware.CurrentAccountID(c), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, a.Public(), "user is returned", nil)
}

func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	a, err := h.Admin.CreateAccount(c.Request.Context(), application.CreateAccountInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, a.Public(), "user was created", nil)
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
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

	a, err := h.Admin.UpdateUser(c.Request.Context(), middleware.CurrentAccountID(c), c.Param("id"), application.UpdateProfileInput{
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

func (h *AdminHandler) SetBanned(c *gin.Context) {
	var req banRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	a, err := h.Admin.SetBanned(c.Request.Context(), middleware.CurrentAccountID(c), c.Param("id"), *req.Banned)
	if err != nil {
		response.Fail(c, err)
		return
	}
	msg := "user was unbanned"
	if a.IsBanned {
		msg = "user was banned"
	}
	response.Success(c, http.StatusOK, a.Public(), msg, nil)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if err := h.Admin.DeleteUser(c.Request.Context(), middleware.CurrentAccountID(c), c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, "user was deleted successfully", nil)
}
