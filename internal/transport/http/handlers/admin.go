package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkordulewski/accounts-service/internal/core/domain"
	"github.com/mkordulewski/accounts-service/internal/transport/http/middleware"
	"github.com/mkordulewski/accounts-service/internal/usecase"
)

// AdminHandler exposes admin registration, login, and user management.
type AdminHandler struct {
	admins *usecase.AdminService
	auth   *usecase.AuthService
}

func NewAdminHandler(admins *usecase.AdminService, auth *usecase.AuthService) *AdminHandler {
	return &AdminHandler{admins: admins, auth: auth}
}

// RegisterPublicRoutes binds endpoints reachable without a session.
func (h *AdminHandler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
}

// RegisterProtectedRoutes binds endpoints that require an admin session.
func (h *AdminHandler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.GET("/users", h.ListUsernames)
	r.GET("/users/:username", h.GetUser)
	r.DELETE("/users/:username", h.DeleteUser)
}

// Register godoc
// @Summary Register a new admin account
// @Description Creates an admin account, active immediately with no verification step.
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 201 {object} AdminRegisterResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/admin/register [post]
func (h *AdminHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	admin, err := h.admins.RegisterAdmin(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrDuplicateIdentity, Status: http.StatusConflict, Message: "email or username already registered"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
		}, http.StatusInternalServerError, "failed to register admin")
		return
	}

	c.JSON(http.StatusCreated, AdminRegisterResponse{
		ID:       admin.ID,
		Email:    admin.Email,
		Username: admin.Username,
		Status:   admin.Status,
		Role:     domain.RoleAdmin,
	})
}

// Login godoc
// @Summary Authenticate an admin
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	result, err := h.auth.LoginAdmin(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
		}, http.StatusInternalServerError, "failed to log in")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     result.Token,
		TokenType: "Bearer",
		ExpiresIn: int(result.ExpiresIn.Seconds()),
		User: AccountSummary{
			ID:       result.AccountID,
			Username: result.Username,
			Email:    result.Email,
			Status:   domain.AccountStatusActive,
			Role:     result.Role,
		},
	})
}

// ListUsernames godoc
// @Summary List usernames of all user accounts
// @Tags Admin
// @Produce json
// @Success 200 {object} UsernamesResponse
// @Router /api/v1/admin/users [get]
func (h *AdminHandler) ListUsernames(c *gin.Context) {
	usernames, err := h.admins.ListUsernames(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list users"))
		return
	}

	if usernames == nil {
		usernames = []string{}
	}

	c.JSON(http.StatusOK, UsernamesResponse{Usernames: usernames})
}

// GetUser godoc
// @Summary Fetch a user account by username
// @Tags Admin
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} ProfileResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/admin/users/{username} [get]
func (h *AdminHandler) GetUser(c *gin.Context) {
	username := c.Param("username")

	user, err := h.admins.GetUser(c.Request.Context(), username)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "failed to load user")
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(user))
}

// DeleteUser godoc
// @Summary Delete a user account by username
// @Tags Admin
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/admin/users/{username} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	username := c.Param("username")

	deletedBy, _ := middleware.GetAuthenticatedAccountID(c)

	if err := h.admins.DeleteUser(c.Request.Context(), username, deletedBy); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "failed to delete user")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "user deleted"})
}
