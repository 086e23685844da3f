package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkordulewski/accounts-service/internal/core/domain"
	"github.com/mkordulewski/accounts-service/internal/infra/security"
	"github.com/mkordulewski/accounts-service/internal/usecase"
)

// UserHandler exposes registration, verification, and login for user accounts.
type UserHandler struct {
	registration *usecase.RegistrationService
	auth         *usecase.AuthService
}

func NewUserHandler(registration *usecase.RegistrationService, auth *usecase.AuthService) *UserHandler {
	return &UserHandler{registration: registration, auth: auth}
}

// UserRouteMiddlewares carries optional per-endpoint middleware chains,
// applied ahead of the handler when non-empty.
type UserRouteMiddlewares struct {
	Register []gin.HandlerFunc
	Verify   []gin.HandlerFunc
	Login    []gin.HandlerFunc
}

// RegisterRoutes binds user account endpoints.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup, mw UserRouteMiddlewares) {
	r.POST("/register", withMiddleware(mw.Register, h.Register)...)
	r.POST("/verify", withMiddleware(mw.Verify, h.Verify)...)
	r.GET("/verify", withMiddleware(mw.Verify, h.VerifyLink)...)
	r.POST("/login", withMiddleware(mw.Login, h.Login)...)
}

func withMiddleware(chain []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	out := append([]gin.HandlerFunc{}, chain...)
	return append(out, handler)
}

// Register godoc
// @Summary Register a new user account
// @Description Creates a pending user account and emails a verification code.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 201 {object} RegisterResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/user/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	result, err := h.registration.RegisterUser(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrDuplicateIdentity, Status: http.StatusConflict, Message: "email or username already registered"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
		}, http.StatusInternalServerError, "failed to register user")
		return
	}

	resp := RegisterResponse{
		User:                 newAccountSummary(result.User),
		RequiresVerification: true,
		Message:              "verification code sent",
	}
	if result.DeliveryFailed {
		resp.Message = "account created; verification delivery failed, request a new code later"
	}
	if !result.ExpiresAt.IsZero() {
		expires := result.ExpiresAt.UTC().Format(time.RFC3339)
		resp.ExpiresAt = &expires
	}

	c.JSON(http.StatusCreated, resp)
}

// Verify godoc
// @Summary Verify a pending user account
// @Description Redeems a verification code, activates the account, and returns a session token.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verification request"
// @Success 200 {object} VerifyResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/user/verify [post]
func (h *UserHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid verification payload"))
		return
	}

	h.verify(c, req.Email, req.Code)
}

// VerifyLink godoc
// @Summary Verify a pending user account via emailed link
// @Description Redeems the contact and code carried by the verification link.
// @Tags Users
// @Produce json
// @Param contact query string true "Contact email"
// @Param code query string true "Verification code"
// @Success 200 {object} VerifyResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/user/verify [get]
func (h *UserHandler) VerifyLink(c *gin.Context) {
	contact := c.Query("contact")
	code := c.Query("code")
	if contact == "" || code == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "contact and code are required"))
		return
	}

	h.verify(c, contact, code)
}

func (h *UserHandler) verify(c *gin.Context, contact, code string) {
	user, token, err := h.registration.VerifyAccount(c.Request.Context(), contact, code)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidOrExpiredOTP, Status: http.StatusBadRequest, Message: "verification code invalid or expired"},
		}, http.StatusInternalServerError, "failed to verify account")
		return
	}

	c.JSON(http.StatusOK, VerifyResponse{
		Message:   "account verified",
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(security.SessionTTL.Seconds()),
		User:      newAccountSummary(user),
	})
}

// Login godoc
// @Summary Authenticate a user
// @Description Validates credentials for an active account and returns a session token.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/user/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	result, err := h.auth.LoginUser(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
			{Err: usecase.ErrNotVerified, Status: http.StatusForbidden, Message: "account not verified"},
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
