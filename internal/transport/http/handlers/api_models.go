package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkordulewski/accounts-service/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// AccountSummary describes a minimal view of an account returned by the API.
type AccountSummary struct {
	ID       string               `json:"id"`
	Username string               `json:"username"`
	Email    string               `json:"email"`
	Status   domain.AccountStatus `json:"status"`
	Role     domain.Role          `json:"role"`
}

func newAccountSummary(user domain.User) AccountSummary {
	return AccountSummary{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Status:   user.Status,
		Role:     domain.RoleUser,
	}
}

// RegisterRequest defines the account registration payload.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// RegisterResponse contains registration results and next steps.
type RegisterResponse struct {
	User                 AccountSummary `json:"user"`
	RequiresVerification bool           `json:"requires_verification"`
	Message              string         `json:"message,omitempty"`
	ExpiresAt            *string        `json:"expires_at,omitempty"`
}

// VerifyRequest holds the challenge redemption payload.
type VerifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// VerifyResponse is returned after a successful redemption.
type VerifyResponse struct {
	Message   string         `json:"message"`
	Token     string         `json:"token"`
	TokenType string         `json:"token_type"`
	ExpiresIn int            `json:"expires_in"`
	User      AccountSummary `json:"user"`
}

// LoginRequest defines the payload for login endpoints. Identifier accepts
// either email or username.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// LoginResponse describes the response returned for a successful login.
type LoginResponse struct {
	Token     string         `json:"token"`
	TokenType string         `json:"token_type"`
	ExpiresIn int            `json:"expires_in"`
	User      AccountSummary `json:"user"`
}

// ProfileResponse mirrors the stored profile of an account.
type ProfileResponse struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Username    string  `json:"username"`
	Name        *string `json:"name,omitempty"`
	Location    *string `json:"location,omitempty"`
	Age         *int    `json:"age,omitempty"`
	Work        *string `json:"work,omitempty"`
	DOB         *string `json:"dob,omitempty"`
	Description *string `json:"description,omitempty"`
}

func newProfileResponse(user domain.User) ProfileResponse {
	resp := ProfileResponse{
		ID:          user.ID,
		Email:       user.Email,
		Username:    user.Username,
		Name:        user.Name,
		Location:    user.Location,
		Age:         user.Age,
		Work:        user.Occupation,
		Description: user.Description,
	}
	if user.DateOfBirth != nil {
		dob := user.DateOfBirth.UTC().Format(dateLayout)
		resp.DOB = &dob
	}
	return resp
}

// ProfileUpdateRequest carries a partial profile change. Absent fields are
// left untouched.
type ProfileUpdateRequest struct {
	Name        *string `json:"name"`
	Location    *string `json:"location"`
	Age         *int    `json:"age" binding:"omitempty,gte=0,lte=150"`
	Work        *string `json:"work"`
	DOB         *string `json:"dob"`
	Description *string `json:"description"`
}

const dateLayout = "2006-01-02"

// parseDOB accepts a calendar date or a full RFC 3339 timestamp.
func parseDOB(raw string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// AdminRegisterResponse is returned after a successful admin registration.
type AdminRegisterResponse struct {
	ID       string               `json:"id"`
	Email    string               `json:"email"`
	Username string               `json:"username"`
	Status   domain.AccountStatus `json:"status"`
	Role     domain.Role          `json:"role"`
}

// UsernamesResponse lists usernames of registered users.
type UsernamesResponse struct {
	Usernames []string `json:"usernames"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
