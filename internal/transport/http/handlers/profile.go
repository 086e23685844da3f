package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkordulewski/accounts-service/internal/core/domain"
	"github.com/mkordulewski/accounts-service/internal/transport/http/middleware"
	"github.com/mkordulewski/accounts-service/internal/usecase"
)

// ProfileHandler exposes the authenticated user's profile.
type ProfileHandler struct {
	profiles *usecase.ProfileService
}

func NewProfileHandler(profiles *usecase.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// RegisterRoutes binds profile endpoints. The group must already carry the
// authentication middleware.
func (h *ProfileHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/profile", h.Get)
	r.PUT("/profile", h.Update)
}

// Get godoc
// @Summary Fetch the caller's profile
// @Tags Profile
// @Produce json
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/user/profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	user, err := h.profiles.Get(c.Request.Context(), accountID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(user))
}

// Update godoc
// @Summary Partially update the caller's profile
// @Description Applies only the fields present in the request body; absent fields stay untouched.
// @Tags Profile
// @Accept json
// @Produce json
// @Param request body ProfileUpdateRequest true "Profile update"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/user/profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid profile payload"))
		return
	}

	update := domain.ProfileUpdate{
		Name:        req.Name,
		Location:    req.Location,
		Age:         req.Age,
		Occupation:  req.Work,
		Description: req.Description,
	}

	if req.DOB != nil {
		dob, err := parseDOB(*req.DOB)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid dob: expected YYYY-MM-DD"))
			return
		}
		update.DateOfBirth = &dob
	}

	user, err := h.profiles.Update(c.Request.Context(), accountID, update)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(user))
}
