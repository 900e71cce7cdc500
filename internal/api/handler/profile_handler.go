package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tutorlab/tutor-platform/internal/core/domain"
	"github.com/tutorlab/tutor-platform/internal/core/ports"
)

// ProfileHandler handles profile, preference and subject operations for the
// authenticated account.
type ProfileHandler struct {
	accounts ports.AccountService
}

func NewProfileHandler(accounts ports.AccountService) *ProfileHandler {
	return &ProfileHandler{accounts: accounts}
}

// Get handles GET /v1/profile.
//
// @Summary      Get the authenticated account's profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  profileResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	username, err := ctxUsername(c)
	if err != nil {
		return err
	}

	account, err := h.accounts.GetAccount(c.Request().Context(), username)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toProfileResponse(account))
}

// UpdatePreferences handles PUT /v1/profile/preferences.
//
// @Summary      Update learning preferences
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      preferencesRequest  true  "Learning preferences"
// @Success      200   {object}  preferencesResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/profile/preferences [put]
func (h *ProfileHandler) UpdatePreferences(c echo.Context) error {
	username, err := ctxUsername(c)
	if err != nil {
		return err
	}

	var req preferencesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	prefs := domain.Preferences{
		Style:      domain.LearningStyle(req.Style),
		Pace:       domain.LearningPace(req.Pace),
		Difficulty: domain.Difficulty(req.Difficulty),
	}
	if err := h.accounts.UpdatePreferences(c.Request().Context(), username, prefs); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, preferencesResponse{
		Style:      req.Style,
		Pace:       req.Pace,
		Difficulty: req.Difficulty,
	})
}

// UpdateSubjects handles PUT /v1/profile/subjects.
//
// @Summary      Update selected subjects (max 5, from the catalog)
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      subjectsRequest  true  "Selected subjects"
// @Success      200   {object}  subjectsRequest
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/profile/subjects [put]
func (h *ProfileHandler) UpdateSubjects(c echo.Context) error {
	username, err := ctxUsername(c)
	if err != nil {
		return err
	}

	var req subjectsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}

	// Catalog membership and the size cap are checked by the service so the
	// rule lives in one place.
	if err := h.accounts.UpdateSubjects(c.Request().Context(), username, req.Subjects); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, req)
}
