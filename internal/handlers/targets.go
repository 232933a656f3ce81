package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hookchatio/hookchat/internal/auth"
	"github.com/hookchatio/hookchat/internal/targets"
	"github.com/hookchatio/hookchat/internal/webhook"
)

// TargetsHandler manages webhook destination CRUD via REST API.
type TargetsHandler struct {
	service *targets.Service
	logger  *slog.Logger
}

func NewTargetsHandler(log *slog.Logger, service *targets.Service) *TargetsHandler {
	return &TargetsHandler{
		service: service,
		logger:  log.With(slog.String("handler", "targets")),
	}
}

func (h *TargetsHandler) Register(e *echo.Echo) {
	group := e.Group("/webhooks")
	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.POST("/:id/activate", h.Activate)
}

type listTargetsResponse struct {
	Items []targets.Target `json:"items"`
}

// Create godoc
// @Summary Create webhook target
// @Description Register a webhook destination for the current user
// @Tags webhooks
// @Param payload body targets.CreateRequest true "Target payload"
// @Success 201 {object} targets.Target
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /webhooks [post]
func (h *TargetsHandler) Create(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var req targets.CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	target, err := h.service.Create(c.Request().Context(), userID, req)
	if err != nil {
		return targetError(err)
	}
	return c.JSON(http.StatusCreated, target)
}

// List godoc
// @Summary List webhook targets
// @Tags webhooks
// @Success 200 {object} listTargetsResponse
// @Failure 500 {object} ErrorResponse
// @Router /webhooks [get]
func (h *TargetsHandler) List(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	items, err := h.service.List(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, listTargetsResponse{Items: items})
}

// Get godoc
// @Summary Get webhook target
// @Tags webhooks
// @Param id path string true "Target ID"
// @Success 200 {object} targets.Target
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /webhooks/{id} [get]
func (h *TargetsHandler) Get(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "target id is required")
	}
	target, err := h.service.Get(c.Request().Context(), userID, id)
	if err != nil {
		return targetError(err)
	}
	return c.JSON(http.StatusOK, target)
}

// Update godoc
// @Summary Update webhook target
// @Tags webhooks
// @Param id path string true "Target ID"
// @Param payload body targets.CreateRequest true "Target payload"
// @Success 200 {object} targets.Target
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /webhooks/{id} [put]
func (h *TargetsHandler) Update(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "target id is required")
	}
	var req targets.CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	target, err := h.service.Update(c.Request().Context(), userID, id, req)
	if err != nil {
		return targetError(err)
	}
	return c.JSON(http.StatusOK, target)
}

// Delete godoc
// @Summary Delete webhook target
// @Tags webhooks
// @Param id path string true "Target ID"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /webhooks/{id} [delete]
func (h *TargetsHandler) Delete(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "target id is required")
	}
	if err := h.service.Delete(c.Request().Context(), userID, id); err != nil {
		return targetError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Activate godoc
// @Summary Activate webhook target
// @Description Make a target the active destination; clears any previous one
// @Tags webhooks
// @Param id path string true "Target ID"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /webhooks/{id}/activate [post]
func (h *TargetsHandler) Activate(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "target id is required")
	}
	if err := h.service.Activate(c.Request().Context(), userID, id); err != nil {
		return targetError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func targetError(err error) error {
	var verr *webhook.ValidationError
	switch {
	case errors.Is(err, targets.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, targets.ErrNameRequired), errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
