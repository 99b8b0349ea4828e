package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "onchain-leveling-backend/internal/common/errors"
	"onchain-leveling-backend/internal/common/validation"
	"onchain-leveling-backend/internal/features/activity/models"
	"onchain-leveling-backend/internal/features/activity/service"
)

type Handler struct {
	service *service.Service
}

func NewHandler(service *service.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts activity routes. Quests are keyed by device so they
// work before a wallet is connected.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/activity/summary", h.Summarize)

	quests := router.Group("/quests/:device")
	{
		quests.GET("", h.GetQuest)
		quests.POST("", h.StartQuest)
		quests.POST("/pause", h.PauseQuest)
		quests.POST("/resume", h.ResumeQuest)
		quests.POST("/stop", h.StopQuest)
	}
}

// @Summary Summarize activity
// @Description Calories, steps, pace, speed and progress toward each enabled task goal.
// @Tags activity
// @Accept json
// @Produce json
// @Param request body models.Activity true "Activity"
// @Success 200 {object} models.Summary
// @Failure 400 {object} middleware.ErrorResponse "Invalid activity"
// @Router /activity/summary [post]
func (h *Handler) Summarize(c *gin.Context) {
	var req models.Activity
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}

	summary, err := h.service.Summarize(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Current quest
// @Tags activity
// @Produce json
// @Param device path string true "Device ID"
// @Success 200 {object} models.Quest
// @Failure 404 {object} middleware.ErrorResponse "No quest"
// @Router /quests/{device} [get]
func (h *Handler) GetQuest(c *gin.Context) {
	device, ok := deviceParam(c)
	if !ok {
		return
	}
	quest, err := h.service.Quest(c.Request.Context(), device)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, quest)
}

// @Summary Start quest
// @Description Starts a countdown for the planned activity.
// @Tags activity
// @Accept json
// @Produce json
// @Param device path string true "Device ID"
// @Param request body models.Activity true "Planned activity"
// @Success 201 {object} models.Quest
// @Failure 400 {object} middleware.ErrorResponse "Invalid activity"
// @Failure 409 {object} middleware.ErrorResponse "Quest already active"
// @Router /quests/{device} [post]
func (h *Handler) StartQuest(c *gin.Context) {
	device, ok := deviceParam(c)
	if !ok {
		return
	}
	var req models.Activity
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}

	quest, err := h.service.StartQuest(c.Request.Context(), device, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, quest)
}

// @Summary Pause quest
// @Tags activity
// @Produce json
// @Param device path string true "Device ID"
// @Success 200 {object} models.Quest
// @Failure 409 {object} middleware.ErrorResponse "Quest is not running"
// @Router /quests/{device}/pause [post]
func (h *Handler) PauseQuest(c *gin.Context) {
	h.transition(c, h.service.PauseQuest)
}

// @Summary Resume quest
// @Tags activity
// @Produce json
// @Param device path string true "Device ID"
// @Success 200 {object} models.Quest
// @Failure 409 {object} middleware.ErrorResponse "Quest is not paused"
// @Router /quests/{device}/resume [post]
func (h *Handler) ResumeQuest(c *gin.Context) {
	h.transition(c, h.service.ResumeQuest)
}

// @Summary Stop quest
// @Tags activity
// @Produce json
// @Param device path string true "Device ID"
// @Success 200 {object} models.Quest
// @Failure 409 {object} middleware.ErrorResponse "Quest already ended"
// @Router /quests/{device}/stop [post]
func (h *Handler) StopQuest(c *gin.Context) {
	h.transition(c, h.service.StopQuest)
}

func (h *Handler) transition(c *gin.Context, fn func(ctx context.Context, owner string) (*models.Quest, error)) {
	device, ok := deviceParam(c)
	if !ok {
		return
	}
	quest, err := fn(c.Request.Context(), device)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, quest)
}

func deviceParam(c *gin.Context) (string, bool) {
	device := c.Param("device")
	if err := validation.ValidateDeviceID(device); err != nil {
		_ = c.Error(apperrors.NewValidationError("device", err.Error()))
		return "", false
	}
	return device, true
}
