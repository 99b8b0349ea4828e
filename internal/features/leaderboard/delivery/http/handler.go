package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "onchain-leveling-backend/internal/common/errors"
	"onchain-leveling-backend/internal/common/middleware"
	"onchain-leveling-backend/internal/features/leaderboard/repository"
	"onchain-leveling-backend/internal/features/leaderboard/service"
)

type Handler struct {
	service *service.Service
}

func NewHandler(service *service.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(public, authed *gin.RouterGroup) {
	public.GET("/leaderboard", h.Top)
	authed.GET("/leaderboard/me", h.Me)
}

// @Summary Leaderboard
// @Description Players ranked by confirmed XP.
// @Tags leaderboard
// @Produce json
// @Param limit query int false "Number of entries" default(100)
// @Success 200 {array} models.Entry
// @Failure 400 {object} middleware.ErrorResponse "Invalid limit"
// @Router /leaderboard [get]
func (h *Handler) Top(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		_ = c.Error(apperrors.NewValidationError("limit", "must be a non-negative integer"))
		return
	}

	entries, err := h.service.Top(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(apperrors.NewCacheError("leaderboard", err))
		return
	}
	c.JSON(http.StatusOK, entries)
}

// @Summary Own leaderboard position
// @Tags leaderboard
// @Produce json
// @Security WalletSession
// @Success 200 {object} models.Entry
// @Failure 404 {object} middleware.ErrorResponse "Not ranked yet"
// @Router /leaderboard/me [get]
func (h *Handler) Me(c *gin.Context) {
	address := c.GetString(middleware.AddressKey)
	entry, err := h.service.Position(c.Request.Context(), address)
	if err != nil {
		if errors.Is(err, repository.ErrNotRanked) {
			_ = c.Error(apperrors.NewNotFoundError("leaderboard entry", address))
			return
		}
		_ = c.Error(apperrors.NewCacheError("leaderboard position", err))
		return
	}
	c.JSON(http.StatusOK, entry)
}
