package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "onchain-leveling-backend/internal/common/errors"
	"onchain-leveling-backend/internal/common/middleware"
	"onchain-leveling-backend/internal/common/validation"
	"onchain-leveling-backend/internal/features/task/service"
)

type Handler struct {
	service *service.Service
}

func NewHandler(service *service.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(public, authed *gin.RouterGroup) {
	public.GET("/tasks", h.List)
	authed.GET("/tasks/board", h.Board)
}

// @Summary Task catalog
// @Description One page of the ledger's task definitions.
// @Tags tasks
// @Produce json
// @Param offset query int false "Offset" default(0)
// @Param limit query int false "Page size, at most 50" default(20)
// @Success 200 {object} models.Page
// @Failure 400 {object} middleware.ErrorResponse "Invalid paging"
// @Failure 502 {object} middleware.ErrorResponse "EXTERNAL_LEDGER_ERROR"
// @Router /tasks [get]
func (h *Handler) List(c *gin.Context) {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		_ = c.Error(apperrors.NewValidationError("offset", "must be an integer"))
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		_ = c.Error(apperrors.NewValidationError("limit", "must be an integer"))
		return
	}
	o, l, err := validation.NormalizePage(offset, limit)
	if err != nil {
		_ = c.Error(apperrors.NewValidationError("paging", err.Error()))
		return
	}

	page, err := h.service.Catalog(c.Request.Context(), o, l)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary Daily task board
// @Description Enabled tasks with the caller's state in the current period and the next reset time.
// @Tags tasks
// @Produce json
// @Security WalletSession
// @Success 200 {object} models.Board
// @Failure 502 {object} middleware.ErrorResponse "EXTERNAL_LEDGER_ERROR"
// @Router /tasks/board [get]
func (h *Handler) Board(c *gin.Context) {
	board, err := h.service.Board(c.Request.Context(), c.GetString(middleware.AddressKey))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, board)
}
