package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "onchain-leveling-backend/internal/common/errors"
	"onchain-leveling-backend/internal/common/middleware"
	"onchain-leveling-backend/internal/features/session/models"
	"onchain-leveling-backend/internal/features/session/service"
)

type Handler struct {
	service *service.Service
}

func NewHandler(service *service.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(public, authed *gin.RouterGroup) {
	sessions := public.Group("/session/:device")
	{
		sessions.GET("", h.Get)
		sessions.POST("/events", h.Apply)
		sessions.GET("/guard", h.Guard)
	}

	walletSessions := authed.Group("/session/:device")
	{
		walletSessions.POST("/connect", h.Connect)
		walletSessions.POST("/check", h.Check)
	}
}

// @Summary Session state
// @Tags session
// @Produce json
// @Param device path string true "Device ID"
// @Success 200 {object} models.Snapshot
// @Failure 400 {object} middleware.ErrorResponse "Invalid device id"
// @Router /session/{device} [get]
func (h *Handler) Get(c *gin.Context) {
	snapshot, err := h.service.Snapshot(c.Request.Context(), c.Param("device"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// @Summary Report session event
// @Description Client-side events only. Wallet and registration events come from /connect and /check.
// @Tags session
// @Accept json
// @Produce json
// @Param device path string true "Device ID"
// @Param request body models.EventRequest true "Event"
// @Success 200 {object} models.Snapshot
// @Failure 400 {object} middleware.ErrorResponse "Unknown event"
// @Failure 409 {object} middleware.ErrorResponse "Invalid transition"
// @Router /session/{device}/events [post]
func (h *Handler) Apply(c *gin.Context) {
	var req models.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}

	snapshot, err := h.service.Apply(c.Request.Context(), c.Param("device"), req.Event)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// @Summary Route decision
// @Description Allow, redirect or wait for a client route given the session state and local character.
// @Tags session
// @Produce json
// @Param device path string true "Device ID"
// @Param route query string true "Client route" example(/tasks)
// @Success 200 {object} models.GuardResponse
// @Router /session/{device}/guard [get]
func (h *Handler) Guard(c *gin.Context) {
	resp, err := h.service.Guard(c.Request.Context(), c.Param("device"), c.Query("route"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Connect wallet
// @Description Binds the proven wallet to the device and checks registration on the ledger.
// @Tags session
// @Produce json
// @Security WalletSession
// @Param device path string true "Device ID"
// @Success 200 {object} models.Snapshot
// @Failure 502 {object} middleware.ErrorResponse "EXTERNAL_LEDGER_ERROR"
// @Router /session/{device}/connect [post]
func (h *Handler) Connect(c *gin.Context) {
	snapshot, err := h.service.Connect(c.Request.Context(), c.Param("device"), c.GetString(middleware.AddressKey))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// @Summary Re-check registration
// @Description Resolves checking_registration after a registration transaction.
// @Tags session
// @Produce json
// @Security WalletSession
// @Param device path string true "Device ID"
// @Success 200 {object} models.Snapshot
// @Failure 403 {object} middleware.ErrorResponse "Another wallet"
// @Failure 409 {object} middleware.ErrorResponse "Not checking registration"
// @Router /session/{device}/check [post]
func (h *Handler) Check(c *gin.Context) {
	snapshot, err := h.service.Check(c.Request.Context(), c.Param("device"), c.GetString(middleware.AddressKey))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
