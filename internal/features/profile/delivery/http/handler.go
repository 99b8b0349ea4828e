package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "onchain-leveling-backend/internal/common/errors"
	"onchain-leveling-backend/internal/common/middleware"
	"onchain-leveling-backend/internal/common/validation"
	"onchain-leveling-backend/internal/features/profile/models"
	"onchain-leveling-backend/internal/features/profile/service"
)

type Handler struct {
	service *service.Service
}

func NewHandler(service *service.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(public, authed *gin.RouterGroup) {
	cosmetic := public.Group("/cosmetic")
	{
		cosmetic.GET("/:device", h.GetCosmetic)
		cosmetic.PUT("/:device", h.SetCosmetic)
	}

	authed.GET("/profile/me", h.Me)
	registration := authed.Group("/registration")
	{
		registration.POST("/validate", h.ValidateRegistration)
		registration.POST("/confirm", h.ConfirmRegistration)
	}
}

// @Summary Current profile
// @Description Authoritative profile with level progress from the cumulative schedule and the ledger's next-level view.
// @Tags profile
// @Produce json
// @Security WalletSession
// @Success 200 {object} models.ProfileView
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 502 {object} middleware.ErrorResponse "EXTERNAL_LEDGER_ERROR"
// @Router /profile/me [get]
func (h *Handler) Me(c *gin.Context) {
	view, err := h.service.Me(c.Request.Context(), c.GetString(middleware.AddressKey))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Validate registration
// @Description Checks name and character before the wallet signs register().
// @Tags profile
// @Accept json
// @Security WalletSession
// @Param request body models.RegistrationRequest true "Registration data"
// @Success 204
// @Failure 400 {object} middleware.ErrorResponse "Invalid name or character"
// @Failure 409 {object} middleware.ErrorResponse "Already registered"
// @Router /registration/validate [post]
func (h *Handler) ValidateRegistration(c *gin.Context) {
	var req models.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}

	if err := h.service.ValidateRegistration(c.Request.Context(), c.GetString(middleware.AddressKey), req.Name, req.Character); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Confirm registration
// @Description Waits for the register() transaction and returns the re-read profile.
// @Tags profile
// @Accept json
// @Produce json
// @Security WalletSession
// @Param request body models.ConfirmRequest true "Transaction hash"
// @Success 200 {object} models.ProfileView
// @Failure 400 {object} middleware.ErrorResponse "Invalid tx hash"
// @Failure 502 {object} middleware.ErrorResponse "EXTERNAL_LEDGER_ERROR"
// @Failure 504 {object} middleware.ErrorResponse "TIMEOUT"
// @Router /registration/confirm [post]
func (h *Handler) ConfirmRegistration(c *gin.Context) {
	var req models.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}
	if err := validation.ValidateTxHash(req.TxHash); err != nil {
		_ = c.Error(apperrors.NewValidationError("tx_hash", err.Error()))
		return
	}

	view, err := h.service.ConfirmRegistration(c.Request.Context(), c.GetString(middleware.AddressKey), req.TxHash)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Local character
// @Description Character stored for a device without a connected wallet.
// @Tags profile
// @Produce json
// @Param device path string true "Device ID"
// @Success 200 {object} models.CosmeticResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid device id"
// @Router /cosmetic/{device} [get]
func (h *Handler) GetCosmetic(c *gin.Context) {
	resp, err := h.service.Cosmetic(c.Request.Context(), c.Param("device"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Store local character
// @Tags profile
// @Accept json
// @Produce json
// @Param device path string true "Device ID"
// @Param request body models.CosmeticRequest true "Character"
// @Success 200 {object} models.CosmeticResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid request"
// @Router /cosmetic/{device} [put]
func (h *Handler) SetCosmetic(c *gin.Context) {
	var req models.CosmeticRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}

	resp, err := h.service.SetCosmetic(c.Request.Context(), c.Param("device"), req.Character)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
