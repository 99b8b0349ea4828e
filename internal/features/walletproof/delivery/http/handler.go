package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "onchain-leveling-backend/internal/common/errors"
	"onchain-leveling-backend/internal/features/walletproof/middleware"
	"onchain-leveling-backend/internal/features/walletproof/models"
	"onchain-leveling-backend/internal/features/walletproof/repository"
	"onchain-leveling-backend/internal/features/walletproof/service"
)

type Handler struct {
	service *service.Service
}

func NewHandler(service *service.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public challenge routes on public and logout on authed.
func (h *Handler) RegisterRoutes(public, authed *gin.RouterGroup) {
	auth := public.Group("/auth")
	{
		auth.POST("/nonce", h.Nonce)
		auth.POST("/verify", h.Verify)
	}
	authed.POST("/auth/logout", h.Logout)
}

// @Summary Request a sign-in challenge
// @Description Issues a single-use nonce and the EIP-191 message the wallet must sign.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.NonceRequest true "Wallet address"
// @Success 200 {object} models.NonceResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid address"
// @Router /auth/nonce [post]
func (h *Handler) Nonce(c *gin.Context) {
	var req models.NonceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}

	challenge, err := h.service.IssueNonce(c.Request.Context(), req.Address)
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusOK, challenge)
}

// @Summary Verify a signed challenge
// @Description Recovers the signer of the challenge and opens a wallet session.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.VerifyRequest true "Signed challenge"
// @Success 200 {object} models.Session
// @Failure 400 {object} middleware.ErrorResponse "Invalid request"
// @Failure 401 {object} middleware.ErrorResponse "Signature rejected"
// @Router /auth/verify [post]
func (h *Handler) Verify(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}

	session, err := h.service.Verify(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusOK, session)
}

// @Summary End the wallet session
// @Tags auth
// @Security WalletSession
// @Success 204
// @Router /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), c.GetString(middleware.TokenKey)); err != nil {
		_ = c.Error(apperrors.NewCacheError("logout", err))
		return
	}
	c.Status(http.StatusNoContent)
}

func toAppError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, service.ErrInvalidAddress):
		return apperrors.NewValidationError("address", err.Error())
	case errors.Is(err, repository.ErrNonceNotFound),
		errors.Is(err, service.ErrAddressMismatch),
		errors.Is(err, service.ErrInvalidSignature):
		return apperrors.NewUnauthorizedError(err.Error())
	default:
		return apperrors.NewCacheError("wallet proof", err)
	}
}
