package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "onchain-leveling-backend/internal/common/errors"
	common "onchain-leveling-backend/internal/common/middleware"
	"onchain-leveling-backend/internal/features/walletproof/repository"
	"onchain-leveling-backend/internal/features/walletproof/service"
)

const TokenKey = "session_token"

// RequireWallet resolves the bearer session token to a wallet address.
// The token may also come as ?token= for WebSocket upgrades.
func RequireWallet(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			_ = c.Error(apperrors.NewUnauthorizedError("wallet session required"))
			c.Abort()
			return
		}

		session, err := svc.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, repository.ErrSessionNotFound) {
				_ = c.Error(apperrors.NewUnauthorizedError("session expired"))
			} else {
				_ = c.Error(apperrors.NewCacheError("resolve session", err))
			}
			c.Abort()
			return
		}

		c.Set(common.AddressKey, session.Address)
		c.Set(TokenKey, token)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("token")
}
