package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	common "onchain-leveling-backend/internal/common/middleware"
	"onchain-leveling-backend/internal/features/walletproof/models"
	walletredis "onchain-leveling-backend/internal/features/walletproof/repository/redis"
	"onchain-leveling-backend/internal/features/walletproof/service"
	"onchain-leveling-backend/internal/platform/redis/redistest"
)

func TestRequireWallet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	client, _ := redistest.NewClient(t)
	repo := walletredis.NewRepository(client)
	svc := service.NewService(repo, service.Config{Domain: "leveling.example"})

	const address = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	require.NoError(t, repo.SaveSession(context.Background(), &models.Session{Token: "tok", Address: address}, time.Hour))

	r := gin.New()
	r.Use(common.ErrorHandler(nil))
	r.GET("/me", RequireWallet(svc), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(common.AddressKey))
	})

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"bearer", "Bearer tok", "", http.StatusOK},
		{"query token", "", "?token=tok", http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"unknown", "Bearer nope", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, address, w.Body.String())
			}
		})
	}
}
