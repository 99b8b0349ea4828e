package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "onchain-leveling-backend/internal/common/errors"
	"onchain-leveling-backend/internal/common/middleware"
	memledger "onchain-leveling-backend/internal/features/ledger/repository/memory"
	"onchain-leveling-backend/internal/features/profile/models"
	profileredis "onchain-leveling-backend/internal/features/profile/repository/redis"
	"onchain-leveling-backend/internal/features/profile/service"
	"onchain-leveling-backend/internal/features/progression/mapper"
	progmodels "onchain-leveling-backend/internal/features/progression/models"
	progression "onchain-leveling-backend/internal/features/progression/service"
	"onchain-leveling-backend/internal/platform/redis/redistest"
)

const (
	player   = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	newcomer = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

type fixture struct {
	router *gin.Engine
	ledger *memledger.Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	schedule, err := progression.NewSchedule([]uint64{100, 250, 450, 700})
	require.NoError(t, err)
	l := memledger.NewLedger(schedule, memledger.DefaultTasks())
	l.Seed(progmodels.Profile{Address: player, Name: "satoshi", Cosmetic: progmodels.CosmeticDegen, XPTotal: 260, Registered: true})

	client, _ := redistest.NewClient(t)
	svc := service.NewService(l, schedule, profileredis.NewCosmeticStore(client), nil, service.Config{
		ConfirmTimeout: 100 * time.Millisecond,
		PollInterval:   2 * time.Millisecond,
	})

	r := gin.New()
	r.Use(middleware.ErrorHandler(mapper.ToAppError))
	api := r.Group("/api/v1")
	authed := api.Group("", func(c *gin.Context) {
		address := c.GetHeader("X-Wallet")
		if address == "" {
			address = player
		}
		c.Set(middleware.AddressKey, address)
	})
	NewHandler(svc).RegisterRoutes(api, authed)
	return &fixture{router: r, ledger: l}
}

func (f *fixture) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) apperrors.ErrorCode {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestMeEndpoint(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/profile/me", "")
	require.Equal(t, http.StatusOK, w.Code)
	var view models.ProfileView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.True(t, view.Profile.Registered)
	assert.Equal(t, progmodels.CosmeticDegen, view.Profile.Cosmetic)
	assert.Equal(t, uint64(3), view.Progress.Level)
	assert.Equal(t, uint64(190), view.Progress.XPToNextLevel)
	require.NotNil(t, view.NextLevel)
	assert.Empty(t, view.Drift)

	w = f.do(http.MethodGet, "/api/v1/profile/me", "", "X-Wallet", newcomer)
	require.Equal(t, http.StatusOK, w.Code)
	view = models.ProfileView{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.False(t, view.Profile.Registered)
	assert.Nil(t, view.NextLevel)

	f.ledger.FailWith(errors.New("rpc unavailable"))
	w = f.do(http.MethodGet, "/api/v1/profile/me", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, apperrors.ErrCodeExternalLedger, errorCode(t, w))
}

func TestValidateRegistrationEndpoint(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		wallet string
		body   string
		status int
		code   apperrors.ErrorCode
	}{
		{"valid", newcomer, `{"name":"vitalik","character":"runner"}`, http.StatusNoContent, ""},
		{"short name", newcomer, `{"name":"ab","character":"runner"}`, http.StatusBadRequest, apperrors.ErrCodeValidation},
		{"unknown character", newcomer, `{"name":"vitalik","character":"wizard"}`, http.StatusBadRequest, apperrors.ErrCodeValidation},
		{"missing character", newcomer, `{"name":"vitalik"}`, http.StatusBadRequest, apperrors.ErrCodeValidation},
		{"already registered", player, `{"name":"satoshi","character":"degen"}`, http.StatusConflict, apperrors.ErrCodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/api/v1/registration/validate", tt.body, "X-Wallet", tt.wallet)
			require.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(t, w))
			}
		})
	}
}

func TestConfirmRegistrationEndpoint(t *testing.T) {
	f := newFixture(t)
	f.ledger.AutoConfirm(1)

	tx, err := f.ledger.SubmitterFor(newcomer).Register(context.Background(), "vitalik", progmodels.CosmeticRunner)
	require.NoError(t, err)

	w := f.do(http.MethodPost, "/api/v1/registration/confirm", `{"tx_hash":"0xfeed"}`, "X-Wallet", newcomer)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/v1/registration/confirm", `{"tx_hash":"`+tx.Hash+`"}`, "X-Wallet", newcomer)
	require.Equal(t, http.StatusOK, w.Code)
	var view models.ProfileView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.True(t, view.Profile.Registered)
	assert.Equal(t, "vitalik", view.Profile.Name)
	assert.Equal(t, progmodels.CosmeticRunner, view.Profile.Cosmetic)
}

func TestConfirmRegistrationTimesOut(t *testing.T) {
	f := newFixture(t)

	tx, err := f.ledger.SubmitterFor(newcomer).Register(context.Background(), "vitalik", progmodels.CosmeticRunner)
	require.NoError(t, err)

	w := f.do(http.MethodPost, "/api/v1/registration/confirm", `{"tx_hash":"`+tx.Hash+`"}`, "X-Wallet", newcomer)
	require.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, apperrors.ErrCodeTimeout, errorCode(t, w))
}

func TestCosmeticEndpoints(t *testing.T) {
	f := newFixture(t)
	const path = "/api/v1/cosmetic/device-1"

	w := f.do(http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.CosmeticResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Found)

	w = f.do(http.MethodPut, path, `{"character":"runner"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Found)
	assert.Equal(t, progmodels.CosmeticRunner, resp.Character)
	assert.NotContains(t, w.Body.String(), "xp")

	w = f.do(http.MethodPut, path, `{"character":"wizard"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/api/v1/cosmetic/bad$device", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrCodeValidation, errorCode(t, w))
}
