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
	profileredis "onchain-leveling-backend/internal/features/profile/repository/redis"
	"onchain-leveling-backend/internal/features/progression/mapper"
	progmodels "onchain-leveling-backend/internal/features/progression/models"
	"onchain-leveling-backend/internal/features/session/models"
	sessionredis "onchain-leveling-backend/internal/features/session/repository/redis"
	"onchain-leveling-backend/internal/features/session/service"
	"onchain-leveling-backend/internal/platform/redis/redistest"
)

const (
	wallet = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	other  = "0x000000000000000000000000000000000000dEaD"
)

type registry struct {
	registered map[string]progmodels.Cosmetic
	err        error
}

func (r *registry) Refresh(ctx context.Context, address string) (*progmodels.Profile, error) {
	if r.err != nil {
		return nil, r.err
	}
	cosmetic, ok := r.registered[strings.ToLower(address)]
	return &progmodels.Profile{Address: address, Cosmetic: cosmetic, Registered: ok}, nil
}

func newRouter(t *testing.T) (*gin.Engine, *registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client, _ := redistest.NewClient(t)
	profiles := &registry{registered: map[string]progmodels.Cosmetic{}}
	svc := service.NewService(sessionredis.NewStore(client), profileredis.NewCosmeticStore(client), profiles, time.Hour)

	r := gin.New()
	r.Use(middleware.ErrorHandler(mapper.ToAppError))
	api := r.Group("/api/v1")
	authed := api.Group("", func(c *gin.Context) {
		address := c.GetHeader("X-Wallet")
		if address == "" {
			address = wallet
		}
		c.Set(middleware.AddressKey, address)
	})
	NewHandler(svc).RegisterRoutes(api, authed)
	return r, profiles
}

func do(r *gin.Engine, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func snapshotFrom(t *testing.T, w *httptest.ResponseRecorder) models.Snapshot {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var s models.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	return s
}

func decisionFrom(t *testing.T, w *httptest.ResponseRecorder) models.Decision {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.GuardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Decision
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) apperrors.ErrorCode {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestSessionLifecycle(t *testing.T) {
	r, profiles := newRouter(t)
	const base = "/api/v1/session/device-1"

	s := snapshotFrom(t, do(r, http.MethodGet, base, ""))
	assert.Equal(t, models.StateDisconnected, s.State)

	d := decisionFrom(t, do(r, http.MethodGet, base+"/guard?route=/tasks", ""))
	assert.Equal(t, models.Decision{Action: models.ActionRedirect, Target: service.RouteOnboarding}, d)

	s = snapshotFrom(t, do(r, http.MethodPost, base+"/events", `{"event":"connect"}`))
	assert.Equal(t, models.StateConnecting, s.State)

	d = decisionFrom(t, do(r, http.MethodGet, base+"/guard?route=/tasks", ""))
	assert.Equal(t, models.ActionWait, d.Action)

	s = snapshotFrom(t, do(r, http.MethodPost, base+"/connect", ""))
	assert.Equal(t, models.StateUnregistered, s.State)
	assert.Equal(t, wallet, s.Address)

	w := do(r, http.MethodPost, base+"/check", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	s = snapshotFrom(t, do(r, http.MethodPost, base+"/events", `{"event":"registration_submitted"}`))
	assert.Equal(t, models.StateCheckingRegistration, s.State)

	w = do(r, http.MethodPost, base+"/check", "", "X-Wallet", other)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperrors.ErrCodeForbidden, errorCode(t, w))

	profiles.registered[strings.ToLower(wallet)] = progmodels.CosmeticRunner
	s = snapshotFrom(t, do(r, http.MethodPost, base+"/check", ""))
	assert.Equal(t, models.StateRegistered, s.State)
	require.NotNil(t, s.Cosmetic)
	assert.Equal(t, progmodels.CosmeticRunner, *s.Cosmetic)

	d = decisionFrom(t, do(r, http.MethodGet, base+"/guard?route=/onboarding", ""))
	assert.Equal(t, models.Decision{Action: models.ActionRedirect, Target: service.RouteHome}, d)

	s = snapshotFrom(t, do(r, http.MethodPost, base+"/events", `{"event":"disconnect"}`))
	assert.Equal(t, models.StateDisconnected, s.State)
}

func TestApplyRejections(t *testing.T) {
	r, _ := newRouter(t)
	const base = "/api/v1/session/device-1"

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   apperrors.ErrorCode
	}{
		{"server event", base + "/events", `{"event":"wallet_connected"}`, http.StatusBadRequest, apperrors.ErrCodeValidation},
		{"unknown event", base + "/events", `{"event":"teleport"}`, http.StatusBadRequest, apperrors.ErrCodeValidation},
		{"missing event", base + "/events", `{}`, http.StatusBadRequest, apperrors.ErrCodeValidation},
		{"invalid transition", base + "/events", `{"event":"registration_submitted"}`, http.StatusConflict, apperrors.ErrCodeConflict},
		{"bad device", "/api/v1/session/bad$device/events", `{"event":"connect"}`, http.StatusBadRequest, apperrors.ErrCodeValidation},
		{"check without a bound wallet", base + "/check", "", http.StatusForbidden, apperrors.ErrCodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestConnectLedgerFailureKeepsChecking(t *testing.T) {
	r, profiles := newRouter(t)
	const base = "/api/v1/session/device-1"
	profiles.err = errors.New("rpc down")

	w := do(r, http.MethodPost, base+"/connect", "")
	assert.GreaterOrEqual(t, w.Code, http.StatusInternalServerError)

	s := snapshotFrom(t, do(r, http.MethodGet, base, ""))
	assert.Equal(t, models.StateCheckingRegistration, s.State)

	profiles.err = nil
	s = snapshotFrom(t, do(r, http.MethodPost, base+"/check", ""))
	assert.Equal(t, models.StateUnregistered, s.State)
}
