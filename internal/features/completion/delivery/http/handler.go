package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	apperrors "onchain-leveling-backend/internal/common/errors"
	"onchain-leveling-backend/internal/common/logger"
	"onchain-leveling-backend/internal/common/middleware"
	"onchain-leveling-backend/internal/common/validation"
	"onchain-leveling-backend/internal/features/completion/models"
	"onchain-leveling-backend/internal/features/completion/service"
	ledger "onchain-leveling-backend/internal/features/ledger/repository"
)

const (
	maxWait      = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

// SubmitterResolver returns a server-side signer for address, if one exists.
type SubmitterResolver func(address string) (ledger.Submitter, bool)

type Handler struct {
	service  *service.Service
	broker   *service.Broker
	resolve  SubmitterResolver
	upgrader websocket.Upgrader
	maxWait  time.Duration
}

func NewHandler(svc *service.Service, broker *service.Broker, resolve SubmitterResolver, checkOrigin func(r *http.Request) bool) *Handler {
	if resolve == nil {
		resolve = func(string) (ledger.Submitter, bool) { return nil, false }
	}
	return &Handler{
		service:  svc,
		broker:   broker,
		resolve:  resolve,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		maxWait:  maxWait,
	}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	completions := router.Group("/completions")
	{
		completions.POST("", h.Begin)
		completions.GET("", h.List)
		completions.GET("/history", h.History)
		completions.GET("/ws", h.Stream)
		completions.GET("/:id", h.Get)
		completions.GET("/:id/wait", h.Wait)
		completions.POST("/:id/tx", h.Acknowledge)
		completions.POST("/:id/abandon", h.Abandon)
	}
}

// @Summary Start a task completion
// @Description Validates the request against the last ledger read and moves the task to submitting. Rejections never reach the ledger.
// @Tags completions
// @Accept json
// @Produce json
// @Security WalletSession
// @Param request body models.BeginRequest true "Task to complete"
// @Success 202 {object} models.Attempt
// @Failure 400 {object} middleware.ErrorResponse "Invalid request"
// @Failure 403 {object} middleware.ErrorResponse "NOT_REGISTERED"
// @Failure 409 {object} middleware.ErrorResponse "TASK_DISABLED, ALREADY_COMPLETED or ALREADY_IN_FLIGHT"
// @Failure 502 {object} middleware.ErrorResponse "EXTERNAL_LEDGER_ERROR"
// @Router /completions [post]
func (h *Handler) Begin(c *gin.Context) {
	address := c.GetString(middleware.AddressKey)

	var req models.BeginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}

	if req.Relay {
		submitter, ok := h.resolve(address)
		if !ok {
			_ = c.Error(apperrors.New(apperrors.ErrCodeForbidden, "No relayer signer for this wallet"))
			return
		}
		attempt, err := h.service.Submit(c.Request.Context(), address, req.TaskID, submitter)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusAccepted, attempt)
		return
	}

	attempt, err := h.service.Begin(c.Request.Context(), address, req.TaskID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, attempt)
}

// @Summary Report a submitted transaction
// @Description Attaches the wallet-signed completeTask transaction and starts waiting for confirmation.
// @Tags completions
// @Accept json
// @Produce json
// @Security WalletSession
// @Param id path string true "Attempt ID"
// @Param request body models.TxRequest true "Transaction hash"
// @Success 202 {object} models.Attempt
// @Failure 400 {object} middleware.ErrorResponse "Invalid request"
// @Failure 404 {object} middleware.ErrorResponse "ATTEMPT_NOT_FOUND"
// @Failure 409 {object} middleware.ErrorResponse "Attempt is not submitting"
// @Router /completions/{id}/tx [post]
func (h *Handler) Acknowledge(c *gin.Context) {
	var req models.TxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}
	if err := validation.ValidateTxHash(req.TxHash); err != nil {
		_ = c.Error(apperrors.NewValidationError("tx_hash", err.Error()))
		return
	}

	attempt, err := h.service.Acknowledge(c.Request.Context(), c.Param("id"), c.GetString(middleware.AddressKey), req.TxHash)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, attempt)
}

// @Summary Abandon a completion
// @Description Drops an attempt that has not been sent yet. A late ledger result for it is discarded.
// @Tags completions
// @Produce json
// @Security WalletSession
// @Param id path string true "Attempt ID"
// @Success 200 {object} models.Attempt
// @Failure 404 {object} middleware.ErrorResponse "ATTEMPT_NOT_FOUND"
// @Failure 409 {object} middleware.ErrorResponse "Attempt is not submitting"
// @Router /completions/{id}/abandon [post]
func (h *Handler) Abandon(c *gin.Context) {
	attempt, err := h.service.Abandon(c.Request.Context(), c.Param("id"), c.GetString(middleware.AddressKey))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

// @Summary Get a completion
// @Tags completions
// @Produce json
// @Security WalletSession
// @Param id path string true "Attempt ID"
// @Success 200 {object} models.Attempt
// @Failure 404 {object} middleware.ErrorResponse "ATTEMPT_NOT_FOUND"
// @Router /completions/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	attempt, err := h.service.Get(c.Param("id"), c.GetString(middleware.AddressKey))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

// @Summary Wait for a completion to settle
// @Description Blocks until the attempt is completed or failed, or until timeout seconds pass.
// @Tags completions
// @Produce json
// @Security WalletSession
// @Param id path string true "Attempt ID"
// @Param timeout query int false "Seconds to wait, at most 60" default(30)
// @Success 200 {object} models.AttemptResponse
// @Failure 404 {object} middleware.ErrorResponse "ATTEMPT_NOT_FOUND"
// @Router /completions/{id}/wait [get]
func (h *Handler) Wait(c *gin.Context) {
	address := c.GetString(middleware.AddressKey)
	if _, err := h.service.Get(c.Param("id"), address); err != nil {
		_ = c.Error(err)
		return
	}

	wait := 30 * time.Second
	if raw := c.Query("timeout"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			_ = c.Error(apperrors.NewValidationError("timeout", "must be a positive number of seconds"))
			return
		}
		wait = time.Duration(secs) * time.Second
	}
	if wait > h.maxWait {
		wait = h.maxWait
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), wait)
	defer cancel()

	attempt, err := h.service.Await(ctx, c.Param("id"))
	if errors.Is(err, context.DeadlineExceeded) {
		attempt, _ = h.service.Get(c.Param("id"), address)
		c.JSON(http.StatusOK, models.AttemptResponse{Attempt: attempt})
		return
	}
	resp := models.AttemptResponse{Attempt: attempt}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary List recent completions
// @Tags completions
// @Produce json
// @Security WalletSession
// @Success 200 {array} models.Attempt
// @Router /completions [get]
func (h *Handler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.List(c.GetString(middleware.AddressKey)))
}

// @Summary Completion audit history
// @Description Transitions recorded in the journal, newest first.
// @Tags completions
// @Produce json
// @Security WalletSession
// @Param limit query int false "Maximum entries" default(50)
// @Success 200 {array} models.Transition
// @Router /completions/history [get]
func (h *Handler) History(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		_ = c.Error(apperrors.NewValidationError("limit", "must be a positive integer"))
		return
	}

	history, err := h.service.History(c.Request.Context(), c.GetString(middleware.AddressKey), limit)
	if err != nil {
		_ = c.Error(apperrors.NewDatabaseError("completion history", err))
		return
	}
	c.JSON(http.StatusOK, history)
}

// @Summary Live completion updates
// @Description WebSocket stream of attempt snapshots for the session wallet.
// @Tags completions
// @Security WalletSession
// @Router /completions/ws [get]
func (h *Handler) Stream(c *gin.Context) {
	address := c.GetString(middleware.AddressKey)

	// subscribe first so nothing published during the handshake is lost
	updates := h.broker.Subscribe(address)
	defer h.broker.Unsubscribe(address, updates)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn().Err(err).Str("address", address).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case attempt := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(attempt); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
