package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"

	_ "onchain-leveling-backend/docs"
	"onchain-leveling-backend/internal/common/cache"
	"onchain-leveling-backend/internal/common/config"
	"onchain-leveling-backend/internal/common/logger"
	"onchain-leveling-backend/internal/common/middleware"
	activityhttp "onchain-leveling-backend/internal/features/activity/delivery/http"
	activityredis "onchain-leveling-backend/internal/features/activity/repository/redis"
	activityservice "onchain-leveling-backend/internal/features/activity/service"
	completionhttp "onchain-leveling-backend/internal/features/completion/delivery/http"
	completionpg "onchain-leveling-backend/internal/features/completion/repository/postgres"
	completionredis "onchain-leveling-backend/internal/features/completion/repository/redis"
	completionservice "onchain-leveling-backend/internal/features/completion/service"
	leaderboardhttp "onchain-leveling-backend/internal/features/leaderboard/delivery/http"
	leaderboardredis "onchain-leveling-backend/internal/features/leaderboard/repository/redis"
	leaderboardservice "onchain-leveling-backend/internal/features/leaderboard/service"
	ledger "onchain-leveling-backend/internal/features/ledger/repository"
	"onchain-leveling-backend/internal/features/ledger/repository/cached"
	"onchain-leveling-backend/internal/features/ledger/repository/contract"
	memledger "onchain-leveling-backend/internal/features/ledger/repository/memory"
	profilehttp "onchain-leveling-backend/internal/features/profile/delivery/http"
	profileredis "onchain-leveling-backend/internal/features/profile/repository/redis"
	profileservice "onchain-leveling-backend/internal/features/profile/service"
	"onchain-leveling-backend/internal/features/progression/mapper"
	progression "onchain-leveling-backend/internal/features/progression/service"
	sessionhttp "onchain-leveling-backend/internal/features/session/delivery/http"
	sessionredis "onchain-leveling-backend/internal/features/session/repository/redis"
	sessionservice "onchain-leveling-backend/internal/features/session/service"
	taskhttp "onchain-leveling-backend/internal/features/task/delivery/http"
	taskservice "onchain-leveling-backend/internal/features/task/service"
	wallethttp "onchain-leveling-backend/internal/features/walletproof/delivery/http"
	walletmiddleware "onchain-leveling-backend/internal/features/walletproof/middleware"
	walletredis "onchain-leveling-backend/internal/features/walletproof/repository/redis"
	walletservice "onchain-leveling-backend/internal/features/walletproof/service"
	"onchain-leveling-backend/internal/platform/chain"
	"onchain-leveling-backend/internal/platform/postgres"
	"onchain-leveling-backend/internal/platform/redis"
	"onchain-leveling-backend/internal/workers"
)

// @title           Onchain Leveling API
// @version         1.0
// @description     Progression backend for the Onchain Leveling mini app. XP, levels and task completions are read from and written to the leveling contract.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey WalletSession
// @in header
// @name Authorization
// @description Bearer token from POST /auth/verify

// @tag.name auth
// @tag.description Wallet proof sessions

// @tag.name profile
// @tag.description Registration, level progress and local character

// @tag.name tasks
// @tag.description Task catalog and daily board

// @tag.name completions
// @tag.description Task completion attempts

// @tag.name leaderboard
// @tag.description XP ranking

// @tag.name activity
// @tag.description Activity estimates and quest countdowns

// @tag.name session
// @tag.description Client session state and routing guard

func main() {
	cfg := config.Load()
	logger.Init("onchain-leveling-backend", cfg.Debug, cfg.LogFormat)

	logger.Info().
		Str("version", "1.0.0").
		Bool("debug", cfg.Debug).
		Msg("Starting Onchain Leveling Backend")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	schedule, err := loadSchedule(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load level schedule")
	}
	loc, _ := time.LoadLocation(cfg.Progression.ResetLocation)
	clock := progression.NewResetClock(loc)

	redisClient, err := redis.CreateRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	postgresClient, err := postgres.Open(ctx, cfg, completionpg.Migrate)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if postgresClient != nil {
		defer postgresClient.Close()
	}

	base, resolve, chainClient, err := openLedger(ctx, cfg, schedule)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open ledger")
	}
	if chainClient != nil {
		defer chainClient.Close()
	}

	cacheService := cache.New(redisClient)
	l := cached.NewLedger(base, cacheService, cfg.Cache.ProfileTTL, cfg.Cache.TasksTTL)

	// Services
	broker := completionservice.NewBroker()
	completionOpts := []completionservice.Option{
		completionservice.WithPublisher(completionredis.NewPublisher(redisClient)),
		completionservice.WithBroker(broker),
	}
	if postgresClient != nil {
		completionOpts = append(completionOpts, completionservice.WithJournal(completionpg.NewJournal(postgresClient.DB())))
		logger.Info().Msg("Completion journal enabled")
	}
	completionSvc := completionservice.NewService(
		l,
		completionredis.NewGuard(redisClient),
		completionredis.NewRecords(redisClient),
		clock,
		completionservice.Config{
			SubmitTimeout:  cfg.Chain.SubmitTimeout,
			ConfirmTimeout: cfg.Chain.ConfirmTimeout,
			PollInterval:   cfg.Chain.PollInterval,
		},
		completionOpts...,
	)
	completionSvc.Start()
	defer completionSvc.Stop()

	cosmetics := profileredis.NewCosmeticStore(redisClient)
	leaderboardSvc := leaderboardservice.NewService(leaderboardredis.NewRepository(redisClient), schedule, cfg.Leaderboard.MaxEntries)
	profileSvc := profileservice.NewService(l, schedule, cosmetics, leaderboardSvc, profileservice.Config{
		ConfirmTimeout: cfg.Chain.ConfirmTimeout,
		PollInterval:   cfg.Chain.PollInterval,
	})
	taskSvc := taskservice.NewService(l, completionSvc, clock)
	activitySvc := activityservice.NewService(taskSvc, activityredis.NewQuestStore(redisClient))
	walletSvc := walletservice.NewService(walletredis.NewRepository(redisClient), walletservice.Config{
		Domain:     cfg.Server.Domain,
		NonceTTL:   cfg.Session.NonceTTL,
		SessionTTL: cfg.Session.SessionTTL,
	})
	sessionSvc := sessionservice.NewService(sessionredis.NewStore(redisClient), cosmetics, profileSvc, cfg.Session.SessionTTL)

	hostname, _ := os.Hostname()
	worker := workers.NewProgressStreamWorker(redisClient, profileSvc, l, "leveling_"+hostname)

	// HTTP
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger("/health", "/live", "/ready"))
	router.Use(middleware.ErrorHandler(mapper.ToAppError))

	v1 := router.Group("/api/v1")
	authed := v1.Group("")
	authed.Use(walletmiddleware.RequireWallet(walletSvc))

	wallethttp.NewHandler(walletSvc).RegisterRoutes(v1, authed)
	profilehttp.NewHandler(profileSvc).RegisterRoutes(v1, authed)
	taskhttp.NewHandler(taskSvc).RegisterRoutes(v1, authed)
	leaderboardhttp.NewHandler(leaderboardSvc).RegisterRoutes(v1, authed)
	sessionhttp.NewHandler(sessionSvc).RegisterRoutes(v1, authed)
	activityhttp.NewHandler(activitySvc).RegisterRoutes(v1)
	completionhttp.NewHandler(completionSvc, broker, resolve, sameOrigin(cfg.Server.Origin)).RegisterRoutes(authed)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	setupHealthRoutes(router, redisClient, postgresClient, chainClient)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return worker.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Server stopped with error")
	}
	logger.Info().Msg("Server exited")
}

func loadSchedule(cfg *config.Config) (*progression.Schedule, error) {
	if cfg.Progression.ScheduleFile != "" {
		return progression.LoadSchedule(cfg.Progression.ScheduleFile)
	}
	return progression.NewSchedule(cfg.Progression.Thresholds)
}

// openLedger dials the chain, or builds the in-process ledger when
// CHAIN_RPC_URL is "memory". The chain client is nil for the latter.
func openLedger(ctx context.Context, cfg *config.Config, schedule *progression.Schedule) (ledger.Ledger, completionhttp.SubmitterResolver, *chain.Client, error) {
	if cfg.Chain.RPCURL == chain.MemoryRPC {
		logger.Warn().Msg("Using in-process ledger, nothing is written on chain")
		mem := memledger.NewLedger(schedule, memledger.DefaultTasks()).AutoConfirm(2)
		return mem, func(address string) (ledger.Submitter, bool) {
			return mem.SubmitterFor(address), true
		}, nil, nil
	}

	client, err := chain.Dial(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	l, err := contract.NewLedger(cfg.Chain.ContractAddress, client, client, cfg.Chain.Confirmations, cfg.Chain.RequestTimeout)
	if err != nil {
		client.Close()
		return nil, nil, nil, err
	}

	var resolve completionhttp.SubmitterResolver
	if cfg.Chain.RelayerKey != "" {
		relayer, err := contract.NewSubmitter(cfg.Chain.ContractAddress, client, cfg.Chain.RelayerKey, cfg.Chain.ChainID, cfg.Chain.RequestTimeout)
		if err != nil {
			client.Close()
			return nil, nil, nil, err
		}
		logger.Info().Str("relayer", relayer.Address()).Msg("Relayer enabled")
		// the contract credits msg.sender, so the relayer only serves its own wallet
		resolve = func(address string) (ledger.Submitter, bool) {
			return relayer, strings.EqualFold(relayer.Address(), address)
		}
	}
	return l, resolve, client, nil
}

func sameOrigin(origin string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		o := r.Header.Get("Origin")
		return o == "" || o == origin
	}
}

func setupHealthRoutes(router *gin.Engine, redisClient redis.RedisClient, postgresClient *postgres.Client, chainClient *chain.Client) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "onchain-leveling-backend",
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			unready(c, "redis unavailable", err)
			return
		}
		if postgresClient != nil {
			if err := postgresClient.HealthCheck(ctx); err != nil {
				unready(c, "postgres unavailable", err)
				return
			}
		}
		if chainClient != nil {
			if err := chainClient.HealthCheck(ctx); err != nil {
				unready(c, "chain rpc unavailable", err)
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   "onchain-leveling-backend",
		})
	})
}

func unready(c *gin.Context, reason string, err error) {
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"status":  "unready",
		"error":   reason,
		"details": err.Error(),
	})
}
