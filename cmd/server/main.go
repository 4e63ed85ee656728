package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	cashbookapp "github.com/siteworks/backend/internal/application/cashbook"
	inventoryapp "github.com/siteworks/backend/internal/application/inventory"
	procurementapp "github.com/siteworks/backend/internal/application/procurement"
	"github.com/siteworks/backend/internal/infrastructure/auth"
	"github.com/siteworks/backend/internal/infrastructure/config"
	"github.com/siteworks/backend/internal/infrastructure/logger"
	"github.com/siteworks/backend/internal/infrastructure/persistence"
	"github.com/siteworks/backend/internal/interfaces/http/handler"
	"github.com/siteworks/backend/internal/interfaces/http/middleware"
	"github.com/siteworks/backend/internal/interfaces/http/router"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()

	jwtService := auth.NewJWTService(cfg.JWT)
	registry := auth.NewCapabilityRegistry()

	procurementScope := persistence.NewGormProcurementTransactionScope(db.DB)
	cashbookScope := persistence.NewGormCashbookTransactionScope(db.DB)

	indentService := procurementapp.NewIndentService(procurementScope, registry, log)
	orderService := procurementapp.NewPurchaseOrderService(procurementScope, registry, procurementapp.EscalationPolicy{
		AutoEscalateBelow:  cfg.Approval.AutoEscalateBelow,
		ElevatedCapability: cfg.Approval.ElevatedCapability,
	}, log)
	challanService := procurementapp.NewChallanService(procurementScope, log)
	cashbookService := cashbookapp.NewCashbookService(cashbookScope, registry, log)
	stockService := inventoryapp.NewStockService(
		persistence.NewGormBalanceRepository(db.DB),
		persistence.NewGormChallanRepository(db.DB),
	)

	engine := buildEngine(cfg, log, jwtService, registry)

	r := router.NewRouter(engine)
	r.Register(handler.NewSystemHandler(db)).
		Register(handler.NewIndentHandler(indentService)).
		Register(handler.NewPurchaseOrderHandler(orderService)).
		Register(handler.NewChallanHandler(challanService)).
		Register(handler.NewCashbookHandler(cashbookService)).
		Register(handler.NewStockHandler(stockService))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()
	log.Info("server listening", zap.String("addr", srv.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}

func buildEngine(cfg *config.Config, log *zap.Logger, jwtService *auth.JWTService, registry *auth.CapabilityRegistry) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(log))
	engine.Use(middleware.CORS(cfg.HTTP))
	engine.Use(middleware.JWTAuth(middleware.JWTAuthConfig{
		JWTService: jwtService,
		Registry:   registry,
		SkipPaths:  []string{"/api/v1/health", "/api/v1/ready"},
		Logger:     log,
	}))

	return engine
}
