package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/soundvault/earnings-backend/internal/config"
	"github.com/soundvault/earnings-backend/internal/db"
	"github.com/soundvault/earnings-backend/internal/functions"
	"github.com/soundvault/earnings-backend/internal/goroutine"
	httpHandlers "github.com/soundvault/earnings-backend/internal/http/handlers"
	"github.com/soundvault/earnings-backend/internal/http/middleware"
	httpRouter "github.com/soundvault/earnings-backend/internal/http/router"
	"github.com/soundvault/earnings-backend/internal/logger"
	"github.com/soundvault/earnings-backend/internal/payout"
	"github.com/soundvault/earnings-backend/internal/providers/intercom"
	"github.com/soundvault/earnings-backend/internal/providers/pica"
	"github.com/soundvault/earnings-backend/internal/providers/stripe"
	"github.com/soundvault/earnings-backend/internal/providers/trolley"
	"github.com/soundvault/earnings-backend/internal/repository"
	"github.com/soundvault/earnings-backend/internal/security"
	"github.com/soundvault/earnings-backend/internal/service"
	"github.com/soundvault/earnings-backend/internal/smtp"
	"github.com/soundvault/earnings-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: cannot load config: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
	}
	appLog := logger.Init(logLevel)
	if cfg.Env == "development" {
		logger.SetTextFormatter()
	}

	// Миграции открывают своё соединение, затем поднимаем основной пул.
	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		appLog.WithError(err).Fatal("main: migrations failed")
	}
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		appLog.WithError(err).Fatal("main: cannot connect to database")
	}
	defer safeClose(dbConn, appLog)

	// Redis опционален: без него лимитер считает в памяти процесса.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			appLog.WithError(err).Fatal("main: invalid REDIS_URL")
		}
		redisClient = redis.NewClient(opts)
		defer func() {
			if err := redisClient.Close(); err != nil {
				appLog.WithError(err).Warn("main: redis close failed")
			}
		}()
	}
	limiterStore, err := middleware.NewLimiterStore(redisClient)
	if err != nil {
		appLog.WithError(err).Fatal("main: cannot create rate limiter store")
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret)
	sealer := security.NewSealer(cfg.AccountDetailsKey)
	recovery := goroutine.NewRecoveryHandler(appLog)

	// Репозитории.
	profileRepo := repository.NewProfileRepository(dbConn)
	withdrawalRepo := repository.NewWithdrawalRepository(dbConn)
	royaltyRepo := repository.NewRoyaltyRepository(dbConn)

	// Внешние API. Ненастроенный провайдер остаётся nil интерфейсом, а не nil указателем.
	p := cfg.Providers
	var (
		stripeClient *stripe.Client
		payoutStripe payout.StripeClient
		chat         service.SupportChat
	)
	if p.StripeSecretKey != "" {
		stripeClient = stripe.New(p.StripeAPIBase, p.StripeSecretKey, p.Timeout)
		payoutStripe = stripeClient
	} else {
		appLog.Warn("main: STRIPE_SECRET_KEY is not set, bank transfers will be processed manually")
	}
	if p.IntercomAccessToken != "" {
		chat = intercom.New(p.IntercomAPIBase, p.IntercomAccessToken, p.Timeout)
	} else {
		appLog.Warn("main: INTERCOM_ACCESS_TOKEN is not set, check withdrawals are unavailable")
	}

	// Вебсокеты.
	hub := ws.NewHub(appLog.WithField("component", "ws"))
	go hub.Run(ctx)

	// Сервисы.
	dispatcher := payout.NewDispatcher(payoutStripe, p.PayoutCurrency, p.Timeout, appLog.WithField("component", "payout"))

	withdrawalService := service.NewWithdrawalService(withdrawalRepo, profileRepo, dispatcher, chat, sealer,
		appLog.WithField("component", "withdrawals"))
	withdrawalService.SetEventPublisher(hub)

	if cfg.Notifications.Email != "" {
		mailer, err := smtp.NewMailer(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password, cfg.Smtp.From)
		if err != nil {
			appLog.WithError(err).Warn("main: ops e-mail disabled")
		} else {
			withdrawalService.SetOpsNotifier(mailer, cfg.Notifications.Email, recovery)
		}
	}

	var (
		advanceSource service.AdvanceSource = royaltyRepo
		advanceWriter service.AdvanceWriter = royaltyRepo
	)
	if cfg.LedgerSource == config.LedgerSourceStatic {
		advanceSource = service.NewStaticAdvanceSource()
		advanceWriter = nil
	}
	royaltyService := service.NewRoyaltyService(advanceSource, advanceWriter, appLog.WithField("component", "royalty"))
	earningsService := service.NewEarningsService(profileRepo, withdrawalRepo, royaltyService)

	// Serverless функции.
	registry := functions.NewRegistry(functions.NewRoyaltyAdvances(royaltyService))
	if stripeClient != nil {
		registry.Register(functions.NewStripePayouts(stripeClient))
	}
	if p.TrolleyAccessKey != "" && p.TrolleySecretKey != "" {
		registry.Register(functions.NewTrolley(trolley.New(p.TrolleyAPIBase, p.TrolleyAccessKey, p.TrolleySecretKey, p.Timeout)))
	}
	if p.PicaSecretKey != "" {
		registry.Register(functions.NewPicaPassthrough(pica.New(p.PicaAPIBase, p.PicaSecretKey, p.PicaConnectionKey, p.Timeout)))
	}
	appLog.WithField("functions", registry.Names()).Info("main: functions registered")

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, httpRouter.Handlers{
		Health:        httpHandlers.NewHealthHandler(dbConn, redisClient),
		Withdrawals:   httpHandlers.NewWithdrawalHandler(withdrawalService),
		Royalty:       httpHandlers.NewRoyaltyHandler(royaltyService),
		Earnings:      httpHandlers.NewEarningsHandler(earningsService),
		Functions:     httpHandlers.NewFunctionsHandler(registry),
		StripeWebhook: httpHandlers.NewStripeWebhookHandler(withdrawalService, p.StripeWebhookSecret, appLog.WithField("component", "stripe-webhook")),
		WS:            httpHandlers.NewWSHandler(hub, cfg.AllowedOrigins, appLog.WithField("component", "ws")),
	}, tokenManager, limiterStore)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			appLog.WithError(err).Error("main: http server shutdown failed")
		}
	}()

	appLog.WithField("port", cfg.HTTPPort).Info("main: HTTP server started")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		appLog.WithError(err).Fatal("main: server stopped with error")
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB, log logrus.FieldLogger) {
	if err := db.Close(); err != nil {
		log.WithError(err).Warn("main: database close failed")
	}
}
