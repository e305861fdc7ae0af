package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/soundvault/earnings-backend/internal/config"
	"github.com/soundvault/earnings-backend/internal/http/handlers"
	"github.com/soundvault/earnings-backend/internal/http/middleware"
	"github.com/soundvault/earnings-backend/internal/service"
)

// Handlers: все хэндлеры API; nil хэндлер отключает свою группу маршрутов.
type Handlers struct {
	Health        *handlers.HealthHandler
	Withdrawals   *handlers.WithdrawalHandler
	Royalty       *handlers.RoyaltyHandler
	Earnings      *handlers.EarningsHandler
	Functions     *handlers.FunctionsHandler
	StripeWebhook *handlers.StripeWebhookHandler
	WS            *handlers.WSHandler
}

func SetupRouter(
	cfg *config.Config,
	h Handlers,
	tokenManager *service.TokenManager,
	limiterStore limiter.Store,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	if h.Health != nil {
		r.GET("/health", h.Health.Health)
	}

	api := r.Group("/api")

	// Stripe подписывает вебхук сам, токена пользователя здесь нет
	if h.StripeWebhook != nil {
		api.POST("/webhooks/stripe", h.StripeWebhook.Handle)
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))

	// Операции, двигающие деньги, ограничены по пользователю
	moneyRateLimit := middleware.RateLimitMiddleware(limiterStore, cfg.RateLimitLimit, cfg.RateLimitPeriod)

	if h.WS != nil {
		protected.GET("/ws", h.WS.Handle)
	}

	if h.Earnings != nil {
		protected.GET("/profile/balance", h.Earnings.GetBalance)
		protected.GET("/earnings/summary", h.Earnings.GetSummary)
	}

	// Вывод средств
	if h.Withdrawals != nil {
		protected.POST("/withdrawals", moneyRateLimit, h.Withdrawals.CreateWithdrawal)
		protected.GET("/withdrawals", h.Withdrawals.ListWithdrawals)
		protected.GET("/withdrawals/:id", middleware.UUIDValidator("id"), h.Withdrawals.GetWithdrawal)
	}

	// Авансы
	if h.Royalty != nil {
		protected.GET("/royalty-advances", h.Royalty.GetLedger)
	}

	// Serverless функции
	if h.Functions != nil {
		protected.GET("/functions", h.Functions.ListFunctions)
		protected.POST("/functions/:name", moneyRateLimit, h.Functions.Invoke)
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		if h.Withdrawals != nil {
			admin.GET("/withdrawals/:id", middleware.UUIDValidator("id"), h.Withdrawals.GetForPayout)
			admin.PUT("/withdrawals/:id/status", middleware.UUIDValidator("id"), h.Withdrawals.UpdateStatus)
		}
		if h.Royalty != nil {
			admin.POST("/royalty-advances", h.Royalty.CreateAdvance)
			admin.POST("/royalty-advances/:id/repayments", middleware.UUIDValidator("id"), h.Royalty.AddRepayment)
		}
	}

	return r
}
