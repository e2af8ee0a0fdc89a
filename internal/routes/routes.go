package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dtv/mobank/internal/config"
	"github.com/dtv/mobank/internal/identity"
	"github.com/dtv/mobank/internal/ledger"
	"github.com/dtv/mobank/internal/middleware"
	"github.com/dtv/mobank/internal/notification"
	"github.com/dtv/mobank/internal/otp"
	"github.com/dtv/mobank/internal/token"
	"github.com/dtv/mobank/internal/transfer"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Outside development the stores must be real, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var ledgerStore ledger.Store
	if d.DB != nil {
		ledgerStore = ledger.NewPostgresStore(d.DB)
	} else {
		ledgerStore = ledger.NewInMemory()
	}

	var userRepo identity.Repository
	if d.DB != nil {
		userRepo = identity.NewPostgresRepository(d.DB)
	} else {
		userRepo = identity.NewMemoryRepository()
	}

	var otpStore otp.Store
	if d.Cache != nil {
		otpStore = otp.NewRedisStore(d.Cache)
	} else {
		otpStore = otp.NewMemoryStore()
	}

	var notifier notification.Notifier
	if d.Cfg.SMTPHost != "" {
		notifier = notification.NewMailer(d.Cfg.SMTPHost, d.Cfg.SMTPPort, d.Cfg.SMTPUser, d.Cfg.SMTPPassword, d.Cfg.SMTPFrom)
	} else {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}

	otps := otp.NewRegistry(otpStore, notifier, d.Cfg.OTPTTL)
	tokens := token.NewService(d.Cfg.JWTSecret, d.Cfg.TokenTTL)
	identitySvc := identity.NewService(userRepo, ledgerStore, otps, d.Cfg.HomeBank)
	transferSvc := transfer.NewService(ledgerStore, d.Cfg.InterBankFee)

	identityHandler := identity.NewHandler(identitySvc, tokens)
	transferHandler := transfer.NewHandler(transferSvc)

	api := app.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	auth.Post("/register", identityHandler.Register)
	auth.Post("/login", middleware.LoginRateLimit(d.Cache, 5), identityHandler.Login)

	// Protected routes
	protected := api.Group("", middleware.BearerAuth(tokens, userRepo))
	protected.Get("/users/me", identityHandler.Me)
	RegisterAccountRoutes(protected, ledgerStore)

	if d.Cache != nil {
		protected.Post("/transactions/transfer",
			middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger),
			transferHandler.Transfer)
	} else {
		protected.Post("/transactions/transfer", transferHandler.Transfer)
	}
	protected.Get("/transactions/me", transferHandler.History)

	pin := protected.Group("/pin")
	pin.Post("/request-otp", identityHandler.RequestPinOTP)
	pin.Post("/set", identityHandler.SetPin)

	return nil
}
