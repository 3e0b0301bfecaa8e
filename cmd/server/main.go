package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fario/flyschool/internal/config"
	"github.com/fario/flyschool/internal/database"
	"github.com/fario/flyschool/internal/handler"
	"github.com/fario/flyschool/internal/mail"
	"github.com/fario/flyschool/internal/middleware"
	"github.com/fario/flyschool/internal/model"
	"github.com/fario/flyschool/internal/payment"
	"github.com/fario/flyschool/internal/queue"
	"github.com/fario/flyschool/internal/repository"
	"github.com/fario/flyschool/internal/router"
	"github.com/fario/flyschool/internal/service"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	// Repositories.
	bookingRepo := repository.NewBookingRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	catalogRepo := repository.NewCatalogRepo(db)
	voucherRepo := repository.NewVoucherRepo(db)
	eventRepo := repository.NewEventRepo(db)
	contentRepo := repository.NewContentRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)

	ctx := context.Background()
	if err := userRepo.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
		logger.Fatal("seed admin account", zap.Error(err))
	}

	// Payment provider, broker and mail.
	provider := payment.New(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	publisher := queue.NewPublisher(cfg.RabbitURL)
	mailer, err := mail.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	if err != nil {
		logger.Fatal("smtp mailer", zap.Error(err))
	}

	var contact model.ContactContent
	if err := contentRepo.Get(ctx, model.SectionContact, &contact); err != nil {
		logger.Warn("contact content not configured yet", zap.Error(err))
	}
	consumer := queue.NewConsumer(cfg.RabbitURL, mailer, logger, contact.SchoolName, contact.Address)
	go func() {
		if err := consumer.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("booking consumer stopped", zap.Error(err))
		}
	}()

	// Services.
	issuer := service.NewVoucherIssuer(voucherRepo)
	checkout := service.NewCheckout(bookingRepo, paymentRepo, catalogRepo, contentRepo,
		provider, publisher, logger, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	confirm := service.NewConfirmation(bookingRepo, paymentRepo, catalogRepo, voucherRepo,
		eventRepo, issuer, provider, publisher, service.DBTxRunner{DB: db}, logger)

	// Redis-backed middleware; both degrade to pass-through when Redis
	// is not configured.
	rdb := config.NewRedisClient()
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	rateMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, userRepo, tokenRepo), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewPublicHandler(catalogRepo, contentRepo), cacheMW)
	router.RegisterBooking(e,
		handler.NewCheckoutHandler(checkout),
		handler.NewPaymentHandler(provider, confirm),
		rateMW)
	router.RegisterAdmin(e,
		handler.NewAdminBookingHandler(bookingRepo, paymentRepo, voucherRepo, catalogRepo, contentRepo, confirm),
		handler.NewAdminCatalogHandler(catalogRepo),
		handler.NewAdminContentHandler(contentRepo),
		cfg.JWTSecret)

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// newLogger picks a human-readable logger for development and JSON for
// everything else.
func newLogger(env string) (*zap.Logger, error) {
	if env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
