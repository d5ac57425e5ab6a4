package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"carrental/internal/api"
	"carrental/internal/auth"
	"carrental/internal/booking"
	"carrental/internal/cache"
	"carrental/internal/config"
	"carrental/internal/db"
	"carrental/internal/logger"
	"carrental/internal/repository"
	"carrental/internal/service"
)

func main() {
	exitCode := 0
	defer func() { os.Exit(exitCode) }()

	cfg, err := config.Load()
	if err != nil {
		logger.New("info", false).Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open DB")
	}
	defer conn.Close()
	if err := conn.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to DB")
	}
	if err := db.Migrate(ctx, conn); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate DB")
	}

	// Repositories
	txManager := repository.NewTxManager(conn)
	carRepo := repository.NewCarRepository(conn)
	bookingRepo := repository.NewBookingRepository(conn)
	userRepo := repository.NewUserRepository(conn)
	outboxRepo := repository.NewOutboxRepository(conn)

	seed, err := db.SeedCars()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load seed cars")
	}
	if n, err := carRepo.SeedCars(ctx, seed); err != nil {
		log.Fatal().Err(err).Msg("failed to seed cars")
	} else if n > 0 {
		log.Info().Int("cars", n).Msg("car catalog seeded")
	}

	// Redis is optional
	var (
		carCache service.CarCache
		denylist auth.Denylist
		revoker  service.TokenRevoker
	)
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		store := cache.NewStore(redisClient, cfg.Redis.CatalogTTL)
		carCache, denylist, revoker = store, store, store
	} else {
		log.Warn().Msg("REDIS_ADDR not set, catalog cache and token revocation disabled")
	}

	notifier, closeNotifier := buildNotifier(cfg, log)
	defer closeNotifier()

	loc, _ := cfg.Location()
	rate, _ := cfg.Rate()
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.SessionTTL)

	// Services
	senderSvc := service.NewSenderService(outboxRepo, notifier, log, service.SenderConfig{
		OpsRecipient: cfg.Notify.DefaultRecipient,
		BaseURL:      cfg.PublicBaseURL,
		BatchSize:    cfg.Notify.BatchSize,
	})
	bookingSvc := service.NewBookingService(txManager, carRepo, bookingRepo, senderSvc, booking.SystemClock{Location: loc}, rate, log)
	carSvc := service.NewCarService(carRepo, carCache, log)
	authSvc := service.NewAuthService(txManager, userRepo, tokens, revoker, senderSvc, cfg.Auth.VerificationTTL, log)

	if created, err := authSvc.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword, cfg.Auth.AdminEmail); err != nil {
		log.Fatal().Err(err).Msg("failed to create admin account")
	} else if !created && cfg.Auth.AdminPassword == "" {
		log.Warn().Msg("ADMIN_PASSWORD not set, no admin account created")
	}

	go senderSvc.Run(ctx)

	jobSvc := service.NewJobService(senderSvc, authSvc, log)
	if err := jobSvc.Start(ctx, cfg.Notify.DispatchSchedule, cfg.Notify.PurgeSchedule); err != nil {
		log.Fatal().Err(err).Msg("failed to start cron jobs")
	}
	defer jobSvc.Stop()

	handler := api.NewRouter(api.RouterConfig{
		Auth:        authSvc,
		Cars:        carSvc,
		Bookings:    bookingSvc,
		Tokens:      tokens,
		Denylist:    denylist,
		Logger:      log,
		CORSOrigins: cfg.CORSOrigins,
		Ready:       conn.PingContext,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := serve(ctx, srv, log); err != nil {
		log.Error().Err(err).Msg("server stopped")
		exitCode = 1
	}
}

// buildNotifier assembles the delivery channels that are configured. With
// none configured, notifications are only logged.
func buildNotifier(cfg *config.Config, log *zerolog.Logger) (service.Notifier, func()) {
	var channels service.MultiNotifier
	closeFn := func() {}

	switch cfg.Notify.EmailProvider {
	case "sendgrid":
		if cfg.SendGrid.APIKey != "" {
			channels = append(channels, service.NewSendGridNotifier(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName))
		}
	case "smtp":
		if cfg.SMTP.Host != "" {
			channels = append(channels, service.NewSMTPNotifier(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From))
		}
	}

	if cfg.Twilio.AccountSID != "" && cfg.Twilio.ToNumber != "" {
		channels = append(channels, service.NewTwilioNotifier(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, cfg.Twilio.ToNumber))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		k := service.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		channels = append(channels, k)
		closeFn = func() {
			if err := k.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close kafka writer")
			}
		}
	}

	if len(channels) == 0 {
		log.Warn().Msg("no notification channel configured, notifications will only be logged")
		return service.LogNotifier{Logger: log}, closeFn
	}
	return channels, closeFn
}
