package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"

	"cigale/internal/api"
	"cigale/internal/cache"
	"cigale/internal/config"
	"cigale/internal/logging"
	"cigale/internal/repository"
	"cigale/internal/service"
	"cigale/internal/web"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to read env file", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	repo := repository.NewReservationRepository(repository.Options{
		Endpoint: cfg.AirtableEndpoint,
		BaseID:   cfg.AirtableBaseID,
		Table:    cfg.AirtableTable,
		Token:    cfg.AirtableToken,
		Timeout:  cfg.AirtableTimeout,
		Logger:   logger,
	})
	svc := service.NewReservationService(repo, cfg.Hours, logger)
	reservations := cache.NewReservationCache(svc, cfg.CacheSize, cfg.CacheTTL, logger)
	svc.OnChange(reservations.OnChange)

	scheduler, err := newScheduler(cfg, reservations, logger)
	if err != nil {
		logger.Error("failed to configure scheduled jobs", "error", err)
		os.Exit(1)
	}

	pages, err := web.NewHandler(web.Options{
		Lister:         reservations,
		Service:        svc,
		Hours:          cfg.Hours,
		Location:       cfg.Location,
		RestaurantName: cfg.RestaurantName,
		Logger:         logger,
	})
	if err != nil {
		logger.Error("failed to parse page templates", "error", err)
		os.Exit(1)
	}

	router := api.NewRouter(api.RouterConfig{
		Reservations:   api.NewReservationHandler(svc, reservations, logger),
		Pages:          pages,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start()
	go func() {
		logger.Info("server listening", "addr", server.Addr, "table", cfg.AirtableTable)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	<-scheduler.Stop().Done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// newScheduler registers the notification jobs whose channels are configured.
func newScheduler(cfg config.Config, reservations service.ReservationLister, logger *slog.Logger) (*cron.Cron, error) {
	scheduler := cron.New(cron.WithLocation(cfg.Location))

	notifier := &service.Notifier{}
	if cfg.Twilio.Enabled() {
		notifier.SMS = service.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, logger)
	}
	if cfg.SendGrid.Enabled() {
		notifier.Email = service.NewSendGridSender(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName, logger)
	}
	if notifier.SMS == nil && notifier.Email == nil {
		logger.Info("notifications disabled")
		return scheduler, nil
	}

	sender, err := service.NewSenderService(notifier, cfg.RestaurantName)
	if err != nil {
		return nil, err
	}
	jobs := service.NewJobService(reservations, sender, service.JobOptions{
		Location:        cfg.Location,
		LateAfter:       cfg.Twilio.LateSMSAfter,
		DigestRecipient: cfg.Digest.Recipient,
		Logger:          logger,
	})

	if notifier.SMS != nil {
		if _, err := scheduler.AddFunc("@every 1m", func() {
			if _, err := jobs.RemindLateArrivals(context.Background()); err != nil {
				logger.Error("late arrival reminders failed", "error", err)
			}
		}); err != nil {
			return nil, err
		}
	}
	if cfg.DigestEnabled() {
		if _, err := scheduler.AddFunc(cfg.Digest.Schedule, func() {
			if err := jobs.SendDailyDigest(context.Background()); err != nil {
				logger.Error("daily digest failed", "error", err)
			}
		}); err != nil {
			return nil, err
		}
	}
	return scheduler, nil
}
