package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"attendance-bot/internal/api"
	"attendance-bot/internal/config"
	"attendance-bot/internal/correction"
	"attendance-bot/internal/handler"
	"attendance-bot/internal/notify"
	"attendance-bot/internal/repository"
	"attendance-bot/internal/service"
	"attendance-bot/pkg/database"
	"attendance-bot/pkg/logger"
	"attendance-bot/pkg/telegram"

	"golang.org/x/sync/errgroup"
)

func main() {
	log := logger.New()

	log.Info("Initializing config...")
	cfg := config.GetConfig()
	log.Info("Config initialized...")

	db, err := database.Open(database.Config{
		Driver: cfg.DatabaseDriver,
		URL:    cfg.DatabaseURL,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	userRepo, err := repository.NewGormUserRepository(db)
	if err != nil {
		log.WithError(err).Fatal("Failed to create user repository")
	}

	attendanceRepo, err := repository.NewGormAttendanceRepository(db)
	if err != nil {
		log.WithError(err).Fatal("Failed to create attendance repository")
	}

	correctionRepo, err := repository.NewGormCorrectionRepository(db)
	if err != nil {
		log.WithError(err).Fatal("Failed to create correction repository")
	}

	messages, err := correction.LoadMessagesFile(cfg.MessagesFile)
	if err != nil {
		log.WithError(err).Fatal("Failed to load validation messages")
	}

	builder := correction.NewBuilder(cfg.Location, messages)
	validator := correction.NewValidator(messages, correction.WithMode(cfg.IssueMode))

	userService := service.NewUserService(userRepo)
	attendanceService := service.NewAttendanceService(attendanceRepo, cfg.Location, time.Now)

	// Инициализируем администратора из конфига
	ctx := context.Background()
	if err := userService.InitializeAdmin(ctx, cfg.BaseAdminChatID); err != nil {
		log.WithError(err).Warn("Failed to initialize admin")
	} else if cfg.BaseAdminChatID != 0 {
		log.Infof("Admin initialized with chat ID: %d", cfg.BaseAdminChatID)
	}

	var client *telegram.Client
	var opts []service.CorrectionOption
	if cfg.TelegramToken != "" {
		client, err = telegram.NewClient(cfg.TelegramToken, cfg.TelegramDebug)
		if err != nil {
			log.WithError(err).Fatal("Failed to create Telegram client")
		}
		log.Infof("Authorized on account %s", client.Bot.Self.UserName)

		opts = append(opts, service.WithNotifier(notify.NewAdminNotifier(userService, client.Bot, cfg.Location)))
	}

	correctionService := service.NewCorrectionService(userRepo, attendanceRepo, correctionRepo, builder, validator, opts...)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if client != nil {
		botHandler := handler.NewHandler(client.Bot, userService, attendanceService, correctionService, cfg)
		updates := client.Bot.GetUpdatesChan(client.UpdateConfig)

		g.Go(func() error {
			log.Info("Bot started")
			botHandler.HandleUpdates(ctx, updates)
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			client.Bot.StopReceivingUpdates()
			return nil
		})
	}

	if cfg.HTTPAddr != "" {
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.NewRouter(correctionService, log),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			log.Infof("HTTP API listening on %s", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	log.Info("Press Ctrl+C to stop.")
	waitErr := g.Wait()

	// Закрываем соединение с БД
	if err := database.Close(db); err != nil {
		log.WithError(err).Error("Error closing database")
	}

	if waitErr != nil {
		log.WithError(waitErr).Fatal("Stopped with error")
	}
	log.Info("Stopped gracefully")
}
