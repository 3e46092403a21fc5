package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/clock"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	baseCalendar, err := cfg.Calendar.BuildCalendar()
	if err != nil {
		logger.Fatal("invalid working calendar", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	txManager := repository.NewTxManager(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	holidayRepo := repository.NewHolidayRepository(pool)

	var permissions auth.PermissionLookup = repository.NewPermissionRepository(pool)
	if ttl := cfg.Auth.PermissionCacheTTL(); ttl > 0 {
		permissions = repository.NewCachedPermissionLookup(permissions, redis.Client, redis.Namespace("perms"), ttl, logger)
	}

	var locker service.Locker
	switch cfg.Sequencer.LockBackend {
	case "postgres":
		locker = repository.NewAdvisoryLocker(pool)
	case "local":
		locker = service.NewLocalLocker()
	default:
		locker = persistence.NewRedisLocker(redis.Client, redis.Namespace("lock"), cfg.Sequencer.LockTTL(), logger)
	}
	logger.Info("ticket number lock", zap.String("backend", cfg.Sequencer.LockBackend))

	systemClock := clock.Real()
	dispatcher := events.NewInMemoryDispatcher()

	calendarService := service.NewCalendarService(service.CalendarDependencies{
		Base:        baseCalendar,
		HolidayRepo: holidayRepo,
		TxManager:   txManager,
		Logger:      logger,
	})
	sequencer := service.NewSequencer(service.SequencerDependencies{
		TicketRepo:  ticketRepo,
		TxManager:   txManager,
		Locker:      locker,
		Clock:       systemClock,
		Location:    baseCalendar.Location,
		MaxAttempts: cfg.Sequencer.MaxAttempts,
		Logger:      logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		HistoryRepo:    historyRepo,
		AssignmentRepo: assignmentRepo,
		TxManager:      txManager,
		Sequencer:      sequencer,
		Calendars:      calendarService,
		Dispatcher:     dispatcher,
		Clock:          systemClock,
		Logger:         logger,
	})
	statusService := service.NewStatusService(service.StatusDependencies{
		TicketRepo:     ticketRepo,
		HistoryRepo:    historyRepo,
		AssignmentRepo: assignmentRepo,
		TxManager:      txManager,
		Calendars:      calendarService,
		Dispatcher:     dispatcher,
		Clock:          systemClock,
		Logger:         logger,
	})
	trashService := service.NewTrashService(service.TrashDependencies{
		TicketRepo:     ticketRepo,
		AttachmentRepo: attachmentRepo,
		Dispatcher:     dispatcher,
		Clock:          systemClock,
		Logger:         logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:     ticketRepo,
		AssignmentRepo: assignmentRepo,
		Permissions:    permissions,
		Dispatcher:     dispatcher,
		Clock:          systemClock,
		Logger:         logger,
	})
	attachmentService := service.NewAttachmentService(service.AttachmentDependencies{
		TicketRepo:     ticketRepo,
		AttachmentRepo: attachmentRepo,
		AssignmentRepo: assignmentRepo,
		TxManager:      txManager,
		Clock:          systemClock,
		Logger:         logger,
	})
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		TicketRepo: ticketRepo,
		Timezone:   cfg.Calendar.Timezone,
		Logger:     logger,
	})

	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))
	go worker.NewRetentionWorker(trashService, cfg.Retention.SweepInterval(), logger).Run(ctx)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, permissions)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Tickets:        handlers.NewTicketsHandler(ticketService, statusService),
		Trash:          handlers.NewTrashHandler(trashService),
		Attachments:    handlers.NewAttachmentsHandler(attachmentService),
		Assignments:    handlers.NewAssignmentsHandler(assignmentService),
		Calendar:       handlers.NewCalendarHandler(calendarService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService, systemClock),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
