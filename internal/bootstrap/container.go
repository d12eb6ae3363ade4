package bootstrap

import (
	"context"
	"log"

	"deckster-be/internal/config"
	"deckster-be/internal/controller"
	"deckster-be/internal/handler"
	"deckster-be/internal/pkg/logger"
	"deckster-be/internal/pkg/mailer"
	"deckster-be/internal/repository/unitofwork"
	"deckster-be/internal/service"
	"deckster-be/internal/websocket"
	"deckster-be/pkg/backend"
	"deckster-be/pkg/filestore"

	pkgNats "deckster-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const sessionEventsTopic = "session_events"

type Container struct {
	// Controllers
	SessionController   controller.ISessionController
	UploadController    controller.IUploadController
	KnowledgeController controller.IKnowledgeController
	WebhookController   controller.IWebhookController
	AdminController     controller.IAdminController
	OAuthController     controller.IOAuthController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService
	CleanupService  service.ICleanupService
	Scheduler       *cron.Cron

	// WebSockets
	EventStreamHandler *handler.EventStreamHandler
	WebSocketHub       *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	natsSub, err := pkgNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket hub
	wsLogger := logger.NewIsolatedLogger("logs/events.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// Upstream clients
	geminiStore := filestore.NewGeminiClient(cfg.Gemini.APIKey)
	fileClient := backend.NewFileClient(cfg.Services.BackendFileServiceURL)
	layoutClient := backend.NewLayoutClient(cfg.Services.LayoutServiceURL)

	// 3. Services
	publisherService := service.NewPublisherService(sessionEventsTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		sessionEventsTopic,
		wsHub,
		natsPub,
	)

	sessionService := service.NewSessionService(uowFactory, publisherService)
	messageService := service.NewMessageService(uowFactory)
	exportService := service.NewExportService(uowFactory, layoutClient)
	uploadService := service.NewUploadService(
		uowFactory,
		fileClient,
		publisherService,
		cfg.Upload.MaxFileSizeMB,
		cfg.Upload.MaxFilesPerSession,
	)
	knowledgeService := service.NewKnowledgeService(uowFactory, geminiStore)
	billingService := service.NewBillingService(
		uowFactory,
		cfg.Stripe.SecretKey,
		cfg.Stripe.WebhookSecret,
		service.PriceMapping{
			ProMonthlyPriceID: cfg.Stripe.ProMonthlyPriceID,
			ProYearlyPriceID:  cfg.Stripe.ProYearlyPriceID,
		},
		publisherService,
		sysLogger,
	)
	cleanupService := service.NewCleanupService(
		uowFactory,
		geminiStore,
		cfg.Cleanup.ThresholdHours,
		sysLogger,
	)
	adminService := service.NewAdminService(uowFactory, emailService, natsPub)
	oauthService := service.NewOAuthService(uowFactory, cfg)

	storeReaper := service.NewStoreReaperService(natsSub, knowledgeService, sysLogger)
	storeReaper.Start()

	// 3.5 Scheduled cleanup
	scheduler := cron.New(cron.WithSeconds())
	if _, err := scheduler.AddFunc(cfg.Cleanup.Schedule, func() {
		report, err := cleanupService.Purge(context.Background())
		if err != nil {
			sysLogger.Error("CleanupScheduler", "Scheduled purge failed", map[string]interface{}{"error": err.Error()})
			return
		}
		sysLogger.Info("CleanupScheduler", "Scheduled purge finished", map[string]interface{}{
			"sessions_deleted": report.SessionsDeleted,
			"stores_deleted":   report.StoresDeleted,
		})
	}); err != nil {
		log.Printf("[WARN] Invalid cleanup schedule %q: %v", cfg.Cleanup.Schedule, err)
	}

	// 4. Controllers
	return &Container{
		SessionController:   controller.NewSessionController(sessionService, messageService, exportService),
		UploadController:    controller.NewUploadController(uploadService),
		KnowledgeController: controller.NewKnowledgeController(knowledgeService),
		WebhookController:   controller.NewWebhookController(billingService),
		AdminController:     controller.NewAdminController(adminService, cleanupService),
		OAuthController:     controller.NewOAuthController(oauthService, cfg.App.FrontendURL),

		ConsumerService: consumerService,
		CleanupService:  cleanupService,
		Scheduler:       scheduler,

		EventStreamHandler: handler.NewEventStreamHandler(wsHub, cfg.Auth.JWTSecret, wsLogger),
		WebSocketHub:       wsHub,
	}
}
