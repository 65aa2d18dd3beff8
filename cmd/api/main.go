package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"gorm.io/gorm"

	"listings_backend/internal/controller"
	"listings_backend/internal/listing"
	"listings_backend/internal/model"
	"listings_backend/internal/router"
	"listings_backend/pkg/cache"
	"listings_backend/pkg/config"
	"listings_backend/pkg/cron"
	"listings_backend/pkg/database"
	"listings_backend/pkg/email"
	"listings_backend/pkg/events"
	"listings_backend/pkg/logger"
	"listings_backend/pkg/seed"
	"listings_backend/pkg/utils/jwt"
	"listings_backend/pkg/utils/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Default().WithError(err).Fatal("could not load configuration")
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log := logger.Default()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("could not connect to database")
	}
	defer database.Close(db)

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, model.All()...); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
	}
	if cfg.Database.Seed {
		if err := seed.SeedCatalog(db); err != nil {
			log.WithError(err).Warn("could not seed catalog")
		}
	}

	ctx := context.Background()
	store := newObjectStore(ctx, cfg.Storage)
	publisher := newPublisher(cfg.Broker)
	defer publisher.Close()
	mailer := newMailer(cfg.Mail)

	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTL, cfg.JWT.ResetTTL)

	featureCache := cache.New[[]model.PropertyFeature]("features", cfg.Cache.MaxSize, cfg.Cache.TTL)
	defer featureCache.Stop()
	typeCache := cache.New[[]model.PropertyType]("propertytypes", cfg.Cache.MaxSize, cfg.Cache.TTL)
	defer typeCache.Stop()

	handlers := newHandlers(db, cfg, store, publisher, mailer, tokens, featureCache, typeCache)

	scheduler, err := cron.InitImageReconcileCron(cfg.Cron.ReconcileSchedule, cron.NewImageReconciler(db, store))
	if err != nil {
		log.WithError(err).Fatal("could not schedule image reconciliation")
	}

	app := router.NewApp(router.Options{
		HideInternalErrors: cfg.Server.IsProduction(),
		CORSOrigins:        cfg.Server.CORSOrigins,
		BodyLimitMB:        cfg.Server.BodyLimitMB,
		AccessLog:          true,
		Metrics:            fiberprometheus.New("listings_backend"),
	})
	router.Setup(app, handlers, tokens)

	go func() {
		log.Infof("server is running on port %s", cfg.Server.Port)
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	<-scheduler.Stop().Done()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
}

func newHandlers(
	db *gorm.DB,
	cfg *config.Config,
	store storage.ObjectStore,
	publisher events.Publisher,
	mailer email.Mailer,
	tokens *jwt.Manager,
	featureCache *cache.Cache[[]model.PropertyFeature],
	typeCache *cache.Cache[[]model.PropertyType],
) router.Handlers {
	paginator := listing.Paginator{DefaultLimit: cfg.Pagination.DefaultLimit, MaxLimit: cfg.Pagination.MaxLimit}
	return router.Handlers{
		Properties:   controller.NewPropertyHandler(listing.NewQueryService(db), listing.NewMutationService(db, store, publisher), paginator),
		Catalog:      controller.NewCatalogHandler(db, featureCache, typeCache),
		Companies:    controller.NewCompanyHandler(db),
		Locations:    controller.NewLocationHandler(db),
		Blogs:        controller.NewBlogHandler(db, store),
		Testimonials: controller.NewTestimonialHandler(db),
		Access:       controller.NewAccessHandler(db, mailer),
		Connections:  controller.NewConnectionHandler(db, mailer, cfg.Mail.AdminEmail),
		Auth:         controller.NewAuthHandler(db, tokens, mailer, cfg.Mail.AppURL),
	}
}

func newObjectStore(ctx context.Context, cfg config.StorageConfig) storage.ObjectStore {
	log := logger.Default()
	if !cfg.Enabled() {
		log.Warn("R2 credentials not set, images are kept in memory")
		return storage.NewMemoryStore()
	}
	store, err := storage.NewR2Store(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("could not initialize R2 storage")
	}
	return store
}

func newPublisher(cfg config.BrokerConfig) events.Publisher {
	log := logger.Default()
	if cfg.URL == "" {
		log.Warn("RABBITMQ_URL not set, listing events are not published")
		return events.Nop{}
	}
	publisher, err := events.NewAMQPPublisher(cfg.URL, cfg.Queue)
	if err != nil {
		log.WithError(err).Error("could not connect to RabbitMQ, listing events are not published")
		return events.Nop{}
	}
	return publisher
}

func newMailer(cfg config.MailConfig) email.Mailer {
	if cfg.ResendAPIKey == "" {
		logger.Default().Warn("RESEND_API_KEY not set, e-mails are only logged")
		return email.LogMailer{}
	}
	mailer, err := email.NewEmailService(cfg.ResendAPIKey, cfg.From)
	if err != nil {
		logger.Default().WithError(err).Fatal("could not initialize email service")
	}
	return mailer
}
