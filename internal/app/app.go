package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/internal/auth"
	v1Grpc "github.com/DRSN-tech/storefront/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/storefront/internal/delivery/v1/http"
	"github.com/DRSN-tech/storefront/internal/infrastructure/catalogapi"
	"github.com/DRSN-tech/storefront/internal/infrastructure/identity"
	"github.com/DRSN-tech/storefront/internal/infrastructure/kafka"
	minioInfra "github.com/DRSN-tech/storefront/internal/infrastructure/minio"
	s3Repo "github.com/DRSN-tech/storefront/internal/repository/minio"
	"github.com/DRSN-tech/storefront/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/storefront/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront/internal/repository/redis"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/clients"
	"github.com/DRSN-tech/storefront/pkg/closer"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/jitter"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/DRSN-tech/storefront/pkg/postgres"
	"github.com/DRSN-tech/storefront/pkg/tr"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
	topicTimeout    = 10 * time.Second
)

// App связывает инфраструктуру, сценарии и транспорт в один процесс.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	httpSrv     *v1Http.Server
	grpcSrv     *v1Grpc.GRPCServer
	outbox      *kafka.OutboxWorker
	authUC      *usecase.AuthUseCase
	imagesInfra *minioInfra.MinioInfrastructure

	// bgCtx живёт до начала остановки: фоновые задачи завершаются по его отмене.
	bgCtx    context.Context
	bgCancel context.CancelFunc
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	bgCtx, bgCancel := context.WithCancel(context.Background())
	a := &App{
		cfg:      cfg,
		logger:   log,
		closer:   closer.NewCloser(0),
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}

	if err := a.init(); err != nil {
		bgCancel()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := a.closer.Close(shutdownCtx); cerr != nil {
			log.Warnf("partial init cleanup: %v", cerr)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return a, nil
}

func (a *App) init() error {
	cfg := a.cfg

	startCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	// PostgreSQL: документы и outbox
	db, err := initPGDB(startCtx, a.logger, cfg.Db)
	if err != nil {
		return err
	}
	a.closer.AddFunc("postgres", db.Close)

	documentRepo := pgdb.NewDocumentRepo(db.Pool, pgdbConv.DocumentConverter{})
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, pgdbConv.OutboxEventConverter{})
	txManager := tr.NewManager(db.Pool)

	// Redis: слот корзины и счётчик
	redisClient := clients.NewRedisClient(cfg.Redis)
	a.closer.AddFunc("redis", redisClient.Close)
	if err := redisClient.Ping(startCtx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	cartSlot := redis.NewCartSlotRepo(redisClient, cfg.Redis)
	countPublisher := redis.NewCountPublisher(redisClient, cfg.Redis)

	// MinIO: изображения товаров
	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if err := clients.EnsureBucket(startCtx, minioClient, cfg.Minio.BucketName); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	imageRepo := s3Repo.NewImageRepo(minioClient, cfg.Minio.BucketName)
	a.imagesInfra = minioInfra.NewMinioInfrastructure(imageRepo, cfg.Minio, a.logger, a.bgCtx)
	a.closer.Add("minio cleanup", a.imagesInfra.WaitForCleanup)

	// Kafka: события изменения каталога через outbox
	producer := kafka.NewProducer(a.logger, cfg.Kafka)
	a.closer.AddFunc("kafka producer", producer.Close)
	if err := producer.EnsureTopic(topicTimeout); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.outbox = kafka.NewOutboxWorker(outboxRepo, a.logger, producer, db.Dsn)
	a.closer.AddFunc("outbox worker", func() error {
		a.outbox.Stop()
		return nil
	})

	// Сценарии
	catalogUC := usecase.NewCatalogUC(
		documentRepo,
		catalogapi.NewClient(cfg.Catalog, a.logger),
		cfg.Catalog.Collection,
		cfg.Catalog.SourceTimeout,
		a.logger,
	)

	slotRetry := jitter.Policy{Attempts: cfg.Session.SlotWriteRetries, Base: 100 * time.Millisecond, Max: time.Second}
	cartUC := usecase.NewCartUC(cartSlot, countPublisher, catalogUC, cfg.Session.LoginPath, slotRetry, a.logger)

	a.authUC = usecase.NewAuthUC(
		identity.NewClient(cfg.Identity, a.logger),
		documentRepo,
		nil,
		cfg.Session.LoginPath,
		a.logger,
	)
	registry := auth.NewRegistry(a.authUC, cfg.Identity.Timeout, cfg.Session.MaxSessions, a.logger)
	a.authUC.SetSessions(registry)

	adminUC := usecase.NewAdminUC(documentRepo, a.imagesInfra, outboxRepo, txManager, catalogUC, cfg.Minio.MaxImageSize, a.logger)

	// Транспорт
	a.grpcSrv = v1Grpc.NewGRPCServer(cfg.Grpc, a.logger)
	a.grpcSrv.RegisterServices(catalogUC, cartUC)

	r := chi.NewRouter()
	v1Http.NewRouter(r, a.logger).Init(v1Http.Deps{
		Catalog:      catalogUC,
		Cart:         cartUC,
		Auth:         a.authUC,
		Admin:        adminUC,
		Sessions:     registry,
		CookieName:   cfg.Session.CookieName,
		MaxImageSize: cfg.Minio.MaxImageSize,
		SwaggerURL:   cfg.Http.SwaggerURL,
	})
	a.httpSrv = v1Http.NewServer(r, cfg.Http)

	return nil
}

// Run запускает серверы и фоновые задачи и блокируется до сигнала или фатальной ошибки.
func (a *App) Run() error {
	a.outbox.Start(a.bgCtx)
	go a.authUC.RunActivityLoop(a.bgCtx, a.cfg.Session.ActivityInterval, a.cfg.Session.MaxIdle)

	grpcErrCh := make(chan error, 1)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			grpcErrCh <- err
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case appErr = <-grpcErrCh:
		a.logger.Errorf(appErr, "gRPC server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	a.stop()

	return appErr
}

// stop сначала останавливает приём запросов, затем фоновые задачи и ресурсы (LIFO).
func (a *App) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpSrv.Stop(shutdownCtx); err != nil {
		a.logger.Errorf(err, "HTTP server shutdown error")
	} else {
		a.logger.Infof("HTTP server stopped")
	}

	if err := a.grpcSrv.Stop(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			a.logger.Warnf("gRPC server shutdown timeout")
		} else {
			a.logger.Errorf(err, "gRPC server shutdown error")
		}
	}

	a.bgCancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Errorf(err, "resources shutdown")
	}

	a.logger.Infof("Application shutdown complete")
}

func initPGDB(ctx context.Context, logger logger.Logger, cfg *config.PGDBCfg) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, cfg)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(cfg.MigrationsURL, logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
