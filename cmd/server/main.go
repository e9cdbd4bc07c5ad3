package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fadilmartias/resume-screener/internal/config"
	"github.com/fadilmartias/resume-screener/internal/domain/fiber/handler"
	"github.com/fadilmartias/resume-screener/internal/event"
	"github.com/fadilmartias/resume-screener/internal/extractor"
	"github.com/fadilmartias/resume-screener/internal/lock"
	applogger "github.com/fadilmartias/resume-screener/internal/logger"
	"github.com/fadilmartias/resume-screener/internal/middleware"
	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/fadilmartias/resume-screener/internal/repository"
	"github.com/fadilmartias/resume-screener/internal/scoring"
	"github.com/fadilmartias/resume-screener/internal/service"
	"github.com/fadilmartias/resume-screener/internal/storage"
	"github.com/fadilmartias/resume-screener/internal/usecase"
	"github.com/fadilmartias/resume-screener/internal/util"
	"github.com/fadilmartias/resume-screener/internal/worker"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	screening := config.LoadScreeningConfig()

	zlog, err := applogger.New(appConfig.LogJSON, appConfig.Debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := ConnectDB(zlog)
	rdb := ConnectRedis(ctx, zlog)

	gemini, err := service.NewGeminiNarrator(ctx, config.LoadGeminiConfig(), zlog)
	if err != nil {
		zlog.Fatal("init gemini narrator", zap.Error(err))
	}
	openRouter := service.NewOpenRouterNarrator(config.LoadOpenRouterConfig(), zlog)
	narrator := scoring.NewNarrator([]scoring.NarrativeGenerator{gemini, openRouter}, screening.EnrichTimeout, zlog)
	engine := scoring.NewEngine(scoring.DefaultPolicy(), narrator, zlog)
	skillsW, expW := engine.Policy().Weights()
	zlog.Info("scoring policy", zap.Int("skills_weight", skillsW), zap.Int("experience_weight", expW))

	ext := extractor.New(
		extractor.WithTimeout(screening.ExtractTimeout),
		extractor.WithOCR(screening.OCR),
		extractor.WithLogger(zlog),
	)

	store, err := storage.NewLocalStore(screening.UploadDir, zlog)
	if err != nil {
		zlog.Fatal("init resume store", zap.Error(err))
	}

	pool := worker.NewPool(screening.Workers, screening.QueueSize, zlog)

	var (
		locker    lock.Locker     = lock.NewKeyed()
		publisher event.Publisher = event.NewLogPublisher(zlog)
	)
	if rdb != nil {
		locker = lock.Chain{locker, lock.NewRedisLocker(rdb, screening.ExtractTimeout+screening.EnrichTimeout+time.Minute, zlog)}
		publisher = event.Multi{publisher, event.NewRedisPublisher(rdb, zlog)}
	}

	uc := usecase.NewApplicationUsecase(
		repository.NewJobRepository(db),
		repository.NewApplicationRepository(db),
		ext,
		engine,
		store,
		usecase.WithLocker(locker),
		usecase.WithRunner(pool),
		usecase.WithPublisher(publisher),
		usecase.WithLogger(zlog),
	)

	app := newApp(appConfig)
	handler.NewPublicHandler(uc, zlog).RegisterRoutes(app)
	handler.NewApplicationHandler(uc, zlog).RegisterRoutes(app)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zlog.Info("server running", zap.String("addr", appConfig.Port), zap.String("env", appConfig.Env))
		return app.Listen(appConfig.Port)
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				zlog.Debug("runtime stats", zap.Int("goroutines", runtime.NumGoroutine()))
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("shutting down")
		if err := app.ShutdownWithTimeout(appConfig.ShutdownTimeout); err != nil {
			zlog.Warn("http shutdown", zap.Error(err))
		}
		pool.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func newApp(appConfig *config.AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		// room for the 5 MiB resume plus the other form fields
		BodyLimit: extractor.MaxPayloadBytes + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			message := err.Error()
			switch code {
			case fiber.StatusInternalServerError:
				message = "Internal server error"
			case fiber.StatusRequestEntityTooLarge:
				// rejected by BodyLimit before any handler ran
				message = handler.PayloadTooLargeMessage
			}
			return util.ErrorResponse(c, util.ErrorResponseFormat{Code: code, Message: message}, err)
		},
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: appConfig.CORSOrigins,
	}))
	app.Use(recover.New())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.IsProduction()
		},
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(50, time.Minute))
	return app
}

func ConnectDB(zlog *zap.Logger) *gorm.DB {
	dbConfig := config.LoadDBConfig()

	db, err := gorm.Open(postgres.Open(dbConfig.DSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		zlog.Fatal("could not connect to database", zap.String("target", dbConfig.Redacted()), zap.Error(err))
	}
	pgDB, err := db.DB()
	if err != nil {
		zlog.Fatal("could not get database instance", zap.Error(err))
	}
	pgDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	pgDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	pgDB.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		zlog.Fatal("enable uuid-ossp", zap.Error(err))
	}
	if err := db.AutoMigrate(&model.Job{}, &model.Application{}); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}
	return db
}

// ConnectRedis returns nil when redis is not configured or not reachable; the
// service then runs with in-process locks and log-only events.
func ConnectRedis(ctx context.Context, zlog *zap.Logger) *redis.Client {
	cfg := config.LoadRedisConfig()
	if !cfg.Enabled() {
		zlog.Info("redis not configured, using in-process locks")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		zlog.Warn("redis unavailable, using in-process locks", zap.String("addr", cfg.Addr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}
