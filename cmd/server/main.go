package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/postbridge/configs"
	"github.com/maheshrc27/postbridge/internal/api/handlers"
	"github.com/maheshrc27/postbridge/internal/api/middleware"
	job "github.com/maheshrc27/postbridge/internal/jobs"
	"github.com/maheshrc27/postbridge/internal/lock"
	"github.com/maheshrc27/postbridge/internal/metrics"
	"github.com/maheshrc27/postbridge/internal/provider"
	"github.com/maheshrc27/postbridge/internal/queue"
	"github.com/maheshrc27/postbridge/internal/repository"
	"github.com/maheshrc27/postbridge/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	if cfg.SecretKey == "" {
		log.Fatal("SECRET_KEY must be set")
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("unhandled error", "path", c.Path(), "error", err)
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": fiber.Map{"kind": service.KindInternal, "message": err.Error()}})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-API-Key",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	selectedAccountRepo := repository.NewSelectedAccountRepository(db)
	postEventRepo := repository.NewPostEventRepository(db)
	providerConfigRepo := repository.NewProviderConfigRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	apiKeyRepository := repository.NewApiKeyRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)

	clientOpts := func(baseURL string) provider.ClientOptions {
		return provider.ClientOptions{
			BaseURL:           baseURL,
			Timeout:           cfg.Provider.Timeout,
			RequestsPerSecond: cfg.Provider.RequestsPerSec,
			Burst:             cfg.Provider.Burst,
			MaxRetries:        cfg.Provider.MaxRetries,
			RetryWait:         cfg.Provider.RetryWait,
		}
	}
	registry := provider.NewDefaultRegistry(cfg.Provider.Default, clientOpts(cfg.Provider.BufferURL), clientOpts(cfg.Provider.AyrshareURL))

	locker, closeLocker := newLocker(cfg)
	defer closeLocker()

	store, err := service.NewR2Store(context.Background(), cfg.R2)
	if err != nil {
		log.Fatalf("Failed to configure media storage: %v", err)
	}

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo)
	apiKeyService := service.NewApiKeyService(apiKeyRepository)
	providerService := service.NewProviderConfigService(providerConfigRepo, registry, cfg.SecretKey)
	accountService := service.NewAccountService(socialAccountRepo, providerService, cfg.SecretKey)
	postService := service.NewPostService(db, postRepo, selectedAccountRepo, socialAccountRepo, postEventRepo, campaignRepo, validate)
	mediaService := service.NewMediaService(store, mediaAssetRepo)
	campaignService := service.NewCampaignService(campaignRepo, postRepo, analyticsRepo, validate)
	orchestrator := service.NewOrchestrator(postRepo, socialAccountRepo, postEventRepo, providerService, postService, locker, service.OrchestratorOptions{
		ProviderTimeout: cfg.Provider.Timeout,
		Concurrency:     cfg.WorkerConcurrency,
	})
	analyticsService := service.NewAnalyticsService(postRepo, socialAccountRepo, analyticsRepo, providerConfigRepo, providerService, service.AnalyticsOptions{
		ProviderTimeout: cfg.Provider.Timeout,
		Concurrency:     cfg.WorkerConcurrency,
		LookbackDays:    cfg.Analytics.LookbackDays,
	})

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)
	api.Post("/user/remove", user.RemoveUser)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	post := handlers.NewPostHandler(postService, orchestrator, validate)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/remove", post.RemovePost)
	api.Post("/posts/bulk", post.BulkSchedule)
	api.Get("/posts/calendar", post.Calendar)
	api.Post("/posts/:id/schedule", post.SchedulePost())
	api.Post("/posts/:id/publish", post.PublishPost())
	api.Post("/posts/:id/cancel", post.CancelPost())
	api.Post("/posts/:id/confirm", post.ConfirmPost())
	api.Post("/posts/:id/update", post.UpdatePost())

	analytics := handlers.NewAnalyticsHandler(analyticsService, validate)
	api.Post("/analytics/sync", analytics.SyncBulk)
	api.Post("/analytics/posts/:id/sync", analytics.SyncPost)
	api.Get("/analytics/posts/:id", analytics.ListForPost)
	api.Get("/analytics/summary", analytics.Summary)
	api.Post("/analytics/ingest", analytics.Ingest)
	api.Get("/analytics/accounts/:id", analytics.ProfileAnalytics)
	api.Get("/analytics/history", analytics.History)

	campaigns := handlers.NewCampaignHandler(campaignService, validate)
	api.Post("/campaigns", campaigns.Create)
	api.Get("/campaigns", campaigns.List)
	api.Get("/campaigns/:id", campaigns.Get)
	api.Put("/campaigns/:id", campaigns.Update)
	api.Delete("/campaigns/:id", campaigns.Remove)
	api.Get("/campaigns/:id/posts", campaigns.Posts)
	api.Get("/campaigns/:id/analytics", campaigns.Analytics)

	providers := handlers.NewProviderHandler(providerService, validate)
	api.Get("/providers", providers.List)
	api.Post("/providers", providers.Save)
	api.Post("/providers/:type/test", providers.TestConnection)
	api.Get("/providers/:type/profiles", providers.ListProfiles)
	api.Post("/providers/:type/deactivate", providers.Deactivate)

	accounts := handlers.NewAccountHandler(accountService, validate)
	api.Get("/accounts", accounts.ListSocialAccounts)
	api.Post("/accounts/create", accounts.CreateSocialAccount)
	api.Post("/accounts/remove", accounts.DeleteSocialAccount)
	api.Post("/accounts/sync", accounts.SyncProfiles)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/media/upload", media.Upload)
	api.Get("/media", media.List)

	// cron jobs
	triggers := job.NewTriggerJob(client, *cfg)
	c := cron.New()
	if err := triggers.Register(c); err != nil {
		log.Fatalf("Invalid job schedule: %v", err)
	}
	c.Start()

	//queue
	queueW := queue.NewQueue(orchestrator, analyticsService, cfg.Provider.ConfirmBatch, cfg.Analytics.LookbackDays)
	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
	})

	mux := asynq.NewServeMux()
	queueW.Register(mux)

	log.Println("Starting the Asynq server...")
	if err := server.Start(mux); err != nil {
		log.Fatalf("Could not start Asynq server: %v", err)
	}

	go func() {
		if err := app.Listen(cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on %s", cfg.Port)

	gracefulShutdown(app, c, server)
}

// newLocker picks the per-post lock backend. Redis is needed once more than
// one instance serves the same database.
func newLocker(cfg *config.Config) (lock.Locker, func()) {
	if cfg.LockBackend != "redis" {
		return lock.NewMemoryLocker(), func() {}
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis is unreachable: %v", err)
	}
	return lock.NewRedisLocker(rdb, cfg.LockTTL), func() { _ = rdb.Close() }
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, c *cron.Cron, server *asynq.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	c.Stop()
	server.Shutdown()

	if err := app.Shutdown(); err != nil {
		log.Printf("Failed to shut down server: %v", err)
	}

	log.Println("Server shutdown complete.")
}
