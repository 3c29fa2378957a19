package app

import (
	"context"
	"learnhire_backend/internal/config"
	"learnhire_backend/internal/controller"
	"learnhire_backend/internal/repository"
	"learnhire_backend/internal/service"
	"learnhire_backend/pkg/configwatcher"
	"learnhire_backend/pkg/database"
	"learnhire_backend/pkg/logger"
	"learnhire_backend/pkg/monitoring"
	"learnhire_backend/pkg/security"
	"learnhire_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	Mongo           *mongo.Client
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	origins         *security.Origins
	limiter         *security.RateLimiter
	done            chan struct{}
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user        *repository.UserRepository
	course      *repository.CourseRepository
	progress    *repository.ProgressRepository
	job         *repository.JobRepository
	application *repository.ApplicationRepository
	purchase    *repository.PurchaseRepository
}

type services struct {
	identity     *service.ClerkIdentity
	storage      *service.StorageService
	user         *service.UserService
	course       *service.CourseService
	progress     *service.ProgressService
	purchase     *service.PurchaseService
	educator     *service.EducatorService
	job          *service.JobService
	application  *service.ApplicationService
	notification *service.NotificationService
	chat         *service.ChatService
	jobFeed      *service.JobFeedService
}

type controllers struct {
	user        *controller.UserController
	educator    *controller.EducatorController
	course      *controller.CourseController
	job         *controller.JobController
	application *controller.ApplicationController
	chat        *controller.ChatController
	webhook     *controller.WebhookController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(mdb *mongo.Database, db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(mdb),
		course:      repository.NewCourseRepository(mdb),
		progress:    repository.NewProgressRepository(mdb),
		job:         repository.NewJobRepository(mdb),
		application: repository.NewApplicationRepository(mdb),
		purchase:    repository.NewPurchaseRepository(db),
	}
}

// chatHistory Redis 不可用时退化为进程内存储
func (a *App) chatHistory(cfg *config.Config) service.ChatHistory {
	if a.Redis != nil {
		return service.NewRedisChatHistory(a.Redis, cfg.AI.HistoryLimit, cfg.AI.HistoryTTL())
	}
	logger.Log.Warn("redis unavailable, chat history kept in memory")
	return service.NewMemoryChatHistory(cfg.AI.HistoryLimit, cfg.AI.HistoryTTL())
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.identity = service.NewClerkIdentity(cfg.Auth)
	s.storage = service.NewStorageService(cfg)
	s.user = service.NewUserService(repos.user, s.identity, s.storage)
	s.course = service.NewCourseService(repos.course, repos.user, s.storage)
	s.progress = service.NewProgressService(repos.course, repos.progress, repos.user, cfg.Certificate.VerifyBaseURL)

	gateway := service.NewStripeGateway(cfg.Payment.SecretKey, cfg.Payment.WebhookSecret)
	s.purchase = service.NewPurchaseService(repos.purchase, repos.course, repos.user, gateway, cfg.Payment.Currency)
	s.educator = service.NewEducatorService(repos.course, repos.purchase, repos.user)

	s.job = service.NewJobService(repos.job, repos.user, repos.application, s.storage)
	s.notification = service.NewNotificationService(service.NewMailer(cfg.Mail))
	s.application = service.NewApplicationService(repos.application, repos.job, repos.user, s.notification)

	s.chat = service.NewChatService(service.NewAIService(cfg.AI), a.chatHistory(cfg))

	if cfg.JobFeed.URL != "" {
		s.jobFeed = service.NewJobFeedService(repos.job, cfg.JobFeed)
	}
	return s
}

func (a *App) initControllers(s *services) *controllers {
	c := &controllers{
		user:        controller.NewUserController(s.user, s.course, s.progress, s.purchase, s.job),
		educator:    controller.NewEducatorController(s.user, s.course, s.educator, s.job, s.application),
		course:      controller.NewCourseController(s.course),
		application: controller.NewApplicationController(s.application),
		chat:        controller.NewChatController(s.chat),
		webhook:     controller.NewWebhookController(s.purchase, s.identity, s.user),
		health:      controller.NewHealthController(a.Mongo, a.DB),
	}
	// 未配置职位源时保持 nil 接口，接口返回 503
	if s.jobFeed != nil {
		c.job = controller.NewJobController(s.job, s.jobFeed)
	} else {
		c.job = controller.NewJobController(s.job, nil)
	}
	return c
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	a.origins = security.NewOrigins(cfg.CORS.AllowedOrigins)
	a.limiter = security.NewRateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
	go a.limiter.Run(a.done)

	router.Use(security.CORS(a.origins))
	router.Use(security.Secure())
	router.Use(a.limiter.Handler())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services, cfg *config.Config) {
	if s.jobFeed == nil || !cfg.JobFeed.Enabled {
		return
	}
	if err := s.jobFeed.Start(); err != nil {
		logger.Log.Error("Failed to schedule job feed", zap.Error(err))
	}
}

func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Mongo.TimeoutSeconds)*time.Second)
	defer cancel()

	client, mdb, err := database.InitMongo(ctx, &cfg.Mongo)
	if err != nil {
		logger.Log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(ctx, &cfg.Redis)
	if err != nil {
		logger.Log.Warn("Failed to initialize redis", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		Mongo:     client,
		DB:        db,
		Redis:     rdb,
		done:      make(chan struct{}),
	}

	repos := app.initRepositories(mdb, db)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services)

	// 监控初始化
	monitoring.Init()

	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("learnhire", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, services)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.SetMode(newCfg.Server.Mode)
		app.origins.Set(newCfg.CORS.AllowedOrigins)
		app.limiter.Update(newCfg.RateLimit.MaxRequests, newCfg.RateLimit.Window())
		logger.Log.Info("config reloaded",
			zap.Int("rate_limit", newCfg.RateLimit.MaxRequests),
			zap.Strings("cors_origins", newCfg.CORS.AllowedOrigins))
	})

	app.startBackgroundTasks(services, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if a.ConfigDir != "" {
		err := configwatcher.WatchConfig(watchCtx, a.ConfigDir, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Warn("Config watcher disabled", zap.Error(err))
		}
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	if a.services != nil && a.services.jobFeed != nil {
		a.services.jobFeed.Stop()
	}
	close(a.done)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.Mongo != nil {
		_ = a.Mongo.Disconnect(ctx)
	}

	logger.Log.Info("Server exiting")
}
