package app

import (
	"context"
	"intervention_backend/internal/config"
	"intervention_backend/internal/controller"
	"intervention_backend/internal/repository"
	"intervention_backend/internal/service"
	"intervention_backend/pkg/configwatcher"
	"intervention_backend/pkg/database"
	"intervention_backend/pkg/logger"
	"intervention_backend/pkg/monitoring"
	"intervention_backend/pkg/security"
	"intervention_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 应用实例
type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type services struct {
	notifier     *service.WebhookNotifier
	dispatcher   *service.Dispatcher
	intervention *service.InterventionService
	status       *service.StatusService
	reminder     *service.ReminderScheduler
}

type controllers struct {
	student      *controller.StudentController
	checkin      *controller.CheckinController
	intervention *controller.InterventionController
	health       *controller.HealthController
}

// RegisterConfigCallback 注册配置热更新回调
func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initServices(store repository.Store, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	var (
		locker      service.StudentLocker
		broadcaster service.StatusBroadcaster
	)
	if rdb != nil {
		locker = service.NewRedisLocker(rdb, cfg.Redis.LockTTL)
		broadcaster = service.NewRedisBroadcaster(rdb)
	} else {
		locker = service.NewMemoryLocker()
		broadcaster = service.NewMemoryBroadcaster()
	}

	s.notifier = service.NewWebhookNotifier(cfg.Webhook.URL)
	if cfg.Webhook.URL == "" {
		logger.Log.Warn("Reviewer webhook URL not configured, intervention notifications will be skipped")
	}
	s.dispatcher = service.NewDispatcher(s.notifier, cfg.Webhook.Timeout)
	s.intervention = service.NewInterventionService(store, locker, s.dispatcher, broadcaster)
	s.status = service.NewStatusService(store, broadcaster, cfg.Observer.PollInterval, cfg.Observer.MaxWait)

	if cfg.Reminder.Enabled {
		s.reminder = service.NewReminderScheduler(store, s.dispatcher, cfg.Reminder.Spec, cfg.Reminder.StaleAfter)
	}

	// 配置热更新: webhook 与提醒阈值
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.notifier.SetURL(newCfg.Webhook.URL)
		s.dispatcher.SetTimeout(newCfg.Webhook.Timeout)
		if s.reminder != nil {
			s.reminder.SetStaleAfter(newCfg.Reminder.StaleAfter)
		}
		logger.Log.Info("Configuration reloaded",
			zap.Bool("webhookEnabled", newCfg.Webhook.URL != ""),
			zap.Duration("webhookTimeout", newCfg.Webhook.Timeout))
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		student:      controller.NewStudentController(s.status),
		checkin:      controller.NewCheckinController(s.intervention),
		intervention: controller.NewInterventionController(s.intervention),
		health:       controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	// 监控和健康检查接口不计入限流
	router.Use(security.RateLimiter(
		cfg.RateLimit.MaxRequests,
		time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute,
		"/metrics", "/api/health",
	))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services) {
	if s.reminder != nil {
		if err := s.reminder.Start(); err != nil {
			logger.Log.Fatal("Failed to start reminder scheduler", zap.Error(err))
		}
	}
}

// NewApp 初始化数据库、服务、路由和后台任务
func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		app.Redis = rdb
	}

	services := app.initServices(repository.NewGormStore(db), cfg, app.Redis)
	app.services = services
	controllers := app.initControllers(services, db, app.Redis)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers)
	app.startBackgroundTasks(services)

	return app
}

// watchConfig 监听启动时加载的配置文件，变更后依次执行已注册的回调
func (a *App) watchConfig(ctx context.Context) {
	path := a.Config.FilePath()
	if _, err := os.Stat(path); err != nil {
		logger.Log.Warn("Config file not found, hot reload disabled", zap.String("path", path))
		return
	}
	err := configwatcher.Watch(ctx, filepath.Clean(path), func(cfg *config.Config) {
		for _, cb := range a.configCallbacks {
			cb(cfg)
		}
	})
	if err != nil {
		logger.Log.Error("Config watcher stopped", zap.Error(err))
	}
}

// Run 启动HTTP服务并处理优雅退出
func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go a.watchConfig(watchCtx)

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.services.reminder != nil {
		a.services.reminder.Stop()
	}
	// 等待已发出的导师通知完成
	if err := a.services.dispatcher.Shutdown(ctx); err != nil {
		logger.Log.Warn("Pending notifications abandoned", zap.Error(err))
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
