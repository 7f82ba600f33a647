package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learning_streak_backend/internal/config"
	"learning_streak_backend/internal/controller"
	"learning_streak_backend/internal/model"
	"learning_streak_backend/internal/repository"
	"learning_streak_backend/internal/service"
	"learning_streak_backend/pkg/configwatcher"
	"learning_streak_backend/pkg/database"
	"learning_streak_backend/pkg/locker"
	"learning_streak_backend/pkg/logger"
	"learning_streak_backend/pkg/monitoring"
	"learning_streak_backend/pkg/security"
	"learning_streak_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const lockKeyPrefix = "learning_streak:lock:"

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	ConfigDir       string
	tracer          *sdktrace.TracerProvider
	services        *services
	configCallbacks []func(*config.Config)
}

type services struct {
	streak *service.StreakService
	query  *service.QueryService
}

type controllers struct {
	streak *controller.StreakController
	health *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) shouldMigrate() bool {
	return a.Config.ForceMigrate || a.Config.Server.Mode != gin.ReleaseMode
}

// initStore database.driver=memory 时不连接数据库
func (a *App) initStore() (repository.StreakStore, error) {
	cfg := a.Config
	if cfg.Database.Driver == config.DriverMemory {
		logger.Log.Warn("Using in-memory streak store, data is lost on restart")
		return repository.NewMemoryStore(), nil
	}

	level := gormlogger.Info
	if cfg.Server.Mode == gin.ReleaseMode {
		level = gormlogger.Warn
	}

	migrate := a.shouldMigrate()
	db, err := database.InitDB(&cfg.Database, migrate, level)
	if err != nil {
		return nil, err
	}
	a.DB = db

	if migrate || cfg.SeedBadges {
		if _, err := database.SeedBadges(db, model.BadgeCatalog()); err != nil {
			return nil, err
		}
	}

	return repository.NewStreakRepository(db), nil
}

// initLocker 启用 Redis 时跨实例加锁，否则只在进程内串行
func (a *App) initLocker() (locker.Locker, error) {
	cfg := a.Config
	if !cfg.Redis.Enabled {
		return locker.NewKeyedMutex(cfg.Streak.LockWait()), nil
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, err
	}
	a.Redis = rdb
	return locker.NewRedisLocker(rdb, lockKeyPrefix, cfg.Streak.LockTTL(), cfg.Streak.LockWait()), nil
}

func (a *App) initServices(store repository.StreakStore, lk locker.Locker) *services {
	cfg := a.Config
	catalog := model.BadgeCatalog()
	cache := service.NewStreakCache(cfg.Streak.CacheSize)

	s := &services{
		streak: service.NewStreakService(store, lk, service.NewBadgeAwarder(catalog, nil), cache),
		query:  service.NewQueryService(store, catalog, cache),
	}
	s.query.SetWindowLimits(cfg.Streak.HistoryDefaultDays, cfg.Streak.HistoryMaxDays)

	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.query.SetWindowLimits(newCfg.Streak.HistoryDefaultDays, newCfg.Streak.HistoryMaxDays)
	})

	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		streak: controller.NewStreakController(s.streak, s.query),
		health: controller.NewHealthController(a.DB, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(gin.Recovery())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New 组装所有依赖，不初始化日志
func New(cfg *config.Config) (*App, error) {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	app := &App{Config: cfg, ConfigDir: "configs"}

	store, err := app.initStore()
	if err != nil {
		return nil, err
	}
	if cfg.MigrateOnly {
		return app, nil
	}

	lk, err := app.initLocker()
	if err != nil {
		return nil, err
	}

	app.services = app.initServices(store, lk)
	ctrls := app.initControllers(app.services)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, err
		}
		app.tracer = tp
	}

	router := gin.New()
	app.Router = router
	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, ctrls, cfg)

	return app, nil
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	app, err := New(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize application", zap.Error(err))
	}
	return app
}

func (a *App) Close() {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := configwatcher.WatchConfig(ctx, a.ConfigDir, a.applyConfig); err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}()

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	a.Close()

	logger.Log.Info("Server exiting")
}
