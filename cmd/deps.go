package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/resolution-tracker/internal"
	"github.com/frahmantamala/resolution-tracker/internal/auth"
	"github.com/frahmantamala/resolution-tracker/internal/core/events"
	"github.com/frahmantamala/resolution-tracker/internal/realtime"
	"github.com/frahmantamala/resolution-tracker/internal/user"
	userPostgres "github.com/frahmantamala/resolution-tracker/internal/user/postgres"
	"github.com/frahmantamala/resolution-tracker/internal/workflow"
	workflowPostgres "github.com/frahmantamala/resolution-tracker/internal/workflow/postgres"
	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

// Dependencies is the wired reference authority shared by the server and
// the worker commands.
type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Redis    *redis.Client
	Bus      *events.EventBus
	Users    *user.Service
	Auth     *auth.Service
	Workflow *workflow.Service
	Logger   *slog.Logger
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	gdb, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	deps := &Dependencies{
		Config: config,
		DB:     db,
		Gorm:   gdb,
		Bus:    events.NewEventBus(lg),
		Logger: lg,
	}

	if config.Realtime.RedisURL != "" {
		client, err := realtime.NewRedisClient(config.Realtime.RedisURL)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		deps.Redis = client
	}
	realtime.BridgeRedis(deps.Bus, deps.Redis, config.Realtime.Prefix(), lg)

	deps.Users = user.NewService(userPostgres.NewUserRepository(gdb))
	deps.Auth = auth.NewService(deps.Users, auth.NewJWTTokenGenerator(
		config.Security.JWTSecret,
		config.Security.AccessTokenDuration,
	))
	deps.Workflow = workflow.NewService(
		workflowPostgres.NewResolutionRepository(gdb),
		workflowPostgres.NewEventLog(db),
		deps.Users,
		deps.Bus,
		config.Workflow,
		lg,
	)
	return deps, nil
}

func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("Redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx connection pool with gorm.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
}
