package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/connecthq/connect/internal/api"
	"github.com/connecthq/connect/internal/app"
	iauth "github.com/connecthq/connect/internal/auth"
	"github.com/connecthq/connect/internal/cache"
	"github.com/connecthq/connect/internal/database"
	"github.com/connecthq/connect/internal/handlers"
	"github.com/connecthq/connect/internal/services"
	"github.com/connecthq/connect/pkg/logger"
	"github.com/connecthq/connect/pkg/mail"
)

// runtimeStack bundles long-lived resources used by the HTTP server.
type runtimeStack struct {
	DB     *gorm.DB
	Cache  cache.Store
	Router *gin.Engine
}

// bootstrapRuntime initialises the database, the session cache, the services
// and the HTTP router.
func bootstrapRuntime(cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	// The session cache is the source of truth for refresh-token liveness,
	// so a configured-but-unreachable Redis is fatal rather than degraded.
	if cfg.Cache.Redis.Enabled {
		stack.Cache, err = cache.NewRedisStore(cfg.Cache.RedisClientConfig())
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
	} else {
		stack.Cache = cache.NewDatabaseStore(stack.DB)
		log.Info("using database-backed session cache")
	}

	sessionCache, err := iauth.NewSessionCache(stack.Cache)
	if err != nil {
		return nil, fmt.Errorf("initialise session cache: %w", err)
	}

	tokenSvc, err := iauth.NewTokenService(cfg.Auth.TokenServiceConfig(), sessionCache)
	if err != nil {
		return nil, fmt.Errorf("initialise token service: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return nil, fmt.Errorf("initialise mailer: %w", err)
	}

	verificationSvc, err := services.NewVerificationService(stack.DB, mailer)
	if err != nil {
		return nil, fmt.Errorf("initialise verification service: %w", err)
	}
	accountSvc, err := services.NewAccountService(stack.DB, tokenSvc)
	if err != nil {
		return nil, fmt.Errorf("initialise account service: %w", err)
	}
	userSvc, err := services.NewUserService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise user service: %w", err)
	}
	postSvc, err := services.NewPostService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise post service: %w", err)
	}
	followSvc, err := services.NewFollowService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise follow service: %w", err)
	}

	stack.Router, err = api.NewRouter(api.Dependencies{
		Tokens:       tokenSvc,
		Verification: verificationSvc,
		Accounts:     accountSvc,
		Users:        userSvc,
		Posts:        postSvc,
		Follows:      followSvc,
		Uploads: handlers.UploadConfig{
			Dir:      cfg.Uploads.Dir,
			MaxBytes: cfg.Uploads.MaxBytes,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown releases the stack's resources in reverse dependency order.
func (s *runtimeStack) Shutdown(log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cache != nil {
		if err := s.Cache.Close(); err != nil {
			log.Warn("close cache", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected",
		zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = cfg.Database.Postgres.Password
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = cfg.Database.MySQL.Password
	}

	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("access underlying database handle", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("close database", zap.Error(err))
	}
}
