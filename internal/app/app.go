package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fitaichain/fitchain/internal/config"
	"github.com/fitaichain/fitchain/internal/db"
	"github.com/fitaichain/fitchain/internal/http/api"
	"github.com/fitaichain/fitchain/internal/identity"
	"github.com/fitaichain/fitchain/internal/ratelimit"
	"github.com/fitaichain/fitchain/internal/recognition"
	internalsettings "github.com/fitaichain/fitchain/internal/settings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ConfigExists reports whether the config file is present.
func ConfigExists(configPath string) bool {
	info, errStat := os.Stat(configPath)
	return errStat == nil && !info.IsDir()
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the competition engine API with database-backed components.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errReload := internalsettings.Reload(conn); errReload != nil {
		log.WithError(errReload).Warn("settings snapshot load failed, using defaults")
	}

	jwtCfg, _ := config.LoadJWTConfig(configPath)
	worldIDCfg, _ := config.LoadWorldIDConfig(configPath)
	recognitionCfg, _ := config.LoadRecognitionConfig(configPath)

	engine := gin.New()
	engine.Use(gin.Recovery())

	api.RegisterRoutes(engine, api.Deps{
		DB:          conn,
		JWT:         jwtCfg,
		Verifier:    identity.NewHTTPVerifier(worldIDCfg.AppID, worldIDCfg.Action),
		Analyzer:    recognition.NewClient(recognitionCfg.BaseURL, recognitionCfg.Timeout),
		RateLimiter: ratelimit.NewManager(nil, nil, nil),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("starting engine on port %d with config=%s", port, cfg.ConfigPath)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case errServe := <-errCh:
		if errServe == http.ErrServerClosed {
			return nil
		}
		return errServe
	}
}
