package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"drinkd/core"
	"drinkd/core/providers"
	"drinkd/storage"
)

type AppConfig struct {
	Core  core.Config            `yaml:",inline"`
	Kakao *providers.KakaoConfig `yaml:"kakao,omitempty"`

	DB   DBConfig `yaml:"db"`
	Port string   `yaml:"port" env:"DRINKD_PORT"`
}

type DBConfig struct {
	Type       string `yaml:"type" env:"DRINKD_DB_TYPE"`
	SQLitePath string `yaml:"sqlite_path" env:"DRINKD_DB_SQLITE_PATH"`
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	configPath := getEnv("CONFIG_PATH", "config.yaml")
	appConfig := loadConfig(configPath, logger)

	repo := initRepository(appConfig.DB, logger)
	defer repo.Close()

	provider := initProvider(appConfig, logger)

	authService := core.NewAuthService(repo, &appConfig.Core, provider, logger)
	defer authService.Close()

	server := core.NewServer(authService, repo, &appConfig.Core, logger)

	httpServer := &http.Server{
		Addr:    ":" + appConfig.Port,
		Handler: server.Routes(),
	}

	go func() {
		logger.Info().Str("port", appConfig.Port).Msg("starting drinkd server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
	logger.Info().Msg("server stopped")
}

func loadConfig(path string, logger zerolog.Logger) *AppConfig {
	config := &AppConfig{
		DB:   DBConfig{Type: "sqlite", SQLitePath: "drinkd.db"},
		Port: "4000",
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatal().Err(err).Str("path", path).Msg("failed to read config file")
		}
		logger.Warn().Str("path", path).Msg("config file missing, relying on environment")
	} else if err := yaml.Unmarshal(data, config); err != nil {
		logger.Fatal().Err(err).Str("path", path).Msg("failed to parse config file")
	}

	// Environment wins over the file.
	if err := env.Parse(config); err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment overrides")
	}

	if err := config.Core.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	return config
}

func initRepository(dbConfig DBConfig, logger zerolog.Logger) core.Repository {
	switch strings.ToLower(dbConfig.Type) {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(dbConfig.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize SQLite repository")
		}
		logger.Info().Str("path", dbConfig.SQLitePath).Msg("using SQLite database")
		return repo

	case "mock":
		logger.Info().Msg("using mock repository (in-memory)")
		return storage.NewMockRepository()

	default:
		logger.Fatal().Str("type", dbConfig.Type).Msg("unsupported DB type (supported: sqlite, mock)")
		return nil
	}
}

func initProvider(cfg *AppConfig, logger zerolog.Logger) core.AuthProvider {
	if cfg.Kakao == nil {
		logger.Warn().Msg("no kakao config, using mock OAuth provider")
		return providers.NewMockProvider()
	}

	logger.Info().Msg("Kakao OAuth provider initialized")
	return providers.NewKakaoProvider(cfg.Kakao)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
