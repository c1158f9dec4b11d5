package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"github.com/felixbrock/promptenhancer/internal/app"
	"github.com/felixbrock/promptenhancer/internal/log"
	"github.com/felixbrock/promptenhancer/internal/persistence"
)

func config() (app.Config, error) {
	port := os.Getenv("GOPORT")
	if port == "" {
		port = "8000"
	}

	provider := strings.ToLower(os.Getenv("PROVIDER"))
	if provider == "" {
		provider = "openai"
	}

	ttl := persistence.DefaultSessionTTL
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return app.Config{}, fmt.Errorf("invalid SESSION_TTL %q: %w", v, err)
		}
		ttl = d
	}

	return app.Config{
		Port:         port,
		Provider:     provider,
		Model:        os.Getenv("MODEL"),
		BaseUrl:      os.Getenv("BASE_URL"),
		SessionTTL:   ttl,
		SecureCookie: os.Getenv("SECURE_COOKIE") == "true",
		Debug:        os.Getenv("DEBUG") == "true",
	}, nil
}

func generator(config app.Config) (app.Generator, error) {
	switch config.Provider {
	case "openai":
		return persistence.NewOpenAIRepo(config.BaseUrl, config.Model), nil
	case "anthropic":
		return persistence.NewAnthropicRepo(config.BaseUrl, config.Model), nil
	case "gemini":
		return persistence.NewGeminiRepo(config.BaseUrl, config.Model), nil
	default:
		return nil, fmt.Errorf("unknown PROVIDER %q", config.Provider)
	}
}

func main() {
	// a missing .env is fine, the environment may be set directly
	_ = gotenv.Load()

	config, err := config()
	if err != nil {
		log.With(zap.Error(err)).Fatal("invalid configuration")
	}
	log.Setup(config.Debug)
	defer func() { _ = log.Sync() }()

	gen, err := generator(config)
	if err != nil {
		log.With(zap.Error(err)).Fatal("invalid configuration")
	}

	sessionRepo := persistence.NewSessionRepo(config.SessionTTL)
	defer sessionRepo.Close()

	a := app.App{
		Generator:   gen,
		SessionRepo: sessionRepo,
		Config:      config,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		log.With(zap.Error(err)).Error("server stopped")
	}
}
