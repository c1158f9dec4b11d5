package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/felixbrock/promptenhancer/internal/components"
	"github.com/felixbrock/promptenhancer/internal/domain"
	"github.com/felixbrock/promptenhancer/internal/log"
)

const shutdownTimeout = 2 * time.Minute

type Config struct {
	Port         string
	Provider     string
	Model        string
	BaseUrl      string
	SessionTTL   time.Duration
	SecureCookie bool
	Debug        bool
}

// Generator sends one request to the language model and returns its first
// text verbatim. It must not retry.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req domain.GenerationRequest) (string, error)
}

// SessionRepo hands out sessions locked for the duration of one action.
type SessionRepo interface {
	Acquire(id string) domain.Session
	Release(s domain.Session)
}

type App struct {
	Generator   Generator
	SessionRepo SessionRepo
	Config      Config
}

func (a App) Handler() http.Handler {
	mux := http.NewServeMux()

	static, err := fs.Sub(components.Static, "static")
	if err != nil {
		panic(fmt.Errorf("static assets: %w", err))
	}

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	mux.Handle("GET /{$}", ComponentHandler(a.index))
	mux.Handle("POST /enhance", ComponentHandler(a.enhance))
	mux.Handle("POST /rate", ComponentHandler(a.rate))
	mux.Handle("/{$}", ComponentHandler(methodNotAllowed))
	mux.Handle("/enhance", ComponentHandler(methodNotAllowed))
	mux.Handle("/rate", ComponentHandler(methodNotAllowed))
	mux.Handle("/", ComponentHandler(notFound))

	return mux
}

// Start serves until ctx is cancelled, then waits for in-flight requests.
func (a App) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", a.Config.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	log.With(
		zap.String("port", a.Config.Port),
		zap.String("provider", a.Generator.Name()),
	).Info("App running")

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.With(zap.String("port", a.Config.Port)).Info("App shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
