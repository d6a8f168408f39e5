package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/bnema/lingua-cli/internal/adapters/iam"
	"github.com/bnema/lingua-cli/internal/adapters/llm/ollama"
	"github.com/bnema/lingua-cli/internal/adapters/llm/openai"
	"github.com/bnema/lingua-cli/internal/adapters/llm/watsonx"
	"github.com/bnema/lingua-cli/internal/application"
	"github.com/bnema/lingua-cli/internal/config"
	"github.com/bnema/lingua-cli/internal/domain"
	"github.com/bnema/lingua-cli/internal/ports"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type app struct {
	cfg        *config.Config
	resolver   *application.Resolver
	dispatcher *application.Dispatcher
	ollama     ollama.Handler
	log        zerolog.Logger
}

func wireApp() (*app, error) {
	cfg, err := config.Load(viper.New())
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	log := newLogger()
	resolver := application.NewResolver(cfg.Entries)

	exchanger := iam.Client{
		Endpoint:       cfg.IAMEndpoint,
		HTTPClient:     http.DefaultClient,
		RequestTimeout: cfg.HTTPTimeout,
	}
	tokens := application.NewTokenManager(exchanger, ports.SystemClock{}, cfg.SafetyMargin, log)

	ollamaHandler := ollama.Handler{RequestTimeout: cfg.HTTPTimeout}
	dispatcher := application.NewDispatcher(application.DispatcherDeps{
		Resolver: resolver,
		Tokens:   tokens,
		Handlers: map[domain.CredentialKind]ports.Handler{
			domain.KindTokenAuth: watsonx.Handler{RequestTimeout: cfg.HTTPTimeout},
			domain.KindHosted:    openai.Handler{RequestTimeout: cfg.HTTPTimeout},
			domain.KindLocal:     ollamaHandler,
		},
		ModelOverride: cfg.ModelOverride,
		Log:           log,
	})

	return &app{
		cfg:        cfg,
		resolver:   resolver,
		dispatcher: dispatcher,
		ollama:     ollamaHandler,
		log:        log,
	}, nil
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if raw := os.Getenv("LINGUA_LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}
