package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/lingua-cli/internal/domain"
	"github.com/spf13/viper"
)

const (
	configName      = "config"
	configType      = "toml"
	configDir       = ".lingua"
	routesPathKey   = "routes.path"
	routesFile      = "routes.toml"
	iamURLKey       = "iam.url"
	httpTimeoutKey  = "http.timeout"
	safetyMarginKey = "token.safety_margin"

	defaultIAMURL       = "https://iam.cloud.ibm.com/identity/token"
	defaultHTTPTimeout  = 30 * time.Second
	defaultSafetyMargin = 45 * time.Second
)

// Config is the immutable startup configuration. It is built once by Load
// and passed by reference; business logic never reads the environment.
type Config struct {
	Entries       []domain.CredentialEntry
	Models        []string
	ModelOverride string
	IAMEndpoint   string
	HTTPTimeout   time.Duration
	SafetyMargin  time.Duration
}

// Models offered by default, matching the watsonx.ai catalogue the tool
// was built against.
var defaultModels = []string{
	"ibm/granite-4-h-small",
	"meta-llama/llama-3-2-11b-vision-instruct",
	"meta-llama/llama-3-2-90b-vision-instruct",
	"meta-llama/llama-3-3-70b-instruct",
	"meta-llama/llama-4-maverick-17b-128e-instruct-fp8",
	"mistralai/mistral-medium-2505",
}

// Load reads ~/.lingua/config.toml (when present), the routes table, and the
// per-credential environment variables. A missing secret is not fatal here:
// the resolver reports it only when the entry is actually selected.
func Load(cfg *viper.Viper) (*Config, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDir))
	cfg.SetDefault(routesPathKey, filepath.Join(homeDir, configDir, routesFile))
	cfg.SetDefault(iamURLKey, defaultIAMURL)
	cfg.SetDefault(httpTimeoutKey, defaultHTTPTimeout)
	cfg.SetDefault(safetyMarginKey, defaultSafetyMargin)

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	routes, err := loadRoutes(cfg.GetString(routesPathKey))
	if err != nil {
		return nil, err
	}

	entries, err := buildEntries(routes)
	if err != nil {
		return nil, err
	}

	return &Config{
		Entries:       entries,
		Models:        defaultModels,
		ModelOverride: os.Getenv("IBM_MODEL_ID"),
		IAMEndpoint:   envOrDefault("IBM_IAM_URL", cfg.GetString(iamURLKey)),
		HTTPTimeout:   cfg.GetDuration(httpTimeoutKey),
		SafetyMargin:  cfg.GetDuration(safetyMarginKey),
	}, nil
}

func buildEntries(routes []route) ([]domain.CredentialEntry, error) {
	entries := make([]domain.CredentialEntry, 0, len(routes))
	for _, r := range routes {
		kind := domain.CredentialKind(r.Kind)
		if !kind.Valid() {
			return nil, fmt.Errorf("route %q: unsupported kind %q", r.Pattern, r.Kind)
		}
		if r.Pattern == "" {
			return nil, errors.New("route with empty pattern")
		}
		name := r.Credential
		if name == "" {
			return nil, fmt.Errorf("route %q: credential name is required", r.Pattern)
		}

		baseURL := os.Getenv(name + "_BASE_URL")
		if baseURL == "" {
			baseURL = defaultBaseURL(kind)
		}
		if kind == domain.KindTokenAuth {
			baseURL = normalizeWatsonxBaseURL(baseURL)
		}

		entries = append(entries, domain.CredentialEntry{
			Name:      name,
			Pattern:   r.Pattern,
			Exact:     r.Match == matchExact,
			Kind:      kind,
			BaseURL:   baseURL,
			APIKey:    os.Getenv(name + "_API_KEY"),
			ProjectID: os.Getenv(name + "_PROJECT_ID"),
		})
	}
	return entries, nil
}

func defaultBaseURL(kind domain.CredentialKind) string {
	switch kind {
	case domain.KindTokenAuth:
		return "https://us-south.ml.cloud.ibm.com"
	case domain.KindHosted:
		return "https://api.openai.com"
	case domain.KindLocal:
		return "http://localhost:11434"
	}
	return ""
}

// normalizeWatsonxBaseURL strips query parameters and a trailing /ml/v1
// segment; users often paste the full endpoint URL from the IBM console.
func normalizeWatsonxBaseURL(baseURL string) string {
	if i := strings.Index(baseURL, "?"); i >= 0 {
		baseURL = baseURL[:i]
	}
	if i := strings.Index(baseURL, "/ml/v1"); i >= 0 {
		baseURL = baseURL[:i]
	}
	return strings.TrimRight(baseURL, "/")
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
