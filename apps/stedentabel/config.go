package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"stedentabel/libs/cities"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	defaultPageRows    = 50
	maxPageRows        = 500
	defaultUserAgent   = "Stedentabel/1.0"
)

type Config struct {
	Addr                string
	Env                 string
	SourceURL           string
	FallbackFile        string
	HTTPTimeout         time.Duration
	PageRows            int
	UserAgent           string
	ResendAPIKey        string
	MailerFromAddresses map[string]string
	CORSAllowedOrigins  []string
	PageAssetDir        string
}

func loadConfig() (*Config, error) {
	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}

	sourceURL, err := normalizeSourceURL(valueOrDefault("CITIES_SOURCE_URL", cities.DefaultURL))
	if err != nil {
		return nil, fmt.Errorf("CITIES_SOURCE_URL %w", err)
	}

	cfg := &Config{
		Addr:         valueOrDefault("GIN_ADDR", ":8080"),
		Env:          env,
		SourceURL:    sourceURL,
		FallbackFile: strings.TrimSpace(os.Getenv("CITIES_FALLBACK_FILE")),
		HTTPTimeout:  defaultHTTPTimeout,
		PageRows:     defaultPageRows,
		UserAgent:    valueOrDefault("USER_AGENT", defaultUserAgent),
		ResendAPIKey: strings.TrimSpace(os.Getenv("RESEND_API_KEY")),
		PageAssetDir: strings.TrimSpace(os.Getenv("PAGE_ASSET_DIR")),
		MailerFromAddresses: map[string]string{
			"resend": valueOrDefault("MAILER_FROM_ADDRESS_RESEND", "noreply@stedentabel.nl"),
			"log":    valueOrDefault("MAILER_FROM_ADDRESS_LOG", "noreply@stedentabel.local"),
		},
	}

	for _, origin := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	if rawTimeout := strings.TrimSpace(os.Getenv("HTTP_TIMEOUT")); rawTimeout != "" {
		parsed, err := time.ParseDuration(rawTimeout)
		if err != nil {
			return nil, fmt.Errorf("HTTP_TIMEOUT must be a valid duration")
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("HTTP_TIMEOUT must be > 0")
		}
		cfg.HTTPTimeout = parsed
	}

	if rawRows := strings.TrimSpace(os.Getenv("TABLE_PAGE_ROWS")); rawRows != "" {
		parsed, err := strconv.Atoi(rawRows)
		if err != nil {
			return nil, fmt.Errorf("TABLE_PAGE_ROWS must be a whole number")
		}
		if parsed < 1 || parsed > maxPageRows {
			return nil, fmt.Errorf("TABLE_PAGE_ROWS must be between 1 and %d", maxPageRows)
		}
		cfg.PageRows = parsed
	}

	return cfg, nil
}

// applySourceURL overrides the configured source with a command line value.
func (c *Config) applySourceURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	sourceURL, err := normalizeSourceURL(raw)
	if err != nil {
		return fmt.Errorf("--source-url %w", err)
	}
	c.SourceURL = sourceURL
	return nil
}

func normalizeSourceURL(raw string) (string, error) {
	sourceURL := strings.TrimRight(strings.TrimSpace(raw), "/")
	if !strings.HasPrefix(sourceURL, "http://") && !strings.HasPrefix(sourceURL, "https://") {
		return "", errors.New("must be an http(s) URL")
	}
	return sourceURL, nil
}

func loadDotEnvFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.Trim(strings.TrimSpace(line[idx+1:]), "\"")
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
	return nil
}

func valueOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
