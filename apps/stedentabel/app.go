package main

import (
	"log/slog"
	"net/http"

	"stedentabel/libs/cities"
	"stedentabel/libs/mailer"
	"stedentabel/libs/viewstate"
)

type App struct {
	cfg *Config
	log *slog.Logger

	cities        *viewstate.Controller
	metrics       *Metrics
	mailer        *mailer.Mailer
	pageTemplates *pageTemplateRenderer
}

func newApp(cfg *Config, logger *slog.Logger, loader cities.Loader) *App {
	metrics := newMetrics()
	assets := resolvePageAssets(cfg.Env, cfg.PageAssetDir)
	if cfg.PageAssetDir != "" && assets.source == pageAssetsEmbedded {
		logger.Warn("page asset dir has no templates, using embedded assets", "dir", cfg.PageAssetDir)
	}
	return &App{
		cfg:     cfg,
		log:     logger,
		metrics: metrics,
		cities: viewstate.New(loader,
			viewstate.WithLogger(logger),
			viewstate.WithObserver(metrics),
		),
		mailer:        newMailer(cfg, logger),
		pageTemplates: newPageTemplateRenderer(assets),
	}
}

func newCityLoader(cfg *Config, logger *slog.Logger) cities.Loader {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	remote := &cities.HTTPLoader{URL: cfg.SourceURL, UserAgent: cfg.UserAgent, Client: httpClient}
	if cfg.FallbackFile == "" {
		return remote
	}
	return &cities.FallbackLoader{
		Primary:   remote,
		Secondary: &cities.FileLoader{Path: cfg.FallbackFile},
		Logger:    logger,
	}
}

func newMailer(cfg *Config, logger *slog.Logger) *mailer.Mailer {
	var mailProvider mailer.Provider
	if cfg.ResendAPIKey != "" {
		mailProvider = mailer.NewResendProvider(cfg.ResendAPIKey)
	} else {
		mailProvider = mailer.NewLogProvider(logger)
	}
	return mailer.New(mailProvider, cfg.MailerFromAddresses[mailProvider.Name()])
}
