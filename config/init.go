package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/mailboost/mailboost/internal/logger"
	"github.com/mailboost/mailboost/internal/tracing"
)

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig: &AppConfig{},
		IMAP:      &IMAPConfig{},
		Panel:     &PanelConfig{},
		Archive:   &ArchiveConfig{},
		Logger:    &logger.Config{},
		Tracing:   &tracing.JaegerConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		return nil, errors.Wrap(err, "error loading mailboost config")
	}

	// The sender filter drives the mailbox search; a bad address would
	// silently match nothing, so reject it here.
	syntax := mailvalidate.ValidateEmailSyntax(config.IMAP.SenderFilter)
	if !syntax.IsValid {
		return nil, errors.Errorf("SENDER_FILTER is not a valid address: %s", config.IMAP.SenderFilter)
	}
	config.IMAP.SenderFilter = syntax.CleanEmail

	config.Catalog = DefaultCatalog()
	if config.AppConfig.CatalogFile != "" {
		config.Catalog, err = LoadCatalog(config.AppConfig.CatalogFile)
		if err != nil {
			return nil, errors.Wrap(err, "error loading engagement catalog")
		}
	}

	return config, nil
}
