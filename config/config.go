package config

import (
	"time"

	"github.com/mailboost/mailboost/internal/enum"
	"github.com/mailboost/mailboost/internal/logger"
	"github.com/mailboost/mailboost/internal/tracing"
)

type Config struct {
	AppConfig *AppConfig
	IMAP      *IMAPConfig
	Panel     *PanelConfig
	Archive   *ArchiveConfig
	Logger    *logger.Config
	Tracing   *tracing.JaegerConfig
	Catalog   *EngagementCatalog
}

type AppConfig struct {
	APIPort string `env:"PORT" envDefault:"11000"`
	// APIKey guards the manual-trigger endpoint; leaving it empty disables the endpoint.
	APIKey           string        `env:"API_KEY"`
	PollInterval     time.Duration `env:"POLL_INTERVAL" envDefault:"10h"`
	MirrorDomain     string        `env:"MIRROR_DOMAIN" envDefault:"xcancel.com"`
	SeenAccountsFile string        `env:"SEEN_ACCOUNTS_FILE" envDefault:"seen_accounts.txt"`
	OrderJournalFile string        `env:"ORDER_JOURNAL_FILE"`
	CatalogFile      string        `env:"CATALOG_FILE"`
}

type IMAPConfig struct {
	Host         string             `env:"IMAP_HOST" envDefault:"imap.gmail.com"`
	Port         int                `env:"IMAP_PORT" envDefault:"993"`
	Username     string             `env:"IMAP_USER,required"`
	Password     string             `env:"IMAP_PASS,required"`
	Folder       string             `env:"IMAP_FOLDER" envDefault:"INBOX"`
	SenderFilter string             `env:"SENDER_FILTER" envDefault:"subscriptions@feedrabbit.com"`
	Security     enum.EmailSecurity `env:"IMAP_SECURITY" envDefault:"tls"`
}

type PanelConfig struct {
	URL     string        `env:"JAP_API_URL" envDefault:"https://justanotherpanel.com/api/v2"`
	APIKey  string        `env:"JAP_API_KEY,required"`
	Timeout time.Duration `env:"JAP_TIMEOUT" envDefault:"20s"`
	// OrderDelay spaces consecutive panel calls to stay inside its implicit rate limit.
	OrderDelay time.Duration `env:"ORDER_DELAY" envDefault:"1200ms"`
}

type ArchiveConfig struct {
	AccountID       string `env:"CLOUDFLARE_R2_ACCOUNT_ID"`
	AccessKeyID     string `env:"CLOUDFLARE_R2_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"CLOUDFLARE_R2_ACCESS_KEY_SECRET"`
	Bucket          string `env:"BUCKET_NAME_EMAIL_ARCHIVE" envDefault:"mailboost-email-archive"`
}

// Enabled reports whether the archive has everything it needs to upload.
func (c *ArchiveConfig) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}
