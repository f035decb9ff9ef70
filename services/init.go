package services

import (
	"github.com/mailboost/mailboost/config"
	"github.com/mailboost/mailboost/interfaces"
	"github.com/mailboost/mailboost/internal/logger"
	"github.com/mailboost/mailboost/services/archive"
	"github.com/mailboost/mailboost/services/extract"
	"github.com/mailboost/mailboost/services/journal"
	"github.com/mailboost/mailboost/services/mailbox"
	"github.com/mailboost/mailboost/services/orders"
	"github.com/mailboost/mailboost/services/poller"
	"github.com/mailboost/mailboost/services/seenaccounts"
)

type Services struct {
	ExtractorService interfaces.LinkExtractor
	PanelService     interfaces.PanelService
	SeenAccountStore interfaces.SeenAccountStore
	OrderJournal     interfaces.OrderJournal
	ArchiveService   interfaces.ArchiveService
	MailboxProcessor interfaces.MailboxProcessor
	Poller           *poller.Poller
}

func InitServices(cfg *config.Config, log logger.Logger) *Services {
	extractorService := extract.NewExtractorService(cfg.AppConfig.MirrorDomain)
	panelService := orders.NewPanelService(cfg.Panel, log)
	seenAccountStore := seenaccounts.NewFileStore(cfg.AppConfig.SeenAccountsFile)
	orderJournal := journal.NewFileJournal(cfg.AppConfig.OrderJournalFile)
	archiveService := archive.NewEmailArchiveService(cfg.Archive)

	processor := mailbox.NewProcessor(
		cfg.IMAP,
		cfg.Catalog,
		mailbox.NewIMAPDialer(cfg.IMAP),
		extractorService,
		panelService,
		seenAccountStore,
		orderJournal,
		archiveService,
		log,
	)

	return &Services{
		ExtractorService: extractorService,
		PanelService:     panelService,
		SeenAccountStore: seenAccountStore,
		OrderJournal:     orderJournal,
		ArchiveService:   archiveService,
		MailboxProcessor: processor,
		Poller:           poller.NewPoller(cfg.AppConfig.PollInterval, processor, log),
	}
}
