package mailbox

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/emersion/go-imap"
	"github.com/jhillyerd/enmime"
	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/mailboost/mailboost/config"
	"github.com/mailboost/mailboost/dto"
	"github.com/mailboost/mailboost/interfaces"
	"github.com/mailboost/mailboost/internal/enum"
	er "github.com/mailboost/mailboost/internal/errors"
	"github.com/mailboost/mailboost/internal/logger"
	"github.com/mailboost/mailboost/internal/metrics"
	"github.com/mailboost/mailboost/internal/tracing"
	"github.com/mailboost/mailboost/internal/utils"
	"github.com/mailboost/mailboost/services/extract"
)

// Processor runs one polling pass over the notification mailbox: list the
// unread messages from the feed forwarder, extract the post link from each,
// dispatch boost orders, acknowledge the message. Everything is sequential;
// a pass owns its connection and its copy of the seen-account set.
type Processor struct {
	imapCfg   *config.IMAPConfig
	catalog   *config.EngagementCatalog
	dial      interfaces.IMAPDialer
	extractor interfaces.LinkExtractor
	panel     interfaces.PanelService
	seen      interfaces.SeenAccountStore
	journal   interfaces.OrderJournal
	archive   interfaces.ArchiveService
	log       logger.Logger
}

func NewProcessor(
	imapCfg *config.IMAPConfig,
	catalog *config.EngagementCatalog,
	dial interfaces.IMAPDialer,
	extractor interfaces.LinkExtractor,
	panel interfaces.PanelService,
	seen interfaces.SeenAccountStore,
	journal interfaces.OrderJournal,
	archive interfaces.ArchiveService,
	log logger.Logger,
) *Processor {
	return &Processor{
		imapCfg:   imapCfg,
		catalog:   catalog,
		dial:      dial,
		extractor: extractor,
		panel:     panel,
		seen:      seen,
		journal:   journal,
		archive:   archive,
		log:       log,
	}
}

// RunPass executes one complete pass. It never returns an error: everything
// below configuration severity is absorbed here and summarized in the
// report, so the poll loop survives any pass outcome.
func (p *Processor) RunPass(ctx context.Context) *dto.PassReport {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailboxProcessor.RunPass")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	report := &dto.PassReport{
		PassID:    utils.GetPassIDFromContext(ctx),
		Trigger:   utils.GetTriggerFromContext(ctx),
		StartedAt: utils.Now(),
	}
	if report.PassID == "" {
		report.PassID = utils.NewID("pass")
	}
	start := time.Now()
	defer func() {
		report.Duration = time.Since(start)
		metrics.ObservePassDuration(start)
		if report.Failed() {
			metrics.IncPass("failed")
		} else {
			metrics.IncPass("ok")
		}
	}()

	p.log.Infof("[%s] Starting mailbox pass", report.PassID)

	c, err := p.dial(ctx)
	if err != nil {
		p.failPass(span, report, errors.Wrap(err, "connect failed"))
		return report
	}
	// Release the connection on every exit path. A failed logout is worth
	// a log line, nothing more.
	defer func() {
		if err := c.Logout(); err != nil {
			p.log.Warnf("[%s] IMAP logout failed: %v", report.PassID, err)
		}
	}()

	// Reloaded every pass: the file may have been edited between runs.
	seenAccounts, err := p.seen.Load(ctx)
	if err != nil {
		p.failPass(span, report, errors.Wrap(err, "loading seen accounts failed"))
		return report
	}
	metrics.SeenAccounts.Set(float64(len(seenAccounts)))

	if err := c.Login(p.imapCfg.Username, p.imapCfg.Password); err != nil {
		p.failPass(span, report, errors.Wrap(err, "login failed"))
		return report
	}

	if _, err := c.Select(p.imapCfg.Folder, false); err != nil {
		p.failPass(span, report, errors.Wrapf(err, "selecting folder %s failed", p.imapCfg.Folder))
		return report
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	criteria.Header.Add("From", p.imapCfg.SenderFilter)

	uids, err := c.UidSearch(criteria)
	if err != nil {
		// Nothing was processed, so the loaded seen set is discarded
		// unsaved: no partial mutation survives a failed listing.
		p.failPass(span, report, errors.Wrap(err, "listing unread messages failed"))
		return report
	}

	span.LogFields(tracingLog.Int("unread", len(uids)))
	p.log.Infof("[%s] Found %d unread messages from %s", report.PassID, len(uids), p.imapCfg.SenderFilter)

	dirty := false
	for _, uid := range uids {
		p.processMessage(ctx, c, uid, seenAccounts, &dirty, report)
	}
	report.Messages = len(uids)

	if dirty {
		if err := p.seen.Save(ctx, seenAccounts); err != nil {
			// The in-memory set stays correct for this process; only the
			// next start misses the new usernames.
			tracing.TraceErr(span, err)
			p.log.Errorf("[%s] Failed to persist seen accounts: %v", report.PassID, err)
		} else {
			metrics.SeenAccounts.Set(float64(len(seenAccounts)))
		}
	}

	p.log.Infof("[%s] Pass complete: %d messages, %d boosted, %d without link, %d fetch failures, %d/%d orders ok",
		report.PassID, report.Messages, report.Boosted, report.NoLink, report.FetchFailed, report.OrdersOK, report.Orders)
	return report
}

func (p *Processor) failPass(span opentracing.Span, report *dto.PassReport, err error) {
	tracing.TraceErr(span, err)
	report.Error = err.Error()
	p.log.Errorf("[%s] Pass aborted: %v", report.PassID, err)
}

func (p *Processor) processMessage(ctx context.Context, c interfaces.IMAPConnection, uid uint32, seenAccounts map[string]bool, dirty *bool, report *dto.PassReport) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailboxProcessor.processMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagMessage(span, uid)

	raw, err := p.fetchMessage(c, uid)
	if err != nil {
		// Left unread on purpose: the message stays eligible for the
		// next pass.
		tracing.TraceErr(span, err)
		p.log.Warnf("[%s] Failed to fetch message %d, leaving unread: %v", report.PassID, uid, err)
		report.FetchFailed++
		metrics.IncEmail(enum.EmailFetchFailed.String())
		return
	}

	if p.archive.Enabled() {
		if err := p.archive.StoreMessage(ctx, uid, raw); err != nil {
			p.log.Warnf("[%s] Failed to archive message %d: %v", report.PassID, uid, err)
		}
	}

	htmlContent, err := p.selectContent(raw)
	if err != nil {
		// No renderable content at all; handled the same way as a
		// notification without a boostable link.
		p.log.Warnf("[%s] Message %d has no usable content: %v", report.PassID, uid, err)
	}

	link := ""
	if err == nil {
		link, err = p.extractor.ExtractPostLink(htmlContent)
	}
	if err != nil || link == "" {
		p.log.Infof("[%s] No post link in message %d, marking processed", report.PassID, uid)
		p.markProcessed(c, uid, report)
		report.NoLink++
		metrics.IncEmail(enum.EmailNoLink.String())
		return
	}

	span.SetTag("link", link)
	p.log.Infof("[%s] Message %d links to %s", report.PassID, uid, link)

	username, err := extract.UsernameFromLink(link)
	if err != nil {
		// Engagement orders still go out; only the follower dedup check
		// is skipped because there is no key to dedup on.
		tracing.TraceErr(span, err)
		p.log.Warnf("[%s] Cannot derive username from %s, skipping follower check: %v", report.PassID, link, err)
		username = ""
	}

	if username != "" && p.catalog.FollowersEnabled() && !seenAccounts[username] {
		p.log.Infof("[%s] New account %s, placing follower boost", report.PassID, username)
		p.dispatchOrder(ctx, uid, enum.OrderKindFollowers, "followers", p.catalog.Followers.ServiceID, link, username, p.catalog.Followers.Quantity, report)
		// Recorded as seen whatever the order outcome: one attempt per
		// account, never a replay.
		seenAccounts[username] = true
		*dirty = true
		report.NewAccounts = append(report.NewAccounts, username)
	} else if username != "" && seenAccounts[username] {
		p.log.Infof("[%s] Account %s already boosted, no follower order", report.PassID, username)
	}

	for _, metric := range p.catalog.Enabled() {
		p.dispatchOrder(ctx, uid, enum.OrderKindEngagement, metric.Name, metric.ServiceID, link, username, metric.Quantity, report)
	}

	// Acknowledged regardless of order outcomes: best effort, no replay.
	p.markProcessed(c, uid, report)
	report.Boosted++
	metrics.IncEmail(enum.EmailBoosted.String())
}

func (p *Processor) dispatchOrder(ctx context.Context, uid uint32, kind enum.OrderKind, metric string, serviceID int, link, username string, quantity int, report *dto.PassReport) {
	outcome := p.panel.PlaceOrder(ctx, serviceID, link, quantity)

	report.Orders++
	metrics.IncOrder(metric, outcome.Label())

	attempt := dto.OrderAttempt{
		ID:           utils.NewID("ord"),
		PassID:       report.PassID,
		Time:         utils.Now(),
		MessageUID:   uid,
		Kind:         kind,
		Metric:       metric,
		ServiceID:    serviceID,
		Link:         link,
		Username:     username,
		Quantity:     quantity,
		Outcome:      outcome.Kind,
		PanelOrderID: outcome.PanelOrderID(),
	}

	if outcome.Accepted() {
		report.OrdersOK++
		p.log.Infof("[%s] %s order for message %d: %s", report.PassID, metric, uid, outcome.Describe())
	} else {
		attempt.Detail = outcome.Describe()
		p.log.Errorf("[%s] %s order for message %d (service=%d link=%s quantity=%d): %s",
			report.PassID, metric, uid, serviceID, link, quantity, outcome.Describe())
	}

	if err := p.journal.Record(ctx, attempt); err != nil {
		p.log.Warnf("[%s] Failed to journal order attempt %s: %v", report.PassID, attempt.ID, err)
	}
}

func (p *Processor) fetchMessage(c interfaces.IMAPConnection, uid uint32) ([]byte, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqSet, items, messages)
	}()

	var msg *imap.Message
	for m := range messages {
		if msg == nil {
			msg = m
		}
	}
	if err := <-done; err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, errors.Errorf("message %d not returned by server", uid)
	}

	body := msg.GetBody(section)
	if body == nil {
		return nil, er.ErrEmptyMessage
	}

	return io.ReadAll(body)
}

// selectContent picks the extraction input: the HTML part when the message
// has one, otherwise the plain-text part wrapped as minimal HTML so the
// same code path runs either way.
func (p *Processor) selectContent(raw []byte) (string, error) {
	envelope, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return "", errors.Wrap(err, "failed to parse message")
	}

	if envelope.HTML != "" {
		return envelope.HTML, nil
	}
	if envelope.Text != "" {
		return extract.WrapPlainText(envelope.Text), nil
	}
	return "", er.ErrEmptyMessage
}

func (p *Processor) markProcessed(c interfaces.IMAPConnection, uid uint32, report *dto.PassReport) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}

	if err := c.UidStore(seqSet, item, flags, nil); err != nil {
		p.log.Warnf("[%s] Failed to mark message %d as read: %v", report.PassID, uid, err)
	}
}
