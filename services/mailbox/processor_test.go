package mailbox

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailboost/mailboost/config"
	"github.com/mailboost/mailboost/interfaces"
	"github.com/mailboost/mailboost/internal/logger"
	"github.com/mailboost/mailboost/services/archive"
	"github.com/mailboost/mailboost/services/extract"
	"github.com/mailboost/mailboost/services/journal"
	"github.com/mailboost/mailboost/services/orders"
	"github.com/mailboost/mailboost/services/seenaccounts"
)

// fakeIMAP stands in for the real server: a fixed set of unread messages,
// scriptable failures, and a record of what got flagged.
type fakeIMAP struct {
	loginErr  error
	selectErr error
	searchErr error
	fetchErr  map[uint32]error

	uids      []uint32
	raw       map[uint32]string
	seen      map[uint32]bool
	loggedIn  bool
	loggedOut bool
}

func newFakeIMAP() *fakeIMAP {
	return &fakeIMAP{
		fetchErr: make(map[uint32]error),
		raw:      make(map[uint32]string),
		seen:     make(map[uint32]bool),
	}
}

func (f *fakeIMAP) addMessage(uid uint32, raw string) {
	f.uids = append(f.uids, uid)
	f.raw[uid] = raw
}

func (f *fakeIMAP) Login(username, password string) error {
	if f.loginErr != nil {
		return f.loginErr
	}
	f.loggedIn = true
	return nil
}

func (f *fakeIMAP) Select(name string, readOnly bool) (*imap.MailboxStatus, error) {
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	return &imap.MailboxStatus{Name: name}, nil
}

func (f *fakeIMAP) UidSearch(criteria *imap.SearchCriteria) ([]uint32, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.uids, nil
}

func (f *fakeIMAP) UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error {
	defer close(ch)
	for _, uid := range f.uids {
		if !seqset.Contains(uid) {
			continue
		}
		if err := f.fetchErr[uid]; err != nil {
			return err
		}
		section, err := imap.ParseBodySectionName(imap.FetchItem("BODY[]"))
		if err != nil {
			return err
		}
		ch <- &imap.Message{
			Uid: uid,
			Body: map[*imap.BodySectionName]imap.Literal{
				section: bytes.NewBufferString(f.raw[uid]),
			},
		}
	}
	return nil
}

func (f *fakeIMAP) UidStore(seqset *imap.SeqSet, item imap.StoreItem, value interface{}, ch chan *imap.Message) error {
	if ch != nil {
		close(ch)
	}
	for _, uid := range f.uids {
		if seqset.Contains(uid) {
			f.seen[uid] = true
		}
	}
	return nil
}

func (f *fakeIMAP) Logout() error {
	f.loggedOut = true
	return nil
}

// panelRecorder is an httptest panel that remembers every order it accepted.
type panelRecorder struct {
	mu     sync.Mutex
	orders []map[string]string
	server *httptest.Server
}

func newPanelRecorder(t *testing.T) *panelRecorder {
	rec := &panelRecorder{}
	rec.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		rec.mu.Lock()
		rec.orders = append(rec.orders, map[string]string{
			"action":   r.PostFormValue("action"),
			"service":  r.PostFormValue("service"),
			"link":     r.PostFormValue("link"),
			"quantity": r.PostFormValue("quantity"),
		})
		rec.mu.Unlock()
		w.Write([]byte(`{"order": 1000}`))
	}))
	t.Cleanup(rec.server.Close)
	return rec
}

func (r *panelRecorder) services() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.orders))
	for _, o := range r.orders {
		ids = append(ids, o["service"])
	}
	return ids
}

func (r *panelRecorder) links() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	links := make(map[string]bool)
	for _, o := range r.orders {
		links[o["link"]] = true
	}
	return links
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

type testHarness struct {
	processor *Processor
	imap      *fakeIMAP
	panel     *panelRecorder
	seenPath  string
	store     interfaces.SeenAccountStore
}

func newHarness(t *testing.T, catalog *config.EngagementCatalog) *testHarness {
	fake := newFakeIMAP()
	panel := newPanelRecorder(t)
	seenPath := filepath.Join(t.TempDir(), "seen_accounts.txt")
	store := seenaccounts.NewFileStore(seenPath)
	log := getLogger()

	panelService := orders.NewPanelService(&config.PanelConfig{
		URL:        panel.server.URL,
		APIKey:     "test-key",
		Timeout:    5 * time.Second,
		OrderDelay: time.Millisecond,
	}, log)

	processor := NewProcessor(
		&config.IMAPConfig{
			Host:         "imap.example.com",
			Port:         993,
			Username:     "user",
			Password:     "pass",
			Folder:       "INBOX",
			SenderFilter: "subscriptions@feedrabbit.com",
		},
		catalog,
		func(ctx context.Context) (interfaces.IMAPConnection, error) { return fake, nil },
		extract.NewExtractorService("mirror.example"),
		panelService,
		store,
		journal.NewFileJournal(""),
		archive.NewEmailArchiveService(&config.ArchiveConfig{}),
		log,
	)

	return &testHarness{processor: processor, imap: fake, panel: panel, seenPath: seenPath, store: store}
}

func htmlEmail(body string) string {
	return "From: Feedrabbit <subscriptions@feedrabbit.com>\r\n" +
		"To: me@example.com\r\n" +
		"Subject: New post from Alice\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		body
}

func plainEmail(body string) string {
	return "From: Feedrabbit <subscriptions@feedrabbit.com>\r\n" +
		"To: me@example.com\r\n" +
		"Subject: New post\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		body
}

// Scenario: a fresh account in one unread notification gets the follower
// boost plus every engagement order, and lands in the persisted set.
func TestRunPass_NewAccount(t *testing.T) {
	h := newHarness(t, config.DefaultCatalog())
	h.imap.addMessage(7, htmlEmail(`<a href="https://rss.mirror.example/alice/status/42#m">view</a>`))

	report := h.processor.RunPass(context.Background())

	require.False(t, report.Failed())
	assert.Equal(t, 1, report.Messages)
	assert.Equal(t, 1, report.Boosted)
	assert.Equal(t, []string{"alice"}, report.NewAccounts)

	// follower boost + five engagement metrics
	services := h.panel.services()
	assert.Len(t, services, 6)
	assert.Contains(t, services, "9011")
	assert.Contains(t, services, "9326")
	assert.Contains(t, services, "5062")
	assert.Contains(t, services, "98")
	assert.Contains(t, services, "1017")
	assert.Contains(t, services, "1375")
	assert.Equal(t, map[string]bool{"https://x.com/alice/status/42": true}, h.panel.links())

	assert.True(t, h.imap.loggedIn)
	assert.True(t, h.imap.seen[7], "message should be acknowledged")
	assert.True(t, h.imap.loggedOut, "connection should be released")

	persisted, err := h.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"alice": true}, persisted)
}

// Scenario: an account already in the seen set gets engagement orders only,
// and nothing is rewritten on disk.
func TestRunPass_KnownAccount(t *testing.T) {
	h := newHarness(t, config.DefaultCatalog())
	require.NoError(t, h.store.Save(context.Background(), map[string]bool{"alice": true}))
	h.imap.addMessage(7, htmlEmail(`<a href="https://rss.mirror.example/alice/status/42#m">view</a>`))

	report := h.processor.RunPass(context.Background())

	require.False(t, report.Failed())
	assert.Empty(t, report.NewAccounts)
	services := h.panel.services()
	assert.Len(t, services, 5)
	assert.NotContains(t, services, "9011")
	assert.True(t, h.imap.seen[7])
}

// Scenario: a notification without any boostable link is acknowledged with
// zero orders and no persistence write.
func TestRunPass_NoLink(t *testing.T) {
	h := newHarness(t, config.DefaultCatalog())
	h.imap.addMessage(7, htmlEmail(`<a href="https://example.com/digest">your daily digest</a>`))

	report := h.processor.RunPass(context.Background())

	require.False(t, report.Failed())
	assert.Equal(t, 1, report.NoLink)
	assert.Zero(t, report.Orders)
	assert.Empty(t, h.panel.services())
	assert.True(t, h.imap.seen[7], "linkless message is still processed")

	persisted, err := h.store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, persisted, "no write without new accounts")
}

// Scenario: authentication failure aborts the pass without touching any
// message or placing any order; the caller keeps looping.
func TestRunPass_LoginFailure(t *testing.T) {
	h := newHarness(t, config.DefaultCatalog())
	h.imap.loginErr = assert.AnError
	h.imap.addMessage(7, htmlEmail(`<a href="https://rss.mirror.example/alice/status/42#m">view</a>`))

	report := h.processor.RunPass(context.Background())

	assert.True(t, report.Failed())
	assert.Empty(t, h.panel.services())
	assert.False(t, h.imap.seen[7])
	assert.True(t, h.imap.loggedOut, "connection released even on a failed pass")
}

// Scenario: a metric with quantity zero is skipped, the rest are unaffected.
func TestRunPass_DisabledMetric(t *testing.T) {
	catalog := config.DefaultCatalog()
	catalog.Metrics[0].Quantity = 0 // likes off
	h := newHarness(t, catalog)
	require.NoError(t, h.store.Save(context.Background(), map[string]bool{"alice": true}))
	h.imap.addMessage(7, htmlEmail(`<a href="https://rss.mirror.example/alice/status/42#m">view</a>`))

	report := h.processor.RunPass(context.Background())

	require.False(t, report.Failed())
	services := h.panel.services()
	assert.Len(t, services, 4)
	assert.NotContains(t, services, "9326")
}

func TestRunPass_FollowerDedupWithinOnePass(t *testing.T) {
	h := newHarness(t, config.DefaultCatalog())
	h.imap.addMessage(7, htmlEmail(`<a href="https://rss.mirror.example/alice/status/42#m">view</a>`))
	h.imap.addMessage(8, htmlEmail(`<a href="https://rss.mirror.example/alice/status/43#m">view</a>`))

	report := h.processor.RunPass(context.Background())

	require.False(t, report.Failed())
	assert.Equal(t, []string{"alice"}, report.NewAccounts)

	followerOrders := 0
	for _, id := range h.panel.services() {
		if id == "9011" {
			followerOrders++
		}
	}
	assert.Equal(t, 1, followerOrders, "one follower boost even when the author repeats")
}

func TestRunPass_FetchFailureLeavesMessageUnread(t *testing.T) {
	h := newHarness(t, config.DefaultCatalog())
	h.imap.addMessage(7, htmlEmail(`<a href="https://rss.mirror.example/alice/status/42#m">view</a>`))
	h.imap.addMessage(8, htmlEmail(`<a href="https://rss.mirror.example/bob/status/50#m">view</a>`))
	h.imap.fetchErr[7] = assert.AnError

	report := h.processor.RunPass(context.Background())

	require.False(t, report.Failed())
	assert.Equal(t, 1, report.FetchFailed)
	assert.False(t, h.imap.seen[7], "failed fetch stays eligible for the next pass")
	assert.True(t, h.imap.seen[8], "other messages still processed")
	assert.Equal(t, []string{"bob"}, report.NewAccounts)
}

func TestRunPass_PlainTextFallback(t *testing.T) {
	h := newHarness(t, config.DefaultCatalog())
	h.imap.addMessage(7, plainEmail(`New post: <a href="https://mirror.example/alice/status/42">link</a>`))

	report := h.processor.RunPass(context.Background())

	require.False(t, report.Failed())
	assert.Equal(t, 1, report.Boosted)
	assert.Equal(t, map[string]bool{"https://x.com/alice/status/42": true}, h.panel.links())
}

// Order failures never block acknowledgment: the panel being down means
// lost orders, not replayed emails.
func TestRunPass_PanelDownStillAcknowledges(t *testing.T) {
	h := newHarness(t, config.DefaultCatalog())
	h.panel.server.Close()
	h.imap.addMessage(7, htmlEmail(`<a href="https://rss.mirror.example/alice/status/42#m">view</a>`))

	report := h.processor.RunPass(context.Background())

	require.False(t, report.Failed())
	assert.Equal(t, 6, report.Orders)
	assert.Zero(t, report.OrdersOK)
	assert.True(t, h.imap.seen[7])

	// The follower attempt still counts as spent.
	persisted, err := h.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"alice": true}, persisted)
}
