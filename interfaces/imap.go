package interfaces

import (
	"context"

	"github.com/emersion/go-imap"
)

// IMAPConnection is the subset of the go-imap client used by one polling
// pass. *client.Client satisfies it directly; tests substitute a fake.
type IMAPConnection interface {
	Login(username, password string) error
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	UidStore(seqset *imap.SeqSet, item imap.StoreItem, value interface{}, ch chan *imap.Message) error
	Logout() error
}

// IMAPDialer opens a fresh connection for a pass. Connections are scoped to
// a single pass and never reused.
type IMAPDialer func(ctx context.Context) (IMAPConnection, error)
