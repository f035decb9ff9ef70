package interfaces

import "context"

// SeenAccountStore persists the usernames that already received their
// one-time follower boost. Load on a store that was never written returns
// an empty set, not an error.
type SeenAccountStore interface {
	Load(ctx context.Context) (map[string]bool, error)
	Save(ctx context.Context, accounts map[string]bool) error
}
