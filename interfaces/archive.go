package interfaces

import "context"

// ArchiveService stores raw copies of processed messages in object storage.
type ArchiveService interface {
	StoreMessage(ctx context.Context, uid uint32, raw []byte) error
	Enabled() bool
}
