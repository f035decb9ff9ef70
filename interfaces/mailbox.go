package interfaces

import (
	"context"

	"github.com/mailboost/mailboost/dto"
)

// MailboxProcessor runs one complete polling pass:
// connect, list, process every matching message, persist, disconnect.
type MailboxProcessor interface {
	RunPass(ctx context.Context) *dto.PassReport
}
