package interfaces

import (
	"context"

	"github.com/mailboost/mailboost/dto"
)

// OrderJournal keeps an append-only record of every order attempt so failed
// orders can be reconciled by hand later.
type OrderJournal interface {
	Record(ctx context.Context, attempt dto.OrderAttempt) error
}
