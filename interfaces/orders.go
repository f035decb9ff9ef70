package interfaces

import (
	"context"

	"github.com/mailboost/mailboost/dto"
)

type PanelService interface {
	// PlaceOrder dispatches one boost order. It never returns an error:
	// every failure mode is folded into the outcome so the pipeline keeps
	// moving regardless of what the panel does.
	PlaceOrder(ctx context.Context, serviceID int, link string, quantity int) dto.OrderOutcome
	Balance(ctx context.Context) (*dto.PanelBalance, error)
	OrderStatus(ctx context.Context, panelOrderID int64) (*dto.PanelOrderStatus, error)
}
