package utils

import (
	"context"
)

// PassContext carries identifiers for the polling pass currently being
// executed, so spans and log lines can be correlated across components.
type PassContext struct {
	PassID  string
	Trigger string
}

var passContextKey = "PASS_CONTEXT"

func WithPassContext(ctx context.Context, passContext *PassContext) context.Context {
	return context.WithValue(ctx, passContextKey, passContext)
}

func GetPassContext(ctx context.Context) *PassContext {
	passContext, ok := ctx.Value(passContextKey).(*PassContext)
	if !ok {
		return new(PassContext)
	}
	return passContext
}

func GetPassIDFromContext(ctx context.Context) string {
	return GetPassContext(ctx).PassID
}

func GetTriggerFromContext(ctx context.Context) string {
	return GetPassContext(ctx).Trigger
}
