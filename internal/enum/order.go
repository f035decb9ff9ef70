package enum

type OrderOutcome string

const (
	// OrderPlaced means the panel returned a structured payload.
	OrderPlaced OrderOutcome = "placed"
	// OrderUnparsed means the panel answered with a body that is not valid JSON.
	OrderUnparsed OrderOutcome = "unparsed"
	// OrderFailed means the request never produced a response.
	OrderFailed OrderOutcome = "failed"
)

func (t OrderOutcome) String() string {
	return string(t)
}

type OrderKind string

const (
	OrderKindEngagement OrderKind = "engagement"
	OrderKindFollowers  OrderKind = "followers"
)

func (t OrderKind) String() string {
	return string(t)
}
