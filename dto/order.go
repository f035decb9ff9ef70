package dto

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mailboost/mailboost/internal/enum"
)

// OrderOutcome is the tagged result of one panel call. Exactly one kind
// applies; callers switch on Kind instead of handling an error value, so
// every case has to be dealt with explicitly.
type OrderOutcome struct {
	Kind enum.OrderOutcome `json:"kind"`
	// Payload holds the decoded panel response when Kind is placed.
	Payload map[string]interface{} `json:"payload,omitempty"`
	// Raw holds the response body when Kind is unparsed.
	Raw string `json:"raw,omitempty"`
	// Reason describes the transport failure when Kind is failed.
	Reason string `json:"reason,omitempty"`
}

// PanelOrderID digs the order id out of a placed payload, zero when absent.
func (o OrderOutcome) PanelOrderID() int64 {
	if o.Kind != enum.OrderPlaced {
		return 0
	}
	switch id := o.Payload["order"].(type) {
	case float64:
		return int64(id)
	case string:
		parsed, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

// PanelError returns the error message the panel reported inside an
// otherwise well-formed payload, empty when there is none.
func (o OrderOutcome) PanelError() string {
	if o.Kind != enum.OrderPlaced {
		return ""
	}
	if msg, ok := o.Payload["error"].(string); ok {
		return msg
	}
	return ""
}

// Accepted reports whether the panel acknowledged the order with an id.
func (o OrderOutcome) Accepted() bool {
	return o.PanelOrderID() > 0
}

// Label flattens the outcome into a low-cardinality metrics label.
func (o OrderOutcome) Label() string {
	switch o.Kind {
	case enum.OrderPlaced:
		if o.Accepted() {
			return "placed"
		}
		return "rejected"
	case enum.OrderUnparsed:
		return "unparsed"
	default:
		return "failed"
	}
}

// Describe renders the outcome for log lines.
func (o OrderOutcome) Describe() string {
	switch o.Kind {
	case enum.OrderPlaced:
		if id := o.PanelOrderID(); id > 0 {
			return fmt.Sprintf("order %d accepted", id)
		}
		if msg := o.PanelError(); msg != "" {
			return fmt.Sprintf("panel rejected order: %s", msg)
		}
		return "panel answered without an order id"
	case enum.OrderUnparsed:
		return fmt.Sprintf("unparsable panel response: %q", o.Raw)
	default:
		return fmt.Sprintf("request failed: %s", o.Reason)
	}
}

// OrderAttempt is one journal line: a single order dispatched against the
// panel, with enough context to reconcile it by hand later.
type OrderAttempt struct {
	ID           string            `json:"id"`
	PassID       string            `json:"pass_id"`
	Time         time.Time         `json:"time"`
	MessageUID   uint32            `json:"message_uid"`
	Kind         enum.OrderKind    `json:"kind"`
	Metric       string            `json:"metric"`
	ServiceID    int               `json:"service"`
	Link         string            `json:"link"`
	Username     string            `json:"username,omitempty"`
	Quantity     int               `json:"quantity"`
	Outcome      enum.OrderOutcome `json:"outcome"`
	PanelOrderID int64             `json:"panel_order_id,omitempty"`
	Detail       string            `json:"detail,omitempty"`
}

// PanelBalance is the panel's answer to a balance query.
type PanelBalance struct {
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// PanelOrderStatus is the panel's answer to an order status query.
type PanelOrderStatus struct {
	Charge     string `json:"charge"`
	StartCount string `json:"start_count"`
	Status     string `json:"status"`
	Remains    string `json:"remains"`
	Currency   string `json:"currency"`
	Error      string `json:"error"`
}
