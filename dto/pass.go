package dto

import "time"

// PassReport summarizes one polling pass for the status endpoint and logs.
type PassReport struct {
	PassID      string        `json:"pass_id"`
	Trigger     string        `json:"trigger"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Messages    int           `json:"messages"`
	Boosted     int           `json:"boosted"`
	NoLink      int           `json:"no_link"`
	FetchFailed int           `json:"fetch_failed"`
	Orders      int           `json:"orders"`
	OrdersOK    int           `json:"orders_ok"`
	NewAccounts []string      `json:"new_accounts,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Failed reports whether the pass aborted before processing its messages.
func (r *PassReport) Failed() bool {
	return r.Error != ""
}

// PollerStatus is the ops-API view of the poll loop.
type PollerStatus struct {
	Running      bool        `json:"running"`
	Interval     string      `json:"interval"`
	Passes       int64       `json:"passes"`
	FailedPasses int64       `json:"failed_passes"`
	SeenAccounts int         `json:"seen_accounts"`
	LastPass     *PassReport `json:"last_pass,omitempty"`
	NextPassDue  *time.Time  `json:"next_pass_due,omitempty"`
}
