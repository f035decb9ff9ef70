package enum

type EmailOutcome string

const (
	// EmailBoosted means a post link was extracted and orders were dispatched.
	EmailBoosted EmailOutcome = "boosted"
	// EmailNoLink means no boostable link was found; the message is still acknowledged.
	EmailNoLink EmailOutcome = "no_link"
	// EmailFetchFailed means the message body could not be retrieved; it stays unread.
	EmailFetchFailed EmailOutcome = "fetch_failed"
)

func (t EmailOutcome) String() string {
	return string(t)
}

type EmailSecurity string

const (
	EmailSecurityNone EmailSecurity = "none"
	EmailSecurityTLS  EmailSecurity = "tls"
)

func (t EmailSecurity) String() string {
	return string(t)
}
