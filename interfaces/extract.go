package interfaces

// LinkExtractor finds the boostable post link inside a notification email.
type LinkExtractor interface {
	// ExtractPostLink scans the HTML for the first anchor matching a known
	// URL shape and returns the canonical x.com form. Returns
	// errors.ErrNoFeedLink when nothing matches; that is a normal outcome,
	// not a processing failure.
	ExtractPostLink(html string) (string, error)
}
