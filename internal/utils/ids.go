package utils

import (
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewID generates a short prefixed identifier, e.g. "pass_k3j9x0c2q7nm".
func NewID(prefix string) string {
	id, err := gonanoid.Generate(idAlphabet, 12)
	if err != nil {
		panic(err)
	}
	return prefix + "_" + id
}

// Now returns the current UTC time, truncated to microseconds so values
// survive a round-trip through JSON untouched.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
