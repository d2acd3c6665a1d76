package domain

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// NewID returns a new ULID string. IDs are stable once assigned; codes, not
// ids, are the human-facing handles.
func NewID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// IsValidID reports whether s parses as a ULID.
func IsValidID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
