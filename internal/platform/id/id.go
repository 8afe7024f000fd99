// Package id generates unique identifiers for stored records.
package id

import (
	"crypto/rand"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// NewID returns a lexicographically sortable unique identifier (ULID).
func NewID() (string, error) {
	generated, err := ulid.New(ulid.Now(), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return generated.String(), nil
}
