// Package handid names hands with sortable, URL-safe identifiers: a UUIDv7
// written as 26 characters of lower-case Crockford base32.
package handid

import (
	"encoding/base32"
	"fmt"
	"io"

	"github.com/google/uuid"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

var encoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// New returns a fresh id. Ids created later sort after earlier ones.
func New() string {
	return encode(uuid.Must(uuid.NewV7()))
}

// FromReader draws the random part of the id from r, for reproducible ids in
// simulations and tests.
func FromReader(r io.Reader) (string, error) {
	id, err := uuid.NewV7FromReader(r)
	if err != nil {
		return "", fmt.Errorf("hand id: %w", err)
	}
	return encode(id), nil
}

func encode(id uuid.UUID) string {
	return encoding.EncodeToString(id[:])
}

// Parse decodes an id back into its UUID.
func Parse(s string) (uuid.UUID, error) {
	if len(s) != 26 {
		return uuid.Nil, fmt.Errorf("hand id must be 26 characters, got %d", len(s))
	}
	raw, err := encoding.DecodeString(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hand id %q: %w", s, err)
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return uuid.Nil, err
	}
	if id.Version() != 7 {
		return uuid.Nil, fmt.Errorf("hand id %q is not a version 7 uuid", s)
	}
	return id, nil
}
