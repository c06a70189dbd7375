// Package domain contains core concepts of the chat client.
// Types here are plain values owned by the session; no network or
// rendering logic should be added.
package domain

import (
	"kaychat/errors"
	"strings"
)

// Identity is the display name chosen in the login flow.
// It is fixed before the session starts and never mutated afterwards.
type Identity struct {
	DisplayName string
}

func NewIdentity(displayName string) (Identity, error) {
	if strings.TrimSpace(displayName) == "" {
		return Identity{}, errors.ErrEmptyDisplayName
	}
	return Identity{DisplayName: displayName}, nil
}

func (i Identity) String() string {
	return i.DisplayName
}
