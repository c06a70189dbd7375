package domain

import (
	"fmt"
	"net/url"

	"github.com/samber/lo"
)

const avatarURLPattern = "https://avatars.dicebear.com/api/adventurer-neutral/%s.svg"

// PlaceholderAvatar is used for a message sender missing from the presence set.
const PlaceholderAvatar = "https://avatars.dicebear.com/api/adventurer-neutral/unknown.svg"

// PresenceEntry is one connected user as last reported by the server.
type PresenceEntry struct {
	DisplayName string
	AvatarRef   string
}

// AvatarFor derives the avatar reference from the display name alone.
func AvatarFor(displayName string) string {
	return fmt.Sprintf(avatarURLPattern, url.PathEscape(displayName))
}

func NewPresenceEntry(displayName string) PresenceEntry {
	return PresenceEntry{DisplayName: displayName, AvatarRef: AvatarFor(displayName)}
}

// PresenceFromNames builds a full presence set, preserving the server order.
func PresenceFromNames(names []string) []PresenceEntry {
	return lo.Map(names, func(name string, _ int) PresenceEntry {
		return NewPresenceEntry(name)
	})
}

// LookupAvatar returns the avatar of displayName when present,
// or PlaceholderAvatar with ok=false.
func LookupAvatar(presence []PresenceEntry, displayName string) (string, bool) {
	entry, ok := lo.Find(presence, func(p PresenceEntry) bool {
		return p.DisplayName == displayName
	})
	if !ok {
		return PlaceholderAvatar, false
	}
	return entry.AvatarRef, true
}
