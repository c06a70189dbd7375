// Package ui renders session snapshots for a line-oriented terminal.
// It observes state only and never talks to the session.
package ui

import (
	"kaychat/domain"

	"github.com/samber/lo"
)

const EmptyThread = "No messages yet – be the first to say 👋!"

// Censor masks message bodies before display.
type Censor interface {
	Censor(text string) (string, []string)
}

// MessageView is a message ready for display. Online is false when the
// sender is missing from the current presence set; Avatar then holds
// domain.PlaceholderAvatar.
type MessageView struct {
	Sender string
	Body   string
	Avatar string
	Online bool
	GIF    bool
}

// Thread resolves the avatar of every message against the presence set.
func Thread(snapshot domain.Snapshot, censor Censor) []MessageView {
	return lo.Map(snapshot.Messages, func(m domain.MessageRecord, _ int) MessageView {
		avatar, online := domain.LookupAvatar(snapshot.Presence, m.Sender)
		body := m.Body
		if censor != nil && !m.IsGIF() {
			body, _ = censor.Censor(body)
		}
		return MessageView{
			Sender: m.Sender,
			Body:   body,
			Avatar: avatar,
			Online: online,
			GIF:    m.IsGIF(),
		}
	})
}
