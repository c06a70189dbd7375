package ui

import (
	"fmt"
	"io"
	"kaychat/domain"
	"slices"
	"strings"

	"github.com/gookit/color"
	"github.com/samber/lo"
)

// Terminal prints snapshots incrementally: presence when it changes,
// then only the messages not printed yet.
type Terminal struct {
	out      io.Writer
	censor   Censor
	colours  bool
	printed  int
	presence []string
	state    domain.State
}

func NewTerminal(out io.Writer, censor Censor, colours bool) *Terminal {
	return &Terminal{out: out, censor: censor, colours: colours, state: -1}
}

// Render prints the whole view, resetting what was printed so far.
func (t *Terminal) Render(snapshot domain.Snapshot) {
	t.printed = 0
	t.state = -1
	t.update(snapshot, true)
	if len(snapshot.Messages) == 0 {
		t.println(t.paint(color.FgGray, EmptyThread))
	}
}

// Update prints what changed since the previous call.
func (t *Terminal) Update(snapshot domain.Snapshot) {
	t.update(snapshot, false)
}

func (t *Terminal) update(snapshot domain.Snapshot, full bool) {
	if snapshot.State != t.state {
		t.state = snapshot.State
		t.println(t.paint(color.FgCyan, fmt.Sprintf("-- %s as %s --", snapshot.State, snapshot.Identity.DisplayName)))
	}

	names := lo.Map(snapshot.Presence, func(p domain.PresenceEntry, _ int) string { return p.DisplayName })
	if full || !slices.Equal(names, t.presence) {
		t.presence = names
		t.printPresence(snapshot.Presence)
	}

	if t.printed > len(snapshot.Messages) {
		t.printed = 0
	}
	thread := Thread(snapshot, t.censor)
	for _, m := range thread[t.printed:] {
		t.printMessage(m)
	}
	t.printed = len(thread)
}

func (t *Terminal) printPresence(presence []domain.PresenceEntry) {
	t.println(t.paint(color.FgGreen, fmt.Sprintf("👥 Active Users (%d)", len(presence))))
	for _, p := range presence {
		t.println(fmt.Sprintf("  %s  %s  %s", t.paint(color.OpBold, p.DisplayName), t.paint(color.FgGray, "Online"), p.AvatarRef))
	}
}

func (t *Terminal) printMessage(m MessageView) {
	sender := t.paint(color.FgYellow, m.Sender)
	if !m.Online {
		sender = t.paint(color.FgGray, m.Sender+" (offline)")
	}
	body := m.Body
	if m.GIF {
		body = "[gif] " + body
	}
	t.println(fmt.Sprintf("%s: %s", sender, strings.TrimRight(body, "\n")))
}

func (t *Terminal) paint(c color.Color, text string) string {
	if !t.colours {
		return text
	}
	return c.Render(text)
}

func (t *Terminal) println(line string) {
	_, _ = fmt.Fprintln(t.out, line)
}
