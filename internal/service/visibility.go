package service

import (
	"time"

	"github.com/vibely-app/vibely/internal/model"
)

// Window is the (after, until] interval of message timestamps a participant
// may see. After is exclusive, Until inclusive; a nil Until means unbounded.
//
// Every listing, unread count and stats query goes through a Window so that
// a member who cleared their history never resurrects older content, and a
// kicked or departed member keeps the history up to their departure but
// observes nothing after it.
type Window struct {
	After time.Time
	Until *time.Time
}

// VisibleWindow computes the visibility window for a participant
func VisibleWindow(p *model.Participant) Window {
	w := Window{}
	if p.ClearedHistoryAt != nil {
		w.After = *p.ClearedHistoryAt
	}
	if p.Status != model.StatusActive && p.KickedAt != nil {
		w.Until = p.KickedAt
	}
	return w
}

// Contains reports whether a message created at t falls inside the window
func (w Window) Contains(t time.Time) bool {
	if !t.After(w.After) {
		return false
	}
	if w.Until != nil && t.After(*w.Until) {
		return false
	}
	return true
}

// Unbounded reports whether the window has no upper bound
func (w Window) Unbounded() bool {
	return w.Until == nil
}
