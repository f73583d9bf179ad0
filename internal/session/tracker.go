// Package session tracks the single in-flight pipeline job the console
// is following on the event channel.
package session

import (
	"postdesk/internal/backend"
	"postdesk/internal/progress"
)

// Kind classifies the tracked session.
type Kind int

const (
	KindNone Kind = iota
	KindScraping
	KindGeneration
)

func (k Kind) String() string {
	switch k {
	case KindScraping:
		return "scraping"
	case KindGeneration:
		return "generation"
	default:
		return "none"
	}
}

// Tracker holds the last known state of the active session. At most one
// session is tracked at a time; a new start silently supersedes the
// previous one. Fields are only mutated through the handlers below.
type Tracker struct {
	Connected bool
	SessionID string
	Kind      Kind
	Progress  *progress.Progress
	Err       string
}

// SetConnected records channel connectivity. Nothing else is touched:
// an in-flight session survives a reconnect, the backend re-delivers
// the terminal event once the join is re-sent.
func (t *Tracker) SetConnected(ok bool) {
	t.Connected = ok
}

// Start begins tracking a session, superseding whatever was tracked
// before. Stale progress and errors are dropped.
func (t *Tracker) Start(kind Kind, ev backend.SessionStarted) {
	t.SessionID = ev.SessionID
	t.Kind = kind
	t.Err = ""

	var msg string
	switch kind {
	case KindScraping:
		msg = progress.ScrapingStartedMessage(ev.Domain)
	default:
		msg = progress.GenerationStartedMessage(ev.Domain)
	}
	t.Progress = &progress.Progress{
		Type:       kind.String() + "_started",
		Message:    msg,
		Percentage: 0,
	}
}

// Update interprets one progress event and replaces the tracked
// progress. Events correlated to a different session are dropped; an
// event without a session id is accepted, as is any event while no
// session is tracked yet (progress can outrun the REST response that
// names the session).
func (t *Tracker) Update(kind Kind, ev backend.ProgressEvent) bool {
	if !t.accepts(ev.SessionID) {
		return false
	}

	var msg string
	var pct float64
	switch kind {
	case KindScraping:
		msg, pct = progress.InterpretScraping(ev)
	default:
		msg, pct = progress.InterpretGeneration(ev)
	}
	t.Progress = &progress.Progress{
		Type:       kind.String() + "_progress",
		Message:    msg,
		Percentage: pct,
		Details:    ev,
	}
	return true
}

// Complete ends the tracked session. The terminal progress is kept so
// the UI can show the completion message after Kind resets to none.
// Returns the number of posts produced (meaningful for generation).
func (t *Tracker) Complete(kind Kind, ev backend.SessionCompleted) (int, bool) {
	if !t.accepts(ev.SessionID) {
		return 0, false
	}

	count := ev.Results.PostCount()
	var msg string
	switch kind {
	case KindScraping:
		msg = progress.ScrapingCompletedMessage()
	default:
		msg = progress.GenerationCompletedMessage(count)
	}
	t.Progress = &progress.Progress{
		Type:       kind.String() + "_completed",
		Message:    msg,
		Percentage: 100,
	}
	t.SessionID = ""
	t.Kind = KindNone
	return count, true
}

// Fail records a backend-reported job error and ends the session so the
// console does not appear stuck.
func (t *Tracker) Fail(ev backend.ChannelError) bool {
	if !t.accepts(ev.SessionID) {
		return false
	}
	t.Err = ev.Error.Message
	t.Progress = nil
	t.SessionID = ""
	t.Kind = KindNone
	return true
}

// ClearError resets the last error, typically after the operator has
// seen the notification.
func (t *Tracker) ClearError() {
	t.Err = ""
}

// ClearProgress drops the retained progress, typically after a terminal
// message has been displayed.
func (t *Tracker) ClearProgress() {
	t.Progress = nil
}

// Active reports whether a session is currently tracked.
func (t *Tracker) Active() bool {
	return t.Kind != KindNone
}

func (t *Tracker) accepts(sessionID string) bool {
	if sessionID == "" || t.SessionID == "" {
		return true
	}
	return sessionID == t.SessionID
}
