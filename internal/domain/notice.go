package domain

import "time"

// NoticeKind classifies a transient page message.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)

// Notice is a transient message shown on a page until ExpiresAt.
type Notice struct {
	Kind      NoticeKind
	Text      string
	ExpiresAt time.Time
}

// NewNotice builds a notice visible for window starting at now.
func NewNotice(kind NoticeKind, text string, now time.Time, window time.Duration) Notice {
	return Notice{Kind: kind, Text: text, ExpiresAt: now.Add(window)}
}

// Visible reports whether the notice should still be displayed at now.
func (n Notice) Visible(now time.Time) bool {
	return n.Text != "" && now.Before(n.ExpiresAt)
}
