package irc

import (
	"time"

	"golang.org/x/time/rate"
)

// Notifier shows a desktop notification, for example when a direct message is
// received.
type Notifier interface {
	Notify(title, body string)
}

// notifyLimiter drops notifications beyond a short burst, so that a flood of
// direct messages does not flood the desktop.
type notifyLimiter struct {
	n     Notifier
	limit *rate.Limiter
}

func newNotifyLimiter(n Notifier) *notifyLimiter {
	return &notifyLimiter{
		n:     n,
		limit: rate.NewLimiter(rate.Every(2*time.Second), 3),
	}
}

func (nl *notifyLimiter) Notify(title, body string) {
	if nl.n == nil || !nl.limit.Allow() {
		return
	}
	nl.n.Notify(title, body)
}
