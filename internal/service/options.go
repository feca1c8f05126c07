package service

import (
	"context"
	"time"
)

// Notifier pushes a best-effort live event to a user's open sockets.
type Notifier interface {
	NotifyUser(email, event string, data interface{})
}

// Options carries the knobs shared by the ledger services.
type Options struct {
	// Timeout bounds one logical operation, store round-trips included. Zero disables it.
	Timeout time.Duration
	// Location is used for payment_id stamps and month buckets. Defaults to UTC.
	Location *time.Location
	Notifier Notifier
	Now      func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func (o Options) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.Timeout)
}

func (o Options) now() time.Time {
	return o.Now().In(o.Location)
}

func (o Options) notify(email, event string, data interface{}) {
	if o.Notifier == nil || email == "" {
		return
	}
	o.Notifier.NotifyUser(email, event, data)
}
