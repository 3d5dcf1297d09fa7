// Package notify tells customers about decisions made on their account and
// orders. Delivery is best effort: callers log failures and carry on.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// KYCDecision is sent after an admin reviews a business profile.
type KYCDecision struct {
	To       string
	Name     string
	Approved bool
	Reason   string
}

// OrderStatusChange is sent when an order moves to a new status.
type OrderStatusChange struct {
	To          string
	Name        string
	OrderNumber string
	Status      string
}

// Notifier delivers customer notifications.
type Notifier interface {
	KYCDecision(ctx context.Context, msg KYCDecision) error
	OrderStatusChanged(ctx context.Context, msg OrderStatusChange) error
}

// LogNotifier only records what would have been sent. Used when no email
// sender is configured.
type LogNotifier struct {
	log *logrus.Entry
}

func NewLogNotifier(log *logrus.Entry) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) KYCDecision(ctx context.Context, msg KYCDecision) error {
	n.log.WithFields(logrus.Fields{
		"to":       msg.To,
		"approved": msg.Approved,
		"reason":   msg.Reason,
	}).Info("kyc decision notification")
	return nil
}

func (n *LogNotifier) OrderStatusChanged(ctx context.Context, msg OrderStatusChange) error {
	n.log.WithFields(logrus.Fields{
		"to":           msg.To,
		"order_number": msg.OrderNumber,
		"status":       msg.Status,
	}).Info("order status notification")
	return nil
}

// Background sends through next on its own goroutine so request latency
// never depends on the mail provider. Errors are logged. Call Wait on
// shutdown to let in-flight sends finish.
type Background struct {
	next    Notifier
	log     *logrus.Entry
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewBackground(next Notifier, log *logrus.Entry) *Background {
	return &Background{next: next, log: log, timeout: 15 * time.Second}
}

func (b *Background) KYCDecision(ctx context.Context, msg KYCDecision) error {
	b.run(ctx, "kyc decision", func(ctx context.Context) error {
		return b.next.KYCDecision(ctx, msg)
	})
	return nil
}

func (b *Background) OrderStatusChanged(ctx context.Context, msg OrderStatusChange) error {
	b.run(ctx, "order status", func(ctx context.Context) error {
		return b.next.OrderStatusChanged(ctx, msg)
	})
	return nil
}

func (b *Background) run(parent context.Context, what string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), b.timeout)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer cancel()
		if err := fn(ctx); err != nil {
			b.log.WithError(err).Errorf("send %s notification", what)
		}
	}()
}

// Wait blocks until every send started so far has returned, or ctx is done.
func (b *Background) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
