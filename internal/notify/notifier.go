// Package notify posts operator-facing messages, such as tenant sign-ups and
// suspensions, to chat platforms.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Sender delivers a message on one platform.
type Sender interface {
	Platform() string
	Send(ctx context.Context, text string) error
}

// Notifier fans a message out to every registered sender. A nil Notifier, or
// one without senders, only logs the message.
type Notifier struct {
	senders *Registry
}

// New creates a Notifier over the given registry.
func New(senders *Registry) *Notifier {
	return &Notifier{senders: senders}
}

// Notify sends text through every sender and joins their errors.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	if n == nil || n.senders == nil || n.senders.Len() == 0 {
		log.Info().Str("message", text).Msg("notify: no senders configured")
		return nil
	}

	var errs []error
	for _, s := range n.senders.All() {
		if err := s.Send(ctx, text); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Platform(), err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("notify.Notifier.Notify: %w", err)
	}
	return nil
}
