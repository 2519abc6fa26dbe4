package push

import (
	"context"
	"sync"

	"pet-hero-backend/internal/domain/ports/adapter"
)

var _ adapter.PushSender = (*NoopSender)(nil)

// NoopSender records deliveries in memory for dev mode and tests.
type NoopSender struct {
	mu   sync.Mutex
	sent []SentNotification
}

type SentNotification struct {
	Token        string
	Notification adapter.PushNotification
}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

func (s *NoopSender) Send(ctx context.Context, token string, n adapter.PushNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, SentNotification{Token: token, Notification: n})
	return nil
}

// Sent returns a copy of everything delivered so far.
func (s *NoopSender) Sent() []SentNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentNotification, len(s.sent))
	copy(out, s.sent)
	return out
}
