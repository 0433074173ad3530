package mailmock

import (
	"context"
	"sync"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/mail"
)

var _ mail.Sender = (*Sender)(nil)

// Sender records every message and returns Err when set.
type Sender struct {
	mu   sync.Mutex
	Err  error
	Sent []mail.Message
}

func (s *Sender) Send(_ context.Context, m mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Sent = append(s.Sent, m)
	return nil
}

func (s *Sender) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Sent)
}

func (s *Sender) Last() (mail.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Sent) == 0 {
		return mail.Message{}, false
	}
	return s.Sent[len(s.Sent)-1], true
}
