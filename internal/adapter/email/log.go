package email

import (
	"context"

	"go.uber.org/zap"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/mail"
)

// LogSender writes messages to the log instead of delivering them. Used
// with EMAIL_PROVIDER=log in development.
type LogSender struct{ log *zap.Logger }

var _ mail.Sender = (*LogSender)(nil)

func NewLogSender(log *zap.Logger) *LogSender { return &LogSender{log: log} }

func (s *LogSender) Send(_ context.Context, m mail.Message) error {
	s.log.Info("email (not delivered)",
		zap.Strings("to", m.To),
		zap.String("subject", m.Subject),
		zap.Int("text_bytes", len(m.Text)),
		zap.Int("html_bytes", len(m.HTML)),
	)
	return nil
}
