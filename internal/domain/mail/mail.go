package mail

import "context"

// Message is one outbound email. Text and HTML carry the same content.
type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}
