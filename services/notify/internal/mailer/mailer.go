package mailer

import "context"

// Mail is one outgoing message. Inline images are referenced from HTML as cid:<ID>.
type Mail struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
	Inline  []InlineImage
}

type InlineImage struct {
	ID       string
	Filename string
	PNG      []byte
}

type Service interface {
	Send(ctx context.Context, m Mail) error
}
