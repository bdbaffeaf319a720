package mailer

import (
	"context"

	"github.com/clubhive/clubhive/pkg/logger"
)

// DevMailer logs mail instead of sending it.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(ctx context.Context, m Mail) error {
	images := make([]string, 0, len(m.Inline))
	for _, img := range m.Inline {
		images = append(images, img.Filename)
	}
	logger.InfoContext(ctx, "[DEV MAIL]",
		"to", m.ToEmail,
		"name", m.ToName,
		"subject", m.Subject,
		"text", m.Text,
		"inline", images,
	)
	return nil
}
