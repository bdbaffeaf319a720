package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client *mailersend.Mailersend
	from   mailersend.From
}

func NewMailerSend(apiKey, fromName, fromEmail string) (*MailerSendClient, error) {
	if apiKey == "" || fromEmail == "" {
		return nil, fmt.Errorf("MailerSend not configured")
	}
	return &MailerSendClient{
		client: mailersend.NewMailersend(apiKey),
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}, nil
}

func (m *MailerSendClient) Send(ctx context.Context, mail Mail) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: mail.ToName, Email: mail.ToEmail}})
	msg.SetSubject(mail.Subject)

	if strings.TrimSpace(mail.Text) != "" {
		msg.SetText(mail.Text)
	}
	if strings.TrimSpace(mail.HTML) != "" {
		msg.SetHTML(mail.HTML)
	}
	for _, img := range mail.Inline {
		msg.AddAttachment(mailersend.Attachment{
			Content:     base64.StdEncoding.EncodeToString(img.PNG),
			Filename:    img.Filename,
			Disposition: "inline",
			ID:          img.ID,
		})
	}

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
