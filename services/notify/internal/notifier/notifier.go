// Package notifier turns domain events into member mail.
package notifier

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/clubhive/clubhive/pkg/events"
	"github.com/clubhive/clubhive/pkg/logger"
	"github.com/clubhive/clubhive/pkg/pass"
	"github.com/clubhive/clubhive/services/notify/internal/mailer"
	"golang.org/x/sync/errgroup"
)

const passImageID = "pass"

type Notifier struct {
	mail    mailer.Service
	appURL  string
	g       *errgroup.Group
	retries int
	backoff time.Duration
}

// New returns a Notifier that sends at most workers mails at a time.
func New(mail mailer.Service, appURL string, workers int) *Notifier {
	g := new(errgroup.Group)
	g.SetLimit(workers)
	return &Notifier{mail: mail, appURL: appURL, g: g, retries: 3, backoff: time.Second}
}

// Subscribe joins the queue group for every subject the notifier handles.
func (n *Notifier) Subscribe(bus events.Subscriber, queue string) error {
	if err := bus.QueueSubscribe(events.RegistrationCreated, queue, n.handle(n.registrationMail)); err != nil {
		return fmt.Errorf("subscribe %s: %w", events.RegistrationCreated, err)
	}
	if err := bus.QueueSubscribe(events.AttendanceCheckedIn, queue, n.handle(n.checkInMail)); err != nil {
		return fmt.Errorf("subscribe %s: %w", events.AttendanceCheckedIn, err)
	}
	return nil
}

// Wait blocks until every accepted message was handled.
func (n *Notifier) Wait() {
	_ = n.g.Wait()
}

// handle decodes msg into a mail and sends it on a worker. It blocks the
// subscription while all workers are busy.
func (n *Notifier) handle(build func(msg *events.Message) (mailer.Mail, error)) func(msg *events.Message) {
	return func(msg *events.Message) {
		ctx := context.Background()
		if msg.RequestID != "" {
			ctx = context.WithValue(ctx, logger.RequestIDKey, msg.RequestID)
		}

		m, err := build(msg)
		if err != nil {
			logger.ErrorContext(ctx, "Dropping undeliverable event", "subject", msg.Subject, "msg_id", msg.ID, "error", err)
			return
		}

		n.g.Go(func() error {
			if err := n.send(ctx, m); err != nil {
				logger.ErrorContext(ctx, "Failed to send mail", "subject", msg.Subject, "msg_id", msg.ID, "to", m.ToEmail, "error", err)
				return nil
			}
			logger.InfoContext(ctx, "Mail sent", "subject", msg.Subject, "msg_id", msg.ID, "to", m.ToEmail)
			return nil
		})
	}
}

func (n *Notifier) send(ctx context.Context, m mailer.Mail) error {
	var err error
	for attempt := 0; attempt < n.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(n.backoff * time.Duration(attempt))
		}
		if err = n.mail.Send(ctx, m); err == nil {
			return nil
		}
	}
	return err
}

func (n *Notifier) registrationMail(msg *events.Message) (mailer.Mail, error) {
	var evt events.RegistrationCreatedEvent
	if err := msg.Decode(&evt); err != nil {
		return mailer.Mail{}, err
	}
	if evt.Email == "" {
		return mailer.Mail{}, fmt.Errorf("registration %s has no email", evt.RegistrationID)
	}

	png, err := pass.PNG(evt.PassToken)
	if err != nil {
		return mailer.Mail{}, err
	}

	title := orDefault(evt.EventTitle, "your event")
	when := ""
	if !evt.EventDate.IsZero() {
		when = evt.EventDate.Format("Mon, Jan 2 2006 at 15:04 MST")
	}

	text := fmt.Sprintf("You're registered for %s.\n%s\n%s\n\nShow the attached QR code at the entrance.\nYour passes: %s/my-clubs",
		title, when, evt.Location, n.appURL)
	body := fmt.Sprintf(`
		<h2>You're registered!</h2>
		<p>Hi %s,</p>
		<p>Your spot for <strong>%s</strong> is confirmed.</p>
		<p>%s<br>%s</p>
		<p>Show this code at the entrance:</p>
		<p><img src="cid:%s" alt="Entry pass" width="%d" height="%d"></p>
		<p><a href="%s/my-clubs">View your passes</a></p>
	`, html.EscapeString(orDefault(evt.FullName, "there")), html.EscapeString(title),
		html.EscapeString(when), html.EscapeString(evt.Location),
		passImageID, pass.Size, pass.Size, n.appURL)

	return mailer.Mail{
		ToEmail: evt.Email,
		ToName:  evt.FullName,
		Subject: "Your entry pass for " + title,
		Text:    text,
		HTML:    body,
		Inline:  []mailer.InlineImage{{ID: passImageID, Filename: "pass.png", PNG: png}},
	}, nil
}

func (n *Notifier) checkInMail(msg *events.Message) (mailer.Mail, error) {
	var evt events.CheckedInEvent
	if err := msg.Decode(&evt); err != nil {
		return mailer.Mail{}, err
	}
	if evt.Email == "" {
		return mailer.Mail{}, fmt.Errorf("check-in %s has no email", evt.RegistrationID)
	}

	title := orDefault(evt.EventTitle, "the event")
	at := evt.CheckedInAt.Format("15:04 MST on Jan 2")
	text := fmt.Sprintf("You were checked in to %s at %s. Enjoy!", title, at)
	body := fmt.Sprintf(`
		<h2>Attendance Recorded</h2>
		<p>Hi %s,</p>
		<p>You were checked in to <strong>%s</strong> at %s.</p>
		<p>Enjoy the event!</p>
	`, html.EscapeString(orDefault(evt.FullName, "there")), html.EscapeString(title), html.EscapeString(at))

	return mailer.Mail{
		ToEmail: evt.Email,
		ToName:  evt.FullName,
		Subject: "Checked in: " + title,
		Text:    text,
		HTML:    body,
	}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
