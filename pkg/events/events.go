package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clubhive/clubhive/pkg/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data any) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
	RequestID string
}

// Decode unmarshals the message payload into v.
func (m *Message) Decode(v any) error {
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Subject, err)
	}
	return nil
}

const msgIDHeader = "Clubhive-Msg-Id"

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url, name string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = payload
	msg.Header.Set(msgIDHeader, uuid.NewString())
	if rid, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		msg.Header.Set("X-Request-ID", rid)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.PublishMsg(msg)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(toMessage(msg))
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(toMessage(msg))
	})
	return err
}

func toMessage(msg *nats.Msg) *Message {
	var id, rid string
	if msg.Header != nil {
		id = msg.Header.Get(msgIDHeader)
		rid = msg.Header.Get("X-Request-ID")
	}
	if id == "" {
		id = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return &Message{Subject: msg.Subject, Data: msg.Data, Timestamp: time.Now(), ID: id, RequestID: rid}
}

func (n *NATSEventBus) Close() error {
	return n.conn.Drain()
}

const (
	SessionSignedIn  = "session.signed_in"
	SessionSignedOut = "session.signed_out"

	ClubCreated = "club.created"
	ClubJoined  = "club.joined"
	ClubLeft    = "club.left"

	EventCreated   = "event.created"
	EventCompleted = "event.completed"

	RegistrationCreated = "registration.created"

	AttendanceCheckedIn = "attendance.checked_in"

	AnnouncementCreated = "announcement.created"
)

type SessionEvent struct {
	UserID string    `json:"user_id"`
	Role   string    `json:"role"`
	At     time.Time `json:"at"`
}

type ClubMembershipEvent struct {
	ClubID string    `json:"club_id"`
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

type ClubCreatedEvent struct {
	ClubID    string    `json:"club_id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type EventCreatedEvent struct {
	EventID string    `json:"event_id"`
	ClubID  string    `json:"club_id"`
	Title   string    `json:"title"`
	Date    time.Time `json:"date"`
}

type EventCompletedEvent struct {
	EventID   string `json:"event_id"`
	Completed bool   `json:"completed"`
}

type RegistrationCreatedEvent struct {
	RegistrationID string    `json:"registration_id"`
	EventID        string    `json:"event_id"`
	EventTitle     string    `json:"event_title"`
	EventDate      time.Time `json:"event_date"`
	Location       string    `json:"location"`
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	PassToken      string    `json:"pass_token"`
	RegisteredAt   time.Time `json:"registered_at"`
}

type CheckedInEvent struct {
	RegistrationID string    `json:"registration_id"`
	EventID        string    `json:"event_id"`
	EventTitle     string    `json:"event_title"`
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	CheckedInAt    time.Time `json:"checked_in_at"`
	// Via is "scan", "manual" or "station".
	Via string `json:"via"`
}

type AnnouncementCreatedEvent struct {
	AnnouncementID string    `json:"announcement_id"`
	ClubID         string    `json:"club_id"`
	Title          string    `json:"title"`
	CreatedAt      time.Time `json:"created_at"`
}
