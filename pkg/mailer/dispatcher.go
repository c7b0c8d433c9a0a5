package mailer

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// EmailMessage is a fully rendered email.
type EmailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

func (m EmailMessage) Validate() error {
	if m.To == "" {
		return errors.New("email recipient is required")
	}
	if m.Subject == "" {
		return errors.New("email subject is required")
	}
	if m.Text == "" && m.HTML == "" {
		return errors.New("email body is required")
	}
	return nil
}

// Dispatcher hands an email to a delivery mechanism.
type Dispatcher interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// JSONPublisher is satisfied by helpers.RabbitPublisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueDispatcher enqueues emails for cmd/email_worker.
type QueueDispatcher struct {
	Pub JSONPublisher
}

func NewQueueDispatcher(pub JSONPublisher) *QueueDispatcher {
	return &QueueDispatcher{Pub: pub}
}

func (d *QueueDispatcher) Send(ctx context.Context, msg EmailMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	return d.Pub.PublishJSON(ctx, EmailJob{To: msg.To, Subject: msg.Subject, Text: msg.Text, HTML: msg.HTML})
}

// LogDispatcher only logs; used when MAIL_SEND_ENABLED=false.
type LogDispatcher struct {
	Logger *logrus.Logger
}

func NewLogDispatcher(logger *logrus.Logger) *LogDispatcher {
	return &LogDispatcher{Logger: logger}
}

func (d *LogDispatcher) Send(_ context.Context, msg EmailMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if d.Logger != nil {
		d.Logger.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Info("email sending disabled, message dropped")
	}
	return nil
}

var (
	_ Dispatcher = (*QueueDispatcher)(nil)
	_ Dispatcher = (*LogDispatcher)(nil)
	_ Dispatcher = (*Mailgun)(nil)
)
