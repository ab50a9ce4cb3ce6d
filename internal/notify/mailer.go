// Package notify delivers the terminal outcome of a deployment to the
// requester by mail. It never touches the deployment record; a delivery
// failure is the caller's to log and ignore.
package notify

import (
	"fmt"

	"go_dcd/internal/model"

	"gopkg.in/gomail.v2"
)

// Sender delivers one message. Satisfied by *gomail.Dialer via SMTPSender.
type Sender interface {
	Send(recipient, subject, body string) error
}

// SMTPSender sends mail through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates a sender for the given relay.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send delivers one message to recipient.
func (s *SMTPSender) Send(recipient, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", recipient, err)
	}
	return nil
}

// Dispatcher composes result messages from a finished record.
type Dispatcher struct {
	sender Sender
}

// NewDispatcher creates a dispatcher on the given sender.
func NewDispatcher(sender Sender) *Dispatcher {
	return &Dispatcher{sender: sender}
}

// Notify sends the outcome of a finished chain to the record's recipient.
// A record without a recipient is a no-op.
func (d *Dispatcher) Notify(rec *model.DeploymentRecord) error {
	if rec.EmailAddr == "" {
		return nil
	}

	var subject, body string
	if rec.ErrorMessage != nil {
		subject = fmt.Sprintf("Deployment %s failed", rec.JobID)
		body = fmt.Sprintf("Job ID: %s\nStatus: %s\nError: %s\nMemo: %s\n",
			rec.JobID, rec.ChainStatus, *rec.ErrorMessage, rec.Memo)
	} else {
		instanceID := ""
		if rec.InstanceID != nil {
			instanceID = *rec.InstanceID
		}
		status := string(rec.ChainStatus)
		if rec.InstanceStatus != nil {
			status = *rec.InstanceStatus
		}
		subject = fmt.Sprintf("Deployment %s finished", rec.JobID)
		body = fmt.Sprintf("Job ID: %s\nStatus: %s\nInstance ID: %s\nMemo: %s\n",
			rec.JobID, status, instanceID, rec.Memo)
	}

	return d.sender.Send(rec.EmailAddr, subject, body)
}
