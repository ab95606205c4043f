package notification

import "log"

// LogMailer writes outgoing mail to the process log. It stands in for a real
// SMTP or provider-backed sender in development and tests.
type LogMailer struct{}

func NewLogMailer() *LogMailer { return &LogMailer{} }

func (LogMailer) Send(recipient, subject, body string) error {
	log.Printf("mail_out to=%s subject=%q", recipient, subject)
	return nil
}
