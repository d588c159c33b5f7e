package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPSender delivers verification codes by email through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender builds a sender using the given relay credentials.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, address, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", address)
	m.SetHeader("Subject", "Your PakGroccrry verification code")

	body := fmt.Sprintf(`
		<h3>Verify your email</h3>
		<p>Your one-time verification code is:</p>
		<p><strong style="font-size:1.5em;letter-spacing:0.2em">%s</strong></p>
		<p>The code expires in 10 minutes. If you did not request it, you can ignore this email.</p>
	`, code)
	m.SetBody("text/html", body)

	// gomail has no context support; run the dial in a goroutine so callers
	// can stop waiting when their deadline passes.
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return &DeliveryError{Address: address, Err: err}
		}
		return nil
	case <-ctx.Done():
		return &DeliveryError{Address: address, Err: ctx.Err()}
	}
}
