// Package smtpsession implements the outbound half of an account:
// STARTTLS connect, AUTH, and message submission, generalizing the
// teacher's net/smtp-based sendSMTPWithStartTLS (internal/source/email)
// from a single hardcoded reply path into the full send/reply/forward
// surface spec.md §4.6 asks for.
package smtpsession

import (
	"context"
	"crypto/tls"
	"net"
	"net/smtp"
	"sync"
	"time"

	"github.com/bberkay/open-mail/internal/errs"
	"github.com/bberkay/open-mail/internal/mimebuilder"
	"github.com/bberkay/open-mail/internal/model"
)

// ConnectTimeout bounds the STARTTLS handshake, mirroring
// imapsession.ConnectTimeout.
const ConnectTimeout = 30 * time.Second

// Session is a synchronous, single-owner SMTP client. Unlike IMAPSession
// it is never shared across goroutines, so it carries a plain mutex
// only to guard against accidental concurrent use, not to serialize
// against a background reader.
type Session struct {
	account model.Account

	mu     sync.Mutex
	client *smtp.Client
}

// New returns a disconnected Session for account.
func New(account model.Account) *Session {
	return &Session{account: account}
}

// Connect dials account.SMTPHost:SMTPPort, issues STARTTLS, and
// authenticates with PLAIN.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr := net.JoinHostPort(s.account.SMTPHost, s.account.SMTPPort)

	dialer := &net.Dialer{Timeout: ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errs.New(errs.Transport, "smtpsession.Connect", "dialing "+addr, err)
	}

	client, err := smtp.NewClient(conn, s.account.SMTPHost)
	if err != nil {
		conn.Close()
		return errs.New(errs.Transport, "smtpsession.Connect", "creating SMTP client", err)
	}

	tlsConfig := &tls.Config{ServerName: s.account.SMTPHost}
	if err := client.StartTLS(tlsConfig); err != nil {
		client.Close()
		return errs.New(errs.Transport, "smtpsession.Connect", "STARTTLS", err)
	}

	auth := smtp.PlainAuth("", s.account.Address, s.account.Secret, s.account.SMTPHost)
	if err := client.Auth(auth); err != nil {
		client.Close()
		return errs.New(errs.Auth, "smtpsession.Connect", "AUTH PLAIN", err)
	}

	s.client = client
	return nil
}

// Close sends QUIT and releases the connection. Safe to call on an
// already-disconnected Session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Quit()
	s.client = nil
	if err != nil {
		return errs.New(errs.Transport, "smtpsession.Close", "QUIT", err)
	}
	return nil
}

// Send builds msg into an RFC 5322 message and submits it to every
// recipient in To ∪ Cc ∪ Bcc.
func (s *Session) Send(msg model.EmailToSend) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return errs.New(errs.LoggedOut, "smtpsession.Send", "not connected", nil)
	}

	raw, err := mimebuilder.Build(msg)
	if err != nil {
		return err
	}
	recipients := mimebuilder.Recipients(msg)
	if len(recipients) == 0 {
		return errs.New(errs.Validation, "smtpsession.Send", "no recipients", nil)
	}

	if err := s.client.Reset(); err != nil {
		return errs.New(errs.Transport, "smtpsession.Send", "RSET", err)
	}
	if err := s.client.Mail(msg.Sender.Address); err != nil {
		return errs.New(errs.Protocol, "smtpsession.Send", "MAIL FROM", err)
	}
	for _, rcpt := range recipients {
		if err := s.client.Rcpt(rcpt); err != nil {
			return errs.New(errs.Protocol, "smtpsession.Send", "RCPT TO "+rcpt, err)
		}
	}

	w, err := s.client.Data()
	if err != nil {
		return errs.New(errs.Protocol, "smtpsession.Send", "DATA", err)
	}
	if _, err := w.Write(raw); err != nil {
		return errs.New(errs.Transport, "smtpsession.Send", "writing message body", err)
	}
	if err := w.Close(); err != nil {
		return errs.New(errs.Transport, "smtpsession.Send", "closing message body", err)
	}
	return nil
}
