// Package imapsession implements the protocol state machine over a
// long-lived TLS connection: login, SELECT/EXAMINE, the UID-based
// command set, and IDLE command framing, per spec.md §4.4. Command
// dispatch is grounded in the teacher's email.IMAPClient
// (internal/source/email/client.go), generalized from one-shot
// connect-per-call helpers into a persistent, stateful session with a
// single dispatcher wrapping every command the way spec.md §9's
// "decorators for cross-cutting concerns" note calls for.
package imapsession

import (
	"context"
	"crypto/tls"
	"log"
	"net"
	"strconv"
	gosync "sync"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-sasl"

	"github.com/bberkay/open-mail/internal/errs"
	"github.com/bberkay/open-mail/internal/idle"
	"github.com/bberkay/open-mail/internal/model"
)

// ConnectTimeout is the default deadline for Connect, per spec.md §5.
const ConnectTimeout = 30 * time.Second

// CommandTimeout bounds any single foreground command dispatched through
// dispatch, per spec.md §5. There is no cooperative cancellation of an
// in-flight command beyond closing the socket, so a command that exceeds
// this deadline forces the connection closed and the session transitions
// to Disconnected.
const CommandTimeout = 30 * time.Second

// WaitResponseTimeout mirrors idle.WaitResponseTimeout, which is the
// constant that actually bounds the DONE-to-tagged-OK wait in
// Monitor.Pause that dispatch triggers while idling. This copy is not
// read anywhere in this package.
const WaitResponseTimeout = 3 * time.Minute

// Session owns one TLS connection and its protocol state. All exported
// methods are safe for concurrent use; foreground commands, IDLE
// bracketing, and background state mutation are serialised through mu.
type Session struct {
	account model.Account

	mu       gosync.Mutex
	client   *imapclient.Client
	state    model.SessionState
	folder   string
	readonly bool
	searched *model.SearchedEmails

	monitor *idle.Monitor
}

// New constructs a session bound to account. It does not connect; call
// Connect.
func New(account model.Account) *Session {
	return &Session{account: account, state: model.StateDisconnected}
}

// State returns the session's current protocol state.
func (s *Session) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect dials the account's IMAP host over implicit TLS and logs in,
// falling back to AUTHENTICATE PLAIN when either credential contains
// non-ASCII bytes, then best-effort enables UTF8=ACCEPT. Mirrors the
// teacher's IMAPClient.Connect, generalized to persist the client on s
// instead of returning it for one-shot use.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr := s.account.IMAPHost + ":" + s.account.IMAPPort

	dialer := &net.Dialer{Timeout: ConnectTimeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errs.New(errs.Transport, "imapsession.Connect", "dialing "+addr, err)
	}
	tlsConn := tls.Client(rawConn, &tls.Config{ServerName: s.account.IMAPHost})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = rawConn.Close()
		return errs.New(errs.Transport, "imapsession.Connect", "TLS handshake with "+addr, err)
	}

	client := imapclient.New(tlsConn, &imapclient.Options{
		UnilateralDataHandler: s.unilateralHandler(),
	})

	if err := s.login(client); err != nil {
		_ = client.Logout().Wait()
		return err
	}

	if err := client.Enable(imap.CapUTF8Accept).Wait(); err != nil {
		// Transient: logged and swallowed per spec.md §7.
		log.Printf("imapsession: ENABLE UTF8=ACCEPT failed for %s: %v", s.account.Address, err)
	}

	s.client = client
	s.state = model.StateAuthenticated
	s.monitor = idle.New(client)
	return nil
}

func (s *Session) login(client *imapclient.Client) error {
	user, pass := s.account.Address, s.account.Secret
	if isASCII(user) && isASCII(pass) {
		if err := client.Login(user, pass).Wait(); err != nil {
			return errs.New(errs.Auth, "imapsession.login", "LOGIN rejected for "+user, err)
		}
		return nil
	}

	saslClient := sasl.NewPlainClient("", user, pass)
	if err := client.Authenticate(saslClient); err != nil {
		return errs.New(errs.Auth, "imapsession.login", "AUTHENTICATE PLAIN rejected for "+user, err)
	}
	return nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

// unilateralHandler forwards unsolicited EXISTS responses to the idle
// monitor so the reader activity spec.md §4.5 describes lives inside
// go-imap/v2's own read loop rather than a hand-rolled one. Only mailbox
// message-count updates are handled; a server BYE is not forwarded, so
// Monitor.NotifyBye is not called from here.
func (s *Session) unilateralHandler() *imapclient.UnilateralDataHandler {
	return &imapclient.UnilateralDataHandler{
		Mailbox: func(data *imapclient.UnilateralDataMailbox) {
			if data != nil && data.NumMessages != nil {
				s.mu.Lock()
				m := s.monitor
				s.mu.Unlock()
				if m != nil {
					m.NotifyNewMail()
				}
			}
		},
	}
}

// Events exposes the IDLE monitor's observer channel; nil before
// Connect.
func (s *Session) Events() <-chan idle.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.monitor == nil {
		return nil
	}
	return s.monitor.Events()
}

// Logout closes IDLE (if active), sends LOGOUT, and tolerates an
// already-closed connection, per spec.md §4.4's logout contract.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.monitor != nil {
		_ = s.monitor.Close()
	}
	if s.client == nil {
		s.state = model.StateLoggedOut
		return nil
	}
	err := s.client.Logout().Wait()
	s.state = model.StateLoggedOut
	s.searched = nil
	if err != nil {
		return errs.New(errs.Transport, "imapsession.Logout", "LOGOUT", err)
	}
	return nil
}

// dispatch runs fn with IDLE bracketing: if IDLE is active it sends
// DONE, awaits the acknowledgement, runs fn, then re-enters IDLE. This
// is the single command-dispatch wrapper spec.md §9 calls for in place
// of per-call-site bracketing logic. The caller MUST already hold s.mu
// for the duration of the call — dispatch does not lock it itself, so
// that the command it brackets runs under the same critical section
// that serialises foreground commands against reader/idle-keeper state
// transitions (spec.md §5). fn itself is bounded by CommandTimeout: a
// command that doesn't return in time forces the connection closed and
// the session Disconnected, since go-imap/v2 offers no cooperative
// cancellation of an in-flight command.
func (s *Session) dispatch(fn func() error) error {
	monitor := s.monitor
	wasIdle := monitor != nil && monitor.IsActive()
	if wasIdle {
		if err := monitor.Pause(); err != nil {
			return errs.New(errs.LoggedOut, "imapsession.dispatch", "DONE failed, session may be closed", err)
		}
	}

	err := s.runWithDeadline(fn)

	if wasIdle && s.state != model.StateLoggedOut {
		_ = monitor.Resume()
	}
	return err
}

// runWithDeadline runs fn, forcing the connection closed and the session
// Disconnected if it doesn't return within CommandTimeout. The caller
// must already hold s.mu.
func (s *Session) runWithDeadline(fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-time.After(CommandTimeout):
		_ = s.client.Close()
		s.state = model.StateDisconnected
		return errs.New(errs.Transport, "imapsession.dispatch", "command exceeded the 30s deadline", nil)
	}
}

// Idle enters the IDLE state, per spec.md §4.7's facade "idle" verb.
// A no-op if the monitor is already idling; returns a LoggedOut error if
// the session isn't authenticated.
func (s *Session) Idle() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireAuthenticated("imapsession.Idle"); err != nil {
		return err
	}
	if s.monitor == nil || s.monitor.IsActive() {
		return nil
	}
	return s.monitor.Resume()
}

// Done leaves the IDLE state, per spec.md §4.7's facade "done" verb. A
// no-op if the monitor isn't idling.
func (s *Session) Done() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.monitor == nil || !s.monitor.IsActive() {
		return nil
	}
	return s.monitor.Pause()
}

// requireAuthenticated returns a LoggedOut error if the session is
// Disconnected or LoggedOut, per invariant (i).
func (s *Session) requireAuthenticated(op string) error {
	if s.state == model.StateDisconnected || s.state == model.StateLoggedOut {
		return errs.New(errs.LoggedOut, op, "session is not authenticated", nil)
	}
	return nil
}

func (s *Session) requireSelected(op string) error {
	if err := s.requireAuthenticated(op); err != nil {
		return err
	}
	if s.state != model.StateSelected {
		return errs.New(errs.Validation, op, "no folder selected", nil)
	}
	return nil
}

// fmtSeqNum renders n in the decimal form IMAP command text expects.
func fmtSeqNum(n uint32) string { return strconv.FormatUint(uint64(n), 10) }
