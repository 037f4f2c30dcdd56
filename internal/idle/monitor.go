// Package idle runs the background IDLE activity on an already-selected
// IMAP connection: entering IDLE, watching for unsolicited EXISTS/BYE
// responses, and periodically cycling DONE/IDLE before the server's
// 30-minute limit. Adapted from the teacher's internal/sync.Poller
// goroutine+mutex+channel pattern (ticker-driven background loop,
// non-blocking result channel), generalized from source polling to IMAP
// IDLE framing, per spec.md §4.5.
package idle

import (
	"errors"
	gosync "sync"
	"time"

	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/google/uuid"
)

// Timeout is the refresh deadline the monitor re-issues IDLE at, safely
// under RFC 9051's 30-minute server-side limit.
const Timeout = 29 * time.Minute

// ActivationDelay is the debounce interval of spec.md §4.5's "idle
// optimization". Nothing reads it: Resume re-enters IDLE immediately,
// and imapsession's dispatch calls Resume right after each command, so
// a burst of commands cycles DONE/IDLE on every call.
const ActivationDelay = 5 * time.Second

// WaitResponseTimeout bounds the DONE-to-tagged-OK wait Pause performs,
// per spec.md §5's WAIT_RESPONSE_TIMEOUT. A server that never
// acknowledges DONE forces the underlying connection closed rather than
// blocking Pause (and every command behind it) forever.
const WaitResponseTimeout = 3 * time.Minute

// Event is one observer-facing notification from the background IDLE
// activity. ID correlates an event across log lines and UI toasts when
// several accounts idle concurrently.
type Event struct {
	ID      string
	Kind    EventKind
	Message string
}

type EventKind int

const (
	EventNewMail EventKind = iota
	EventBye
	EventError
)

// Monitor owns the IDLE lifecycle for one IMAPSession's connection. It
// does not own the socket: the session calls Pause/Resume while holding
// its own command mutex; the monitor's mu guards only its own fields.
type Monitor struct {
	client *imapclient.Client
	events chan Event

	mu      gosync.Mutex
	idleCmd *imapclient.IdleCommand
	active  bool
	timer   *time.Timer
}

// New creates a Monitor bound to client. It does not start IDLE; call
// Resume to begin background activity.
func New(client *imapclient.Client) *Monitor {
	return &Monitor{
		client: client,
		events: make(chan Event, 16),
	}
}

// Events returns the channel observers should drain for new-mail/BYE
// notifications. Sends never block the monitor: a full channel drops
// the event.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// IsActive reports whether IDLE is currently in flight.
func (m *Monitor) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Resume sends IDLE and starts the keeper goroutine that cycles
// DONE/IDLE every Timeout. The caller must already hold the session's
// own command mutex and must have SELECTed INBOX (spec.md invariant ii:
// IDLE implies the selected folder is INBOX and readonly).
func (m *Monitor) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active {
		return nil
	}

	cmd, err := m.client.Idle()
	if err != nil {
		return err
	}
	m.idleCmd = cmd
	m.active = true
	m.timer = time.AfterFunc(Timeout, m.refresh)
	return nil
}

// Pause sends DONE and waits for the tagged OK acknowledging it, per
// the command-framing rule in spec.md §4.4: "if is_idle, send DONE,
// await tagged OK, run the command, then re-enter IDLE." Callers run
// their foreground command between Pause and the following Resume. The
// wait is bounded by WaitResponseTimeout: a server that never
// acknowledges DONE forces the connection closed rather than blocking
// forever.
func (m *Monitor) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return nil
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	cmd := m.idleCmd
	m.idleCmd = nil
	m.active = false

	done := make(chan error, 1)
	go func() { done <- cmd.Close() }()

	select {
	case err := <-done:
		return err
	case <-time.After(WaitResponseTimeout):
		_ = m.client.Close()
		return errors.New("timed out waiting for tagged OK after DONE")
	}
}

// refresh is invoked by the keeper timer: it cycles DONE/IDLE to stay
// under the server's 30-minute limit without the caller having to issue
// a foreground command.
func (m *Monitor) refresh() {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return
	}
	cmd := m.idleCmd
	m.mu.Unlock()

	if err := cmd.Close(); err != nil {
		m.emit(Event{Kind: EventError, Message: err.Error()})
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return
	}
	next, err := m.client.Idle()
	if err != nil {
		m.emit(Event{Kind: EventError, Message: err.Error()})
		m.active = false
		return
	}
	m.idleCmd = next
	m.timer = time.AfterFunc(Timeout, m.refresh)
}

// NotifyNewMail is called by the session's unsolicited-response handler
// (registered via imapclient.Options.UnilateralDataHandler) when an
// EXISTS response arrives while idling.
func (m *Monitor) NotifyNewMail() {
	m.emit(Event{Kind: EventNewMail})
}

// NotifyBye marks the monitor inactive and emits an EventBye carrying
// message, for use when the server sends an untagged BYE.
func (m *Monitor) NotifyBye(message string) {
	m.mu.Lock()
	m.active = false
	m.mu.Unlock()
	m.emit(Event{Kind: EventBye, Message: message})
}

func (m *Monitor) emit(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	select {
	case m.events <- e:
	default:
		// Drop if no observer is keeping up; the same non-blocking
		// discipline the teacher's Poller.sendResult uses.
	}
}

// Close tears down the monitor: sends DONE if idling and stops the
// keeper timer. Safe to call more than once.
func (m *Monitor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
	}
	if !m.active {
		return nil
	}
	err := m.idleCmd.Close()
	m.idleCmd = nil
	m.active = false
	return err
}
