package idle

import "testing"

func TestNewMonitorStartsInactive(t *testing.T) {
	m := New(nil)
	if m.IsActive() {
		t.Error("expected new monitor to be inactive")
	}
}

func TestNotifyNewMailEmitsEvent(t *testing.T) {
	m := New(nil)
	m.NotifyNewMail()

	select {
	case e := <-m.Events():
		if e.Kind != EventNewMail {
			t.Errorf("Kind = %v, want EventNewMail", e.Kind)
		}
	default:
		t.Fatal("expected an event on the channel")
	}
}

func TestNotifyNewMailAssignsCorrelationID(t *testing.T) {
	m := New(nil)
	m.NotifyNewMail()

	e := <-m.Events()
	if e.ID == "" {
		t.Error("expected emit to assign a non-empty correlation ID")
	}
}

func TestNotifyByeMarksInactiveAndEmits(t *testing.T) {
	m := New(nil)
	m.active = true
	m.NotifyBye("server closing connection")

	if m.IsActive() {
		t.Error("expected NotifyBye to mark monitor inactive")
	}
	select {
	case e := <-m.Events():
		if e.Kind != EventBye || e.Message != "server closing connection" {
			t.Errorf("unexpected event: %+v", e)
		}
	default:
		t.Fatal("expected a BYE event on the channel")
	}
}

func TestEmitDropsWhenChannelFull(t *testing.T) {
	m := New(nil)
	for i := 0; i < cap(m.events)+5; i++ {
		m.NotifyNewMail()
	}
	// Draining should yield exactly cap(m.events) events, never block or panic.
	count := 0
	for {
		select {
		case <-m.Events():
			count++
		default:
			if count != cap(m.events) {
				t.Errorf("drained %d events, want %d", count, cap(m.events))
			}
			return
		}
	}
}

func TestPauseNoopWhenInactive(t *testing.T) {
	m := New(nil)
	if err := m.Pause(); err != nil {
		t.Errorf("Pause() on inactive monitor = %v, want nil", err)
	}
}

func TestCloseNoopWhenInactive(t *testing.T) {
	m := New(nil)
	if err := m.Close(); err != nil {
		t.Errorf("Close() on inactive monitor = %v, want nil", err)
	}
}
