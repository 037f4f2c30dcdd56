package smtpsession

import (
	"testing"

	"github.com/bberkay/open-mail/internal/model"
)

func TestSendRejectsWhenNotConnected(t *testing.T) {
	s := New(model.Account{Address: "me@example.com"})
	err := s.Send(model.EmailToSend{
		Sender:    model.Recipient{Address: "me@example.com"},
		Receivers: []string{"you@example.com"},
		Subject:   "hi",
		Body:      "<p>hi</p>",
	})
	if err == nil {
		t.Fatal("expected error when sending without a connection")
	}
}

func TestCloseNoopWhenNotConnected(t *testing.T) {
	s := New(model.Account{})
	if err := s.Close(); err != nil {
		t.Errorf("Close() on disconnected session = %v, want nil", err)
	}
}
