package parser

import (
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
)

func TestDecodeEncodedWord(t *testing.T) {
	got := DecodeEncodedWord("=?UTF-8?B?TWVyaGFiYQ==?=")
	if got != "Merhaba" {
		t.Errorf("DecodeEncodedWord = %q, want Merhaba", got)
	}

	// Non-encoded values pass through untouched.
	plain := DecodeEncodedWord("Hello")
	if plain != "Hello" {
		t.Errorf("DecodeEncodedWord(plain) = %q, want Hello", plain)
	}
}

func TestGetHeaders(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	env := &imap.Envelope{
		Subject:   "=?UTF-8?B?TWVyaGFiYQ==?=",
		Date:      now,
		MessageID: "<abc@host>",
		From:      []imap.Address{{Name: "Alice", Mailbox: "alice", Host: "example.com"}},
		To: []imap.Address{
			{Name: "", Mailbox: "bob", Host: "example.com"},
			{Name: "Carol", Mailbox: "carol", Host: "example.com"},
		},
		InReplyTo: []string{"<parent@host>"},
	}

	h := GetHeaders(env)
	if h.Subject != "Merhaba" {
		t.Errorf("Subject = %q, want Merhaba", h.Subject)
	}
	if h.Sender != "Alice <alice@example.com>" {
		t.Errorf("Sender = %q", h.Sender)
	}
	want := "bob@example.com, Carol <carol@example.com>"
	if h.Receiver != want {
		t.Errorf("Receiver = %q, want %q", h.Receiver, want)
	}
	if h.MessageID != "abc@host" {
		t.Errorf("MessageID = %q, want abc@host", h.MessageID)
	}
	if h.InReplyTo != "parent@host" {
		t.Errorf("InReplyTo = %q, want parent@host", h.InReplyTo)
	}
}

func TestGetHeadersNilEnvelope(t *testing.T) {
	h := GetHeaders(nil)
	if h != (Headers{}) {
		t.Errorf("expected zero-value Headers for nil envelope, got %+v", h)
	}
}

func TestGetFlagsAndHasFlag(t *testing.T) {
	flags := GetFlags([]imap.Flag{imap.FlagSeen, imap.FlagFlagged})
	if len(flags) != 2 {
		t.Fatalf("expected 2 flags, got %d", len(flags))
	}
	if !HasFlag(flags, string(imap.FlagSeen)) {
		t.Errorf("expected HasFlag to find FlagSeen in %v", flags)
	}
	if HasFlag(flags, string(imap.FlagDeleted)) {
		t.Errorf("did not expect FlagDeleted in %v", flags)
	}
}

func TestParseReferencesHeader(t *testing.T) {
	raw := []byte("References: <a@host> <b@host>\r\n\r\n")
	if got := ParseReferencesHeader(raw); got != "<a@host> <b@host>" {
		t.Errorf("ParseReferencesHeader = %q, want %q", got, "<a@host> <b@host>")
	}
}

func TestParseReferencesHeaderEmptyInput(t *testing.T) {
	if got := ParseReferencesHeader(nil); got != "" {
		t.Errorf("ParseReferencesHeader(nil) = %q, want empty", got)
	}
}

func TestParseReferencesHeaderMissingHeader(t *testing.T) {
	raw := []byte("Subject: hello\r\n\r\n")
	if got := ParseReferencesHeader(raw); got != "" {
		t.Errorf("ParseReferencesHeader(no References) = %q, want empty", got)
	}
}
