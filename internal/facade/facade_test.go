package facade

import (
	"testing"

	"github.com/bberkay/open-mail/internal/model"
)

func TestWithPrefixAddsWhenMissing(t *testing.T) {
	if got := withPrefix("Re:", "hello"); got != "Re: hello" {
		t.Errorf("got %q, want %q", got, "Re: hello")
	}
}

func TestWithPrefixLeavesExistingPrefixAlone(t *testing.T) {
	if got := withPrefix("Re:", "Re: hello"); got != "Re: hello" {
		t.Errorf("got %q, want unchanged %q", got, "Re: hello")
	}
	if got := withPrefix("Re:", "re: hello"); got != "re: hello" {
		t.Errorf("got %q, want unchanged %q", got, "re: hello")
	}
}

func TestThreadingMetadataSetsInReplyToAndReferencesToUID(t *testing.T) {
	md := threadingMetadata(42, nil)
	if md["In-Reply-To"] != "42" || md["References"] != "42" {
		t.Errorf("metadata = %+v, want In-Reply-To/References = 42", md)
	}
}

func TestThreadingMetadataPreservesCallerKeys(t *testing.T) {
	md := threadingMetadata(42, map[string]string{"X-Custom": "1"})
	if md["X-Custom"] != "1" {
		t.Errorf("expected caller metadata to survive, got %+v", md)
	}
	if md["In-Reply-To"] != "42" {
		t.Errorf("expected In-Reply-To to be set, got %+v", md)
	}
}

func TestFmtUID(t *testing.T) {
	if got := fmtUID(42); got != "42" {
		t.Errorf("fmtUID(42) = %q, want 42", got)
	}
}

func TestSendEmailAssignsAttemptIDEvenOnFailure(t *testing.T) {
	f := New(model.Account{Address: "user@example.com"})
	attemptID, err := f.SendEmail(model.EmailToSend{})
	if err == nil {
		t.Fatal("expected an error sending on an unconnected facade")
	}
	if attemptID == "" {
		t.Error("expected a non-empty attempt ID even when Send fails")
	}
}
