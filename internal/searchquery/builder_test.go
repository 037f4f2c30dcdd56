package searchquery

import (
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"

	"github.com/bberkay/open-mail/internal/model"
)

func TestBuildEmptyCriteriaIsZeroValue(t *testing.T) {
	got := Build(model.SearchCriteria{})
	if len(got.Header) != 0 || len(got.Text) != 0 || len(got.Flag) != 0 ||
		len(got.NotFlag) != 0 || len(got.Not) != 0 || len(got.Or) != 0 ||
		!got.Since.IsZero() || !got.Before.IsZero() || got.Larger != 0 || got.Smaller != 0 {
		t.Errorf("Build(empty) = %+v, want zero value", got)
	}
}

func TestBuildSingleSender(t *testing.T) {
	got := Build(model.SearchCriteria{Senders: []string{"alice@example.com"}})
	if len(got.Header) != 1 || got.Header[0] != (imap.SearchCriteriaHeaderField{Key: "From", Value: "alice@example.com"}) {
		t.Errorf("unexpected header criteria: %+v", got.Header)
	}
}

func TestBuildMultipleSendersBalancedOr(t *testing.T) {
	got := Build(model.SearchCriteria{Senders: []string{"a@x.com", "b@x.com", "c@x.com"}})
	if len(got.Or) != 1 {
		t.Fatalf("expected one Or group, got %d", len(got.Or))
	}
	left, right := got.Or[0][0], got.Or[0][1]
	if len(left.Header) != 1 || left.Header[0].Value != "a@x.com" {
		t.Errorf("left branch = %+v", left)
	}
	if len(right.Or) != 1 {
		t.Fatalf("expected right branch to itself be an Or pair, got %+v", right)
	}
}

func TestBuildSubjectSinceBefore(t *testing.T) {
	got := Build(model.SearchCriteria{
		Subject: "invoice",
		Since:   "2026-01-01",
		Before:  "2026-02-01",
	})
	if len(got.Header) != 1 || got.Header[0].Value != "invoice" {
		t.Errorf("unexpected subject header: %+v", got.Header)
	}
	if !got.Since.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Since = %v", got.Since)
	}
	if !got.Before.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Before = %v", got.Before)
	}
}

func TestBuildIncludeExclude(t *testing.T) {
	got := Build(model.SearchCriteria{Include: "foo", Exclude: "bar"})
	if len(got.Text) != 1 || got.Text[0] != "foo" {
		t.Errorf("Text = %+v", got.Text)
	}
	if len(got.Not) != 1 || len(got.Not[0].Text) != 1 || got.Not[0].Text[0] != "bar" {
		t.Errorf("Not = %+v", got.Not)
	}
}

func TestBuildFlags(t *testing.T) {
	got := Build(model.SearchCriteria{
		FlagsIncluded: []string{"\\Seen", "Important"},
		FlagsExcluded: []string{"\\Flagged"},
	})
	if len(got.Flag) != 2 || got.Flag[0] != imap.FlagSeen || got.Flag[1] != imap.Flag("Important") {
		t.Errorf("Flag = %+v", got.Flag)
	}
	if len(got.NotFlag) != 1 || got.NotFlag[0] != imap.FlagFlagged {
		t.Errorf("NotFlag = %+v", got.NotFlag)
	}
}

func TestBuildHasAttachmentsAndSize(t *testing.T) {
	got := Build(model.SearchCriteria{HasAttachments: true, LargerThan: 1000, SmallerThan: 5000})
	if got.Larger != 1000 || got.Smaller != 5000 {
		t.Errorf("Larger/Smaller = %d/%d", got.Larger, got.Smaller)
	}
	if len(got.Text) != 1 || got.Text[0] != "attachment" {
		t.Errorf("Text = %+v", got.Text)
	}
}

func TestParseRawEmptyReturnsNilAndEmptyString(t *testing.T) {
	c, fallback := ParseRaw(nil)
	if c != nil || fallback != "" {
		t.Errorf("ParseRaw(nil) = (%+v, %q), want (nil, \"\")", c, fallback)
	}
}

func TestParseRawValidJSONObject(t *testing.T) {
	c, fallback := ParseRaw([]byte(`{"senders":["alice@example.com"],"subject":"hi","has_attachments":true}`))
	if fallback != "" {
		t.Fatalf("unexpected fallback %q", fallback)
	}
	if c == nil || len(c.Senders) != 1 || c.Senders[0] != "alice@example.com" || c.Subject != "hi" || !c.HasAttachments {
		t.Errorf("unexpected criteria: %+v", c)
	}
}

func TestParseRawNonJSONFallsBackToRawString(t *testing.T) {
	c, fallback := ParseRaw([]byte("not json at all"))
	if c != nil {
		t.Errorf("expected nil criteria, got %+v", c)
	}
	if fallback != "not json at all" {
		t.Errorf("fallback = %q", fallback)
	}
}
