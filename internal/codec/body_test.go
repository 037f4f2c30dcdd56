package codec

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2026-03-05")
	if !ok {
		t.Fatal("expected ok=true")
	}
	if !got.Equal(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseDate = %v", got)
	}
}

func TestParseDateInvalid(t *testing.T) {
	if _, ok := ParseDate("not-a-date"); ok {
		t.Error("expected ok=false for invalid date")
	}
}

func TestConvertToIMAPDate(t *testing.T) {
	got := ConvertToIMAPDate("1970-01-01")
	want := "01-Jan-1970"
	if got != want {
		t.Errorf("ConvertToIMAPDate = %q, want %q", got, want)
	}
}

func TestConvertToIMAPDateInvalid(t *testing.T) {
	if got := ConvertToIMAPDate("not-a-date"); got != "not-a-date" {
		t.Errorf("expected passthrough on invalid input, got %q", got)
	}
}

func TestDecodeQuotedPrintableMalformedTrailer(t *testing.T) {
	// Truncated escape sequence at the end must not panic or error out.
	raw := []byte("Hello=2C World=")
	got := DecodeQuotedPrintable(raw)
	if string(got) == "" {
		t.Fatalf("expected a non-empty decoded prefix")
	}
}

func TestDecodeBase64MalformedPadding(t *testing.T) {
	// "SGVsbG8" decodes to "Hello" but is missing its '=' padding.
	got := DecodeBase64([]byte("SGVsbG8"))
	if string(got) != "Hello" {
		t.Errorf("DecodeBase64 = %q, want %q", got, "Hello")
	}
}

func TestHTMLToText(t *testing.T) {
	html := "<p>Hello<br>World</p>\n\n<div>Again  &amp; again</div>"
	got := HTMLToText(html)
	want := "Hello World Again & again"
	if got != want {
		t.Errorf("HTMLToText = %q, want %q", got, want)
	}
}

func TestDecodeCharsetPassthroughForUTF8(t *testing.T) {
	got := DecodeCharset([]byte("hello"), "UTF-8")
	if got != "hello" {
		t.Errorf("got %q", got)
	}
}
