package codec

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime/quotedprintable"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"
)

// ConvertToIMAPDate reformats a "YYYY-MM-DD" date into IMAP's
// "DD-Mon-YYYY" form, as used by SINCE/BEFORE search keys. An unparsable
// input is returned unchanged.
func ConvertToIMAPDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("02-Jan-2006")
}

// ParseDate parses the same "YYYY-MM-DD" input ConvertToIMAPDate accepts,
// for callers that need a time.Time rather than the wire string form
// (e.g. the typed SINCE/BEFORE search criteria fields).
func ParseDate(date string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DecodeQuotedPrintable decodes a quoted-printable body. Malformed
// trailing padding never raises: the decoder reads as much as it can and
// returns that prefix, mirroring the original decode_quoted_printable_message
// helper's "ignore errors, truncate to valid prefix" behavior.
func DecodeQuotedPrintable(raw []byte) []byte {
	r := quotedprintable.NewReader(bytes.NewReader(raw))
	out, err := io.ReadAll(r)
	if err != nil && len(out) == 0 {
		// Nothing at all decoded; fall back to the raw bytes so callers
		// still have something to display.
		return raw
	}
	return out
}

// DecodeBase64 decodes a base64 body, tolerating missing/invalid
// trailing padding by truncating to the last prefix that decodes
// cleanly instead of raising.
func DecodeBase64(raw []byte) []byte {
	trimmed := bytes.TrimRight(bytes.ReplaceAll(raw, []byte("\n"), nil), "\r \t")
	trimmed = bytes.ReplaceAll(trimmed, []byte("\r"), nil)

	for len(trimmed) > 0 {
		if out, err := base64.StdEncoding.DecodeString(string(trimmed)); err == nil {
			return out
		}
		if out, err := base64.RawStdEncoding.DecodeString(string(trimmed)); err == nil {
			return out
		}
		trimmed = trimmed[:len(trimmed)-1]
	}
	return nil
}

// DecodeByTransferEncoding applies the named Content-Transfer-Encoding
// to raw, passing it through unchanged for "7bit"/"8bit"/"binary" or an
// unrecognised encoding.
func DecodeByTransferEncoding(raw []byte, encoding string) []byte {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return DecodeQuotedPrintable(raw)
	case "base64":
		return DecodeBase64(raw)
	default:
		return raw
	}
}

// DecodeCharset converts raw bytes from the named MIME charset to UTF-8.
// An unknown or empty charset name is treated as UTF-8 already.
func DecodeCharset(raw []byte, charset string) string {
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "us-ascii") {
		return string(raw)
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(raw)
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

var (
	htmlBreakTags = regexp.MustCompile(`(?i)<(br|/p|/div|/li|/tr)\s*/?>`)
	htmlTagPattern = regexp.MustCompile(`(?s)<[^>]*>`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

var htmlEntityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

// HTMLToText produces a single-line plaintext preview from an HTML
// fragment: block-level breaks become spaces, tags are stripped, common
// entities decoded, and runs of whitespace collapsed to one space.
func HTMLToText(html string) string {
	if html == "" {
		return ""
	}
	text := htmlBreakTags.ReplaceAllString(html, " ")
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = htmlEntityReplacer.Replace(text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
