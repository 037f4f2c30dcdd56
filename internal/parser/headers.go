package parser

import (
	"bufio"
	"bytes"
	"mime"
	"net/textproto"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
)

// wordDecoder decodes RFC 2047 encoded-words in envelope fields (the
// server returns the ENVELOPE's display names verbatim, encoded-word and
// all). mime.WordDecoder is the stdlib primitive go-message itself builds
// its header decoding on top of; there is no separate third-party
// encoded-word decoder in the pack, so this one case stays on the
// standard library.
var wordDecoder = &mime.WordDecoder{}

// DecodeEncodedWord decodes a single RFC 2047 encoded-word header value,
// returning it unchanged if it is not (or fails to decode as) one.
func DecodeEncodedWord(s string) string {
	decoded, err := wordDecoder.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}

// Headers is the set of header fields a list view needs, resolved to
// display-name + address form.
type Headers struct {
	Sender    string
	Receiver  string
	CC        string
	BCC       string
	Subject   string
	Date      time.Time
	MessageID string
	InReplyTo string
}

// GetHeaders extracts Headers from a fetched envelope, decoding
// encoded-words and joining multiple recipients with ", ".
func GetHeaders(env *imap.Envelope) Headers {
	if env == nil {
		return Headers{}
	}
	h := Headers{
		Subject:   DecodeEncodedWord(env.Subject),
		Date:      env.Date,
		MessageID: strings.Trim(env.MessageID, "<>"),
	}
	if len(env.From) > 0 {
		h.Sender = formatAddress(env.From[0])
	}
	h.Receiver = formatAddressList(env.To)
	h.CC = formatAddressList(env.Cc)
	h.BCC = formatAddressList(env.Bcc)
	if len(env.InReplyTo) > 0 {
		h.InReplyTo = strings.Trim(env.InReplyTo[0], "<>")
	}
	return h
}

func formatAddressList(addrs []imap.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		parts = append(parts, formatAddress(a))
	}
	return strings.Join(parts, ", ")
}

// formatAddress renders "Display Name <addr@host>" when a display name
// is present, else the bare address — the display-name + angle-bracket
// resolution spec.md §4.2 calls for in get_headers.
func formatAddress(a imap.Address) string {
	addr := a.Addr()
	name := DecodeEncodedWord(a.Name)
	if name == "" {
		return addr
	}
	if strings.Contains(name, addr) {
		return name
	}
	return name + " <" + addr + ">"
}

// GetUID returns the UID of a fetched message.
func GetUID(uid imap.UID) uint32 { return uint32(uid) }

// GetFlags converts fetched IMAP flags to their bare string form
// (including the leading backslash for system flags).
func GetFlags(flags []imap.Flag) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		out = append(out, string(f))
	}
	return out
}

// HasFlag reports whether flags contains name (case-sensitive, as IMAP
// flags are).
func HasFlag(flags []string, name string) bool {
	for _, f := range flags {
		if f == name {
			return true
		}
	}
	return false
}

// ParseReferencesHeader extracts the References header value from a raw
// RFC 822 header block, as returned by a BODY.PEEK[HEADER.FIELDS
// (REFERENCES)] fetch. Best-effort and never an error: a missing
// trailing blank line is tolerated (header lines read before the end are
// used), and an absent header resolves to "".
func ParseReferencesHeader(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	tp := textproto.NewReader(bufio.NewReader(bytes.NewReader(raw)))
	header, _ := tp.ReadMIMEHeader()
	if header == nil {
		return ""
	}
	return strings.TrimSpace(header.Get("References"))
}
