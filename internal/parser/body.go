package parser

import (
	"regexp"
	"strings"

	"github.com/bberkay/open-mail/internal/codec"
)

// PartBytes maps an IMAP part number to the raw bytes fetched for it
// (BODY[<number>]).
type PartBytes map[string][]byte

// DecodeBody decodes raw bytes per the part's transfer encoding and MIME
// charset parameter; sanitize=true additionally strips HTML down to
// plain text, per spec.md §4.2's decode_body.
func DecodeBody(raw []byte, part Part, sanitize bool) string {
	decoded := codec.DecodeByTransferEncoding(raw, part.Encoding)
	charset := part.Params["charset"]
	text := codec.DecodeCharset(decoded, charset)
	if sanitize || strings.HasPrefix(part.ContentType, "text/html") {
		if sanitize {
			return codec.HTMLToText(text)
		}
	}
	return text
}

func findPart(parts []Part, number string) (Part, bool) {
	for _, p := range parts {
		if p.Number == number {
			return p, true
		}
	}
	return Part{}, false
}

// GetTextHTMLBody returns the decoded text/html body, or "" if the
// message has no HTML part.
func GetTextHTMLBody(parts []Part, bodies PartBytes) string {
	number := GetPart(parts, Selector{ContentTypes: []string{"text", "html"}})
	if number == "" {
		return ""
	}
	part, ok := findPart(parts, number)
	if !ok {
		return ""
	}
	return DecodeBody(bodies[number], part, false)
}

// GetTextPlainBody returns the decoded text/plain body, or "" if the
// message has no plain-text part.
func GetTextPlainBody(parts []Part, bodies PartBytes) string {
	number := GetPart(parts, Selector{ContentTypes: []string{"text", "plain"}})
	if number == "" {
		return ""
	}
	part, ok := findPart(parts, number)
	if !ok {
		return ""
	}
	return DecodeBody(bodies[number], part, false)
}

// GetEmailContentBody resolves the preferred body for full-content
// views: text/html first, else text/plain, else part "1" decoded by its
// own transfer-encoding — the tie-break spec.md §4.2 documents for
// get_email_content.
func GetEmailContentBody(parts []Part, bodies PartBytes) string {
	if b := GetTextHTMLBody(parts, bodies); b != "" {
		return b
	}
	if b := GetTextPlainBody(parts, bodies); b != "" {
		return b
	}
	if part, ok := findPart(parts, "1"); ok {
		return DecodeBody(bodies["1"], part, false)
	}
	return ""
}

// GetPreviewBody resolves the preview body for list views: plain text is
// preferred over HTML (the opposite tie-break from full content), per
// spec.md §4.2 ("In get_emails the preview prefers plain text").
func GetPreviewBody(parts []Part, bodies PartBytes) string {
	if b := GetTextPlainBody(parts, bodies); b != "" {
		return b
	}
	if b := GetTextHTMLBody(parts, bodies); b != "" {
		return codec.HTMLToText(b)
	}
	return ""
}

// TruncateBodyShort truncates body to 100 characters, with the original
// implementation's explicit "No Content" sentinel for an empty body
// (spec.md §3, EmailSummary.body_short).
func TruncateBodyShort(body string) string {
	if body == "" {
		return "No Content"
	}
	runes := []rune(body)
	if len(runes) <= 100 {
		return body
	}
	return string(runes[:100])
}

// GetAttachmentList returns every part classified as a (non-inline)
// attachment.
func GetAttachmentList(parts []Part) []Part {
	var out []Part
	for _, p := range parts {
		if p.IsAttachment() {
			out = append(out, p)
		}
	}
	return out
}

// GetInlineAttachmentList returns every part classified as an inline,
// CID-addressable attachment (embedded images, typically).
func GetInlineAttachmentList(parts []Part) []Part {
	var out []Part
	for _, p := range parts {
		if p.IsInlineAttachment() {
			out = append(out, p)
		}
	}
	return out
}

var imgCIDPattern = regexp.MustCompile(`(?i)<img[^>]+src=["']cid:([^"']+)["']`)

// InlineCIDReferences returns every `cid:X` referenced from an <img> tag
// in html, in document order.
func InlineCIDReferences(html string) []string {
	matches := imgCIDPattern.FindAllStringSubmatch(html, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// ResolveInlineCID finds the inline attachment part referenced by cid.
// Matching is lenient by design: cid may be a substring of either the
// part's Filename or its ContentID, mirroring the original
// get_email_content's CID-matching rule (some servers omit angle
// brackets or add a suffix to the CID in the BODYSTRUCTURE). Matching
// is case-sensitive.
func ResolveInlineCID(inline []Part, cid string) (Part, bool) {
	for _, p := range inline {
		if strings.Contains(p.Filename, cid) || strings.Contains(p.ContentID, cid) || p.ContentID == cid {
			return p, true
		}
	}
	return Part{}, false
}

// GetCIDAndDataOfInlineAttachments resolves every inline CID referenced
// in html to its (cid, content-type, base64-data) triple, decoding each
// referenced part's bytes from bodies.
func GetCIDAndDataOfInlineAttachments(html string, inline []Part, bodies PartBytes) []InlineAttachmentData {
	var out []InlineAttachmentData
	for _, cid := range InlineCIDReferences(html) {
		part, ok := ResolveInlineCID(inline, cid)
		if !ok {
			continue
		}
		raw := codec.DecodeByTransferEncoding(bodies[part.Number], part.Encoding)
		out = append(out, InlineAttachmentData{
			CID:         cid,
			ContentType: part.ContentType,
			Base64Data:  toBase64(raw),
		})
	}
	return out
}

// InlineAttachmentData is one resolved inline attachment: enough to
// build a `data:<type>;base64,<data>` URI.
type InlineAttachmentData struct {
	CID         string
	ContentType string
	Base64Data  string
}

// GetInlineAttachmentSources returns the literal data: URIs already
// present in html (as opposed to cid: references that still need
// resolving), e.g. images a caller already inlined before send.
var dataURIPattern = regexp.MustCompile(`(?i)data:([a-zA-Z0-9+/.\-]+);base64,([a-zA-Z0-9+/=]+)`)

func GetInlineAttachmentSources(html string) []InlineAttachmentData {
	matches := dataURIPattern.FindAllStringSubmatch(html, -1)
	out := make([]InlineAttachmentData, 0, len(matches))
	for _, m := range matches {
		out = append(out, InlineAttachmentData{ContentType: m[1], Base64Data: m[2]})
	}
	return out
}

// ResolveInlineImagesToDataURIs replaces every `cid:X` reference in html
// with the corresponding `data:<type>;base64,<data>` URI, for the
// inline attachments resolvable from inline.
func ResolveInlineImagesToDataURIs(html string, inline []Part, bodies PartBytes) string {
	resolved := html
	for _, att := range GetCIDAndDataOfInlineAttachments(html, inline, bodies) {
		resolved = strings.ReplaceAll(
			resolved,
			"cid:"+att.CID,
			"data:"+att.ContentType+";base64,"+att.Base64Data,
		)
	}
	return resolved
}
