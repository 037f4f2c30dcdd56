// Package parser implements the pure, stateless operations over decoded
// FETCH responses described in spec.md §4.2: splitting a BODYSTRUCTURE
// into addressable MIME parts, picking bodies and attachments out of it,
// and decoding headers/bodies. It is built on top of the typed
// BODYSTRUCTURE the go-imap/v2 client already parses off the wire
// (imap.BodyStructure), rather than regexing the raw response the way
// the original implementation did — see spec.md's "Regex-based MIME
// parsing" design note.
package parser

import (
	"strconv"
	"strings"

	"github.com/emersion/go-imap/v2"
)

// Part is one node of a flattened MIME tree: a leaf (single-part) body
// addressable by its IMAP part number (e.g. "1.2").
type Part struct {
	Number      string
	ContentType string // "text/plain", "application/pdf", ...
	Encoding    string // Content-Transfer-Encoding
	Size        uint32 // approximate octets, per BODYSTRUCTURE
	Filename    string
	Disposition string // "attachment", "inline", or ""
	ContentID   string
	Params      map[string]string
}

// IsAttachment reports whether p should be listed as an attachment:
// either it carries an explicit "attachment" disposition, or it has a
// filename with no other role (matching the original get_attachment_list
// heuristic of "has a filename").
func (p Part) IsAttachment() bool {
	if p.Disposition == "attachment" {
		return true
	}
	return p.Disposition == "" && p.Filename != "" && !strings.HasPrefix(p.ContentType, "text/")
}

// IsInlineAttachment reports whether p is an inline, CID-referenced part
// (typically an embedded image referenced from HTML via "cid:").
func (p Part) IsInlineAttachment() bool {
	return p.Disposition == "inline" && p.ContentID != ""
}

// FlattenBodyStructure walks bs and returns every leaf part in document
// order, each tagged with its dotted IMAP part number.
func FlattenBodyStructure(bs imap.BodyStructure) []Part {
	var parts []Part
	flatten(bs, nil, &parts)
	return parts
}

func flatten(bs imap.BodyStructure, prefix []int, out *[]Part) {
	switch v := bs.(type) {
	case *imap.BodyStructureMultiPart:
		for i, child := range v.Children {
			flatten(child, append(append([]int{}, prefix...), i+1), out)
		}
	case *imap.BodyStructureSinglePart:
		number := partNumber(prefix)
		ct := strings.ToLower(v.Type + "/" + v.Subtype)
		part := Part{
			Number:      number,
			ContentType: ct,
			Encoding:    strings.ToLower(v.Encoding),
			Size:        v.Size,
			Params:      v.Params,
		}
		if v.Extended != nil {
			if v.Extended.Disposition != nil {
				part.Disposition = strings.ToLower(v.Extended.Disposition.Value)
				if fn, ok := v.Extended.Disposition.Params["filename"]; ok {
					part.Filename = fn
				}
			}
			if v.Extended.Language != nil {
				// unused, kept for completeness of the extended fields.
				_ = v.Extended.Language
			}
		}
		if part.Filename == "" {
			if name, ok := v.Params["name"]; ok {
				part.Filename = name
			}
		}
		if v.ID != "" {
			part.ContentID = strings.Trim(v.ID, "<>")
		}
		*out = append(*out, part)
	}
}

func partNumber(prefix []int) string {
	if len(prefix) == 0 {
		return "1"
	}
	strs := make([]string, len(prefix))
	for i, n := range prefix {
		strs[i] = strconv.Itoa(n)
	}
	return strings.Join(strs, ".")
}

// GetContentTypeAndEncoding returns the (content_type, transfer_encoding)
// pair for the selected part, per spec.md §4.2.
func GetContentTypeAndEncoding(parts []Part, number string) (string, string) {
	for _, p := range parts {
		if p.Number == number {
			return p.ContentType, p.Encoding
		}
	}
	return "", ""
}

// Selector is a content-type or filename/CID match used by GetPart.
type Selector struct {
	ContentTypes []string // e.g. {"text", "html"} or {"TEXT", "HTML"}
	Filename     string
	CID          string
}

// GetPart returns the part number matching the given selectors: content
// type (matched as "type/subtype" case-insensitively against any of
// ContentTypes joined with "/"), or filename, or content-id. Returns ""
// when nothing matches.
func GetPart(parts []Part, sel Selector) string {
	if sel.Filename != "" {
		for _, p := range parts {
			if strings.EqualFold(p.Filename, sel.Filename) {
				return p.Number
			}
		}
	}
	if sel.CID != "" {
		for _, p := range parts {
			if p.ContentID == sel.CID {
				return p.Number
			}
		}
	}
	if len(sel.ContentTypes) > 0 {
		want := strings.ToLower(strings.Join(sel.ContentTypes, "/"))
		for _, p := range parts {
			if p.ContentType == want {
				return p.Number
			}
		}
	}
	return ""
}

// GetSize returns the approximate size in octets of the selected part,
// or of the whole message when number is "".
func GetSize(parts []Part, number string) uint32 {
	if number == "" {
		var total uint32
		for _, p := range parts {
			total += p.Size
		}
		return total
	}
	for _, p := range parts {
		if p.Number == number {
			return p.Size
		}
	}
	return 0
}

// MakeSizeHumanReadable formats a byte count the way the original
// make_size_human_readable helper did (B/KB/MB, one decimal place).
func MakeSizeHumanReadable(size int64) string {
	switch {
	case size >= 1024*1024:
		return strconv.FormatFloat(float64(size)/(1024*1024), 'f', 1, 64) + " MB"
	case size >= 1024:
		return strconv.FormatFloat(float64(size)/1024, 'f', 1, 64) + " KB"
	default:
		return strconv.FormatInt(size, 10) + " B"
	}
}
