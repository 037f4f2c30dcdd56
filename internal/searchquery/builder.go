// Package searchquery converts a model.SearchCriteria into the typed
// *imap.SearchCriteria go-imap/v2 serializes onto the wire as a SEARCH
// command, per spec.md §4.3.
package searchquery

import (
	"encoding/json"
	"strings"

	"github.com/emersion/go-imap/v2"

	"github.com/bberkay/open-mail/internal/codec"
	"github.com/bberkay/open-mail/internal/model"
)

// ParseRaw accepts a JSON-encoded model.SearchCriteria object as sent by
// an RPC caller, mirroring the original implementation's
// SearchCriteria.parse_raw. An empty raw or one that doesn't decode to a
// JSON object is not an error: it is returned unchanged as the second
// value so the caller can fall back to treating raw as a plain-text
// query, the same leniency the original affords.
func ParseRaw(raw []byte) (*model.SearchCriteria, string) {
	if len(raw) == 0 {
		return nil, ""
	}
	var c model.SearchCriteria
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, string(raw)
	}
	return &c, ""
}

// systemFlags maps the bare flag name a caller supplies to the IMAP
// system flag constant it represents.
var systemFlags = map[string]imap.Flag{
	"SEEN":     imap.FlagSeen,
	"ANSWERED": imap.FlagAnswered,
	"FLAGGED":  imap.FlagFlagged,
	"DELETED":  imap.FlagDeleted,
	"DRAFT":    imap.FlagDraft,
}

// Build converts c into the typed criteria go-imap/v2's UIDSearch
// expects. An entirely empty c maps to the zero-value criteria, which
// go-imap/v2 serializes as "SEARCH ALL".
func Build(c model.SearchCriteria) *imap.SearchCriteria {
	var criteria imap.SearchCriteria

	addAddressCriterion(&criteria, "From", c.Senders)
	addAddressCriterion(&criteria, "To", c.Receivers)
	addAddressCriterion(&criteria, "Cc", c.CC)
	addAddressCriterion(&criteria, "Bcc", c.BCC)

	if c.Subject != "" {
		criteria.Header = append(criteria.Header, imap.SearchCriteriaHeaderField{
			Key: "Subject", Value: c.Subject,
		})
	}
	if c.Since != "" {
		if t, ok := codec.ParseDate(c.Since); ok {
			criteria.Since = t
		}
	}
	if c.Before != "" {
		if t, ok := codec.ParseDate(c.Before); ok {
			criteria.Before = t
		}
	}
	if c.Include != "" {
		criteria.Text = append(criteria.Text, c.Include)
	}
	if c.Exclude != "" {
		criteria.Not = append(criteria.Not, imap.SearchCriteria{Text: []string{c.Exclude}})
	}
	if c.LargerThan > 0 {
		criteria.Larger = c.LargerThan
	}
	if c.SmallerThan > 0 {
		criteria.Smaller = c.SmallerThan
	}
	if c.HasAttachments {
		// go-imap/v2's typed criteria has no BODYSTRUCTURE predicate;
		// approximate server-side with a text search and let callers
		// needing exactness post-filter against the parsed body
		// structure (spec.md §9 open question).
		criteria.Text = append(criteria.Text, "attachment")
	}

	for _, f := range c.FlagsIncluded {
		criteria.Flag = append(criteria.Flag, resolveFlag(f))
	}
	for _, f := range c.FlagsExcluded {
		criteria.NotFlag = append(criteria.NotFlag, resolveFlag(f))
	}

	return &criteria
}

func resolveFlag(name string) imap.Flag {
	upper := strings.ToUpper(strings.TrimPrefix(name, "\\"))
	if f, ok := systemFlags[upper]; ok {
		return f
	}
	return imap.Flag(name)
}

// addAddressCriterion ANDs an "any of values" constraint on the given
// header key into parent. A single value becomes a plain header field;
// two or more become a balanced OR tree ANDed in through parent.Or,
// mirroring the recursive_or_query helper the original implementation
// used for the same "any of N senders" query shape.
func addAddressCriterion(parent *imap.SearchCriteria, key string, values []string) {
	switch len(values) {
	case 0:
		return
	case 1:
		parent.Header = append(parent.Header, imap.SearchCriteriaHeaderField{Key: key, Value: values[0]})
	default:
		sub := orHeaderCriteria(key, values)
		parent.Or = append(parent.Or, sub.Or...)
	}
}

// orHeaderCriteria builds a balanced OR tree of header-field criteria
// over values, so query depth is O(log n) regardless of input size.
func orHeaderCriteria(key string, values []string) imap.SearchCriteria {
	if len(values) == 1 {
		return imap.SearchCriteria{Header: []imap.SearchCriteriaHeaderField{{Key: key, Value: values[0]}}}
	}
	mid := len(values) / 2
	left := orHeaderCriteria(key, values[:mid])
	right := orHeaderCriteria(key, values[mid:])
	return imap.SearchCriteria{Or: [][2]imap.SearchCriteria{{left, right}}}
}
