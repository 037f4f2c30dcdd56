package imapsession

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bberkay/open-mail/internal/errs"
)

// ParseSequenceSet validates s against RFC 9051's sequence-set grammar
// (`seq = item ("," item)*`, `item = num | num ":" num | num ":*" | "*" |
// "*:" num`) and expands it to the concrete UIDs it denotes, given the
// highest known UID max. "*" alone is rejected for existence checks per
// spec.md's sequence-set invariant (vi) and scenario 6.
func ParseSequenceSet(s string, max uint32, allowBareWildcard bool) ([]uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errs.New(errs.Validation, "imapsession.ParseSequenceSet", "empty sequence set", nil)
	}

	seen := make(map[uint32]bool)
	var out []uint32
	add := func(n uint32) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}

	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, errs.New(errs.Validation, "imapsession.ParseSequenceSet", "empty item in sequence set "+s, nil)
		}
		if item == "*" {
			if !allowBareWildcard {
				return nil, errs.New(errs.Validation, "imapsession.ParseSequenceSet", "bare \"*\" not allowed here", nil)
			}
			add(max)
			continue
		}
		if strings.Contains(item, ":") {
			parts := strings.SplitN(item, ":", 2)
			lo, err := parseSeqNum(parts[0], max)
			if err != nil {
				return nil, err
			}
			var hi uint32
			if parts[1] == "*" {
				hi = max
			} else {
				hi, err = parseSeqNum(parts[1], max)
				if err != nil {
					return nil, err
				}
			}
			if lo > hi {
				lo, hi = hi, lo
			}
			for n := lo; n <= hi; n++ {
				add(n)
			}
			continue
		}
		n, err := parseSeqNum(item, max)
		if err != nil {
			return nil, err
		}
		add(n)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func parseSeqNum(s string, max uint32) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, errs.New(errs.Validation, "imapsession.ParseSequenceSet", "invalid sequence number "+s, err)
	}
	_ = max
	return uint32(n), nil
}

// ValidateAgainstSearch checks that every UID expanded from s is present
// in last (the cached SearchedEmails.UIDs), per spec.md invariant (vi).
func ValidateAgainstSearch(s string, last []uint32) ([]uint32, error) {
	max := uint32(0)
	for _, u := range last {
		if u > max {
			max = u
		}
	}
	expanded, err := ParseSequenceSet(s, max, false)
	if err != nil {
		return nil, err
	}
	known := make(map[uint32]bool, len(last))
	for _, u := range last {
		known[u] = true
	}
	for _, u := range expanded {
		if !known[u] {
			return nil, errs.New(errs.NotFound, "imapsession.ValidateAgainstSearch", "UID not present in last search result", nil)
		}
	}
	return expanded, nil
}
