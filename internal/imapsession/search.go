package imapsession

import (
	"sort"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/bberkay/open-mail/internal/errs"
	"github.com/bberkay/open-mail/internal/model"
	"github.com/bberkay/open-mail/internal/parser"
	"github.com/bberkay/open-mail/internal/searchquery"
)

// SearchEmails selects folder readonly, builds the query from criteria,
// runs UID SEARCH, and caches the result sorted descending as
// SearchedEmails (spec.md invariant iii).
func (s *Session) SearchEmails(folder string, criteria model.SearchCriteria) error {
	if err := s.Select(folder, true); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireSelected("imapsession.SearchEmails"); err != nil {
		return err
	}

	crit := searchquery.Build(criteria)
	var uids []imap.UID
	err := s.dispatch(func() error {
		data, err := s.client.UIDSearch(crit, nil).Wait()
		if err != nil {
			return err
		}
		uids = data.AllUIDs()
		return nil
	})
	if err != nil {
		return errs.New(errs.Protocol, "imapsession.SearchEmails", "UID SEARCH in "+s.folder, err)
	}

	out := make([]uint32, 0, len(uids))
	for _, u := range uids {
		out = append(out, uint32(u))
	}
	sort.Sort(sort.Reverse(uint32Slice(out)))

	s.searched = &model.SearchedEmails{Folder: s.folder, Query: "", UIDs: out}
	return nil
}

type uint32Slice []uint32

func (u uint32Slice) Len() int           { return len(u) }
func (u uint32Slice) Less(i, j int) bool { return u[i] < u[j] }
func (u uint32Slice) Swap(i, j int)      { u[i], u[j] = u[j], u[i] }

// IsEmailExists validates sequenceSet (rejecting any "*" wildcard, bare
// or in a range) and checks membership via a live UID SEARCH UID <set>
// against folder.
func (s *Session) IsEmailExists(folder, sequenceSet string) (bool, error) {
	if strings.Contains(sequenceSet, "*") {
		return false, errs.New(errs.Validation, "imapsession.IsEmailExists", "wildcard \"*\" not allowed in existence checks", nil)
	}
	if err := s.Select(folder, true); err != nil {
		return false, err
	}

	s.mu.Lock()
	max := uint32(0)
	if s.searched != nil {
		for _, u := range s.searched.UIDs {
			if u > max {
				max = u
			}
		}
	}
	s.mu.Unlock()

	wanted, err := ParseSequenceSet(sequenceSet, max, false)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var found []imap.UID
	err = s.dispatch(func() error {
		uidSet, perr := parseUIDSet(sequenceSet)
		if perr != nil {
			return perr
		}
		data, serr := s.client.UIDSearch(&imap.SearchCriteria{UID: []imap.UIDSet{uidSet}}, nil).Wait()
		if serr != nil {
			return serr
		}
		found = data.AllUIDs()
		return nil
	})
	if err != nil {
		return false, errs.New(errs.Protocol, "imapsession.IsEmailExists", "UID SEARCH UID "+sequenceSet, err)
	}

	foundSet := make(map[uint32]bool, len(found))
	for _, u := range found {
		foundSet[uint32(u)] = true
	}
	for _, u := range wanted {
		if !foundSet[u] {
			return false, nil
		}
	}
	return true, nil
}

// parseUIDSet builds an imap.UIDSet from a validated sequence-set
// string. Ranges and bare numbers pass through to imap.ParseUIDSet
// directly, since go-imap/v2 already implements the same RFC 9051
// grammar this session validates independently for the ValidationError
// path.
func parseUIDSet(s string) (imap.UIDSet, error) {
	set, err := imap.ParseUIDSet(s)
	if err != nil {
		return nil, errs.New(errs.Validation, "imapsession.parseUIDSet", "invalid sequence set "+s, err)
	}
	return set, nil
}

// GetEmails pages the cached UID list [start,end), fetching headers,
// bodystructure and flags, then the preview body part truncated to 100
// characters.
func (s *Session) GetEmails(start, end int) (model.Mailbox, error) {
	s.mu.Lock()
	if s.searched == nil {
		s.mu.Unlock()
		return model.Mailbox{}, errs.New(errs.Validation, "imapsession.GetEmails", "no cached search; call SearchEmails first", nil)
	}
	all := s.searched.UIDs
	total := len(all)
	if start < 0 {
		start = 0
	}
	if end > total {
		end = total
	}
	if start > end {
		start = end
	}
	page := append([]uint32(nil), all[start:end]...)
	folder := s.folder
	s.mu.Unlock()

	if len(page) == 0 {
		return model.Mailbox{Folder: folder, Total: total}, nil
	}

	summaries, err := s.fetchSummaries(page)
	if err != nil {
		return model.Mailbox{}, err
	}
	return model.Mailbox{Folder: folder, Emails: summaries, Total: total}, nil
}

func (s *Session) fetchSummaries(uids []uint32) ([]model.EmailSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireSelected("imapsession.GetEmails"); err != nil {
		return nil, err
	}

	uidNums := make([]imap.UID, len(uids))
	for i, u := range uids {
		uidNums[i] = imap.UID(u)
	}
	uidSet := imap.UIDSetNum(uidNums...)

	fetchOpts := &imap.FetchOptions{
		UID:           true,
		Envelope:      true,
		Flags:         true,
		BodyStructure: &imap.FetchItemBodyStructure{},
	}

	type partial struct {
		uid     uint32
		headers parser.Headers
		flags   []string
		parts   []parser.Part
	}
	var partials []partial
	err := s.dispatch(func() error {
		fetchCmd := s.client.Fetch(uidSet, fetchOpts)
		defer fetchCmd.Close()
		for {
			msg := fetchCmd.Next()
			if msg == nil {
				break
			}
			buf, cerr := msg.Collect()
			if cerr != nil {
				continue
			}
			var parts []parser.Part
			if buf.BodyStructure != nil {
				parts = parser.FlattenBodyStructure(buf.BodyStructure)
			}
			partials = append(partials, partial{
				uid:     uint32(buf.UID),
				headers: parser.GetHeaders(buf.Envelope),
				flags:   parser.GetFlags(buf.Flags),
				parts:   parts,
			})
		}
		return fetchCmd.Close()
	})
	if err != nil {
		return nil, errs.New(errs.Protocol, "imapsession.GetEmails", "UID FETCH in "+s.folder, err)
	}

	out := make([]model.EmailSummary, 0, len(partials))
	for _, p := range partials {
		preview := s.fetchPreviewBodyLocked(p.uid, p.parts)
		out = append(out, model.EmailSummary{
			UID:         p.uid,
			Sender:      p.headers.Sender,
			Receiver:    p.headers.Receiver,
			Date:        p.headers.Date,
			Subject:     p.headers.Subject,
			BodyShort:   parser.TruncateBodyShort(preview),
			Flags:       p.flags,
			Attachments: attachmentsFromParts(p.parts),
		})
	}

	// UID FETCH does not promise response order; re-sort to match the
	// caller's requested page order (descending, per SearchedEmails).
	sort.Slice(out, func(i, j int) bool { return out[i].UID > out[j].UID })
	return out, nil
}

// fetchPreviewBodyLocked fetches only the MIME part selected for list
// previews (plain text preferred over HTML) and returns its decoded
// text, truncated by the caller. Caller must already hold s.mu.
func (s *Session) fetchPreviewBodyLocked(uid uint32, parts []parser.Part) string {
	number := parser.GetPart(parts, parser.Selector{ContentTypes: []string{"text", "plain"}})
	if number == "" {
		number = parser.GetPart(parts, parser.Selector{ContentTypes: []string{"text", "html"}})
	}
	if number == "" {
		return ""
	}
	part, ok := findPartByNumber(parts, number)
	if !ok {
		return ""
	}

	section := &imap.FetchItemBodySection{Part: partNumberPath(number), Peek: true}
	uidSet := imap.UIDSetNum(imap.UID(uid))

	var raw []byte
	_ = s.dispatch(func() error {
		fetchCmd := s.client.Fetch(uidSet, &imap.FetchOptions{UID: true, BodySection: []*imap.FetchItemBodySection{section}})
		defer fetchCmd.Close()
		msg := fetchCmd.Next()
		if msg == nil {
			return fetchCmd.Close()
		}
		buf, cerr := msg.Collect()
		if cerr != nil {
			return cerr
		}
		raw = buf.FindBodySection(section)
		return fetchCmd.Close()
	})
	if raw == nil {
		return ""
	}
	return parser.DecodeBody(raw, part, part.ContentType == "text/html")
}

func findPartByNumber(parts []parser.Part, number string) (parser.Part, bool) {
	for _, p := range parts {
		if p.Number == number {
			return p, true
		}
	}
	return parser.Part{}, false
}

func attachmentsFromParts(parts []parser.Part) []model.Attachment {
	var out []model.Attachment
	for _, p := range parser.GetAttachmentList(parts) {
		out = append(out, model.Attachment{
			Name: p.Filename,
			Size: int64(p.Size),
			Type: p.ContentType,
			CID:  p.ContentID,
		})
	}
	return out
}

// GetEmailFlags returns flag lists for every UID expanded from
// sequenceSet, in expansion order.
func (s *Session) GetEmailFlags(sequenceSet string) ([]model.Flags, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireSelected("imapsession.GetEmailFlags"); err != nil {
		return nil, err
	}

	uidSet, err := parseUIDSet(sequenceSet)
	if err != nil {
		return nil, err
	}

	type pair struct {
		uid   uint32
		flags []string
	}
	var pairs []pair
	err = s.dispatch(func() error {
		fetchCmd := s.client.Fetch(uidSet, &imap.FetchOptions{UID: true, Flags: true})
		defer fetchCmd.Close()
		for {
			msg := fetchCmd.Next()
			if msg == nil {
				break
			}
			buf, cerr := msg.Collect()
			if cerr != nil {
				continue
			}
			pairs = append(pairs, pair{uid: uint32(buf.UID), flags: parser.GetFlags(buf.Flags)})
		}
		return fetchCmd.Close()
	})
	if err != nil {
		return nil, errs.New(errs.Protocol, "imapsession.GetEmailFlags", "UID FETCH FLAGS "+sequenceSet, err)
	}

	out := make([]model.Flags, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, model.Flags{UID: p.uid, Flags: p.flags})
	}
	// UID FETCH does not promise response order; ParseSequenceSet expands
	// to ascending UIDs, so sort to match.
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

// GetEmailSize returns the RFC822.SIZE of uid in folder.
func (s *Session) GetEmailSize(folder string, uid uint32) (int64, error) {
	if err := s.Select(folder, true); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	uidSet := imap.UIDSetNum(imap.UID(uid))
	var size int64
	found := false
	err := s.dispatch(func() error {
		fetchCmd := s.client.Fetch(uidSet, &imap.FetchOptions{UID: true, RFC822Size: true})
		defer fetchCmd.Close()
		for {
			msg := fetchCmd.Next()
			if msg == nil {
				break
			}
			buf, cerr := msg.Collect()
			if cerr != nil {
				continue
			}
			size = buf.RFC822Size
			found = true
		}
		return fetchCmd.Close()
	})
	if err != nil {
		return 0, errs.New(errs.Protocol, "imapsession.GetEmailSize", "UID FETCH RFC822.SIZE", err)
	}
	if !found {
		return 0, errs.New(errs.NotFound, "imapsession.GetEmailSize", "UID not found in "+s.folder, nil)
	}
	return size, nil
}

// GetEmailContent fetches the full body plus bodystructure for uid,
// resolves inline cid: references to data URIs, and best-effort marks
// the message \Seen.
func (s *Session) GetEmailContent(folder string, uid uint32) (model.EmailWithContent, error) {
	if err := s.Select(folder, false); err != nil {
		return model.EmailWithContent{}, err
	}

	s.mu.Lock()
	uidSet := imap.UIDSetNum(imap.UID(uid))
	fetchOpts := &imap.FetchOptions{
		UID:           true,
		Envelope:      true,
		Flags:         true,
		BodyStructure: &imap.FetchItemBodyStructure{},
	}

	var buf *imapclient.FetchMessageBuffer
	err := s.dispatch(func() error {
		fetchCmd := s.client.Fetch(uidSet, fetchOpts)
		defer fetchCmd.Close()
		msg := fetchCmd.Next()
		if msg == nil {
			return fetchCmd.Close()
		}
		var cerr error
		buf, cerr = msg.Collect()
		if cerr != nil {
			return cerr
		}
		return fetchCmd.Close()
	})
	s.mu.Unlock()
	if err != nil {
		return model.EmailWithContent{}, errs.New(errs.Protocol, "imapsession.GetEmailContent", "UID FETCH bodystructure", err)
	}
	if buf == nil {
		return model.EmailWithContent{}, errs.New(errs.NotFound, "imapsession.GetEmailContent", "UID not found", nil)
	}

	parts := parser.FlattenBodyStructure(buf.BodyStructure)
	bodies, err := s.fetchBodySections(uid, parts)
	if err != nil {
		return model.EmailWithContent{}, err
	}

	headers := parser.GetHeaders(buf.Envelope)
	body := parser.GetEmailContentBody(parts, bodies)
	inline := parser.GetInlineAttachmentList(parts)
	body = parser.ResolveInlineImagesToDataURIs(body, inline, bodies)
	references := s.fetchReferencesHeader(uid)

	s.mu.Lock()
	_ = s.dispatch(func() error {
		return s.client.Store(uidSet, &imap.StoreFlags{
			Op: imap.StoreFlagsAdd, Silent: true, Flags: []imap.Flag{imap.FlagSeen},
		}, nil).Close()
	})
	s.mu.Unlock()

	return model.EmailWithContent{
		EmailSummary: model.EmailSummary{
			UID:         uid,
			Sender:      headers.Sender,
			Receiver:    headers.Receiver,
			Date:        headers.Date,
			Subject:     headers.Subject,
			BodyShort:   parser.TruncateBodyShort(parser.GetPreviewBody(parts, bodies)),
			Flags:       parser.GetFlags(buf.Flags),
			Attachments: attachmentsFromParts(parts),
		},
		Body:       body,
		MessageID:  headers.MessageID,
		References: references,
		InReplyTo:  headers.InReplyTo,
	}, nil
}

// fetchReferencesHeader fetches BODY.PEEK[HEADER.FIELDS (REFERENCES)] for
// uid and parses the raw header block, per spec.md §4.2's HEADER.FIELDS
// selector — the ENVELOPE response carries In-Reply-To but never
// References, so the real header chain needs its own fetch rather than
// being stood in for by In-Reply-To.
func (s *Session) fetchReferencesHeader(uid uint32) string {
	section := &imap.FetchItemBodySection{
		Specifier:    imap.PartSpecifierHeader,
		HeaderFields: []string{"REFERENCES"},
		Peek:         true,
	}
	uidSet := imap.UIDSetNum(imap.UID(uid))

	var raw []byte
	s.mu.Lock()
	_ = s.dispatch(func() error {
		fetchCmd := s.client.Fetch(uidSet, &imap.FetchOptions{UID: true, BodySection: []*imap.FetchItemBodySection{section}})
		defer fetchCmd.Close()
		msg := fetchCmd.Next()
		if msg == nil {
			return fetchCmd.Close()
		}
		buf, cerr := msg.Collect()
		if cerr != nil {
			return cerr
		}
		raw = buf.FindBodySection(section)
		return fetchCmd.Close()
	})
	s.mu.Unlock()

	return parser.ParseReferencesHeader(raw)
}

// fetchBodySections fetches BODY[<n>] for every part number in parts,
// returning them keyed by part number.
func (s *Session) fetchBodySections(uid uint32, parts []parser.Part) (parser.PartBytes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sections := make([]*imap.FetchItemBodySection, 0, len(parts))
	for _, p := range parts {
		sections = append(sections, &imap.FetchItemBodySection{Part: partNumberPath(p.Number), Peek: true})
	}

	uidSet := imap.UIDSetNum(imap.UID(uid))
	out := parser.PartBytes{}
	err := s.dispatch(func() error {
		fetchCmd := s.client.Fetch(uidSet, &imap.FetchOptions{UID: true, BodySection: sections})
		defer fetchCmd.Close()
		msg := fetchCmd.Next()
		if msg == nil {
			return fetchCmd.Close()
		}
		buf, cerr := msg.Collect()
		if cerr != nil {
			return cerr
		}
		for i, p := range parts {
			if i < len(sections) {
				if data := buf.FindBodySection(sections[i]); data != nil {
					out[p.Number] = data
				}
			}
		}
		return fetchCmd.Close()
	})
	if err != nil {
		return nil, errs.New(errs.Protocol, "imapsession.fetchBodySections", "UID FETCH body sections", err)
	}
	return out, nil
}

// partNumberPath splits a dotted part number ("1.2") into the
// []int go-imap/v2's FetchItemBodySection.Part expects.
func partNumberPath(number string) []int {
	fields := strings.Split(number, ".")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n := 0
		for _, c := range f {
			if c < '0' || c > '9' {
				continue
			}
			n = n*10 + int(c-'0')
		}
		out = append(out, n)
	}
	return out
}

// DownloadAttachment finds the attachment of uid matching name (or cid)
// and returns its metadata (name, size, type, CID). The payload is not
// fetched: the returned Attachment's Data and Path are empty.
func (s *Session) DownloadAttachment(folder string, uid uint32, name, cid string) (model.Attachment, error) {
	content, err := s.GetEmailContent(folder, uid)
	if err != nil {
		return model.Attachment{}, err
	}
	for _, a := range content.Attachments {
		if (name != "" && a.Name == name) || (cid != "" && a.CID == cid) {
			return a, nil
		}
	}
	return model.Attachment{}, errs.New(errs.NotFound, "imapsession.DownloadAttachment", "attachment not found", nil)
}
