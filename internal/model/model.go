// Package model holds the data types shared across the open-mail core:
// accounts, folders, search criteria, and the email shapes returned to
// callers by the facade.
package model

import "time"

// Account describes the credentials and endpoints needed to open a
// session against one mailbox. Host/port are auto-derived from the
// address domain when left empty (see config.AutoHost).
type Account struct {
	Address  string
	Secret   string // resolved credential value, never persisted as-is
	IMAPHost string
	IMAPPort string
	SMTPHost string
	SMTPPort string
}

// SessionState is the IMAP session's coarse protocol state, per spec.md
// §3/§4.4.
type SessionState int

const (
	StateDisconnected SessionState = iota
	StateAuthenticated
	StateSelected
	StateLoggedOut
)

func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateAuthenticated:
		return "authenticated"
	case StateSelected:
		return "selected"
	case StateLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// SpecialUse enumerates the IMAP LIST special-use attributes the session
// resolves folder names against.
type SpecialUse string

const (
	UseInbox     SpecialUse = "\\Inbox"
	UseSent      SpecialUse = "\\Sent"
	UseDrafts    SpecialUse = "\\Drafts"
	UseTrash     SpecialUse = "\\Trash"
	UseJunk      SpecialUse = "\\Junk"
	UseArchive   SpecialUse = "\\Archive"
	UseAll       SpecialUse = "\\All"
	UseFlagged   SpecialUse = "\\Flagged"
	UseImportant SpecialUse = "\\Important"
)

// Folder is a decoded (UTF-8) mailbox name plus its LIST attributes.
type Folder struct {
	Name        string // decoded, delimiter-normalized to "/"
	Path        string // hierarchical path, "/"-joined
	SpecialUses []SpecialUse
	NoSelect    bool
}

// HasSpecialUse reports whether f carries the given special-use flag.
func (f Folder) HasSpecialUse(use SpecialUse) bool {
	for _, u := range f.SpecialUses {
		if u == use {
			return true
		}
	}
	return false
}

// SearchCriteria is the structured input to SearchQueryBuilder. All
// fields are optional; an entirely empty value maps to IMAP "ALL".
type SearchCriteria struct {
	Senders        []string `json:"senders"`
	Receivers      []string `json:"receivers"`
	CC             []string `json:"cc"`
	BCC            []string `json:"bcc"`
	Subject        string   `json:"subject"`
	Since          string   `json:"since"`  // YYYY-MM-DD
	Before         string   `json:"before"` // YYYY-MM-DD
	Include        string   `json:"include"` // TEXT search, included
	Exclude        string   `json:"exclude"` // TEXT search, excluded
	FlagsIncluded  []string `json:"included_flags"`
	FlagsExcluded  []string `json:"excluded_flags"`
	HasAttachments bool     `json:"has_attachments"`
	LargerThan     int64    `json:"larger_than"`
	SmallerThan    int64    `json:"smaller_than"`
}

// SearchedEmails is the session-scoped cache populated by SearchEmails
// and consumed by GetEmails/GetEmailFlags-by-offset callers.
type SearchedEmails struct {
	Folder string
	Query  string
	UIDs   []uint32 // sorted descending, newest first
}

// Attachment describes one MIME part recognised as an attachment.
type Attachment struct {
	Name string
	Size int64
	Type string
	CID  string
	Data string // base64, populated only when explicitly downloaded
	Path string // local path, populated only when saved to disk
}

// EmailSummary is the list-view projection of a message: headers, flags,
// and attachment metadata, but no body beyond a short preview.
type EmailSummary struct {
	UID         uint32
	Sender      string
	Receiver    string
	Date        time.Time
	Subject     string
	BodyShort   string // truncated to <=100 chars; "No Content" when empty
	Flags       []string
	Attachments []Attachment
}

// EmailWithContent extends EmailSummary with the full body and threading
// headers needed to reply/forward.
type EmailWithContent struct {
	EmailSummary
	Body        string // inline `cid:` references resolved to data URIs
	MessageID   string
	References  string
	InReplyTo   string
}

// Mailbox is the result of GetEmails: a page of summaries plus the total
// (unpaged) hit count from the last search.
type Mailbox struct {
	Folder string
	Emails []EmailSummary
	Total  int
}

// Flags is the result of GetEmailFlags for one UID.
type Flags struct {
	UID   uint32
	Flags []string
}

// Recipient is either a bare address or a display-name/address pair.
type Recipient struct {
	Name    string
	Address string
}

// String renders "Name <addr>" when Name is set, else just the address.
func (r Recipient) String() string {
	if r.Name == "" {
		return r.Address
	}
	return r.Name + " <" + r.Address + ">"
}

// EmailToSend is the outbound composition input for SMTPSession.
type EmailToSend struct {
	Sender      Recipient
	Receivers   []string
	CC          []string
	BCC         []string
	Subject     string
	Body        string // HTML allowed
	Attachments []OutgoingAttachment
	UID         string            // set when replying/forwarding
	Metadata    map[string]string // extra headers, e.g. In-Reply-To/References
}

// OutgoingAttachment is a file to attach to an outbound message. Exactly
// one of Data/Path/URL should be populated by the caller; the builder
// resolves Data or Path, and rejects an attachment with only URL set.
type OutgoingAttachment struct {
	Filename string
	MIMEType string
	Data     []byte
	Path     string
	URL      string
}

// MaxAttachmentSize is the pre-encoding size cap enforced on send
// (spec.md §3 invariant v).
const MaxAttachmentSize = 25 * 1024 * 1024
