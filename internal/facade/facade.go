// Package facade composes one IMAPSession and one SMTPSession per
// account behind the single object a UI actually talks to, per
// spec.md §4.7. It owns no protocol logic of its own beyond the
// send/reply/forward composition that spans both sessions.
package facade

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/google/uuid"

	"github.com/bberkay/open-mail/internal/errs"
	"github.com/bberkay/open-mail/internal/idle"
	"github.com/bberkay/open-mail/internal/imapsession"
	"github.com/bberkay/open-mail/internal/model"
	"github.com/bberkay/open-mail/internal/smtpsession"
)

// OpenMailFacade is the single per-account entry point the UI invokes.
type OpenMailFacade struct {
	account model.Account
	imap    *imapsession.Session
	smtp    *smtpsession.Session
}

// New builds a facade over account. Neither session is connected yet.
func New(account model.Account) *OpenMailFacade {
	return &OpenMailFacade{
		account: account,
		imap:    imapsession.New(account),
		smtp:    smtpsession.New(account),
	}
}

// Connect opens both sessions. If SMTP fails to connect after IMAP
// succeeded, the IMAP session is logged out before the error is
// returned, so a failed Connect never leaves a half-open account.
func (f *OpenMailFacade) Connect(ctx context.Context) error {
	if err := f.imap.Connect(ctx); err != nil {
		return err
	}
	if err := f.smtp.Connect(ctx); err != nil {
		_ = f.imap.Logout()
		return err
	}
	return nil
}

// Disconnect closes both sessions, always attempting both even if one
// fails, and returns the first error encountered (if any).
func (f *OpenMailFacade) Disconnect() error {
	imapErr := f.imap.Logout()
	smtpErr := f.smtp.Close()
	if imapErr != nil {
		return imapErr
	}
	return smtpErr
}

// Events exposes the IMAP session's IDLE observer channel.
func (f *OpenMailFacade) Events() <-chan idle.Event {
	return f.imap.Events()
}

// Idle enters IDLE on the IMAP session.
func (f *OpenMailFacade) Idle() error { return f.imap.Idle() }

// Done leaves IDLE on the IMAP session.
func (f *OpenMailFacade) Done() error { return f.imap.Done() }

// --- Folder operations, delegated verbatim to IMAPSession ---

func (f *OpenMailFacade) ListFolders() ([]model.Folder, error) { return f.imap.ListFolders() }

func (f *OpenMailFacade) CreateFolder(name, parent string) error {
	return f.imap.CreateFolder(name, parent)
}

func (f *OpenMailFacade) DeleteFolder(name string, recursive bool) error {
	return f.imap.DeleteFolder(name, recursive)
}

func (f *OpenMailFacade) RenameFolder(name, newName string) error {
	return f.imap.RenameFolder(name, newName)
}

func (f *OpenMailFacade) MoveFolder(name, newParent string) error {
	return f.imap.MoveFolder(name, newParent)
}

func (f *OpenMailFacade) FindMatchingFolder(use model.SpecialUse) (string, error) {
	return f.imap.FindMatchingFolder(use)
}

// --- Email read/search operations, delegated verbatim to IMAPSession ---

func (f *OpenMailFacade) SearchEmails(folder string, criteria model.SearchCriteria) error {
	return f.imap.SearchEmails(folder, criteria)
}

func (f *OpenMailFacade) IsEmailExists(folder, sequenceSet string) (bool, error) {
	return f.imap.IsEmailExists(folder, sequenceSet)
}

func (f *OpenMailFacade) GetEmails(start, end int) (model.Mailbox, error) {
	return f.imap.GetEmails(start, end)
}

func (f *OpenMailFacade) GetEmailContent(folder string, uid uint32) (model.EmailWithContent, error) {
	return f.imap.GetEmailContent(folder, uid)
}

func (f *OpenMailFacade) GetEmailFlags(sequenceSet string) ([]model.Flags, error) {
	return f.imap.GetEmailFlags(sequenceSet)
}

func (f *OpenMailFacade) GetEmailSize(folder string, uid uint32) (int64, error) {
	return f.imap.GetEmailSize(folder, uid)
}

func (f *OpenMailFacade) DownloadAttachment(folder string, uid uint32, name, cid string) (model.Attachment, error) {
	return f.imap.DownloadAttachment(folder, uid, name, cid)
}

// --- Email mutation operations, delegated verbatim to IMAPSession ---

func (f *OpenMailFacade) MarkEmail(mark, sequenceSet, folder string) error {
	return f.imap.MarkEmail(mark, sequenceSet, folder)
}

func (f *OpenMailFacade) UnmarkEmail(mark, sequenceSet, folder string) error {
	return f.imap.UnmarkEmail(mark, sequenceSet, folder)
}

func (f *OpenMailFacade) MoveEmail(src, dst, sequenceSet string) error {
	return f.imap.MoveEmail(src, dst, sequenceSet)
}

func (f *OpenMailFacade) CopyEmail(src, dst, sequenceSet string) error {
	return f.imap.CopyEmail(src, dst, sequenceSet)
}

func (f *OpenMailFacade) DeleteEmail(folder, sequenceSet string) error {
	return f.imap.DeleteEmail(folder, sequenceSet)
}

// --- Send/reply/forward, composed across both sessions ---

// SendEmail builds and submits msg via the SMTP session. The returned
// ID correlates this attempt across log lines; it is assigned
// regardless of outcome.
func (f *OpenMailFacade) SendEmail(msg model.EmailToSend) (string, error) {
	attemptID := uuid.NewString()
	if err := f.smtp.Send(msg); err != nil {
		log.Printf("send[%s] failed: %v", attemptID, err)
		return attemptID, err
	}
	return attemptID, nil
}

// ReplyEmail sends msg as a reply to the message at uid in folder: the
// subject gets a "Re: " prefix (unless already present), In-Reply-To
// and References are set to uid, and on success the original is marked
// \Answered, per spec.md §4.6.
func (f *OpenMailFacade) ReplyEmail(folder string, uid uint32, msg model.EmailToSend) (string, error) {
	attemptID := uuid.NewString()

	original, err := f.imap.GetEmailContent(folder, uid)
	if err != nil {
		return attemptID, err
	}

	msg.Subject = withPrefix("Re:", original.Subject)
	msg.Metadata = threadingMetadata(uid, msg.Metadata)

	if err := f.smtp.Send(msg); err != nil {
		log.Printf("reply[%s] failed: %v", attemptID, err)
		return attemptID, err
	}

	if err := f.imap.MarkEmail(string(imap.FlagAnswered), fmtUID(uid), folder); err != nil {
		return attemptID, err
	}
	return attemptID, nil
}

// ForwardEmail sends msg as a forward of the message at uid in folder:
// the subject gets a "Fwd: " prefix (unless already present).
func (f *OpenMailFacade) ForwardEmail(folder string, uid uint32, msg model.EmailToSend) (string, error) {
	attemptID := uuid.NewString()

	original, err := f.imap.GetEmailContent(folder, uid)
	if err != nil {
		return attemptID, errs.New(errs.NotFound, "facade.ForwardEmail", "fetching original message", err)
	}

	msg.Subject = withPrefix("Fwd:", original.Subject)
	msg.Metadata = threadingMetadata(uid, msg.Metadata)

	if err := f.smtp.Send(msg); err != nil {
		log.Printf("forward[%s] failed: %v", attemptID, err)
		return attemptID, err
	}
	return attemptID, nil
}

// withPrefix prepends prefix to subject unless subject already starts
// with it (case-insensitively), avoiding "Re: Re: ..." chains.
func withPrefix(prefix, subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), strings.ToLower(prefix)) {
		return subject
	}
	return prefix + " " + subject
}

// threadingMetadata sets In-Reply-To/References to the original
// message's uid, not its Message-ID: spec.md §4.6 and end-to-end
// scenario 3 both specify the uid verbatim, matching the original
// implementation's smtp.py ("In-Reply-To": email.uid).
func threadingMetadata(uid uint32, metadata map[string]string) map[string]string {
	if metadata == nil {
		metadata = make(map[string]string)
	}
	metadata["In-Reply-To"] = fmtUID(uid)
	metadata["References"] = fmtUID(uid)
	return metadata
}

func fmtUID(uid uint32) string {
	return strconv.FormatUint(uint64(uid), 10)
}
