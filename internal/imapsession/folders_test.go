package imapsession

import (
	"testing"

	"github.com/emersion/go-imap/v2"

	"github.com/bberkay/open-mail/internal/model"
)

func TestValidateFolderNameEmpty(t *testing.T) {
	if err := validateFolderName(""); err == nil {
		t.Fatal("expected error for empty folder name")
	}
}

func TestValidateFolderNameTooLong(t *testing.T) {
	long := make([]byte, 1025)
	for i := range long {
		long[i] = 'a'
	}
	if err := validateFolderName(string(long)); err == nil {
		t.Fatal("expected error for folder name over 1024 chars")
	}
}

func TestValidateFolderNameOK(t *testing.T) {
	if err := validateFolderName("Archive"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestToFolderDecodesAndTagsSpecialUse(t *testing.T) {
	data := &imap.ListData{
		Mailbox: "Sent",
		Delim:   '/',
		Attrs:   []imap.MailboxAttr{imap.MailboxAttrSent},
	}
	f := toFolder(data)
	if f.Name != "Sent" {
		t.Errorf("Name = %q, want Sent", f.Name)
	}
	if !f.HasSpecialUse(model.UseSent) {
		t.Errorf("expected Sent special-use, got %+v", f.SpecialUses)
	}
}

func TestToFolderInboxAlwaysTagged(t *testing.T) {
	data := &imap.ListData{Mailbox: "INBOX", Delim: '/'}
	f := toFolder(data)
	if !f.HasSpecialUse(model.UseInbox) {
		t.Errorf("expected INBOX to be tagged \\Inbox, got %+v", f.SpecialUses)
	}
	if f.Path != "INBOX" {
		t.Errorf("Path = %q, want INBOX", f.Path)
	}
}
