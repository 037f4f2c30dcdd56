package imapsession

import (
	"sort"
	"strings"

	"github.com/emersion/go-imap/v2"

	"github.com/bberkay/open-mail/internal/codec"
	"github.com/bberkay/open-mail/internal/errs"
	"github.com/bberkay/open-mail/internal/model"
)

// specialUseAttrs maps spec.md's SpecialUse tags to the go-imap/v2
// mailbox attributes LIST reports them as.
var specialUseAttrs = map[model.SpecialUse]imap.MailboxAttr{
	model.UseSent:      imap.MailboxAttrSent,
	model.UseDrafts:    imap.MailboxAttrDrafts,
	model.UseTrash:     imap.MailboxAttrTrash,
	model.UseJunk:      imap.MailboxAttrJunk,
	model.UseArchive:   imap.MailboxAttrArchive,
	model.UseAll:       imap.MailboxAttrAll,
	model.UseFlagged:   imap.MailboxAttrFlagged,
	model.UseImportant: imap.MailboxAttrImportant,
}

// ListFolders issues LIST once and returns every folder, decoded from
// modified UTF-7 and annotated with special-use attributes.
func (s *Session) ListFolders() ([]model.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireAuthenticated("imapsession.ListFolders"); err != nil {
		return nil, err
	}

	var folders []model.Folder
	err := s.dispatch(func() error {
		listCmd := s.client.List("", "*", &imap.ListOptions{ReturnSpecialUse: true})
		for {
			data := listCmd.Next()
			if data == nil {
				break
			}
			folders = append(folders, toFolder(data))
		}
		return listCmd.Close()
	})
	if err != nil {
		return nil, errs.New(errs.Protocol, "imapsession.ListFolders", "LIST failed", err)
	}
	return folders, nil
}

func toFolder(data *imap.ListData) model.Folder {
	decoded := codec.DecodeFolder(data.Mailbox)
	path := strings.ReplaceAll(decoded, string(data.Delim), "/")
	if strings.EqualFold(decoded, "INBOX") {
		path = "INBOX"
	}

	f := model.Folder{Name: decoded, Path: path}
	for _, attr := range data.Attrs {
		if attr == imap.MailboxAttrNoSelect {
			f.NoSelect = true
		}
		for use, a := range specialUseAttrs {
			if a == attr {
				f.SpecialUses = append(f.SpecialUses, use)
			}
		}
	}
	if strings.EqualFold(decoded, "INBOX") {
		f.SpecialUses = append(f.SpecialUses, model.UseInbox)
	}
	return f
}

// FindMatchingFolder issues LIST once and returns the first folder
// whose attributes include use, case-insensitively. Inbox always maps
// to the literal mailbox name "INBOX", per spec.md §4.4.
func (s *Session) FindMatchingFolder(use model.SpecialUse) (string, error) {
	if use == model.UseInbox {
		return "INBOX", nil
	}
	folders, err := s.ListFolders()
	if err != nil {
		return "", err
	}
	for _, f := range folders {
		if f.HasSpecialUse(use) {
			return f.Name, nil
		}
	}
	return "", errs.New(errs.NotFound, "imapsession.FindMatchingFolder", "no folder with special-use "+string(use), nil)
}

// resolveFolderName resolves a caller-supplied folder identifier: a
// bare name is passed through, a SpecialUse-shaped token ("\Trash", …)
// is resolved via FindMatchingFolder.
func (s *Session) resolveFolderName(folder string) (string, error) {
	if strings.HasPrefix(folder, "\\") {
		return s.FindMatchingFolder(model.SpecialUse(folder))
	}
	if strings.EqualFold(folder, "inbox") {
		return "INBOX", nil
	}
	return folder, nil
}

// Select resolves folder (bare name or special-use tag), modified-UTF-7
// encodes it, and issues SELECT or EXAMINE (readonly=true).
func (s *Session) Select(folder string, readonly bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireAuthenticated("imapsession.Select"); err != nil {
		return err
	}

	name, err := s.resolveFolderName(folder)
	if err != nil {
		return err
	}

	err = s.dispatch(func() error {
		var cmdErr error
		if readonly {
			_, cmdErr = s.client.Select(name, &imap.SelectOptions{ReadOnly: true}).Wait()
		} else {
			_, cmdErr = s.client.Select(name, nil).Wait()
		}
		return cmdErr
	})
	if err != nil {
		return errs.New(errs.Protocol, "imapsession.Select", "SELECT/EXAMINE "+name, err)
	}

	s.folder = name
	s.readonly = readonly
	s.state = model.StateSelected
	if s.searched != nil && s.searched.Folder != name {
		s.searched = nil
	}
	return nil
}

// validateFolderName enforces spec.md §7's ValidationError conditions
// for folder names: non-empty, at most 1024 characters.
func validateFolderName(name string) error {
	if name == "" {
		return errs.New(errs.Validation, "imapsession.validateFolderName", "folder name must not be empty", nil)
	}
	if len(name) > 1024 {
		return errs.New(errs.Validation, "imapsession.validateFolderName", "folder name exceeds 1024 characters", nil)
	}
	return nil
}

// CreateFolder creates name under parent (if non-empty), creating the
// parent first if it does not already exist.
func (s *Session) CreateFolder(name, parent string) error {
	if err := validateFolderName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireAuthenticated("imapsession.CreateFolder"); err != nil {
		return err
	}

	full := name
	if parent != "" {
		full = parent + "/" + name
	}

	return s.dispatch(func() error {
		if parent != "" {
			_ = s.client.Create(parent, nil).Wait()
		}
		if err := s.client.Create(full, nil).Wait(); err != nil {
			return errs.New(errs.Protocol, "imapsession.CreateFolder", "CREATE "+full, err)
		}
		return nil
	})
}

// DeleteFolder removes name. When recursive is true, child folders
// (path-prefixed by name + "/") are removed first, deepest first.
func (s *Session) DeleteFolder(name string, recursive bool) error {
	if err := validateFolderName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireAuthenticated("imapsession.DeleteFolder"); err != nil {
		return err
	}

	return s.dispatch(func() error {
		if recursive {
			listCmd := s.client.List("", name+"/*", nil)
			var children []string
			for {
				data := listCmd.Next()
				if data == nil {
					break
				}
				children = append(children, data.Mailbox)
			}
			if err := listCmd.Close(); err != nil {
				return errs.New(errs.Protocol, "imapsession.DeleteFolder", "listing children of "+name, err)
			}
			sort.Sort(sort.Reverse(sort.StringSlice(children)))
			for _, child := range children {
				if err := s.client.Delete(child).Wait(); err != nil {
					return errs.New(errs.Protocol, "imapsession.DeleteFolder", "DELETE "+child, err)
				}
			}
		}
		if err := s.client.Delete(name).Wait(); err != nil {
			return errs.New(errs.Protocol, "imapsession.DeleteFolder", "DELETE "+name, err)
		}
		return nil
	})
}

// RenameFolder renames name to newName, preserving the parent path when
// newName names only a leaf (no "/"), per spec.md §4.4.
func (s *Session) RenameFolder(name, newName string) error {
	if err := validateFolderName(newName); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireAuthenticated("imapsession.RenameFolder"); err != nil {
		return err
	}

	target := newName
	if !strings.Contains(newName, "/") {
		if i := strings.LastIndex(name, "/"); i >= 0 {
			target = name[:i+1] + newName
		}
	}

	return s.dispatch(func() error {
		if err := s.client.Rename(name, target).Wait(); err != nil {
			return errs.New(errs.Protocol, "imapsession.RenameFolder", "RENAME "+name+" -> "+target, err)
		}
		return nil
	})
}

// MoveFolder moves name under newParent. Per spec.md §9's resolved open
// question: the full name is appended when the parent does not already
// exist, else just the leaf is appended.
func (s *Session) MoveFolder(name, newParent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireAuthenticated("imapsession.MoveFolder"); err != nil {
		return err
	}

	parentExists := s.folderExistsLocked(newParent)

	leaf := name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		leaf = name[i+1:]
	}
	var target string
	if parentExists {
		target = newParent + "/" + leaf
	} else {
		target = newParent + "/" + name
	}

	return s.dispatch(func() error {
		if err := s.client.Rename(name, target).Wait(); err != nil {
			return errs.New(errs.Protocol, "imapsession.MoveFolder", "RENAME "+name+" -> "+target, err)
		}
		return nil
	})
}

// folderExistsLocked issues LIST for name; caller must hold s.mu.
func (s *Session) folderExistsLocked(name string) bool {
	found := false
	_ = s.dispatch(func() error {
		listCmd := s.client.List("", name, nil)
		for {
			data := listCmd.Next()
			if data == nil {
				break
			}
			found = true
		}
		return listCmd.Close()
	})
	return found
}
