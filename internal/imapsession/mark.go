package imapsession

import (
	"strings"

	"github.com/emersion/go-imap/v2"

	"github.com/bberkay/open-mail/internal/errs"
	"github.com/bberkay/open-mail/internal/model"
)

// setFlags selects folder, validates sequenceSet against the cached
// search result, and issues STORE +FLAGS/-FLAGS silently.
func (s *Session) setFlags(folder, sequenceSet string, flag imap.Flag, add bool) error {
	if err := s.Select(folder, false); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var last []uint32
	if s.searched != nil {
		last = s.searched.UIDs
	}
	if last != nil {
		if _, err := ValidateAgainstSearch(sequenceSet, last); err != nil {
			return err
		}
	}

	uidSet, err := parseUIDSet(sequenceSet)
	if err != nil {
		return err
	}

	op := imap.StoreFlagsAdd
	if !add {
		op = imap.StoreFlagsDel
	}

	return s.dispatch(func() error {
		if err := s.client.Store(uidSet, &imap.StoreFlags{Op: op, Silent: true, Flags: []imap.Flag{flag}}, nil).Close(); err != nil {
			return errs.New(errs.Protocol, "imapsession.setFlags", "STORE FLAGS "+sequenceSet, err)
		}
		return nil
	})
}

// MarkEmail sets mark on every message in sequenceSet within folder,
// then expunges.
func (s *Session) MarkEmail(mark, sequenceSet, folder string) error {
	if err := s.setFlags(folder, sequenceSet, imap.Flag(mark), true); err != nil {
		return err
	}
	return s.expunge()
}

// UnmarkEmail clears mark from every message in sequenceSet within
// folder, then expunges.
func (s *Session) UnmarkEmail(mark, sequenceSet, folder string) error {
	if err := s.setFlags(folder, sequenceSet, imap.Flag(mark), false); err != nil {
		return err
	}
	return s.expunge()
}

func (s *Session) expunge() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch(func() error {
		if err := s.client.Expunge().Close(); err != nil {
			return errs.New(errs.Protocol, "imapsession.expunge", "EXPUNGE", err)
		}
		return nil
	})
}

// MoveEmail moves sequenceSet from src to dst via UID MOVE, falling
// back to COPY + \Deleted + EXPUNGE when MOVE isn't supported.
func (s *Session) MoveEmail(src, dst, sequenceSet string) error {
	if err := s.Select(src, false); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	uidSet, err := parseUIDSet(sequenceSet)
	if err != nil {
		return err
	}

	dstName, err := s.resolveFolderName(dst)
	if err != nil {
		return err
	}

	return s.dispatch(func() error {
		if _, moveErr := s.client.Move(uidSet, dstName).Wait(); moveErr == nil {
			return nil
		}
		if _, copyErr := s.client.Copy(uidSet, dstName).Wait(); copyErr != nil {
			return errs.New(errs.Protocol, "imapsession.MoveEmail", "COPY fallback to "+dstName, copyErr)
		}
		if err := s.client.Store(uidSet, &imap.StoreFlags{
			Op: imap.StoreFlagsAdd, Silent: true, Flags: []imap.Flag{imap.FlagDeleted},
		}, nil).Close(); err != nil {
			return errs.New(errs.Protocol, "imapsession.MoveEmail", "STORE \\Deleted fallback", err)
		}
		if err := s.client.Expunge().Close(); err != nil {
			return errs.New(errs.Protocol, "imapsession.MoveEmail", "EXPUNGE fallback", err)
		}
		return nil
	})
}

// CopyEmail copies sequenceSet from src to dst.
func (s *Session) CopyEmail(src, dst, sequenceSet string) error {
	if err := s.Select(src, false); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	uidSet, err := parseUIDSet(sequenceSet)
	if err != nil {
		return err
	}
	dstName, err := s.resolveFolderName(dst)
	if err != nil {
		return err
	}

	return s.dispatch(func() error {
		if _, err := s.client.Copy(uidSet, dstName).Wait(); err != nil {
			return errs.New(errs.Protocol, "imapsession.CopyEmail", "COPY to "+dstName, err)
		}
		return nil
	})
}

// DeleteEmail moves sequenceSet to Trash first (unless folder is
// already Trash), then flags \Deleted and expunges.
func (s *Session) DeleteEmail(folder, sequenceSet string) error {
	trash, err := s.FindMatchingFolder(model.UseTrash)
	if err != nil {
		return err
	}

	if !strings.EqualFold(folder, trash) {
		if err := s.MoveEmail(folder, trash, sequenceSet); err != nil {
			return err
		}
		return nil
	}

	if err := s.setFlags(folder, sequenceSet, imap.FlagDeleted, true); err != nil {
		return err
	}
	return s.expunge()
}
