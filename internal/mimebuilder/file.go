package mimebuilder

import (
	"os"

	"github.com/bberkay/open-mail/internal/errs"
)

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New(errs.Validation, "mimebuilder.readFile", "reading attachment file "+path, err)
	}
	return data, nil
}
