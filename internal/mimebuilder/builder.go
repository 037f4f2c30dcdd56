// Package mimebuilder assembles outbound RFC 5322 messages for
// SMTPSession, generalizing the teacher's markdown-to-MIME composer
// (internal/email.ComposeMessage) to spec.md §4.6: plain HTML bodies,
// inline data-URI images rewritten to cid: references, and file
// attachments under the size cap.
package mimebuilder

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/bberkay/open-mail/internal/errs"
	"github.com/bberkay/open-mail/internal/model"
)

// dataImageSrc matches an HTML `src="data:image/<ext>;base64,<b>"`
// attribute value so it can be rewritten to a cid: reference.
var dataImageSrc = regexp.MustCompile(`src="data:image/([a-zA-Z0-9.+-]+);base64,([A-Za-z0-9+/=\s]+)"`)

// inlineImage is one data-URI image extracted from the HTML body.
type inlineImage struct {
	cid      string
	mimeType string
	data     []byte
}

// Build assembles msg into a complete RFC 5322 message ready to hand to
// an authenticated SMTP DATA command.
func Build(msg model.EmailToSend) ([]byte, error) {
	for _, a := range msg.Attachments {
		if len(a.Data) > model.MaxAttachmentSize {
			return nil, errs.New(errs.Validation, "mimebuilder.Build",
				fmt.Sprintf("attachment %q exceeds the %d byte cap", a.Filename, model.MaxAttachmentSize), nil)
		}
	}

	body, images, err := extractInlineImages(msg.Body)
	if err != nil {
		return nil, err
	}

	h, err := buildHeader(msg)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, errs.New(errs.Transport, "mimebuilder.Build", "creating mail writer", err)
	}

	if err := writeHTMLBody(mw, body); err != nil {
		return nil, err
	}
	for _, img := range images {
		if err := writeInlineImage(mw, img); err != nil {
			return nil, err
		}
	}
	for _, a := range msg.Attachments {
		if err := writeAttachment(mw, a); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, errs.New(errs.Transport, "mimebuilder.Build", "closing mail writer", err)
	}
	return buf.Bytes(), nil
}

// Recipients flattens To ∪ Cc ∪ Bcc into the envelope RCPT TO list per
// spec.md §4.6 point 4, trimming whitespace and dropping empties.
func Recipients(msg model.EmailToSend) []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range [][]string{msg.Receivers, msg.CC, msg.BCC} {
		for _, addr := range group {
			addr = strings.TrimSpace(addr)
			if addr == "" || seen[addr] {
				continue
			}
			seen[addr] = true
			out = append(out, addr)
		}
	}
	return out
}

func buildHeader(msg model.EmailToSend) (mail.Header, error) {
	var h mail.Header
	if err := h.GenerateMessageID(); err != nil {
		return h, errs.New(errs.Transport, "mimebuilder.buildHeader", "generating Message-ID", err)
	}
	h.SetSubject(msg.Subject)

	from, err := mail.ParseAddress(msg.Sender.String())
	if err != nil {
		return h, errs.New(errs.Validation, "mimebuilder.buildHeader", "parsing sender address", err)
	}
	h.SetAddressList("From", []*mail.Address{from})

	to, err := parseAddressList(msg.Receivers)
	if err != nil {
		return h, err
	}
	h.SetAddressList("To", to)

	if len(msg.CC) > 0 {
		cc, err := parseAddressList(msg.CC)
		if err != nil {
			return h, err
		}
		h.SetAddressList("Cc", cc)
	}
	// Bcc is deliberately omitted from the header; Recipients() still
	// includes it in the envelope recipient list.

	for key, value := range msg.Metadata {
		switch key {
		case "In-Reply-To", "References":
			h.SetMsgIDList(key, []string{value})
		default:
			h.Set(key, value)
		}
	}

	return h, nil
}

func parseAddressList(addrs []string) ([]*mail.Address, error) {
	out := make([]*mail.Address, 0, len(addrs))
	for _, a := range addrs {
		parsed, err := mail.ParseAddress(strings.TrimSpace(a))
		if err != nil {
			return nil, errs.New(errs.Validation, "mimebuilder.parseAddressList", "parsing address "+a, err)
		}
		out = append(out, parsed)
	}
	return out, nil
}

// extractInlineImages replaces every data:image src attribute in body
// with cid:imageN and returns the decoded images in encounter order.
func extractInlineImages(body string) (string, []inlineImage, error) {
	var images []inlineImage
	var decodeErr error

	rewritten := dataImageSrc.ReplaceAllStringFunc(body, func(match string) string {
		groups := dataImageSrc.FindStringSubmatch(match)
		ext, encoded := groups[1], groups[2]

		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(strings.ReplaceAll(encoded, "\n", "")))
		if err != nil {
			decodeErr = errs.New(errs.Validation, "mimebuilder.extractInlineImages", "decoding inline image data", err)
			return match
		}

		cid := fmt.Sprintf("image%d", len(images)+1)
		images = append(images, inlineImage{cid: cid, mimeType: "image/" + ext, data: raw})
		return fmt.Sprintf(`src="cid:%s"`, cid)
	})
	if decodeErr != nil {
		return "", nil, decodeErr
	}
	return rewritten, images, nil
}

func writeHTMLBody(mw *mail.Writer, body string) error {
	var ih mail.InlineHeader
	ih.Set("Content-Type", "text/html; charset=utf-8")
	w, err := mw.CreateSingleInline(ih)
	if err != nil {
		return errs.New(errs.Transport, "mimebuilder.writeHTMLBody", "creating inline body part", err)
	}
	if _, err := w.Write([]byte(body)); err != nil {
		return errs.New(errs.Transport, "mimebuilder.writeHTMLBody", "writing body", err)
	}
	return closeErr(w, "mimebuilder.writeHTMLBody", "closing body part")
}

func writeInlineImage(mw *mail.Writer, img inlineImage) error {
	var ah mail.AttachmentHeader
	filename := img.cid
	ah.SetFilename(filename)
	ah.SetContentType(img.mimeType, nil)
	ah.Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, filename))
	ah.Set("Content-Id", "<"+img.cid+">")

	w, err := mw.CreateAttachment(ah)
	if err != nil {
		return errs.New(errs.Transport, "mimebuilder.writeInlineImage", "creating inline image part", err)
	}
	if _, err := w.Write(img.data); err != nil {
		return errs.New(errs.Transport, "mimebuilder.writeInlineImage", "writing inline image", err)
	}
	return closeErr(w, "mimebuilder.writeInlineImage", "closing inline image part")
}

func writeAttachment(mw *mail.Writer, a model.OutgoingAttachment) error {
	data, err := resolveAttachmentData(a)
	if err != nil {
		return err
	}
	if len(data) > model.MaxAttachmentSize {
		return errs.New(errs.Validation, "mimebuilder.writeAttachment",
			fmt.Sprintf("attachment %q exceeds the %d byte cap", a.Filename, model.MaxAttachmentSize), nil)
	}

	var ah mail.AttachmentHeader
	ah.SetFilename(a.Filename)
	mimeType := a.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	ah.SetContentType(mimeType, nil)

	w, err := mw.CreateAttachment(ah)
	if err != nil {
		return errs.New(errs.Transport, "mimebuilder.writeAttachment", "creating attachment part", err)
	}
	if _, err := w.Write(data); err != nil {
		return errs.New(errs.Transport, "mimebuilder.writeAttachment", "writing attachment", err)
	}
	return closeErr(w, "mimebuilder.writeAttachment", "closing attachment part")
}

// resolveAttachmentData returns the bytes of a, preferring Data, then
// reading Path, per the "exactly one populated" contract on
// model.OutgoingAttachment. URL is never fetched: an attachment with
// only URL set is rejected here, and nothing upstream resolves it.
func resolveAttachmentData(a model.OutgoingAttachment) ([]byte, error) {
	if a.Data != nil {
		return a.Data, nil
	}
	if a.Path != "" {
		return readFile(a.Path)
	}
	return nil, errs.New(errs.Validation, "mimebuilder.resolveAttachmentData",
		"attachment "+a.Filename+" has no Data or Path set", nil)
}

type closer interface {
	Close() error
}

func closeErr(c closer, op, message string) error {
	if err := c.Close(); err != nil {
		return errs.New(errs.Transport, op, message, err)
	}
	return nil
}
