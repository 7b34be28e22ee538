// Package message builds RFC 5322 wire messages for rendered campaign
// content.
package message

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jaytaylor/html2text"
	"github.com/wneessen/go-mail"
)

// Rendered is one recipient's fully rendered message content, produced
// fresh per recipient and never reused.
type Rendered struct {
	FromName  string
	FromEmail string
	To        string
	Subject   string
	ReplyTo   string
	HTML      string
}

// crlfStripper removes CR/LF from header values to prevent header
// injection through template output.
var crlfStripper = strings.NewReplacer("\r", "", "\n", "")

// Build serializes a rendered message into raw RFC 5322 bytes with a
// plain-text alternative derived from the HTML body, Date and Message-ID
// headers included.
func Build(r Rendered) ([]byte, error) {
	if r.To == "" {
		return nil, fmt.Errorf("message has no recipient")
	}

	m := mail.NewMsg()
	if r.FromName != "" {
		if err := m.FromFormat(crlfStripper.Replace(r.FromName), r.FromEmail); err != nil {
			return nil, fmt.Errorf("failed to set from: %w", err)
		}
	} else {
		if err := m.From(r.FromEmail); err != nil {
			return nil, fmt.Errorf("failed to set from: %w", err)
		}
	}
	if err := m.To(r.To); err != nil {
		return nil, fmt.Errorf("failed to set to: %w", err)
	}
	if r.ReplyTo != "" {
		if err := m.ReplyTo(r.ReplyTo); err != nil {
			return nil, fmt.Errorf("failed to set reply-to: %w", err)
		}
	}

	m.Subject(crlfStripper.Replace(r.Subject))
	m.SetDate()
	m.SetMessageID()

	text, err := html2text.FromString(r.HTML, html2text.Options{TextOnly: false})
	if err != nil {
		return nil, fmt.Errorf("failed to derive plain text body: %w", err)
	}
	m.SetBodyString(mail.TypeTextPlain, text)
	m.AddAlternativeString(mail.TypeTextHTML, r.HTML)

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize message: %w", err)
	}
	return buf.Bytes(), nil
}
