// Package eml provides a Parser for RFC 822 email messages.
package eml

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/core/ports/driven"
	"github.com/custodia-labs/importer/internal/parsers/html"
)

// Metadata keys set from message headers.
const (
	MetaFrom = "email.from"
	MetaTo   = "email.to"
	MetaDate = "email.date"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Parser handles email messages.
type Parser struct{}

// New creates a new email parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "eml"
}

// SupportedMIMETypes returns the MIME types this parser handles.
func (p *Parser) SupportedMIMETypes() []string {
	return []string{"message/rfc822"}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 50 // Generic MIME parser
}

// Parse writes the message body to output, preferring text/plain parts
// over HTML. The subject fills the title metadata unless it is already
// set; sender, recipients and date are added as metadata.
func (p *Parser) Parse(ctx context.Context, doc *domain.Document, output io.Writer) error {
	if doc == nil || doc.Content == nil {
		return domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := mail.ReadMessage(doc.Content)
	if err != nil {
		return fmt.Errorf("%w: reading message: %v", domain.ErrInvalidInput, err)
	}

	if doc.Metadata == nil {
		doc.Metadata = domain.NewProperties()
	}
	if subject := decodeHeader(msg.Header.Get("Subject")); subject != "" {
		doc.Metadata.Apply(domain.SetOptional, domain.MetaTitle, subject)
	}
	for key, header := range map[string]string{MetaFrom: "From", MetaTo: "To", MetaDate: "Date"} {
		if v := decodeHeader(msg.Header.Get(header)); v != "" {
			doc.Metadata.Add(key, v)
		}
	}

	body, err := extractBody(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return &domain.StreamReadError{Reference: doc.Reference, Err: err}
	}
	if _, err := io.WriteString(output, strings.TrimSpace(body)); err != nil {
		return fmt.Errorf("failed to write parsed content: %w", err)
	}
	return nil
}

// decodeHeader decodes RFC 2047 encoded headers.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

// decode undoes a Content-Transfer-Encoding.
func decode(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, &newlineStripper{r: r})
	}
	return r
}

// extractBody returns the text of a message or message part.
func extractBody(contentType, encoding string, body io.Reader) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipart(body, params["boundary"])
	}

	data, err := io.ReadAll(decode(encoding, body))
	if err != nil {
		return "", err
	}
	if mediaType == "text/html" {
		return html.Text(string(data)), nil
	}
	return string(data), nil
}

// extractMultipart joins the text/plain parts, or the HTML parts when
// there are none. Nested multiparts are searched.
func extractMultipart(r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", nil
	}

	mr := multipart.NewReader(r, boundary)
	var textParts, htmlParts []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		mediaType, params, perr := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if perr != nil {
			mediaType = "text/plain"
		}
		encoding := part.Header.Get("Content-Transfer-Encoding")

		switch {
		case mediaType == "text/plain":
			text, err := extractBody(mediaType, encoding, part)
			if err != nil {
				return "", err
			}
			textParts = append(textParts, text)
		case mediaType == "text/html":
			text, err := extractBody(mediaType, encoding, part)
			if err != nil {
				return "", err
			}
			htmlParts = append(htmlParts, text)
		case strings.HasPrefix(mediaType, "multipart/"):
			nested, err := extractMultipart(part, params["boundary"])
			if err != nil {
				return "", err
			}
			if nested != "" {
				textParts = append(textParts, nested)
			}
		}
		part.Close()
	}

	if len(textParts) > 0 {
		return strings.Join(textParts, "\n"), nil
	}
	return strings.Join(htmlParts, "\n"), nil
}

// newlineStripper drops CR and LF so base64 bodies wrapped at 76 columns
// decode.
type newlineStripper struct {
	r io.Reader
}

func (n *newlineStripper) Read(p []byte) (int, error) {
	for {
		k, err := n.r.Read(p)
		kept := bytes.Map(func(r rune) rune {
			if r == '\r' || r == '\n' {
				return -1
			}
			return r
		}, p[:k])
		copy(p, kept)
		if len(kept) > 0 || err != nil {
			return len(kept), err
		}
	}
}
