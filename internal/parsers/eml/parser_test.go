package eml

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/core/ports/driven"
)

func parse(t *testing.T, raw string) (string, *domain.Document) {
	t.Helper()
	doc := domain.NewDocument("mail.eml", strings.NewReader(raw), nil, domain.PreParse)
	var out strings.Builder
	require.NoError(t, New().Parse(context.Background(), doc, &out))
	return out.String(), doc
}

func TestParser_Descriptors(t *testing.T) {
	p := New()
	assert.Equal(t, "eml", p.Name())
	assert.Equal(t, []string{"message/rfc822"}, p.SupportedMIMETypes())
	assert.Equal(t, 50, p.Priority())
	assert.Implements(t, (*driven.Parser)(nil), p)
}

func TestParse_PlainMessage(t *testing.T) {
	raw := "From: Alice <alice@example.com>\r\n" +
		"To: bob@example.com\r\n" +
		"Date: Mon, 2 Jan 2006 15:04:05 -0700\r\n" +
		"Subject: =?UTF-8?Q?Caf=C3=A9_plans?=\r\n" +
		"\r\n" +
		"See you at noon.\r\n"

	text, doc := parse(t, raw)
	assert.Equal(t, "See you at noon.", text)
	assert.Equal(t, "Café plans", doc.Metadata.String(domain.MetaTitle))
	assert.Equal(t, "Alice <alice@example.com>", doc.Metadata.String(MetaFrom))
	assert.Equal(t, "bob@example.com", doc.Metadata.String(MetaTo))
	assert.Equal(t, "Mon, 2 Jan 2006 15:04:05 -0700", doc.Metadata.String(MetaDate))
}

func TestParse_MultipartPrefersPlainText(t *testing.T) {
	raw := "Subject: Hi\r\n" +
		"Content-Type: multipart/alternative; boundary=XYZ\r\n" +
		"\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>html body</p>\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"plain =3D body\r\n" +
		"--XYZ--\r\n"

	text, _ := parse(t, raw)
	assert.Equal(t, "plain = body", text)
}

func TestParse_HTMLOnly(t *testing.T) {
	raw := "Content-Type: text/html\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"PHA+SGVsbG88L3A+\r\n" +
		"PHA+V29ybGQ8L3A+\r\n"

	text, _ := parse(t, raw)
	assert.Equal(t, "Hello\nWorld", text)
}

func TestParse_KeepsExistingTitle(t *testing.T) {
	meta := domain.PropertiesFromMap(map[string][]string{domain.MetaTitle: {"Given"}})
	doc := domain.NewDocument("m.eml", strings.NewReader("Subject: Other\r\n\r\nbody"), meta, domain.PreParse)

	require.NoError(t, New().Parse(context.Background(), doc, &strings.Builder{}))
	assert.Equal(t, []string{"Given"}, doc.Metadata.Strings(domain.MetaTitle))
}

func TestParse_InvalidInput(t *testing.T) {
	err := New().Parse(context.Background(), nil, &strings.Builder{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	doc := domain.NewDocument("bad.eml", strings.NewReader("not a header line"), nil, domain.PreParse)
	err = New().Parse(context.Background(), doc, &strings.Builder{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
