package mailbox

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestParseRFC822_PlainText(t *testing.T) {
	raw := crlf(`From: AhaMove <IAPPVNCO@gmail.com>
Reply-To: "Nguyen Van A" <a@example.com>
Subject: =?UTF-8?Q?=E1=BB=A8ng_vi=C3=AAn_m=E1=BB=9Bi?=
Date: Fri, 01 Mar 2024 09:30:00 +0700
Content-Type: text/plain; charset=utf-8
Content-Transfer-Encoding: quoted-printable

=E1=BB=A8ng vi=C3=AAn (Nguy=E1=BB=85n V=C4=83n A) - Data Analyst
`)

	msg, err := ParseRFC822("42", raw)
	require.NoError(t, err)

	assert.Equal(t, "42", msg.MailID)
	assert.Equal(t, "iappvnco@gmail.com", msg.FromMail)
	assert.Equal(t, "a@example.com", msg.ReplyTo)
	assert.Equal(t, "Ứng viên mới", msg.Subject)
	assert.Contains(t, msg.Body, "(Nguyễn Văn A)")
	assert.True(t, msg.Date.Equal(time.Date(2024, 3, 1, 2, 30, 0, 0, time.UTC)))
}

func TestParseRFC822_PrefersPlainOverHTML(t *testing.T) {
	raw := crlf(`From: someone@example.com
Subject: CV
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/html; charset=utf-8

<p>html version</p>
--b1
Content-Type: text/plain; charset=utf-8

plain version 0912345678
--b1--
`)

	msg, err := ParseRFC822("1", raw)
	require.NoError(t, err)
	assert.Equal(t, "plain version 0912345678", strings.TrimSpace(msg.Body))
}

func TestParseRFC822_HTMLOnlyBecomesText(t *testing.T) {
	raw := crlf(`From: someone@example.com
Subject: CV
Content-Type: multipart/mixed; boundary="b2"

--b2
Content-Type: text/html; charset=utf-8

<html><head><style>p{color:red}</style></head><body><p>V&#7883; tr&iacute;: Data Analyst</p><div>H&agrave; N&#7897;i</div></body></html>
--b2
Content-Type: application/pdf
Content-Disposition: attachment; filename="cv.pdf"

%PDF-1.4
--b2--
`)

	msg, err := ParseRFC822("2", raw)
	require.NoError(t, err)
	assert.Equal(t, "Vị trí: Data Analyst\nHà Nội", msg.Body)
	assert.NotContains(t, msg.Body, "color")
	assert.NotContains(t, msg.Body, "PDF")
}

func TestParseRFC822_Empty(t *testing.T) {
	msg, err := ParseRFC822("3", nil)
	assert.Error(t, err)
	assert.Equal(t, "3", msg.MailID)
}

func TestBareAddress(t *testing.T) {
	tests := map[string]string{
		"info@tuyendungtopcv.com":           "info@tuyendungtopcv.com",
		"TopCV <Info@TuyenDungTopCV.com>":   "info@tuyendungtopcv.com",
		`"Doe, John" <john@example.com>`:    "john@example.com",
		"  resumes@mail.careerbuilder.vn  ": "resumes@mail.careerbuilder.vn",
		"":                                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, bareAddress(in), in)
	}
}

func TestParseUID(t *testing.T) {
	uid, err := parseUID(" 1234 ")
	require.NoError(t, err)
	assert.Equal(t, "1234", formatUID(uid))

	for _, bad := range []string{"", "0", "abc", "-1", "99999999999"} {
		_, err := parseUID(bad)
		assert.Error(t, err, bad)
	}
}

func TestTLSConfigFor(t *testing.T) {
	assert.Equal(t, "imap.gmail.com", TLSConfigFor("imap.gmail.com:993").ServerName)
	assert.Equal(t, "mail.local", TLSConfigFor("mail.local").ServerName)
}
