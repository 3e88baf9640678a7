package mailbox

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/rotisserie/eris"

	"applicant-engine/internal/domain"
	"applicant-engine/internal/extract"
)

const maxPartBytes = 20 << 20

// ParseRFC822 decodes raw message bytes into a RawMessage. The body is the
// text/plain part when one exists, otherwise the text of the HTML part.
// Attachments are skipped.
func ParseRFC822(id string, raw []byte) (domain.RawMessage, error) {
	out := domain.RawMessage{MailID: id}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, eris.New("empty message")
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return out, eris.Wrap(err, "read message")
	}
	defer mr.Close()

	h := mr.Header
	out.FromMail = firstAddress(h, "From")
	out.ReplyTo = firstAddress(h, "Reply-To")
	if s, err := h.Subject(); err == nil {
		out.Subject = strings.TrimSpace(s)
	} else {
		out.Subject = strings.TrimSpace(h.Get("Subject"))
	}
	if d, err := h.Date(); err == nil {
		out.Date = d
	}

	var plain, html string
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				continue
			}
			return out, eris.Wrap(err, "next part")
		}

		ih, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := ih.ContentType()
		b, err := io.ReadAll(io.LimitReader(p.Body, maxPartBytes))
		if err != nil {
			return out, eris.Wrapf(err, "read %s part", ct)
		}

		switch {
		case ct == "text/plain" && plain == "":
			plain = string(b)
		case ct == "text/html" && html == "":
			html = string(b)
		case ct == "" && plain == "":
			plain = string(b)
		}
	}

	switch {
	case strings.TrimSpace(plain) != "":
		out.Body = plain
	case html != "":
		out.Body = htmlText(html)
	}
	return out, nil
}

// firstAddress returns the bare address of the first entry in a list
// header, falling back to the `<...>` part of the raw value.
func firstAddress(h mail.Header, key string) string {
	if list, err := h.AddressList(key); err == nil && len(list) > 0 {
		return strings.ToLower(strings.TrimSpace(list[0].Address))
	}
	return bareAddress(h.Get(key))
}

// bareAddress reduces `Name <addr>` to addr.
func bareAddress(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.LastIndex(v, "<"); i >= 0 {
		v = strings.TrimSuffix(strings.TrimSpace(v[i+1:]), ">")
	}
	return strings.ToLower(strings.TrimSpace(v))
}

func htmlText(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return extract.CleanText(s)
	}
	doc.Find("script, style, head").Remove()
	doc.Find("br, p, div, tr, li").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})

	lines := strings.Split(doc.Text(), "\n")
	out := lines[:0]
	for _, ln := range lines {
		if ln = extract.CleanText(ln); ln != "" {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}
