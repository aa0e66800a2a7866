package service

import (
	"fmt"
	"io"
	"strings"

	"github.com/EckhartOSB/feedmbox/internal/modules/message/domain"
	"github.com/samber/oops"
)

const (
	// Layout of the date on the mbox "From " separator line.
	separatorLayout = "Mon Jan 02 15:04:05 2006"
	// Layout of the Date header.
	dateLayout = "Mon, Jan 02 2006 15:04:05"
)

// Emitter serializes messages onto a single mbox stream.
type Emitter struct {
	w io.Writer
}

func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit writes one message: the mbox separator line, the headers, a
// blank line, the body, and a trailing blank line. Carriage returns
// never reach the stream.
func (e *Emitter) Emit(msg *domain.Message) error {
	var b strings.Builder

	fmt.Fprintf(&b, "From feedmbox %s\n", msg.Date.Format(separatorLayout))
	writeHeader(&b, "To", msg.To)
	if msg.From != nil {
		writeHeader(&b, "From", *msg.From)
	}
	if msg.Subject != nil {
		writeHeader(&b, "Subject", *msg.Subject)
	}
	writeHeader(&b, "Date", msg.Date.Format(dateLayout))
	writeHeader(&b, "List-Id", msg.ListID)
	writeHeader(&b, "Content-Location", msg.ContentLocation)
	if msg.Subtitle != nil {
		writeHeader(&b, "X-Feed-Subtitle", *msg.Subtitle)
	}
	if msg.Author != nil {
		writeHeader(&b, "X-Item-Author", *msg.Author)
	}
	if msg.Category != nil {
		writeHeader(&b, "X-Item-Category", *msg.Category)
	}
	if msg.Link != nil {
		writeHeader(&b, "X-Item-Link", *msg.Link)
	}
	writeHeader(&b, "MIME-Version", "1.0")
	writeHeader(&b, "Content-Type", "text/plain; charset=utf-8")

	b.WriteString("\n")
	b.WriteString(msg.Body)
	if !strings.HasSuffix(msg.Body, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if _, err := io.WriteString(e.w, strings.ReplaceAll(b.String(), "\r", "")); err != nil {
		return oops.With("context", "writing mbox stream").Wrap(err)
	}
	return nil
}

func writeHeader(b *strings.Builder, name, value string) {
	value = strings.NewReplacer("\r", "", "\n", " ").Replace(value)
	fmt.Fprintf(b, "%s: %s\n", name, value)
}
