// Package message models chat replies as text segments carrying emphasis,
// leaving the markup dialect to the transport.
package message

import (
	"html"
	"strings"
)

// Style marks how a segment should be emphasised.
type Style int

const (
	Plain Style = iota
	Bold
	Italic
)

// Segment is a run of text sharing one style.
type Segment struct {
	Text  string
	Style Style
}

// Message is an ordered list of segments. The zero value is an empty reply.
type Message struct {
	Segments []Segment
}

// Empty reports whether the message carries no text.
func (m Message) Empty() bool {
	for _, seg := range m.Segments {
		if seg.Text != "" {
			return false
		}
	}
	return true
}

// PlainText concatenates the segments without markup.
func (m Message) PlainText() string {
	var b strings.Builder
	for _, seg := range m.Segments {
		b.WriteString(seg.Text)
	}
	return b.String()
}

// HTML renders the message in the subset of HTML accepted by chat clients
// (<b> and <i>), escaping the text.
func (m Message) HTML() string {
	var b strings.Builder
	for _, seg := range m.Segments {
		text := html.EscapeString(seg.Text)
		switch seg.Style {
		case Bold:
			b.WriteString("<b>" + text + "</b>")
		case Italic:
			b.WriteString("<i>" + text + "</i>")
		default:
			b.WriteString(text)
		}
	}
	return b.String()
}

// Builder accumulates segments. Adjacent plain segments are merged.
type Builder struct {
	segments []Segment
}

// Text appends plain text.
func (b *Builder) Text(s string) *Builder { return b.add(s, Plain) }

// Bold appends bold text.
func (b *Builder) Bold(s string) *Builder { return b.add(s, Bold) }

// Italic appends italic text.
func (b *Builder) Italic(s string) *Builder { return b.add(s, Italic) }

// Line appends a newline.
func (b *Builder) Line() *Builder { return b.add("\n", Plain) }

// Append copies every segment of m onto the builder.
func (b *Builder) Append(m Message) *Builder {
	for _, seg := range m.Segments {
		b.add(seg.Text, seg.Style)
	}
	return b
}

// Message returns the accumulated message.
func (b *Builder) Message() Message {
	out := make([]Segment, len(b.segments))
	copy(out, b.segments)
	return Message{Segments: out}
}

func (b *Builder) add(s string, style Style) *Builder {
	if s == "" {
		return b
	}
	if n := len(b.segments); n > 0 && style == Plain && b.segments[n-1].Style == Plain {
		b.segments[n-1].Text += s
		return b
	}
	b.segments = append(b.segments, Segment{Text: s, Style: style})
	return b
}
