// Package markdown parses the small markdown dialect used by story content
// into a structured document (blocks of inline spans) and renders it to HTML
// as a templ component.
//
// The dialect is intentionally tiny: three heading levels, bullet and
// numbered list items, blockquotes, paragraphs, and bold/italic inline runs.
// There is no escaping mechanism and no nesting; bold content is atomic.
package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/a-h/templ"
)

// Kind classifies a block. Every source line maps to exactly one kind, with
// one documented exception: lines starting with "#" that match no heading
// prefix (e.g. "#### text") produce no block at all.
type Kind int

const (
	Blank Kind = iota
	Heading1
	Heading2
	Heading3
	BulletItem
	NumberedItem
	Blockquote
	Paragraph
)

var kindNames = [...]string{
	Blank:        "Blank",
	Heading1:     "Heading1",
	Heading2:     "Heading2",
	Heading3:     "Heading3",
	BulletItem:   "BulletItem",
	NumberedItem: "NumberedItem",
	Blockquote:   "Blockquote",
	Paragraph:    "Paragraph",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Emphasis is the single formatting attribute of a span.
type Emphasis int

const (
	None Emphasis = iota
	Bold
	Italic
)

func (e Emphasis) String() string {
	switch e {
	case Bold:
		return "Bold"
	case Italic:
		return "Italic"
	}
	return "None"
}

// Span is a contiguous run of text sharing one formatting attribute. For
// Bold/Italic spans, Text holds the content between the delimiters with the
// delimiters stripped.
type Span struct {
	Text     string
	Emphasis Emphasis
}

// Block is one structural unit of story content. Spans is empty for Blank
// blocks.
type Block struct {
	Kind  Kind
	Spans []Span
}

var (
	reBold     = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reItalic   = regexp.MustCompile(`\*([^*]+)\*`)
	reNumbered = regexp.MustCompile(`^\d+\.\s*`)
)

// ParseInline splits one line into an ordered sequence of spans.
//
// Two passes: bold first ("**...**"), then italic ("*...*") over the plain
// segments only, so bold content is never re-scanned and stays atomic.
// Unmatched delimiters remain literal text. Concatenating span texts
// reproduces the line with the matched delimiters removed.
func ParseInline(line string) []Span {
	if line == "" {
		return nil
	}
	var spans []Span
	last := 0
	for _, m := range reBold.FindAllStringSubmatchIndex(line, -1) {
		if m[0] > last {
			spans = append(spans, italicSpans(line[last:m[0]])...)
		}
		spans = append(spans, Span{Text: line[m[2]:m[3]], Emphasis: Bold})
		last = m[1]
	}
	if last < len(line) {
		spans = append(spans, italicSpans(line[last:])...)
	}
	return spans
}

func italicSpans(seg string) []Span {
	var spans []Span
	last := 0
	for _, m := range reItalic.FindAllStringSubmatchIndex(seg, -1) {
		if m[0] > last {
			spans = append(spans, Span{Text: seg[last:m[0]]})
		}
		spans = append(spans, Span{Text: seg[m[2]:m[3]], Emphasis: Italic})
		last = m[1]
	}
	if last < len(seg) {
		spans = append(spans, Span{Text: seg[last:]})
	}
	return spans
}

// Parse converts full story content into an ordered block sequence, one block
// per input line, in input order. Classification is by mutually exclusive
// prefix tests in a fixed priority order. Parse never fails: every line maps
// to some block, except the dropped "#"-prefixed non-heading lines.
func Parse(content string) []Block {
	var blocks []Block
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimRight(raw, "\r")
		switch {
		case strings.TrimSpace(line) == "":
			blocks = append(blocks, Block{Kind: Blank})
		case strings.HasPrefix(line, "# "):
			blocks = append(blocks, Block{Kind: Heading1, Spans: ParseInline(line[2:])})
		case strings.HasPrefix(line, "## "):
			blocks = append(blocks, Block{Kind: Heading2, Spans: ParseInline(line[3:])})
		case strings.HasPrefix(line, "### "):
			blocks = append(blocks, Block{Kind: Heading3, Spans: ParseInline(line[4:])})
		case strings.HasPrefix(line, "- "):
			blocks = append(blocks, Block{Kind: BulletItem, Spans: ParseInline(line[2:])})
		case reNumbered.MatchString(line):
			blocks = append(blocks, Block{Kind: NumberedItem, Spans: ParseInline(reNumbered.ReplaceAllString(line, ""))})
		case strings.HasPrefix(line, "> "):
			blocks = append(blocks, Block{Kind: Blockquote, Spans: ParseInline(line[2:])})
		case strings.HasPrefix(line, "#"):
			// A "#" line that matches no heading prefix ("#### text",
			// "#hashtag") produces no block. Story authors rely on this.
		default:
			blocks = append(blocks, Block{Kind: Paragraph, Spans: ParseInline(line)})
		}
	}
	return blocks
}

// Component returns a templ.Component that renders content as HTML.
func Component(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		Render(&buf, content)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// Render writes the HTML representation of content to buf. Consecutive list
// items become sibling <li> elements without a surrounding <ul>/<ol>;
// grouping is a presentation concern.
func Render(buf *bytes.Buffer, content string) {
	for _, b := range Parse(content) {
		switch b.Kind {
		case Blank:
			buf.WriteString("<br/>")
		case Heading1:
			writeTag(buf, "h1", b.Spans)
		case Heading2:
			writeTag(buf, "h2", b.Spans)
		case Heading3:
			writeTag(buf, "h3", b.Spans)
		case BulletItem, NumberedItem:
			writeTag(buf, "li", b.Spans)
		case Blockquote:
			writeTag(buf, "blockquote", b.Spans)
		case Paragraph:
			writeTag(buf, "p", b.Spans)
		}
	}
}

func writeTag(buf *bytes.Buffer, tag string, spans []Span) {
	buf.WriteString("<" + tag + ">")
	for _, s := range spans {
		switch s.Emphasis {
		case Bold:
			buf.WriteString("<strong>" + html.EscapeString(s.Text) + "</strong>")
		case Italic:
			buf.WriteString("<em>" + html.EscapeString(s.Text) + "</em>")
		default:
			buf.WriteString(html.EscapeString(s.Text))
		}
	}
	buf.WriteString("</" + tag + ">")
}

// PlainText flattens content to its unformatted text, blocks joined by
// newlines. Used for feed description fallbacks when a post has no excerpt.
func PlainText(content string) string {
	var b strings.Builder
	for i, blk := range Parse(content) {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, s := range blk.Spans {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}
