// Package richtext models Prismic structured text and converts it to plain
// text or HTML.
package richtext

import (
	"html"
	"slices"
	"strings"
	"unicode/utf16"
)

// Block types emitted by Prismic.
const (
	TypeParagraph    = "paragraph"
	TypeHeading1     = "heading1"
	TypeHeading2     = "heading2"
	TypeHeading3     = "heading3"
	TypeHeading4     = "heading4"
	TypeHeading5     = "heading5"
	TypeHeading6     = "heading6"
	TypePreformatted = "preformatted"
	TypeListItem     = "list-item"
	TypeOListItem    = "o-list-item"
	TypeImage        = "image"
	TypeEmbed        = "embed"
)

// Span types.
const (
	SpanStrong    = "strong"
	SpanEm        = "em"
	SpanHyperlink = "hyperlink"
	SpanLabel     = "label"
)

const (
	LinkTypeWeb      = "Web"
	LinkTypeDocument = "Document"
	LinkTypeMedia    = "Media"
)

// DefaultSeparator joins blocks in AsText, matching prismic-dom.
const DefaultSeparator = " "

const (
	lineBreakHTMLTag  = "<br />"
	listItemHTMLTag   = "li"
	unorderedListHTML = "ul"
	orderedListHTML   = "ol"
)

// RichText is an ordered sequence of blocks as stored in a Prismic rich text field.
type RichText []Block

// Block is a single rich text node. Only the fields relevant to its Type are set.
type Block struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Spans []Span `json:"spans,omitempty"`
	Label string `json:"label,omitempty"`

	// image blocks
	URL        string      `json:"url,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	LinkTo     *Link       `json:"linkTo,omitempty"`

	// embed blocks
	OEmbed *OEmbed `json:"oembed,omitempty"`
}

// Span marks up Text[Start:End]. Offsets are UTF-16 code units.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

// SpanData carries the payload of hyperlink and label spans.
type SpanData struct {
	Link
	Label string `json:"label,omitempty"`
}

// Link is a Prismic link: a web URL, a media asset or another document.
type Link struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
	ID       string `json:"id,omitempty"`
	UID      string `json:"uid,omitempty"`
	Type     string `json:"type,omitempty"`
	Lang     string `json:"lang,omitempty"`
	IsBroken bool   `json:"isBroken,omitempty"`
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type OEmbed struct {
	Type         string `json:"type,omitempty"`
	EmbedURL     string `json:"embed_url,omitempty"`
	ProviderName string `json:"provider_name,omitempty"`
	HTML         string `json:"html,omitempty"`
}

// LinkResolver turns a document link into a URL.
type LinkResolver func(l Link) string

// DefaultLinkResolver resolves web and media links to their URL and documents to "/<uid>".
func DefaultLinkResolver(l Link) string {
	if l.LinkType == LinkTypeDocument {
		if l.UID == "" {
			return "#"
		}
		return "/" + l.UID
	}
	return l.URL
}

// AsText concatenates the text of every block, separated by sep.
func AsText(rt RichText, sep string) string {
	parts := make([]string, 0, len(rt))
	for _, b := range rt {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, sep)
}

// AsHTML serializes rich text to HTML. Consecutive list items are grouped
// into a single <ul> or <ol>.
func AsHTML(rt RichText, resolve LinkResolver) string {
	if resolve == nil {
		resolve = DefaultLinkResolver
	}

	var b strings.Builder
	openList := ""
	for _, block := range rt {
		list := listTagFor(block.Type)
		if list != openList {
			if openList != "" {
				b.WriteString("</" + openList + ">")
			}
			if list != "" {
				b.WriteString("<" + list + ">")
			}
			openList = list
		}
		writeBlock(&b, block, resolve)
	}
	if openList != "" {
		b.WriteString("</" + openList + ">")
	}
	return b.String()
}

func listTagFor(blockType string) string {
	switch blockType {
	case TypeListItem:
		return unorderedListHTML
	case TypeOListItem:
		return orderedListHTML
	}
	return ""
}

func writeBlock(b *strings.Builder, block Block, resolve LinkResolver) {
	switch block.Type {
	case TypeHeading1, TypeHeading2, TypeHeading3, TypeHeading4, TypeHeading5, TypeHeading6:
		tag := "h" + strings.TrimPrefix(block.Type, "heading")
		writeTextBlock(b, tag, block, resolve)
	case TypePreformatted:
		writeTextBlock(b, "pre", block, resolve)
	case TypeListItem, TypeOListItem:
		writeTextBlock(b, listItemHTMLTag, block, resolve)
	case TypeImage:
		b.WriteString(`<p class="block-img">`)
		img := `<img src="` + html.EscapeString(block.URL) + `" alt="` + html.EscapeString(block.Alt) + `" />`
		if block.LinkTo != nil {
			img = `<a href="` + html.EscapeString(resolve(*block.LinkTo)) + `">` + img + `</a>`
		}
		b.WriteString(img)
		b.WriteString("</p>")
	case TypeEmbed:
		if block.OEmbed == nil {
			return
		}
		b.WriteString(`<div data-oembed="` + html.EscapeString(block.OEmbed.EmbedURL) +
			`" data-oembed-type="` + html.EscapeString(block.OEmbed.Type) +
			`" data-oembed-provider="` + html.EscapeString(block.OEmbed.ProviderName) + `">`)
		b.WriteString(block.OEmbed.HTML)
		b.WriteString("</div>")
	default:
		writeTextBlock(b, "p", block, resolve)
	}
}

func writeTextBlock(b *strings.Builder, tag string, block Block, resolve LinkResolver) {
	b.WriteString("<" + tag)
	if block.Label != "" {
		b.WriteString(` class="` + html.EscapeString(block.Label) + `"`)
	}
	b.WriteString(">")

	units := utf16.Encode([]rune(block.Text))
	spans := slices.Clone(block.Spans)
	slices.SortStableFunc(spans, func(x, y Span) int {
		if x.Start != y.Start {
			return x.Start - y.Start
		}
		return y.End - x.End
	})
	writeSpans(b, units, 0, len(units), spans, resolve)

	b.WriteString("</" + tag + ">")
}

// writeSpans renders units[start:end]. spans must be sorted by start ascending,
// end descending. Spans that overlap without nesting are clipped to their parent.
func writeSpans(b *strings.Builder, units []uint16, start, end int, spans []Span, resolve LinkResolver) {
	pos := start
	for i := 0; i < len(spans); {
		s := spans[i]
		sStart, sEnd := clamp(s.Start, pos, end), clamp(s.End, pos, end)
		if sEnd <= sStart {
			i++
			continue
		}

		writeEscaped(b, units[pos:sStart])

		j := i + 1
		for j < len(spans) && spans[j].Start < sEnd {
			j++
		}

		open, closing := spanTags(s, resolve)
		b.WriteString(open)
		writeSpans(b, units, sStart, sEnd, spans[i+1:j], resolve)
		b.WriteString(closing)

		pos = sEnd
		i = j
	}
	writeEscaped(b, units[pos:end])
}

func spanTags(s Span, resolve LinkResolver) (string, string) {
	switch s.Type {
	case SpanStrong:
		return "<strong>", "</strong>"
	case SpanEm:
		return "<em>", "</em>"
	case SpanHyperlink:
		if s.Data == nil {
			return "", ""
		}
		attrs := `href="` + html.EscapeString(resolve(s.Data.Link)) + `"`
		if s.Data.Target != "" {
			attrs += ` target="` + html.EscapeString(s.Data.Target) + `" rel="noopener noreferrer"`
		}
		return "<a " + attrs + ">", "</a>"
	case SpanLabel:
		label := ""
		if s.Data != nil {
			label = s.Data.Label
		}
		return `<span class="` + html.EscapeString(label) + `">`, "</span>"
	}
	return "", ""
}

func writeEscaped(b *strings.Builder, units []uint16) {
	text := html.EscapeString(string(utf16.Decode(units)))
	b.WriteString(strings.ReplaceAll(text, "\n", lineBreakHTMLTag))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clone returns a deep copy of rt that shares no memory with it.
func Clone(rt RichText) RichText {
	if rt == nil {
		return nil
	}
	out := make(RichText, len(rt))
	for i, b := range rt {
		cp := b
		if b.Spans != nil {
			cp.Spans = make([]Span, len(b.Spans))
			for j, s := range b.Spans {
				cp.Spans[j] = s
				if s.Data != nil {
					data := *s.Data
					cp.Spans[j].Data = &data
				}
			}
		}
		if b.Dimensions != nil {
			d := *b.Dimensions
			cp.Dimensions = &d
		}
		if b.LinkTo != nil {
			l := *b.LinkTo
			cp.LinkTo = &l
		}
		if b.OEmbed != nil {
			o := *b.OEmbed
			cp.OEmbed = &o
		}
		out[i] = cp
	}
	return out
}
