package item

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// RichFormatThreshold is the number of distinct formatting runs above which
// editor content is considered rich and worth persisting as text/html.
// Plain, unformatted text has at most a baseline format set and should not
// pay the cost of HTML round-tripping.
const RichFormatThreshold = 3

// imagePasteFormats is the scan priority for pasted/dropped image payloads.
// First match wins.
var imagePasteFormats = []string{MimeSVG, MimePNG, MimeBMP, MimeJPEG, MimeGIF}

// FindImageFormat returns the highest-priority image MIME type present in
// data, or "".
func FindImageFormat(data map[string][]byte) string {
	for _, mime := range imagePasteFormats {
		if _, ok := data[mime]; ok {
			return mime
		}
	}
	return ""
}

// Format is one set of character formatting attributes.
type Format struct {
	Bold      bool
	Italic    bool
	Underline bool
	Anchor    string
}

// IsZero reports whether f carries no attributes.
func (f Format) IsZero() bool { return f == Format{} }

// FormatRun applies a Format to the rune range [Start, End) of the text.
type FormatRun struct {
	Start, End int
	Format     Format
}

// InlineImage is an image embedded in rich content; it is persisted as a
// base64 data-URI <img> element.
type InlineImage struct {
	MIME string
	Data []byte
}

// Editor holds in-progress edit content for one Item until it is committed
// back through the Surface or discarded. At most one Editor is active per
// Surface.
type Editor struct {
	text     []rune
	runs     []FormatRun
	images   []InlineImage
	modified bool
	selStart int
	selEnd   int
}

// NewEditor returns an empty editor.
func NewEditor() *Editor {
	return &Editor{selStart: -1, selEnd: -1}
}

// SetText replaces the content with plain, unformatted text.
func (e *Editor) SetText(text string) {
	e.text = []rune(text)
	e.runs = nil
	e.images = nil
	e.modified = true
	e.ClearSelection()
}

// Text returns the plain-text content.
func (e *Editor) Text() string { return string(e.text) }

// InsertText appends plain text at the end of the content.
func (e *Editor) InsertText(text string) {
	e.text = append(e.text, []rune(text)...)
	e.modified = true
}

// ApplyFormat applies f to the rune range [start, end).
func (e *Editor) ApplyFormat(start, end int, f Format) {
	start = clamp(start, 0, len(e.text))
	end = clamp(end, 0, len(e.text))
	if end <= start || f.IsZero() {
		return
	}
	e.runs = append(e.runs, FormatRun{Start: start, End: end, Format: f})
	e.modified = true
}

// Runs returns the formatting runs.
func (e *Editor) Runs() []FormatRun { return e.runs }

// Images returns the inline images.
func (e *Editor) Images() []InlineImage { return e.images }

// InsertData inserts a paste/drop payload. If the payload offers an image
// in any supported format the highest-priority one is embedded as an inline
// image; otherwise the text/plain representation is inserted.
func (e *Editor) InsertData(data map[string][]byte) {
	if mime := FindImageFormat(data); mime != "" {
		e.images = append(e.images, InlineImage{
			MIME: mime,
			Data: append([]byte(nil), data[mime]...),
		})
		e.modified = true
		return
	}
	if text, ok := data[MimeText]; ok {
		e.InsertText(string(text))
	}
}

// FormatCount returns the number of distinct formats applied to the content.
func (e *Editor) FormatCount() int {
	set := make(map[Format]struct{}, len(e.runs))
	for _, r := range e.runs {
		set[r.Format] = struct{}{}
	}
	return len(set)
}

// ContainsRichText reports whether the content warrants HTML persistence:
// more distinct formats than RichFormatThreshold, or any inline image
// (which only HTML can carry).
func (e *Editor) ContainsRichText() bool {
	return e.FormatCount() > RichFormatThreshold || len(e.images) > 0
}

// Modified reports whether the content changed since the flag was cleared.
func (e *Editor) Modified() bool { return e.modified }

// SetModified sets or clears the modified flag.
func (e *Editor) SetModified(on bool) { e.modified = on }

// SelectAll selects the entire content.
func (e *Editor) SelectAll() { e.selStart, e.selEnd = 0, len(e.text) }

// ClearSelection removes any selection.
func (e *Editor) ClearSelection() { e.selStart, e.selEnd = -1, -1 }

// Selection returns the selected text, or "".
func (e *Editor) Selection() string {
	if e.selStart < 0 || e.selEnd <= e.selStart {
		return ""
	}
	return string(e.text[e.selStart:e.selEnd])
}

// blockTags end with a line break when parsed from HTML.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true,
}

// SetHTML replaces the content by parsing an HTML fragment: text becomes
// the plain content, b/strong, i/em, u and a elements become formatting
// runs, and data-URI img elements become inline images. Unparseable input
// is kept verbatim as plain text.
func (e *Editor) SetHTML(src string) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		e.SetText(src)
		return
	}
	e.text = nil
	e.runs = nil
	e.images = nil
	e.walkHTML(doc, Format{})
	for len(e.text) > 0 && e.text[len(e.text)-1] == '\n' {
		e.text = e.text[:len(e.text)-1]
	}
	e.modified = true
	e.ClearSelection()
}

func (e *Editor) walkHTML(n *html.Node, f Format) {
	switch n.Type {
	case html.TextNode:
		e.appendRun(n.Data, f)
		return
	case html.ElementNode:
		switch n.Data {
		case "b", "strong":
			f.Bold = true
		case "i", "em":
			f.Italic = true
		case "u":
			f.Underline = true
		case "a":
			f.Anchor = htmlAttr(n, "href")
		case "img":
			if img, ok := parseDataURI(htmlAttr(n, "src")); ok {
				e.images = append(e.images, img)
			}
			return
		case "br":
			e.text = append(e.text, '\n')
			return
		case "head", "style", "script", "title":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.walkHTML(c, f)
	}
	if n.Type == html.ElementNode && blockTags[n.Data] {
		if len(e.text) > 0 && e.text[len(e.text)-1] != '\n' {
			e.text = append(e.text, '\n')
		}
	}
}

func (e *Editor) appendRun(text string, f Format) {
	if text == "" {
		return
	}
	start := len(e.text)
	e.text = append(e.text, []rune(text)...)
	if !f.IsZero() {
		e.runs = append(e.runs, FormatRun{Start: start, End: len(e.text), Format: f})
	}
}

func htmlAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func parseDataURI(src string) (InlineImage, bool) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return InlineImage{}, false
	}
	mime, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return InlineImage{}, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return InlineImage{}, false
	}
	return InlineImage{MIME: mime, Data: data}, true
}

// HTML renders the content as an HTML fragment: formatting runs become
// nested a/b/i/u elements and inline images become base64 data-URI img
// elements, matching what SetHTML parses.
func (e *Editor) HTML() string {
	runs := append([]FormatRun(nil), e.runs...)
	sort.Slice(runs, func(i, j int) bool { return runs[i].Start < runs[j].Start })

	var b strings.Builder
	pos := 0
	for _, r := range runs {
		if r.Start < pos {
			continue // overlapping run, first one wins
		}
		writeEscaped(&b, string(e.text[pos:r.Start]))
		open, closing := formatTags(r.Format)
		b.WriteString(open)
		writeEscaped(&b, string(e.text[r.Start:r.End]))
		b.WriteString(closing)
		pos = r.End
	}
	writeEscaped(&b, string(e.text[pos:]))

	for _, img := range e.images {
		fmt.Fprintf(&b, `<img src="data:%s;base64,%s"/>`,
			img.MIME, base64.StdEncoding.EncodeToString(img.Data))
	}
	return b.String()
}

func formatTags(f Format) (open, closing string) {
	if f.Anchor != "" {
		open += `<a href="` + html.EscapeString(f.Anchor) + `">`
		closing = "</a>" + closing
	}
	if f.Bold {
		open += "<b>"
		closing = "</b>" + closing
	}
	if f.Italic {
		open += "<i>"
		closing = "</i>" + closing
	}
	if f.Underline {
		open += "<u>"
		closing = "</u>" + closing
	}
	return open, closing
}

func writeEscaped(b *strings.Builder, s string) {
	s = html.EscapeString(s)
	s = strings.ReplaceAll(s, "\n", "<br/>")
	b.WriteString(s)
}
