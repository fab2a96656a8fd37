// Package text implements the default content-type module: plain text
// rendering with search highlighting, URL anchors for link interaction,
// and JSON-lines tab persistence. It is registered last so that every tab
// and every item has a fallback handler.
package text

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"go.clipstack.dev/clipstack/internal/item"
	"go.clipstack.dev/clipstack/internal/message"
)

// formatName tags the first line of every tab file written by this module.
const formatName = "clipstack-jsonl"

var urlRE = regexp.MustCompile(`https?://[^\s<>"]+`)

type header struct {
	Format  string `json:"format"`
	Version int    `json:"version"`
}

type record struct {
	Time  time.Time      `json:"time"`
	Items []message.Item `json:"items"`
}

// Loader is the text content-type module.
type Loader struct {
	item.DefaultLoader
}

// New returns the text loader.
func New() *Loader { return &Loader{} }

func (*Loader) ID() string { return "text" }

// CanSaveItems reports true for every tab: text is the fallback backend.
func (*Loader) CanSaveItems(string) bool { return true }

// CanLoadItems sniffs the JSONL header line.
func (*Loader) CanLoadItems(r io.ReadSeeker) bool {
	br := bufio.NewReader(r)
	line, err := br.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return false
	}
	var h header
	if err := json.Unmarshal(line, &h); err != nil {
		return false
	}
	return h.Format == formatName
}

// LoadItems parses a JSONL stream into the model, newest first, up to
// maxItems rows.
func (*Loader) LoadItems(tabName string, m *item.Model, r io.ReadSeeker, maxItems int) (item.Saver, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !sc.Scan() {
		return nil, fmt.Errorf("tab %q: missing header", tabName)
	}
	var h header
	if err := json.Unmarshal(sc.Bytes(), &h); err != nil || h.Format != formatName {
		return nil, nil // not ours
	}

	for sc.Scan() {
		if maxItems > 0 && m.Len() >= maxItems {
			break
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("tab %q: %w", tabName, err)
		}
		it := item.New(message.ItemsToMap(rec.Items))
		if !rec.Time.IsZero() {
			it.Time = rec.Time
		}
		m.Append(it)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("tab %q: %w", tabName, err)
	}
	return &Saver{}, nil
}

// InitializeTab returns a fresh JSONL saver for any tab name.
func (*Loader) InitializeTab(string, *item.Model, int) (item.Saver, error) {
	return &Saver{}, nil
}

// CreateSurface renders any item carrying a text/plain payload.
func (*Loader) CreateSurface(data map[string][]byte, preview bool) item.Surface {
	text, ok := data[item.MimeText]
	if !ok {
		return nil
	}
	return NewSurface(string(text), preview)
}

// Matches reports whether the item's text matches re, falling back to an
// approximate word match (edit distance 1) for short literal patterns.
func (*Loader) Matches(m *item.Model, row int, re *regexp.Regexp) bool {
	it := m.At(row)
	if it == nil || re == nil {
		return false
	}
	text := it.Text()
	if re.MatchString(text) {
		return true
	}
	return fuzzyMatches(text, re.String())
}

// Commands contributes a whitespace-trim action for text items.
func (*Loader) Commands() []item.Command {
	return []item.Command{{
		Name: "Trim Whitespace",
		Key:  "T",
		Run: func(m *item.Model, rows []int) error {
			for _, row := range rows {
				it := m.At(row)
				if it == nil || !it.Has(item.MimeText) {
					continue
				}
				trimmed := strings.TrimSpace(it.Text())
				var html []byte
				if it.HasHTML() {
					html = it.Data(item.MimeHTML)
				}
				m.UpdateText(row, []byte(trimmed), html)
			}
			return nil
		},
	}}
}

// SelfTests exercises the JSONL round trip in memory.
func (l *Loader) SelfTests() []item.SelfTest {
	return []item.SelfTest{{
		Name: "jsonl round trip",
		Run: func() error {
			m := item.NewModel()
			m.Append(item.New(map[string][]byte{item.MimeText: []byte("hello")}))
			var buf strings.Builder
			if err := (&Saver{}).SaveItems("selftest", m, &buf); err != nil {
				return err
			}
			got := item.NewModel()
			saver, err := l.LoadItems("selftest", got, strings.NewReader(buf.String()), 0)
			if err != nil {
				return err
			}
			if saver == nil {
				return fmt.Errorf("saved stream not recognized")
			}
			if got.Len() != 1 || got.At(0).Text() != "hello" {
				return fmt.Errorf("round trip mismatch")
			}
			return nil
		},
	}}
}

// fuzzyMatches reports an approximate match: pattern must be a short
// literal (no regex metacharacters) within edit distance 1 of some word.
func fuzzyMatches(text, pattern string) bool {
	if len(pattern) < 3 || len(pattern) > 24 {
		return false
	}
	if strings.ContainsAny(pattern, `\.+*?()|[]{}^$`) {
		return false
	}
	pattern = strings.ToLower(pattern)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if levenshtein.ComputeDistance(word, pattern) <= 1 {
			return true
		}
	}
	return false
}

// Saver persists a tab as JSON lines with base64 payloads.
type Saver struct {
	item.DefaultSaver
}

// SaveItems writes the header line followed by one record per item.
func (*Saver) SaveItems(tabName string, m *item.Model, w io.Writer) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(header{Format: formatName, Version: 1}); err != nil {
		return fmt.Errorf("tab %q header: %w", tabName, err)
	}
	for _, it := range m.Items() {
		rec := record{Time: it.Time, Items: message.ItemsFromMap(it.DataMap())}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("tab %q: %w", tabName, err)
		}
	}
	return nil
}

// Surface renders plain text. Preview surfaces clamp to a single line.
type Surface struct {
	*item.DefaultSurface
	text    string
	preview bool
}

// NewSurface builds a text surface over the given content.
func NewSurface(text string, preview bool) *Surface {
	view := item.NewTextView(text)
	view.SetAnchors(findAnchors(text))
	s := &Surface{
		DefaultSurface: item.NewDefaultSurface(view),
		text:           text,
		preview:        preview,
	}
	s.HeightForWidth = func(width int) int {
		if s.preview {
			return min(1, item.WrapHeight(s.text, width))
		}
		return item.WrapHeight(s.text, width)
	}
	return s
}

// View renders the wrapped, highlight-styled text.
func (s *Surface) View() string {
	re, style := s.Highlight()
	size := s.Size()
	return item.RenderHighlighted(s.text, size.W, size.H, re, style)
}

// findAnchors turns every URL in text into a clickable anchor range.
func findAnchors(text string) []item.Anchor {
	runes := []rune(text)
	byteToRune := make(map[int]int, len(runes)+1)
	b := 0
	for i, r := range runes {
		byteToRune[b] = i
		b += len(string(r))
	}
	byteToRune[b] = len(runes)

	var anchors []item.Anchor
	for _, loc := range urlRE.FindAllStringIndex(text, -1) {
		start, ok1 := byteToRune[loc[0]]
		end, ok2 := byteToRune[loc[1]]
		if ok1 && ok2 {
			anchors = append(anchors, item.Anchor{
				Start: start,
				End:   end,
				Href:  text[loc[0]:loc[1]],
			})
		}
	}
	return anchors
}

var _ item.Loader = (*Loader)(nil)
var _ item.Surface = (*Surface)(nil)
