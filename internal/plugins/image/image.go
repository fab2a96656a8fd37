// Package image implements the image content-type module. Terminals cannot
// show pixels in a list row, so image items render as a descriptive card
// (format, dimensions, payload size); items that also carry text keep their
// textual surface and get an image badge appended instead.
package image

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"

	"go.clipstack.dev/clipstack/internal/item"
)

var badgeStyle = lipgloss.NewStyle().Faint(true)

// Loader is the image content-type module.
type Loader struct {
	item.DefaultLoader
}

// New returns the image loader.
func New() *Loader { return &Loader{} }

func (*Loader) ID() string { return "image" }

// CreateSurface renders items whose payload is an image without text. Items
// with text fall through so the textual modules render them; TransformSurface
// adds the badge there.
func (*Loader) CreateSurface(data map[string][]byte, preview bool) item.Surface {
	if _, ok := data[item.MimeText]; ok {
		return nil
	}
	mime := item.FindImageFormat(data)
	if mime == "" {
		return nil
	}
	return NewSurface(mime, data[mime], preview)
}

// TransformSurface appends an image badge to surfaces of items that carry an
// image payload alongside the content another loader rendered.
func (*Loader) TransformSurface(s item.Surface, data map[string][]byte) item.Surface {
	if _, ours := s.(*Surface); ours {
		return nil
	}
	mime := item.FindImageFormat(data)
	if mime == "" {
		return nil
	}
	return &badgedSurface{Surface: s, badge: Describe(mime, data[mime])}
}

// Matches lets searches like "png" or "image" hit image-only items.
func (*Loader) Matches(m *item.Model, row int, re *regexp.Regexp) bool {
	it := m.At(row)
	if it == nil || re == nil || it.Has(item.MimeText) {
		return false
	}
	mime := item.FindImageFormat(it.DataMap())
	if mime == "" {
		return false
	}
	return re.MatchString(Describe(mime, it.Data(mime)))
}

// SelfTests verifies sniffing agrees with the declared payload format.
func (*Loader) SelfTests() []item.SelfTest {
	return []item.SelfTest{{
		Name: "png signature sniff",
		Run: func() error {
			sig := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
			if !filetype.IsType(sig, matchers.TypePng) {
				return fmt.Errorf("png signature not recognized")
			}
			return nil
		},
	}}
}

// Describe returns the one-line card text for an image payload: sniffed
// format, dimensions when decodable, and payload size.
func Describe(mime string, raw []byte) string {
	name := formatName(mime, raw)
	var b strings.Builder
	fmt.Fprintf(&b, "%s image", name)
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(raw)); err == nil {
		fmt.Fprintf(&b, " %d×%d", cfg.Width, cfg.Height)
	}
	fmt.Fprintf(&b, " (%s)", humanSize(len(raw)))
	return b.String()
}

// formatName prefers the sniffed signature over the declared MIME type, so a
// mislabeled payload is still described truthfully.
func formatName(mime string, raw []byte) string {
	if kind, err := filetype.Match(raw); err == nil && kind != filetype.Unknown {
		return strings.ToUpper(kind.Extension)
	}
	if i := strings.IndexByte(mime, '/'); i >= 0 {
		mime = mime[i+1:]
	}
	mime, _, _ = strings.Cut(mime, "+")
	return strings.ToUpper(mime)
}

func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// Surface is the descriptive card for an image-only item.
type Surface struct {
	*item.DefaultSurface
	desc string
}

// NewSurface builds the card for an image payload.
func NewSurface(mime string, raw []byte, preview bool) *Surface {
	desc := Describe(mime, raw)
	s := &Surface{
		DefaultSurface: item.NewDefaultSurface(item.NewTextView(desc)),
		desc:           desc,
	}
	s.HeightForWidth = func(width int) int {
		return min(1, item.WrapHeight(s.desc, width))
	}
	return s
}

// View renders the card with search highlighting.
func (s *Surface) View() string {
	re, style := s.Highlight()
	size := s.Size()
	return item.RenderHighlighted(s.desc, size.W, size.H, re, style)
}

// badgedSurface decorates another loader's surface with an image badge on
// its last line.
type badgedSurface struct {
	item.Surface
	badge string
}

func (s *badgedSurface) View() string {
	base := s.Surface.View()
	tag := badgeStyle.Render("[" + s.badge + "]")
	if base == "" {
		return tag
	}
	return base + "\n" + tag
}

// UpdateSize reserves one line for the badge inside the same budget.
func (s *badgedSurface) UpdateSize(maxSize item.Size, idealWidth int) {
	inner := maxSize
	if inner.H > 1 {
		inner.H--
	}
	s.Surface.UpdateSize(inner, idealWidth)
}

func (s *badgedSurface) Size() item.Size {
	sz := s.Surface.Size()
	sz.H++
	return sz
}

var _ item.Loader = (*Loader)(nil)
var _ item.Surface = (*Surface)(nil)
var _ item.Surface = (*badgedSurface)(nil)
