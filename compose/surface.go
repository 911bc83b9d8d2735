package compose

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/encoding/charmap"

	"mbook/assets"
	"mbook/misc"
)

// missingGlyph replaces characters font cannot draw.
const missingGlyph = '?'

type face struct {
	family string
	style  string
	utf8   bool
	glyphs *coverage
}

// coverage tells which characters registered font program can draw. PDF
// engine only handles Basic Multilingual Plane for embedded fonts.
type coverage struct {
	font  *sfnt.Font
	buf   sfnt.Buffer
	known map[rune]bool
}

func newCoverage(data []byte) *coverage {
	c := &coverage{known: make(map[rune]bool)}
	if f, err := sfnt.Parse(data); err == nil {
		c.font = f
	}
	return c
}

func (c *coverage) has(r rune) bool {
	if r > 0xFFFF {
		return false
	}
	if c.font == nil {
		return true
	}
	if v, ok := c.known[r]; ok {
		return v
	}
	idx, err := c.font.GlyphIndex(&c.buf, r)
	v := err == nil && idx != 0
	c.known[r] = v
	return v
}

// invisible reports characters which only modify presentation of their
// neighbours (emoji selectors, joiners) and are dropped when drawing.
func invisible(r rune) bool {
	return unicode.Is(unicode.Variation_Selector, r) || r == '\u200d'
}

// encode drops invisible characters and replaces ones without glyph.
func (c *coverage) encode(txt string) string {
	clean := true
	for _, r := range txt {
		if invisible(r) || !c.has(r) {
			clean = false
			break
		}
	}
	if clean {
		return txt
	}

	var b strings.Builder
	b.Grow(len(txt))
	for _, r := range txt {
		switch {
		case invisible(r):
		case c.has(r):
			b.WriteRune(r)
		default:
			b.WriteRune(missingGlyph)
		}
	}
	return b.String()
}

// core PDF fonts used when typography could not be loaded or registered
var fallbackFaces = map[FontRole]face{
	FontDisplay: {family: "Helvetica", style: "B"},
	FontBody:    {family: "Helvetica"},
}

// Metadata goes into document information dictionary.
type Metadata struct {
	Title   string
	Created time.Time
}

// Surface is gofpdf backed Canvas producing A4 landscape document. Each
// composition owns its surface, font registrations are never shared.
type Surface struct {
	pdf     *gofpdf.Fpdf
	faces   map[FontRole]face
	current face
	images  map[*assets.Image]string
	log     *zap.Logger
}

// NewSurface creates surface and registers fonts. Fonts which are absent or
// could not be registered are replaced with core fonts.
func NewSurface(typo assets.Typography, meta Metadata, log *zap.Logger) *Surface {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(meta.Created)
	pdf.SetModificationDate(meta.Created)
	pdf.SetTitle(basicPlane(meta.Title), true)
	pdf.SetCreator(misc.GetAppName(), true)

	s := &Surface{
		pdf:    pdf,
		faces:  make(map[FontRole]face, 2),
		images: make(map[*assets.Image]string),
		log:    log,
	}
	s.registerFont(FontDisplay, typo.Display)
	s.registerFont(FontBody, typo.Body)
	s.current = s.faces[FontBody]
	return s
}

func (s *Surface) registerFont(role FontRole, font assets.Optional[[]byte]) {
	s.faces[role] = fallbackFaces[role]

	data, ok := font.Get()
	if !ok {
		return
	}
	family := misc.GetAppName() + "-" + role.String()
	if err := s.addFont(family, data); err != nil {
		s.log.Warn("Unable to register font, fallback will be used", zap.Stringer("face", role), zap.Error(err))
		return
	}
	s.faces[role] = face{family: family, utf8: true, glyphs: newCoverage(data)}
}

func (s *Surface) addFont(family string, data []byte) (err error) {
	// font parser is not hardened against malformed input
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("font parser failure: %v", r)
		}
	}()

	s.pdf.AddUTF8FontFromBytes(family, "", data)
	if s.pdf.Err() {
		err = s.pdf.Error()
		s.pdf.ClearError()
		return err
	}
	// parser reports some problems only by not registering the font
	if s.pdf.GetFontDesc(family, "").Ascent == 0 {
		return fmt.Errorf("font %s was not registered", family)
	}
	return nil
}

// Fallback reports whether core font is used for the role.
func (s *Surface) Fallback(role FontRole) bool {
	return !s.faces[role].utf8
}

func (s *Surface) AddPage() {
	s.pdf.AddPage()
}

func (s *Surface) SetFont(role FontRole, size float64) {
	s.current = s.faces[role]
	s.pdf.SetFont(s.current.family, s.current.style, size)
}

func (s *Surface) SetTextColor(c Color) {
	s.pdf.SetTextColor(c.R, c.G, c.B)
}

func (s *Surface) SetFillColor(c Color) {
	s.pdf.SetFillColor(c.R, c.G, c.B)
}

func (s *Surface) SetDrawColor(c Color) {
	s.pdf.SetDrawColor(c.R, c.G, c.B)
}

func (s *Surface) SetLineWidth(w float64) {
	s.pdf.SetLineWidth(w)
}

func (s *Surface) StringWidth(txt string) float64 {
	return s.pdf.GetStringWidth(s.encode(txt))
}

func (s *Surface) Text(x, y float64, txt string) {
	s.pdf.Text(x, y, s.encode(txt))
}

func (s *Surface) Rect(x, y, w, h float64, style string) {
	s.pdf.Rect(x, y, w, h, style)
}

func (s *Surface) RoundedRect(x, y, w, h, r float64, style string) {
	s.pdf.RoundedRect(x, y, w, h, r, allCornersRound, style)
}

func (s *Surface) Line(x1, y1, x2, y2 float64) {
	s.pdf.Line(x1, y1, x2, y2)
}

func (s *Surface) Polygon(points []Point, style string) {
	pts := make([]gofpdf.PointType, 0, len(points))
	for _, p := range points {
		pts = append(pts, gofpdf.PointType{X: p.X, Y: p.Y})
	}
	s.pdf.Polygon(pts, style)
}

func (s *Surface) Circle(x, y, r float64, style string) {
	s.pdf.Circle(x, y, r, style)
}

// Image embeds image once per surface, repeated use of the same image only
// references it again.
func (s *Surface) Image(img *assets.Image, x, y, w, h float64) {
	opts := gofpdf.ImageOptions{ImageType: string(img.Format())}

	name, ok := s.images[img]
	if !ok {
		name = fmt.Sprintf("img%d", len(s.images)+1)
		s.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
		if s.pdf.Err() {
			s.log.Warn("Unable to embed image, skipping", zap.String("mime", img.MIME), zap.Error(s.pdf.Error()))
			s.pdf.ClearError()
			return
		}
		s.images[img] = name
	}
	s.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
}

// PageCount returns number of pages added so far.
func (s *Surface) PageCount() int {
	return s.pdf.PageCount()
}

// Output finalizes document. Surface cannot be used afterwards.
func (s *Surface) Output() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := s.pdf.Output(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encode prepares text for current font, measuring and drawing must both
// go through it. Core fonts only understand cp1252.
func (s *Surface) encode(txt string) string {
	if s.current.utf8 {
		return s.current.glyphs.encode(txt)
	}
	buf := make([]byte, 0, len(txt))
	for _, r := range txt {
		if invisible(r) {
			continue
		}
		if b, ok := charmap.Windows1252.EncodeRune(r); ok {
			buf = append(buf, b)
		} else {
			buf = append(buf, missingGlyph)
		}
	}
	return string(buf)
}

// basicPlane replaces characters document information dictionary cannot
// carry.
func basicPlane(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case invisible(r):
			return -1
		case r > 0xFFFF:
			return missingGlyph
		}
		return r
	}, s)
}
