package compose

import (
	"errors"
	"unicode/utf8"

	"mbook/assets"
)

// op is a single recorded drawing operation. For lines w and h hold the end
// point, for polygons x and y hold the first vertex.
type op struct {
	kind       string
	x, y, w, h float64
	text       string
	role       FontRole
	size       float64
	style      string
	fill       Color
	img        *assets.Image
}

// recorder is Canvas capturing all operations, text width is approximated
// from rune count so layout can be checked without real fonts.
type recorder struct {
	ops   []op
	role  FontRole
	size  float64
	fill  Color
	pages int
	fail  bool
}

func (r *recorder) AddPage() {
	r.pages++
	r.ops = append(r.ops, op{kind: "page"})
}

func (r *recorder) SetFont(role FontRole, size float64) { r.role, r.size = role, size }
func (r *recorder) SetTextColor(Color)                  {}
func (r *recorder) SetFillColor(c Color)                { r.fill = c }
func (r *recorder) SetDrawColor(Color)                  {}
func (r *recorder) SetLineWidth(float64)                {}

func (r *recorder) StringWidth(s string) float64 {
	return float64(utf8.RuneCountInString(s)) * r.size * 0.18
}

func (r *recorder) Text(x, y float64, s string) {
	r.ops = append(r.ops, op{kind: "text", x: x, y: y, text: s, role: r.role, size: r.size})
}

func (r *recorder) Rect(x, y, w, h float64, style string) {
	r.ops = append(r.ops, op{kind: "rect", x: x, y: y, w: w, h: h, style: style, fill: r.fill})
}

func (r *recorder) RoundedRect(x, y, w, h, _ float64, style string) {
	r.ops = append(r.ops, op{kind: "rrect", x: x, y: y, w: w, h: h, style: style, fill: r.fill})
}

func (r *recorder) Line(x1, y1, x2, y2 float64) {
	r.ops = append(r.ops, op{kind: "line", x: x1, y: y1, w: x2, h: y2})
}

func (r *recorder) Polygon(points []Point, style string) {
	r.ops = append(r.ops, op{kind: "polygon", x: points[0].X, y: points[0].Y, style: style})
}

func (r *recorder) Circle(x, y, rad float64, style string) {
	r.ops = append(r.ops, op{kind: "circle", x: x, y: y, w: rad, style: style})
}

func (r *recorder) Image(img *assets.Image, x, y, w, h float64) {
	r.ops = append(r.ops, op{kind: "image", x: x, y: y, w: w, h: h, img: img})
}

func (r *recorder) PageCount() int { return r.pages }

func (r *recorder) Output() ([]byte, error) {
	if r.fail {
		return nil, errors.New("encoder failure")
	}
	return []byte("%PDF-recorded"), nil
}

func (r *recorder) filter(pred func(op) bool) []op {
	var res []op
	for _, o := range r.ops {
		if pred(o) {
			res = append(res, o)
		}
	}
	return res
}

func (r *recorder) texts(role FontRole, size float64) []op {
	return r.filter(func(o op) bool { return o.kind == "text" && o.role == role && o.size == size })
}

func (r *recorder) kinds(kind string) []op {
	return r.filter(func(o op) bool { return o.kind == kind })
}

// pageOps splits recorded operations by page.
func (r *recorder) pageOps() [][]op {
	var pages [][]op
	for _, o := range r.ops {
		if o.kind == "page" {
			pages = append(pages, nil)
			continue
		}
		if len(pages) > 0 {
			pages[len(pages)-1] = append(pages[len(pages)-1], o)
		}
	}
	return pages
}
