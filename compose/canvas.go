package compose

import (
	"mbook/assets"
)

// FontRole is logical typeface, mapped to actual font by the surface.
type FontRole int

const (
	// FontDisplay is bold display face used for titles.
	FontDisplay FontRole = iota
	// FontBody is regular serif face used for everything else.
	FontBody
)

func (r FontRole) String() string {
	if r == FontDisplay {
		return "display"
	}
	return "body"
}

// Color is RGB color with 0-255 components.
type Color struct {
	R, G, B int
}

type Point struct {
	X, Y float64
}

// Shape drawing styles.
const (
	StyleFill       = "F"
	StyleDraw       = "D"
	StyleFillDraw   = "FD"
	allCornersRound = "1234"
)

// Canvas is drawing surface page renderers work on. Coordinates are in
// millimeters from top left corner, text is positioned by its baseline.
type Canvas interface {
	AddPage()
	SetFont(role FontRole, size float64)
	SetTextColor(c Color)
	SetFillColor(c Color)
	SetDrawColor(c Color)
	SetLineWidth(w float64)
	// StringWidth measures s using current font.
	StringWidth(s string) float64
	Text(x, y float64, s string)
	Rect(x, y, w, h float64, style string)
	RoundedRect(x, y, w, h, r float64, style string)
	Line(x1, y1, x2, y2 float64)
	Polygon(points []Point, style string)
	Circle(x, y, r float64, style string)
	Image(img *assets.Image, x, y, w, h float64)
}
