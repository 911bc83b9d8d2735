package compose

import (
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"mbook/assets"
)

// wrapText splits text into lines not wider than maxWidth using current
// font. Paragraph breaks are kept as empty lines, words longer than a line
// are broken by characters. Empty text produces no lines.
func wrapText(c Canvas, text string, maxWidth float64) []string {
	text = strings.ReplaceAll(norm.NFC.String(text), "\r\n", "\n")

	var lines []string
	for para := range strings.SplitSeq(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		var cur string
		for _, word := range words {
			candidate := word
			if len(cur) > 0 {
				candidate = cur + " " + word
			}
			if c.StringWidth(candidate) <= maxWidth {
				cur = candidate
				continue
			}
			if len(cur) > 0 {
				lines = append(lines, cur)
			}
			cur = word
			if c.StringWidth(word) > maxWidth {
				pieces := breakWord(c, word, maxWidth)
				lines = append(lines, pieces[:len(pieces)-1]...)
				cur = pieces[len(pieces)-1]
			}
		}
		lines = append(lines, cur)
	}

	// blank lines only separate paragraphs
	start, end := 0, len(lines)
	for start < end && len(lines[start]) == 0 {
		start++
	}
	for end > start && len(lines[end-1]) == 0 {
		end--
	}
	return lines[start:end]
}

// breakWord splits word into pieces fitting maxWidth, at least one rune each.
func breakWord(c Canvas, word string, maxWidth float64) []string {
	var (
		pieces []string
		cur    []rune
	)
	for _, r := range word {
		if len(cur) > 0 && c.StringWidth(string(append(cur, r))) > maxWidth {
			pieces = append(pieces, string(cur))
			cur = cur[:0]
		}
		cur = append(cur, r)
	}
	return append(pieces, string(cur))
}

// limitLines truncates lines to at most n.
func limitLines(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}

func textCentered(c Canvas, cx, y float64, s string) {
	c.Text(cx-c.StringWidth(s)/2, y, s)
}

func textRight(c Canvas, right, y float64, s string) {
	c.Text(right-c.StringWidth(s), y, s)
}

// drawOrnament draws divider: two line segments flanking a small diamond.
func drawOrnament(c Canvas, cx, cy, width float64) {
	half := width / 2
	c.SetDrawColor(ColorGold)
	c.SetLineWidth(OrnamentLineWidth)
	c.Line(cx-half, cy, cx-ornamentDiamondGap, cy)
	c.Line(cx+ornamentDiamondGap, cy, cx+half, cy)

	c.SetFillColor(ColorGold)
	c.Polygon([]Point{
		{cx, cy - OrnamentDiamond},
		{cx + OrnamentDiamond, cy},
		{cx, cy + OrnamentDiamond},
		{cx - OrnamentDiamond, cy},
	}, StyleFill)
}

// drawPageBorder draws thin rounded frame inset from page edges.
func drawPageBorder(c Canvas) {
	c.SetDrawColor(ColorLight)
	c.SetLineWidth(BorderWidth)
	c.RoundedRect(BorderInset, BorderInset, PageWidth-2*BorderInset, PageHeight-2*BorderInset, BorderRadius, StyleDraw)
}

func drawBackground(c Canvas, top, bottom Color) {
	c.SetFillColor(ColorCream)
	c.Rect(0, 0, PageWidth, PageHeight, StyleFill)
	c.SetFillColor(top)
	c.Rect(0, 0, PageWidth, BarHeight, StyleFill)
	c.SetFillColor(bottom)
	c.Rect(0, PageHeight-BarHeight, PageWidth, BarHeight, StyleFill)
}

// drawSoftShadow draws two layer shadow offset from the box.
func drawSoftShadow(c Canvas, x, y, w, h float64) {
	c.SetFillColor(ColorHaze)
	c.Rect(x+ShadowOffset, y+ShadowOffset, w, h, StyleFill)
	c.SetFillColor(ColorShadow)
	c.Rect(x+ShadowOffset/2, y+ShadowOffset/2, w, h, StyleFill)
}

// drawFramedImage draws shadow, white matting and the image fitted inside
// matting keeping its aspect ratio. When there is no image nothing at all is
// drawn.
func drawFramedImage(c Canvas, img assets.Optional[*assets.Image], x, y, w, h float64) {
	im, ok := img.Get()
	if !ok {
		return
	}
	drawSoftShadow(c, x, y, w, h)
	c.SetFillColor(ColorWhite)
	c.Rect(x, y, w, h, StyleFill)

	ix, iy, iw, ih := fitBox(im.Width, im.Height, x+MatPadding, y+MatPadding, w-2*MatPadding, h-2*MatPadding)
	c.Image(im, ix, iy, iw, ih)
}

// fitBox places image of given pixel size into the box keeping aspect ratio,
// centered. Unknown size stretches image to the box.
func fitBox(pw, ph int, x, y, w, h float64) (float64, float64, float64, float64) {
	if pw <= 0 || ph <= 0 {
		return x, y, w, h
	}
	scale := math.Min(w/float64(pw), h/float64(ph))
	iw, ih := float64(pw)*scale, float64(ph)*scale
	return x + (w-iw)/2, y + (h-ih)/2, iw, ih
}

// drawLogo draws logo into size x size square keeping aspect ratio, no-op
// when there is no logo.
func drawLogo(c Canvas, logo assets.Optional[*assets.Image], x, y, size float64) {
	im, ok := logo.Get()
	if !ok {
		return
	}
	ix, iy, iw, ih := fitBox(im.Width, im.Height, x, y, size, size)
	c.Image(im, ix, iy, iw, ih)
}
