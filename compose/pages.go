package compose

import (
	"math"
	"strconv"

	"mbook/assets"
	"mbook/book"
)

// renderer draws pages of a single book.
type renderer struct {
	c      Canvas
	title  string
	logo   assets.Optional[*assets.Image]
	labels *labels
}

func (r *renderer) cover(page book.Page, img assets.Optional[*assets.Image]) {
	c := r.c
	drawBackground(c, ColorTeal, ColorGold)
	drawPageBorder(c)
	drawLogo(c, r.logo, coverLogoX, coverLogoY, coverLogoSize)

	drawFramedImage(c, img, (PageWidth-coverImageW)/2, coverImageY, coverImageW, coverImageH)

	c.SetFont(FontDisplay, CoverTitleSize)
	c.SetTextColor(ColorInk)
	y := coverTitleY
	lines := limitLines(wrapText(c, r.title, coverTitleWidth), maxTitleLines)
	for i, line := range lines {
		y = coverTitleY + float64(i)*coverTitleLead
		textCentered(c, PageWidth/2, y, line)
	}

	y += coverOrnamentGap
	drawOrnament(c, PageWidth/2, y, OrnamentWidth)

	c.SetFont(FontBody, CoverBodySize)
	c.SetTextColor(ColorMuted)
	y += coverBodyGap
	for _, line := range limitLines(wrapText(c, page.Description, coverBodyWidth), maxCoverLines) {
		textCentered(c, PageWidth/2, y, line)
		y += coverBodyLead
	}

	c.SetFont(FontBody, CaptionSize)
	c.SetTextColor(ColorMuted)
	textCentered(c, PageWidth/2, PageHeight-coverCaptionInset, r.labels.Caption)
}

// content draws regular page: image zone and text zone side by side, even
// pages have image on the left.
func (r *renderer) content(page book.Page, index int, even bool, img assets.Optional[*assets.Image]) {
	c := r.c
	c.SetFillColor(ColorCream)
	c.Rect(0, 0, PageWidth, PageHeight, StyleFill)
	drawPageBorder(c)

	imageX, textX := Margin, Margin+zoneWidth+Gutter
	if !even {
		imageX, textX = textX, imageX
	}
	drawFramedImage(c, img, imageX, contentTop, zoneWidth, contentImageH)

	tx := textX + textPad
	y := textTop

	if len(page.Date) > 0 {
		c.SetFont(FontBody, TagSize)
		label := fitText(c, page.Date, textWidth-2*tagPadX)
		w := c.StringWidth(label) + 2*tagPadX
		c.SetFillColor(ColorTeal)
		c.RoundedRect(tx, y, w, tagHeight, tagHeight/2, StyleFill)
		c.SetTextColor(ColorWhite)
		c.Text(tx+tagPadX, y+tagBaseline, label)
		y += tagHeight + tagGap
	}

	c.SetFont(FontDisplay, PageTitleSize)
	c.SetTextColor(ColorInk)
	for _, line := range limitLines(wrapText(c, page.Title, textWidth), maxTitleLines) {
		y += titleLead
		c.Text(tx, y, line)
	}

	y += accentGap
	c.SetDrawColor(ColorGold)
	c.SetLineWidth(accentWidth)
	c.Line(tx, y, tx+accentLength, y)
	y += accentGap

	c.SetFont(FontBody, BodySize)
	c.SetTextColor(ColorInk)
	for _, line := range limitLines(wrapText(c, page.Description, textWidth), bodyLineLimit(y)) {
		y += bodyLead
		c.Text(tx, y, line)
	}

	// page number in the outer corner
	c.SetFont(FontBody, PageNumberSize)
	c.SetTextColor(ColorMuted)
	num := strconv.Itoa(index)
	if even {
		c.Text(Margin, footerY, num)
	} else {
		textRight(c, PageWidth-Margin, footerY, num)
	}

	c.SetFillColor(ColorLight)
	for i := -1; i <= 1; i++ {
		c.Circle(PageWidth/2+float64(i)*dotSpacing, dotsY, dotRadius, StyleFill)
	}
}

// bodyLineLimit returns how many body lines fit below y, never less than
// minBodyLines.
func bodyLineLimit(y float64) int {
	return max(minBodyLines, int(math.Floor((bodyBottom-y)/bodyLead)))
}

func (r *renderer) backCover(page book.Page, img assets.Optional[*assets.Image]) {
	c := r.c
	drawBackground(c, ColorGold, ColorTeal)
	drawPageBorder(c)
	drawOrnament(c, PageWidth/2, backOrnamentY, OrnamentWidth)

	drawFramedImage(c, img, (PageWidth-backImageW)/2, backImageY, backImageW, backImageH)

	c.SetFont(FontDisplay, BackTitleSize)
	c.SetTextColor(ColorInk)
	y := backTitleY
	for i, line := range limitLines(wrapText(c, page.Title, backTitleWidth), maxTitleLines) {
		y = backTitleY + float64(i)*backTitleLead
		textCentered(c, PageWidth/2, y, line)
	}

	c.SetFont(FontBody, BodySize)
	c.SetTextColor(ColorMuted)
	y += backBodyGap
	for _, line := range limitLines(wrapText(c, page.Description, backBodyWidth), maxBackCoverBody) {
		y += bodyLead
		textCentered(c, PageWidth/2, y, line)
	}

	drawOrnament(c, PageWidth/2, min(y+backOrnamentGap, backOrnamentMax), OrnamentWidth)
	drawLogo(c, r.logo, (PageWidth-backLogoSize)/2, backLogoY, backLogoSize)

	c.SetFont(FontDisplay, BackHeadingSize)
	c.SetTextColor(ColorInk)
	if lines := limitLines(wrapText(c, r.title, backTitleWidth), 1); len(lines) > 0 {
		textCentered(c, PageWidth/2, backHeadingY, lines[0])
	}

	c.SetFont(FontBody, CaptionSize)
	c.SetTextColor(ColorMuted)
	textCentered(c, PageWidth/2, backCaptionY, r.labels.Branding)
}

// fitText shortens s with ellipsis until it fits width.
func fitText(c Canvas, s string, width float64) string {
	if c.StringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for n := len(runes) - 1; n > 0; n-- {
		if t := string(runes[:n]) + "…"; c.StringWidth(t) <= width {
			return t
		}
	}
	return string(runes[:1])
}
