package book

import (
	"strconv"

	"mbook/utils/debug"
)

// Outline returns readable dump of the book as it is going to be laid out.
func (b *Book) Outline() string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "book %s (%d pages)", strconv.Quote(b.Title), len(b.Pages))
	tw.Field(1, "id", b.ID)
	tw.Field(1, "subtitle", b.Subtitle)
	tw.Field(1, "language", b.Language)
	tw.Field(1, "created", b.CreatedAt)

	for i, l := range Classify(b.Pages) {
		p := b.Pages[i]
		if l.Kind == KindContent {
			side := "image right"
			if l.Even {
				side = "image left"
			}
			tw.Line(1, "%d: %s %s (%s)", i, l.Kind, p.ID, side)
		} else {
			tw.Line(1, "%d: %s %s", i, l.Kind, p.ID)
		}
		tw.Field(2, "image", shorten(p.ImageURL))
		tw.Field(2, "title", p.Title)
		tw.Field(2, "date", p.Date)
		tw.Field(2, "description", shorten(p.Description))
	}
	return tw.String()
}

// shorten keeps dumps readable when data URLs or long narratives are present.
func shorten(s string) string {
	const limit = 64
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
