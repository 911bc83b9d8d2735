// Package compose renders memory book into paginated PDF document: cover,
// alternating two zone content pages and back cover.
package compose

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mbook/assets"
	"mbook/book"
)

// ErrComposition is returned when document could not be produced at all.
// Missing fonts and images are never reported this way.
var ErrComposition = errors.New("could not generate document")

// ErrNoPages is returned for empty page list.
var ErrNoPages = errors.New("book has no pages")

// DefaultCreated is document date used when nothing else is known, keeps
// output reproducible.
var DefaultCreated = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// AssetSource provides assets for composition, implemented by assets.Loader.
type AssetSource interface {
	LoadTypography(ctx context.Context) assets.Typography
	LoadLogo(ctx context.Context) assets.Optional[*assets.Image]
	LoadImage(ctx context.Context, ref string) assets.Optional[*assets.Image]
}

// Options tune composition.
type Options struct {
	// Language selects progress and caption labels.
	Language string
	// Created is document creation date, DefaultCreated when zero.
	Created time.Time
}

// Document is composition result, owned by the caller.
type Document struct {
	Title string
	Data  []byte
	Pages int
}

// FileName returns sanitized download name for the document.
func (d *Document) FileName() string {
	return book.DownloadName(d.Title)
}

// Composer produces documents. It keeps no per document state, the same
// composer may be used concurrently.
type Composer struct {
	assets  AssetSource
	opts    Options
	log     *zap.Logger
	surface func(assets.Typography, Metadata) surface
}

// surface is what composer needs beyond Canvas.
type surface interface {
	Canvas
	PageCount() int
	Output() ([]byte, error)
}

func New(src AssetSource, opts Options, log *zap.Logger) *Composer {
	if opts.Created.IsZero() {
		opts.Created = DefaultCreated
	}
	log = log.Named("compose")
	return &Composer{
		assets: src,
		opts:   opts,
		log:    log,
		surface: func(typo assets.Typography, meta Metadata) surface {
			return NewSurface(typo, meta, log)
		},
	}
}

// Compose renders pages into a document. Pages are rendered strictly in
// order, every page record maps to exactly one physical page. Progress is
// reported through optional onProgress. Context is checked between pages.
func (c *Composer) Compose(ctx context.Context, title string, pages []book.Page, onProgress ProgressFunc) (doc *Document, err error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w: %v", ErrComposition, r)
		}
	}()

	var (
		start  = time.Now()
		total  = len(pages) + 2
		lbl    = labelsFor(c.opts.Language)
		layout = book.Classify(pages)
	)
	report := func(current int, label string) {
		c.log.Debug("Progress", zap.Int("current", current), zap.Int("total", total), zap.String("label", label))
		if onProgress != nil {
			onProgress(Progress{Current: current, Total: total, Label: label})
		}
	}

	report(0, lbl.LoadingFonts)
	typo := c.assets.LoadTypography(ctx)
	s := c.surface(typo, Metadata{Title: title, Created: c.opts.Created})
	r := &renderer{
		c:      s,
		title:  title,
		logo:   c.assets.LoadLogo(ctx),
		labels: lbl,
	}

	report(1, lbl.Cover)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.AddPage()
	r.cover(pages[0], c.assets.LoadImage(ctx, pages[0].ImageURL))

	last := len(pages) - 1
	for i := 1; i <= last; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.AddPage()
		report(i+1, lbl.Page(i, last))

		img := c.assets.LoadImage(ctx, pages[i].ImageURL)
		if layout[i].Kind == book.KindBackCover {
			r.backCover(pages[i], img)
			continue
		}
		r.content(pages[i], i, layout[i].Even, img)
	}

	report(total, lbl.Finalizing)
	data, err := s.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrComposition, err)
	}

	c.log.Debug("Document composed", zap.Int("pages", s.PageCount()), zap.Int("size", len(data)), zap.Duration("elapsed", time.Since(start)))
	return &Document{Title: title, Data: data, Pages: s.PageCount()}, nil
}
