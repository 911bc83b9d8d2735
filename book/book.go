// Package book defines memory book manifest: ordered pages with image
// references and text, as produced by book viewer or by generation backend.
package book

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	yaml "gopkg.in/yaml.v3"
)

// Page is a single page record. Pages are never modified by composition.
type Page struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	ImageURL    string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty" validate:"max=512"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" validate:"max=20000"`
	Date        string `json:"date,omitempty" yaml:"date,omitempty" validate:"max=128"`
}

// Book is a title plus ordered pages: first page is the cover, last one (if
// there is more than one) is the back cover.
type Book struct {
	ID        string `json:"id,omitempty" yaml:"id,omitempty"`
	Title     string `json:"title" yaml:"title" validate:"max=512"`
	Subtitle  string `json:"subtitle,omitempty" yaml:"subtitle,omitempty" validate:"max=2048"`
	Language  string `json:"language,omitempty" yaml:"language,omitempty" validate:"omitempty,bcp47_language_tag"`
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Pages     []Page `json:"pages" yaml:"pages" validate:"min=1,unique=ID,dive"`
}

// Created returns book creation time, zero if unknown.
func (b *Book) Created() time.Time {
	t, err := time.Parse(time.RFC3339, b.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// PrintPages returns copy of pages ready for composition: cover without
// description gets book subtitle instead.
func (b *Book) PrintPages() []Page {
	pages := slices.Clone(b.Pages)
	if len(pages) > 0 && len(strings.TrimSpace(pages[0].Description)) == 0 {
		pages[0].Description = b.Subtitle
	}
	return pages
}

// rawPage accepts both page shapes: viewer (imageUrl, title, description,
// date) and generation backend result (image_path, narrative_text,
// life_phase, page_number).
type rawPage struct {
	ID          string `json:"id" yaml:"id"`
	ImageURL    string `json:"imageUrl" yaml:"imageUrl"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Date        string `json:"date" yaml:"date"`

	PageNumber    int    `json:"page_number" yaml:"page_number"`
	PageType      string `json:"page_type" yaml:"page_type"`
	ImagePath     string `json:"image_path" yaml:"image_path"`
	NarrativeText string `json:"narrative_text" yaml:"narrative_text"`
	LifePhase     string `json:"life_phase" yaml:"life_phase"`
}

type rawBook struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Subtitle  string    `json:"subtitle" yaml:"subtitle"`
	Language  string    `json:"language" yaml:"language"`
	CreatedAt string    `json:"created_at" yaml:"created_at"`
	Cover     *rawPage  `json:"cover" yaml:"cover"`
	Pages     []rawPage `json:"pages" yaml:"pages"`
	BackCover *rawPage  `json:"back_cover" yaml:"back_cover"`
}

func (p *rawPage) page() Page {
	res := Page{
		ID:          strings.TrimSpace(p.ID),
		ImageURL:    firstOf(p.ImageURL, p.ImagePath),
		Title:       p.Title,
		Description: firstOf(p.Description, p.NarrativeText),
		Date:        firstOf(p.Date, p.LifePhase),
	}
	if len(res.ID) == 0 && p.PageNumber > 0 {
		res.ID = fmt.Sprintf("page-%d", p.PageNumber)
	}
	if len(res.ID) == 0 {
		res.ID = uuid.NewString()
	}
	return res
}

func firstOf(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); len(s) > 0 {
			return s
		}
	}
	return ""
}

func (rb *rawBook) book() *Book {
	pages := make([]rawPage, 0, len(rb.Pages)+2)
	if rb.Cover != nil {
		rb.Cover.PageType = "cover"
		pages = append(pages, *rb.Cover)
	}
	body := slices.Clone(rb.Pages)
	// backend numbers pages, viewer relies on order
	slices.SortStableFunc(body, func(a, b rawPage) int {
		return pageRank(a) - pageRank(b)
	})
	pages = append(pages, body...)
	if rb.BackCover != nil {
		rb.BackCover.PageType = "back_cover"
		pages = append(pages, *rb.BackCover)
	}

	b := &Book{
		ID:        strings.TrimSpace(rb.ID),
		Title:     strings.TrimSpace(rb.Title),
		Subtitle:  strings.TrimSpace(rb.Subtitle),
		Language:  strings.TrimSpace(rb.Language),
		CreatedAt: strings.TrimSpace(rb.CreatedAt),
		Pages:     make([]Page, 0, len(pages)),
	}
	for i := range pages {
		b.Pages = append(b.Pages, pages[i].page())
	}
	return b
}

// pageRank orders backend pages: cover, numbered pages, back cover.
func pageRank(p rawPage) int {
	switch p.PageType {
	case "cover":
		return -1
	case "back_cover":
		return 1 << 30
	}
	return p.PageNumber
}

// Decode reads manifest in JSON or YAML form and validates it.
func Decode(r io.Reader) (*Book, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read book manifest: %w", err)
	}

	var rb rawBook
	// YAML parser rejects some valid JSON (tab indentation)
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		err = json.Unmarshal(trimmed, &rb)
	} else {
		err = yaml.Unmarshal(data, &rb)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to decode book manifest: %w", err)
	}

	b := rb.book()
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Load reads and validates manifest file.
func Load(path string) (*Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return b, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks book invariants: at least one page, unique page ids and
// sane field sizes.
func (b *Book) Validate() error {
	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("invalid book manifest: %w", err)
	}
	return nil
}
