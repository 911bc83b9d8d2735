package compose

import (
	"fmt"

	"golang.org/x/text/language"
)

// Progress is reported during composition. Total is fixed for the whole
// composition and Current never decreases.
type Progress struct {
	Current int
	Total   int
	Label   string
}

// ProgressFunc receives progress updates, it is called synchronously.
type ProgressFunc func(Progress)

type labels struct {
	LoadingFonts string
	Cover        string
	page         string
	Finalizing   string
	Caption      string
	Branding     string
}

func (l *labels) Page(i, n int) string {
	return fmt.Sprintf(l.page, i, n)
}

var (
	supported = []language.Tag{language.English, language.Portuguese, language.Spanish}
	matcher   = language.NewMatcher(supported)
	catalog   = []labels{
		{
			LoadingFonts: "loading fonts",
			Cover:        "preparing cover",
			page:         "page %d/%d",
			Finalizing:   "finalizing",
			Caption:      "Memory Book",
			Branding:     "Created with Memory Book",
		},
		{
			LoadingFonts: "Preparando...",
			Cover:        "Capa...",
			page:         "Página %d/%d...",
			Finalizing:   "Finalizando...",
			Caption:      "Livro de Memórias",
			Branding:     "Criado com Memory Book",
		},
		{
			LoadingFonts: "Preparando...",
			Cover:        "Portada...",
			page:         "Página %d/%d...",
			Finalizing:   "Finalizando...",
			Caption:      "Libro de Recuerdos",
			Branding:     "Creado con Memory Book",
		},
	}
)

// labelsFor picks closest supported language, English when nothing matches.
func labelsFor(lang string) *labels {
	tag, err := language.Parse(lang)
	if err != nil {
		return &catalog[0]
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return &catalog[0]
	}
	return &catalog[idx]
}
