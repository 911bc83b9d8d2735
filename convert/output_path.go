package convert

import (
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"

	"mbook/book"
	"mbook/config"
	"mbook/state"
)

const outputExt = ".pdf"

// buildOutputPath returns output file path for the book. Name comes from the
// sanitized book title, source file name is used for untitled books. Source
// directory structure is kept unless NoDirs is requested. Name is optionally
// transliterated.
func buildOutputPath(b *book.Book, src, dst string, env *state.LocalEnv) string {
	return filepath.Join(determineOutputDir(src, dst, env), buildFileName(b, src, env))
}

func determineOutputDir(src, dst string, env *state.LocalEnv) string {
	if env.NoDirs {
		return dst
	}
	return filepath.Join(dst, filepath.Dir(src))
}

func buildFileName(b *book.Book, src string, env *state.LocalEnv) string {
	name := book.SanitizeTitle(b.Title)
	if len(name) == 0 {
		name = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}
	if env.Cfg.Document.FileNameTransliterate {
		name = slug.Make(name)
	}
	if len(name) == 0 {
		name = book.DefaultFileName
	}
	return config.CleanFileName(name) + outputExt
}
