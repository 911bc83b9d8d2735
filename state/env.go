// Package state defines shared program state.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"mbook/assets"
	"mbook/book"
	"mbook/compose"
	"mbook/config"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// used by compose subcommand
	NoDirs    bool
	Overwrite bool

	// DefaultLogo is used when document.logo is not configured.
	DefaultLogo []byte

	cacheOnce     sync.Once
	assetCache    *cache.Cache
	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}

// AssetLoader returns loader sharing process wide asset cache, so fonts and
// logo are fetched once per run (or once per cache period when serving).
// Relative image references are resolved against baseDir. Must be called
// after configuration is loaded.
func (e *LocalEnv) AssetLoader(baseDir string) *assets.Loader {
	e.cacheOnce.Do(func() {
		if ttl := e.Cfg.Document.Images.CacheTTL; ttl > 0 {
			e.assetCache = cache.New(ttl, 2*ttl)
		}
	})
	return assets.NewLoader(&e.Cfg.Document, e.assetCache, e.DefaultLogo, e.Log).WithBase(baseDir)
}

// Composer returns composer for the book using src for assets. Book language
// and creation time take precedence over configured ones.
func (e *LocalEnv) Composer(b *book.Book, src compose.AssetSource) *compose.Composer {
	opts := compose.Options{
		Language: e.Cfg.Document.Language,
		Created:  e.Cfg.Document.CreatedAt(),
	}
	if len(b.Language) > 0 {
		opts.Language = b.Language
	}
	if t := b.Created(); !t.IsZero() {
		opts.Created = t
	}
	return compose.New(src, opts, e.Log)
}
