// Package assets resolves fonts, logo and page images into embeddable form.
// Nothing here ever reports an error to the caller: missing or broken
// resources are logged and come back as None.
package assets

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image/color"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"mbook/config"
	imgutil "mbook/utils/images"
)

// logoRasterSize is pixel size of the box vector logos are rasterized into.
const logoRasterSize = 512

var errEmptyRef = errors.New("empty reference")

// Typography holds font programs for the two logical faces.
type Typography struct {
	Display Optional[[]byte]
	Body    Optional[[]byte]
}

// Loader resolves asset references. It is safe for concurrent use, loaded
// assets are shared through optional cache.
type Loader struct {
	conf        *config.DocumentConfig
	store       *cache.Cache
	fetch       *fetcher
	defaultLogo []byte
	baseDir     string
	remoteOnly  bool
	log         *zap.Logger
}

// NewLoader creates asset loader. store may be nil, in which case nothing is
// cached. defaultLogo (SVG) is used when configuration does not name a logo.
func NewLoader(conf *config.DocumentConfig, store *cache.Cache, defaultLogo []byte, log *zap.Logger) *Loader {
	log = log.Named("assets")
	return &Loader{
		conf:        conf,
		store:       store,
		fetch:       newFetcher(&conf.Images, log),
		defaultLogo: defaultLogo,
		log:         log,
	}
}

// WithBase returns loader resolving relative page image references against
// dir. Fonts and logo from configuration are not affected.
func (l *Loader) WithBase(dir string) *Loader {
	nl := *l
	nl.baseDir = dir
	return &nl
}

// RemoteOnly returns loader which refuses local page image references, only
// embedded and fetched images are used. Configured fonts and logo are not
// affected.
func (l *Loader) RemoteOnly() *Loader {
	nl := *l
	nl.remoteOnly = true
	return &nl
}

// LoadTypography loads display and body fonts. Each face is independent, a
// failure of one does not affect the other.
func (l *Loader) LoadTypography(ctx context.Context) Typography {
	return Typography{
		Display: l.loadFont(ctx, "display", l.conf.Fonts.Display),
		Body:    l.loadFont(ctx, "body", l.conf.Fonts.Body),
	}
}

// configured returns loader for document level assets named in
// configuration, they never depend on book location.
func (l *Loader) configured() *Loader {
	return l.WithBase("")
}

func (l *Loader) loadFont(ctx context.Context, face, ref string) Optional[[]byte] {
	l = l.configured()
	key := l.cacheKey("font", ref)
	if v, ok := l.cached(key); ok {
		return Some(v.([]byte))
	}

	data, _, err := l.resolve(ctx, ref)
	if err == nil && !filetype.Is(data, "ttf") {
		err = errors.New("not a TrueType font")
	}
	if err != nil {
		l.log.Warn("Unable to load font, fallback will be used", zap.String("face", face), zap.String("ref", shorten(ref)), zap.Error(err))
		return None[[]byte]()
	}
	l.remember(key, data)
	return Some(data)
}

// LoadLogo loads configured logo or rasterizes built-in one.
func (l *Loader) LoadLogo(ctx context.Context) Optional[*Image] {
	l = l.configured()
	ref := l.conf.Logo
	key := l.cacheKey("logo", ref)
	if v, ok := l.cached(key); ok {
		return Some(v.(*Image))
	}

	var (
		data []byte
		err  error
	)
	if len(strings.TrimSpace(ref)) == 0 {
		data = l.defaultLogo
		if len(data) == 0 {
			return None[*Image]()
		}
	} else if data, _, err = l.resolve(ctx, ref); err != nil {
		l.log.Warn("Unable to load logo", zap.String("ref", shorten(ref)), zap.Error(err))
		return None[*Image]()
	}

	img, err := l.logoImage(data)
	if err != nil {
		l.log.Warn("Unable to prepare logo", zap.String("ref", shorten(ref)), zap.Error(err))
		return None[*Image]()
	}
	l.remember(key, img)
	return Some(img)
}

func (l *Loader) logoImage(data []byte) (*Image, error) {
	if !imgutil.IsSVG(data) {
		return Normalize(data, l.conf.Images.MaxDimension, l.conf.Images.JPEGQuality)
	}
	raster, err := imgutil.RasterizeSVG(data, logoRasterSize, logoRasterSize, color.Transparent)
	if err != nil {
		return nil, fmt.Errorf("unable to rasterize logo: %w", err)
	}
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, raster, imaging.PNG); err != nil {
		return nil, fmt.Errorf("unable to encode logo: %w", err)
	}
	return &Image{
		MIME:   "image/png",
		Data:   buf.Bytes(),
		Width:  raster.Bounds().Dx(),
		Height: raster.Bounds().Dy(),
	}, nil
}

// LoadImage loads page image. Data URLs are decoded directly, remote
// references are fetched (two attempts), local paths are read. Result is
// always normalized.
func (l *Loader) LoadImage(ctx context.Context, ref string) Optional[*Image] {
	ref = strings.TrimSpace(ref)
	if len(ref) == 0 {
		l.log.Debug("Page has no image")
		return None[*Image]()
	}

	if l.remoteOnly && !isRemote(ref) {
		l.log.Warn("Local image references are not allowed", zap.String("ref", shorten(ref)))
		return None[*Image]()
	}

	key := l.cacheKey("image", ref)
	if v, ok := l.cached(key); ok {
		return Some(v.(*Image))
	}

	data, _, err := l.resolve(ctx, ref)
	if err != nil {
		l.log.Warn("Unable to load image", zap.String("ref", shorten(ref)), zap.Error(err))
		return None[*Image]()
	}

	img, err := Normalize(data, l.conf.Images.MaxDimension, l.conf.Images.JPEGQuality)
	if err != nil {
		l.log.Warn("Unable to use image", zap.String("ref", shorten(ref)), zap.Error(err))
		return None[*Image]()
	}
	l.log.Debug("Image loaded", zap.String("ref", shorten(ref)), zap.String("mime", img.MIME),
		zap.Int("width", img.Width), zap.Int("height", img.Height), zap.Int("size", len(img.Data)))

	l.remember(key, img)
	return Some(img)
}

// resolve returns raw bytes for reference together with declared media type if any.
func (l *Loader) resolve(ctx context.Context, ref string) ([]byte, string, error) {
	ref = strings.TrimSpace(ref)
	if len(ref) == 0 {
		return nil, "", errEmptyRef
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	if strings.HasPrefix(ref, "data:") {
		mime, data, err := ParseDataURL(ref)
		return data, mime, err
	}

	u, err := url.Parse(ref)
	if err == nil && len(u.Scheme) > 1 {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l.fetch.get(ctx, ref)
		case "file":
			data, err := l.readFile(u.Path)
			return data, "", err
		default:
			return nil, "", fmt.Errorf("unsupported reference scheme %q", u.Scheme)
		}
	}
	// single letter "scheme" is windows drive
	data, err := l.readFile(ref)
	return data, "", err
}

func isRemote(ref string) bool {
	ref = strings.ToLower(ref)
	return strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func (l *Loader) readFile(path string) ([]byte, error) {
	path = l.localPath(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", path)
	}
	if info.Size() > l.conf.Images.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes", errTooLarge, info.Size())
	}
	return os.ReadFile(path)
}

func (l *Loader) localPath(path string) string {
	path = filepath.FromSlash(path)
	if !filepath.IsAbs(path) && len(l.baseDir) > 0 {
		path = filepath.Join(l.baseDir, path)
	}
	return filepath.Clean(path)
}

func (l *Loader) cacheKey(kind, ref string) string {
	ref = strings.TrimSpace(ref)
	if len(ref) > 0 && !strings.Contains(ref, "://") && !strings.HasPrefix(ref, "data:") {
		// local paths depend on base directory
		ref = l.localPath(ref)
	}
	sum := sha256.Sum256([]byte(ref))
	return kind + ":" + strconv.Itoa(l.conf.Images.MaxDimension) + ":" + hex.EncodeToString(sum[:])
}

func (l *Loader) cached(key string) (any, bool) {
	if l.store == nil {
		return nil, false
	}
	return l.store.Get(key)
}

func (l *Loader) remember(key string, v any) {
	if l.store == nil {
		return
	}
	l.store.Set(key, v, cache.DefaultExpiration)
}
