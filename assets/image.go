package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"github.com/vincent-petithory/dataurl"

	imgutil "mbook/utils/images"

	// register additional decoders, imaging covers jpeg, png, gif, bmp and tiff
	_ "golang.org/x/image/webp"
)

// Format is raster format tag understood by PDF engine.
type Format string

const (
	FormatPNG  Format = "PNG"
	FormatJPEG Format = "JPEG"
)

// Image is embeddable raster image.
type Image struct {
	MIME   string
	Data   []byte
	Width  int
	Height int
}

// Format returns format tag for the image.
func (img *Image) Format() Format {
	return DetectFormat(img.MIME)
}

// DetectFormat maps declared media type to one of the two formats PDF engine
// accepts. Anything which is not recognized as PNG (webp included, it is
// always converted) is assumed to be JPEG.
func DetectFormat(mime string) Format {
	m := strings.ToLower(strings.TrimSpace(mime))
	if strings.HasPrefix(m, "data:") {
		m = m[len("data:"):]
	}
	if strings.HasPrefix(m, "image/png") || strings.HasPrefix(m, "image/webp") {
		return FormatPNG
	}
	return FormatJPEG
}

var errNotDataURL = errors.New("not a data URL")

// ParseDataURL decodes RFC 2397 "data:" URL returning media type and payload.
// Media type defaults to "text/plain" as the RFC requires.
func ParseDataURL(ref string) (string, []byte, error) {
	if !strings.HasPrefix(ref, "data:") {
		return "", nil, errNotDataURL
	}
	du, err := dataurl.DecodeString(repad(ref))
	if err != nil {
		return "", nil, fmt.Errorf("malformed data URL: %w", err)
	}
	return du.MediaType.ContentType(), du.Data, nil
}

// repad removes whitespace from base64 payload and restores padding some
// encoders leave out, decoder expects canonical form.
func repad(ref string) string {
	header, payload, found := strings.Cut(ref, ",")
	if !found || !strings.HasSuffix(strings.ToLower(header), ";base64") {
		return ref
	}
	payload = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, payload)
	if n := len(payload) % 4; n != 0 {
		payload += strings.Repeat("=", 4-n)
	}
	return header + "," + payload
}

// Normalize turns arbitrary raster image into something PDF engine is
// guaranteed to accept: EXIF orientation applied, downscaled to fit maxDim,
// JPEG re-encoded with given quality and everything else as 8 bit
// non-interlaced PNG.
func Normalize(data []byte, maxDim, quality int) (*Image, error) {
	kind, err := filetype.Match(data)
	if err != nil {
		return nil, fmt.Errorf("unable to detect content type: %w", err)
	}
	if kind == filetype.Unknown || !filetype.IsImage(data) {
		return nil, fmt.Errorf("content is not an image (%s)", kind.MIME.Value)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s image: %w", kind.MIME.Value, err)
	}

	if maxDim > 0 {
		if b := img.Bounds(); b.Dx() > maxDim || b.Dy() > maxDim {
			img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		}
	}

	var (
		buf = new(bytes.Buffer)
		res = &Image{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
		out image.Image
	)
	if gray, ok := imgutil.Grayscale(img); ok {
		// single channel is a third of the size in document
		out = gray
	} else {
		out = toNRGBA(img)
	}
	if kind.MIME.Value == "image/jpeg" {
		res.MIME = "image/jpeg"
		err = imaging.Encode(buf, out, imaging.JPEG, imaging.JPEGQuality(quality))
	} else {
		res.MIME = "image/png"
		err = imaging.Encode(buf, out, imaging.PNG)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to encode image: %w", err)
	}
	res.Data = buf.Bytes()
	return res, nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	return imaging.Clone(img)
}
