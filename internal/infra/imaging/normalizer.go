package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	xdraw "golang.org/x/image/draw"

	"pet-hero-backend/internal/domain"
)

// maxSourcePixels caps the declared dimensions accepted for decoding. A tiny
// file can declare an enormous canvas that image.Decode would expand to
// gigabytes of RGBA, so the header is checked before the full decode.
const maxSourcePixels = 36_000_000 // 6000x6000

// NormalizedImage is a source photo re-encoded into the bounded JPEG the
// generative API consumes.
type NormalizedImage struct {
	Data     []byte
	Base64   string
	MIMEType string
	Width    int
	Height   int
}

// Normalizer fetches a source image over HTTP and re-encodes it to a bounded
// resolution and quality. The fetch is the only side effect; the transform
// itself is pure.
type Normalizer struct {
	client      *http.Client
	maxLongEdge int
	jpegQuality int
	maxBytes    int64
}

func NewNormalizer(maxLongEdge, jpegQuality int, downloadTimeout time.Duration, maxDownloadBytes int64) *Normalizer {
	if maxDownloadBytes <= 0 {
		maxDownloadBytes = 20 << 20
	}
	return &Normalizer{
		client:      &http.Client{Timeout: downloadTimeout},
		maxLongEdge: maxLongEdge,
		jpegQuality: jpegQuality,
		maxBytes:    maxDownloadBytes,
	}
}

// Fetch downloads the raw bytes from url. Any failure, including timeout and
// non-2xx status, wraps domain.ErrDownloadFailed and aborts the job.
func (n *Normalizer) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http %d", domain.ErrDownloadFailed, resp.StatusCode)
	}
	// The source URL is caller-supplied, so the body is read through a hard
	// cap rather than trusted wholesale.
	b, err := io.ReadAll(io.LimitReader(resp.Body, n.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}
	if int64(len(b)) > n.maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", domain.ErrDownloadFailed, n.maxBytes)
	}
	return b, nil
}

// Normalize re-encodes raw image bytes into a JPEG whose long edge does not
// exceed the configured maximum. Smaller images are never upscaled.
func (n *Normalizer) Normalize(raw []byte) (*NormalizedImage, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 ||
		cfg.Width > maxSourcePixels || cfg.Height > maxSourcePixels ||
		cfg.Width*cfg.Height > maxSourcePixels {
		return nil, fmt.Errorf("image dimensions %dx%d out of bounds", cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	tw, th := fitWithin(w, h, n.maxLongEdge)

	out := src
	if tw != w || th != h {
		dst := image.NewRGBA(image.Rect(0, 0, tw, th))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: n.jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	data := buf.Bytes()
	return &NormalizedImage{
		Data:     data,
		Base64:   base64.StdEncoding.EncodeToString(data),
		MIMEType: "image/jpeg",
		Width:    tw,
		Height:   th,
	}, nil
}

// FetchAndNormalize is the pipeline entry: download then re-encode.
func (n *Normalizer) FetchAndNormalize(ctx context.Context, url string) (*NormalizedImage, error) {
	raw, err := n.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return n.Normalize(raw)
}

// fitWithin clamps the long edge to max, preserving aspect ratio, and never
// upscales.
func fitWithin(w, h, max int) (int, int) {
	long := w
	if h > w {
		long = h
	}
	if long <= max {
		return w, h
	}
	scale := float64(max) / float64(long)
	tw := int(float64(w)*scale + 0.5)
	th := int(float64(h)*scale + 0.5)
	if w >= h {
		tw = max
	} else {
		th = max
	}
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	return tw, th
}
