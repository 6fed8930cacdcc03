// Package media turns user-uploaded base64 data URLs into durable,
// servable URLs: validating MIME type and size, optionally re-encoding
// oversized images down to a maximum edge length, and uploading the
// result to an ObjectStore. Items are processed with bounded concurrency;
// a single item's failure never aborts the rest of the batch.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/nextslide/deckengine/pkg/config"
	"github.com/nextslide/deckengine/pkg/errs"
	"github.com/nextslide/deckengine/pkg/models"
)

// extensionByMIME maps an allow-listed MIME type to its file extension.
var extensionByMIME = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Processor validates and uploads MediaItem data URLs per cfg's limits.
type Processor struct {
	store ObjectStore
	cfg   config.MediaConfig
}

// New builds a Processor uploading accepted media to store under cfg's
// MIME allow-list, size cap, and re-encode dimensions.
func New(store ObjectStore, cfg config.MediaConfig) *Processor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	return &Processor{store: store, cfg: cfg}
}

// Process resolves every item's pending data URL to a durable URL. Items
// with no DataURL (already resolved, or non-image) pass through
// unchanged. An item that fails validation, decoding, or upload keeps its
// original fields with Error set, rather than dropping it or failing the
// whole batch.
func (p *Processor) Process(ctx context.Context, items []models.MediaItem) []models.MediaItem {
	if len(items) == 0 {
		return nil
	}

	result := make([]models.MediaItem, len(items))
	copy(result, items)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.BatchSize)

	for i, item := range items {
		if item.DataURL == "" {
			continue
		}
		i, item := i, item
		g.Go(func() error {
			processed, err := p.processOne(gctx, item)
			if err != nil {
				slog.WarnContext(ctx, "media item failed processing", "media_id", item.ID, "error", err)
				item.Error = err.Error()
				result[i] = item
				return nil
			}
			result[i] = processed
			return nil
		})
	}
	_ = g.Wait() // processOne never returns an error to the group; failures are recorded per-item

	return result
}

func (p *Processor) processOne(ctx context.Context, item models.MediaItem) (models.MediaItem, error) {
	mimeType, payload, err := parseDataURL(item.DataURL)
	if err != nil {
		return item, errs.New(errs.KindMediaFormat, err)
	}

	if !p.mimeAllowed(mimeType) {
		return item, errs.New(errs.KindMediaFormat, fmt.Errorf("unsupported media type %q", mimeType))
	}
	if p.cfg.MaxUploadBytes > 0 && int64(len(payload)) > p.cfg.MaxUploadBytes {
		return item, errs.New(errs.KindMediaSize, fmt.Errorf("media exceeds %d byte limit (got %d)", p.cfg.MaxUploadBytes, len(payload)))
	}

	encoded, outMime := p.reencode(payload, mimeType)

	ext := extensionByMIME[outMime]
	if ext == "" {
		ext = ".png"
	}
	filename := item.ID + ext

	url, err := p.store.Upload(ctx, filename, encoded, outMime)
	if err != nil {
		return item, errs.New(errs.KindMediaUpload, err)
	}

	item.URL = url
	item.MimeType = outMime
	item.DataURL = ""
	item.Error = ""
	return item, nil
}

// reencode resizes img down to at most MaxEdgePixels per side when it
// exceeds that bound, re-encoding JPEG sources as JPEG at cfg's quality
// and every other source as PNG. Decode/encode failures fall back to the
// original bytes and mime type unchanged; re-encoding is an optimization,
// never a requirement for upload to succeed.
func (p *Processor) reencode(data []byte, mimeType string) ([]byte, string) {
	if p.cfg.MaxEdgePixels <= 0 {
		return data, mimeType
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, mimeType
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= p.cfg.MaxEdgePixels && height <= p.cfg.MaxEdgePixels {
		return data, mimeType
	}

	scaled := scaleToFit(img, p.cfg.MaxEdgePixels)

	var out bytes.Buffer
	if mimeType == "image/jpeg" {
		quality := p.cfg.JPEGQuality
		if quality <= 0 {
			quality = 85
		}
		if err := jpeg.Encode(&out, scaled, &jpeg.Options{Quality: quality}); err != nil {
			return data, mimeType
		}
		return out.Bytes(), "image/jpeg"
	}

	if err := png.Encode(&out, scaled); err != nil {
		return data, mimeType
	}
	return out.Bytes(), "image/png"
}

// scaleToFit returns img resized so its longer edge is at most maxEdge,
// preserving aspect ratio.
func scaleToFit(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	scale := float64(maxEdge) / float64(width)
	if height > width {
		scale = float64(maxEdge) / float64(height)
	}
	newW := int(float64(width) * scale)
	newH := int(float64(height) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func (p *Processor) mimeAllowed(mimeType string) bool {
	for _, allowed := range p.cfg.AllowedMIMETypes {
		if allowed == mimeType {
			return true
		}
	}
	return false
}

// parseDataURL splits a "data:<mime>;base64,<payload>" string into its
// MIME type and decoded bytes.
func parseDataURL(dataURL string) (mimeType string, payload []byte, err error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return "", nil, fmt.Errorf("not a data URL")
	}
	header, b64, found := strings.Cut(dataURL, ",")
	if !found {
		return "", nil, fmt.Errorf("malformed data URL: missing comma separator")
	}

	header = strings.TrimPrefix(header, "data:")
	header = strings.TrimSuffix(header, ";base64")
	mimeType = header
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	payload, err = base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return mimeType, payload, nil
}
