package normalizer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"log"
	"os"
	"path/filepath"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/autumnsgrove/cdnup/internal/model"
	"github.com/autumnsgrove/cdnup/internal/port"
)

const maxVideoHeight = 720

type Normalizer struct {
	webpEnc WebPEncoder
	video   VideoConverter
}

// compile-time check: *Normalizer must satisfy port.Normalizer
var _ port.Normalizer = (*Normalizer)(nil)

func New(webpEnc WebPEncoder, video VideoConverter) *Normalizer {
	log.Println("initialising normalizer...")
	return &Normalizer{webpEnc: webpEnc, video: video}
}

// Normalize converts a media item into its web-ready encoded form:
//   - still images: flatten to RGB on white, resize per quality, lossy WebP.
//     Re-encoding from pixels drops all EXIF, including GPS location.
//   - animated GIFs: single-frame GIFs are treated as stills; anything else
//     goes through ffmpeg to animated WebP.
//   - videos: duration-capped, audio stripped, scaled to max 720p, 10fps
//     animated WebP.
func (n *Normalizer) Normalize(ctx context.Context, item model.MediaItem, opts model.ProcessingOptions) (*model.ProcessedAsset, error) {
	switch item.Kind {
	case model.KindImage:
		return n.normalizeImage(item, opts)
	case model.KindAnimated:
		return n.normalizeGIF(ctx, item, opts)
	case model.KindVideo:
		return n.normalizeVideo(ctx, item, opts)
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedFormat, filepath.Ext(item.Path))
	}
}

func (n *Normalizer) normalizeImage(item model.MediaItem, opts model.ProcessingOptions) (*model.ProcessedAsset, error) {
	img, _, err := n.webpEnc.Decode(bytes.NewReader(item.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %q: %v", model.ErrCorrupted, item.Path, err)
	}

	img = flattenToRGB(img)

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	tw, th := targetDimensions(w, h, opts.Quality, opts.FullResolution)
	if tw != w || th != h {
		img = resize(img, tw, th)
	}

	buf := &bytes.Buffer{}
	if err := n.webpEnc.Encode(img, opts.Quality, buf); err != nil {
		return nil, fmt.Errorf("failed to encode WebP for %q: %w", item.Path, err)
	}

	return &model.ProcessedAsset{
		Data:        buf.Bytes(),
		ContentType: "image/webp",
		Width:       tw,
		Height:      th,
	}, nil
}

func (n *Normalizer) normalizeGIF(ctx context.Context, item model.MediaItem, opts model.ProcessingOptions) (*model.ProcessedAsset, error) {
	anim, err := gif.DecodeAll(bytes.NewReader(item.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode gif %q: %v", model.ErrCorrupted, item.Path, err)
	}

	if len(anim.Image) <= 1 {
		// Not actually animated; keep it sharp.
		still := item
		stillOpts := opts
		stillOpts.FullResolution = true
		still.Kind = model.KindImage
		return n.normalizeImage(still, stillOpts)
	}

	w, h := anim.Config.Width, anim.Config.Height
	data, err := n.convertAnimated(ctx, item, opts.Quality, w, h)
	if err != nil {
		return nil, err
	}

	return &model.ProcessedAsset{
		Data:        data,
		ContentType: "image/webp",
		Width:       w,
		Height:      h,
		Duration:    gifDuration(anim),
	}, nil
}

func (n *Normalizer) normalizeVideo(ctx context.Context, item model.MediaItem, opts model.ProcessingOptions) (*model.ProcessedAsset, error) {
	path, cleanup, err := materialize(item)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	dur, err := n.video.Duration(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: probe %q: %v", model.ErrCorrupted, item.Path, err)
	}
	if dur > opts.MaxAnimatedDuration {
		return nil, fmt.Errorf("%w: %.1fs exceeds %.0fs", model.ErrDurationExceeded,
			dur.Seconds(), opts.MaxAnimatedDuration.Seconds())
	}

	w, h, err := n.video.Dimensions(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: probe %q: %v", model.ErrCorrupted, item.Path, err)
	}
	w, h = scaleVideo(w, h)

	data, err := n.video.ToAnimatedWebP(ctx, path, opts.Quality, w, h)
	if err != nil {
		return nil, err
	}

	return &model.ProcessedAsset{
		Data:        data,
		ContentType: "image/webp",
		Width:       w,
		Height:      h,
		Duration:    dur,
	}, nil
}

func (n *Normalizer) convertAnimated(ctx context.Context, item model.MediaItem, quality, w, h int) ([]byte, error) {
	path, cleanup, err := materialize(item)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return n.video.ToAnimatedWebP(ctx, path, quality, w, h)
}

// materialize makes sure the item exists on disk for subprocess tools,
// writing a temp file when the item was read from a buffer.
func materialize(item model.MediaItem) (string, func(), error) {
	if item.Path != "" {
		if _, err := os.Stat(item.Path); err == nil {
			return item.Path, func() {}, nil
		}
	}

	f, err := os.CreateTemp("", "cdnup_in_*"+filepath.Ext(item.Path))
	if err != nil {
		return "", nil, fmt.Errorf("could not create temp input file: %w", err)
	}
	if _, err := f.Write(item.Data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", nil, fmt.Errorf("failed to write temp input file: %w", err)
	}
	_ = f.Close()
	name := f.Name()
	return name, func() {
		if err := os.Remove(name); err != nil {
			log.Printf("failed to remove temp file %q: %v", name, err)
		}
	}, nil
}

// flattenToRGB composites transparent images onto a white background.
func flattenToRGB(img image.Image) image.Image {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, bounds, img, bounds.Min, draw.Over)
	return out
}

func resize(img image.Image, w, h int) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return out
}

// targetDimensions maps the quality setting to a maximum dimension:
// >=100 no resize, >=75 2048px, >=50 1024px, >=25 512px, else 256px.
func targetDimensions(w, h, quality int, fullRes bool) (int, int) {
	if fullRes || quality >= 100 {
		return w, h
	}

	var maxDim int
	switch {
	case quality >= 75:
		maxDim = 2048
	case quality >= 50:
		maxDim = 1024
	case quality >= 25:
		maxDim = 512
	default:
		maxDim = 256
	}

	if w <= maxDim && h <= maxDim {
		return w, h
	}

	scale := float64(maxDim) / float64(w)
	if s := float64(maxDim) / float64(h); s < scale {
		scale = s
	}
	return int(float64(w) * scale), int(float64(h) * scale)
}

// scaleVideo caps height at 720p and forces even dimensions for encoding.
func scaleVideo(w, h int) (int, int) {
	if h > maxVideoHeight {
		scale := float64(maxVideoHeight) / float64(h)
		w = int(float64(w) * scale)
		h = maxVideoHeight
	}
	return w - w%2, h - h%2
}

// gifDuration sums frame delays, which GIF stores in 100ths of a second.
func gifDuration(anim *gif.GIF) time.Duration {
	var total time.Duration
	for _, d := range anim.Delay {
		total += time.Duration(d) * 10 * time.Millisecond
	}
	return total
}
