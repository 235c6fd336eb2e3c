package normalizer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/autumnsgrove/cdnup/internal/model"
)

// stubEncoder decodes with the stdlib registry and writes a marker instead of
// real WebP bytes, so tests stay independent of the cgo encoder.
type stubEncoder struct {
	encodeErr error
	lastW     int
	lastH     int
}

func (s *stubEncoder) Encode(img image.Image, quality int, w io.Writer) error {
	if s.encodeErr != nil {
		return s.encodeErr
	}
	s.lastW = img.Bounds().Dx()
	s.lastH = img.Bounds().Dy()
	_, err := w.Write([]byte("webp-bytes"))
	return err
}

func (s *stubEncoder) Decode(r io.Reader) (image.Image, string, error) {
	return image.Decode(r)
}

type stubVideo struct {
	duration time.Duration
	w, h     int
	out      []byte
	err      error

	convertW, convertH int
}

func (s *stubVideo) Duration(ctx context.Context, path string) (time.Duration, error) {
	return s.duration, s.err
}

func (s *stubVideo) Dimensions(ctx context.Context, path string) (int, int, error) {
	return s.w, s.h, s.err
}

func (s *stubVideo) ToAnimatedWebP(ctx context.Context, path string, quality, width, height int) ([]byte, error) {
	s.convertW, s.convertH = width, height
	return s.out, s.err
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNormalizeImageResizesPerQuality(t *testing.T) {
	enc := &stubEncoder{}
	n := New(enc, &stubVideo{})

	item := model.MediaItem{Path: "big.png", Data: pngBytes(t, 4096, 2048), Kind: model.KindImage}
	opts := model.DefaultOptions()
	opts.Quality = 75

	asset, err := n.Normalize(context.Background(), item, opts)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if asset.Width != 2048 || asset.Height != 1024 {
		t.Fatalf("expected 2048x1024 at quality 75, got %dx%d", asset.Width, asset.Height)
	}
	if asset.ContentType != "image/webp" {
		t.Fatalf("unexpected content type %q", asset.ContentType)
	}
	if !bytes.Equal(asset.Data, []byte("webp-bytes")) {
		t.Fatal("expected the encoder output as asset data")
	}
}

func TestNormalizeImageKeepsFullResolution(t *testing.T) {
	enc := &stubEncoder{}
	n := New(enc, &stubVideo{})

	item := model.MediaItem{Path: "big.png", Data: pngBytes(t, 3000, 1500), Kind: model.KindImage}
	opts := model.DefaultOptions()
	opts.FullResolution = true

	asset, err := n.Normalize(context.Background(), item, opts)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if asset.Width != 3000 || asset.Height != 1500 {
		t.Fatalf("expected original dimensions kept, got %dx%d", asset.Width, asset.Height)
	}
}

func TestNormalizeImageRejectsCorruptPayload(t *testing.T) {
	n := New(&stubEncoder{}, &stubVideo{})

	item := model.MediaItem{Path: "junk.jpg", Data: []byte("not an image"), Kind: model.KindImage}
	_, err := n.Normalize(context.Background(), item, model.DefaultOptions())

	if !errors.Is(err, model.ErrCorrupted) {
		t.Fatalf("expected ErrCorrupted, got %v", err)
	}
}

func TestNormalizeRejectsUnknownKind(t *testing.T) {
	n := New(&stubEncoder{}, &stubVideo{})

	item := model.MediaItem{Path: "x.exe", Kind: model.KindUnknown}
	_, err := n.Normalize(context.Background(), item, model.DefaultOptions())

	if !errors.Is(err, model.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestNormalizeVideoRejectsLongClips(t *testing.T) {
	video := &stubVideo{duration: 12 * time.Second, w: 1920, h: 1080}
	n := New(&stubEncoder{}, video)

	item := model.MediaItem{Path: "clip.mp4", Data: []byte("fake video"), Kind: model.KindVideo}

	_, err := n.Normalize(context.Background(), item, model.DefaultOptions())
	if !errors.Is(err, model.ErrDurationExceeded) {
		t.Fatalf("expected ErrDurationExceeded, got %v", err)
	}
}

func TestNormalizeVideoScalesTo720p(t *testing.T) {
	video := &stubVideo{duration: 5 * time.Second, w: 1921, h: 1080, out: []byte("animated")}
	n := New(&stubEncoder{}, video)

	item := model.MediaItem{Path: "clip.mp4", Data: []byte("fake video"), Kind: model.KindVideo}

	asset, err := n.Normalize(context.Background(), item, model.DefaultOptions())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if video.convertH != 720 {
		t.Fatalf("expected height capped at 720, got %d", video.convertH)
	}
	if video.convertW%2 != 0 || video.convertH%2 != 0 {
		t.Fatalf("expected even dimensions, got %dx%d", video.convertW, video.convertH)
	}
	if asset.Duration != 5*time.Second {
		t.Fatalf("expected the probed duration, got %v", asset.Duration)
	}
}

func TestTargetDimensions(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		quality int
		fullRes bool
		wantW   int
		wantH   int
	}{
		{"full resolution wins", 4000, 3000, 40, true, 4000, 3000},
		{"quality 100 keeps size", 4000, 3000, 100, false, 4000, 3000},
		{"quality 75 caps at 2048", 4096, 2048, 75, false, 2048, 1024},
		{"quality 50 caps at 1024", 2048, 2048, 50, false, 1024, 1024},
		{"quality 25 caps at 512", 1024, 512, 25, false, 512, 256},
		{"low quality caps at 256", 512, 512, 10, false, 256, 256},
		{"small image untouched", 300, 200, 75, false, 300, 200},
		{"portrait scales by height", 1000, 4096, 75, false, 500, 2048},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := targetDimensions(tt.w, tt.h, tt.quality, tt.fullRes)
			if w != tt.wantW || h != tt.wantH {
				t.Fatalf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, w, h)
			}
		})
	}
}

func TestScaleVideo(t *testing.T) {
	tests := []struct {
		name  string
		w, h  int
		wantW int
		wantH int
	}{
		{"1080p down to 720p", 1920, 1080, 1280, 720},
		{"720p untouched", 1280, 720, 1280, 720},
		{"small clip untouched", 640, 480, 640, 480},
		{"odd width made even", 641, 480, 640, 480},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := scaleVideo(tt.w, tt.h)
			if w != tt.wantW || h != tt.wantH {
				t.Fatalf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, w, h)
			}
		})
	}
}

func gifBytes(t *testing.T, frames int) []byte {
	t.Helper()
	anim := &gif.GIF{}
	for i := 0; i < frames; i++ {
		pal := image.NewPaletted(image.Rect(0, 0, 40, 30), palette.Plan9)
		anim.Image = append(anim.Image, pal)
		anim.Delay = append(anim.Delay, 50) // 500ms per frame
	}
	anim.Config = image.Config{Width: 40, Height: 30}
	buf := &bytes.Buffer{}
	if err := gif.EncodeAll(buf, anim); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNormalizeSingleFrameGIFAsStill(t *testing.T) {
	enc := &stubEncoder{}
	video := &stubVideo{}
	n := New(enc, video)

	item := model.MediaItem{Path: "static.gif", Data: gifBytes(t, 1), Kind: model.KindAnimated}
	asset, err := n.Normalize(context.Background(), item, model.DefaultOptions())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if !bytes.Equal(asset.Data, []byte("webp-bytes")) {
		t.Fatal("expected the still-image path for a single-frame gif")
	}
	if asset.Width != 40 || asset.Height != 30 {
		t.Fatalf("expected original dimensions kept, got %dx%d", asset.Width, asset.Height)
	}
	if video.convertW != 0 {
		t.Fatal("expected no ffmpeg conversion for a single-frame gif")
	}
}

func TestNormalizeAnimatedGIF(t *testing.T) {
	video := &stubVideo{out: []byte("animated-webp")}
	n := New(&stubEncoder{}, video)

	item := model.MediaItem{Path: "loop.gif", Data: gifBytes(t, 3), Kind: model.KindAnimated}
	asset, err := n.Normalize(context.Background(), item, model.DefaultOptions())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if !bytes.Equal(asset.Data, []byte("animated-webp")) {
		t.Fatal("expected the ffmpeg output as asset data")
	}
	if asset.Duration != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s total, got %v", asset.Duration)
	}
	if asset.Width != 40 || asset.Height != 30 {
		t.Fatalf("unexpected dimensions %dx%d", asset.Width, asset.Height)
	}
}
