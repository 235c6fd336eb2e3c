package normalizer

import (
	"context"
	"image"
	"io"
	"time"
)

type WebPEncoder interface {
	Encode(img image.Image, quality int, w io.Writer) error
	Decode(r io.Reader) (image.Image, string, error)
}

// VideoConverter shells out to ffmpeg/ffprobe for animated inputs.
type VideoConverter interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
	Dimensions(ctx context.Context, path string) (width, height int, err error)
	ToAnimatedWebP(ctx context.Context, path string, quality, width, height int) ([]byte, error)
}
