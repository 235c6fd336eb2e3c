package normalizer

import (
	"image"
	"io"
	"log"

	"github.com/chai2010/webp"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

type ChaiWebPEncoder struct{}

// compile-time check: *ChaiWebPEncoder must satisfy WebPEncoder
var _ WebPEncoder = (*ChaiWebPEncoder)(nil)

func NewWebPEncoder() *ChaiWebPEncoder {
	log.Println("initialising webp encoder...")
	return &ChaiWebPEncoder{}
}

func (e *ChaiWebPEncoder) Encode(img image.Image, quality int, w io.Writer) error {
	return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
}

func (e *ChaiWebPEncoder) Decode(r io.Reader) (image.Image, string, error) {
	return image.Decode(r)
}
