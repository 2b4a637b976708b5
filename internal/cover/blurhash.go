package cover

import (
	"image"

	"github.com/bbrks/go-blurhash"
)

// blurHashSize is the maximum dimension covers are shrunk to before encoding.
const blurHashSize = 64

// blurHash encodes a small placeholder for img. An empty string means encoding failed.
func blurHash(img image.Image) string {
	hash, err := blurhash.Encode(4, 3, resizeForBlurHash(img, blurHashSize))
	if err != nil {
		return ""
	}
	return hash
}

// resizeForBlurHash does a nearest-neighbor downscale; blurhash only needs low frequencies.
func resizeForBlurHash(src image.Image, maxSize int) image.Image {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	if srcW <= maxSize && srcH <= maxSize {
		return src
	}

	var dstW, dstH int
	if srcW > srcH {
		dstW = maxSize
		dstH = max(1, srcH*maxSize/srcW)
	} else {
		dstH = maxSize
		dstW = max(1, srcW*maxSize/srcH)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	for y := range dstH {
		for x := range dstW {
			srcX := bounds.Min.X + x*srcW/dstW
			srcY := bounds.Min.Y + y*srcH/dstH
			dst.Set(x, y, src.At(srcX, srcY))
		}
	}
	return dst
}
