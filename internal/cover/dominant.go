package cover

import (
	"image"
	"sort"
)

// sampleGrid bounds the number of pixels inspected per axis.
const sampleGrid = 48

// Pixels brighter or darker than these on every channel are ignored so page
// margins and borders don't win.
const (
	nearWhite = 240
	nearBlack = 16
	minAlpha  = 128
)

type bucket struct {
	key     int
	count   int
	r, g, b int
}

// dominantRGB quantizes a sampled grid of img into 32 levels per channel and
// returns the mean color of the most populated bucket.
func dominantRGB(img image.Image) (r, g, b uint8, ok bool) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return 0, 0, 0, false
	}

	stepX := max(1, w/sampleGrid)
	stepY := max(1, h/sampleGrid)

	buckets := make(map[int]*bucket)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			cr, cg, cb, ca := img.At(x, y).RGBA()
			if ca>>8 < minAlpha {
				continue
			}
			pr, pg, pb := int(cr>>8), int(cg>>8), int(cb>>8)
			if pr > nearWhite && pg > nearWhite && pb > nearWhite {
				continue
			}
			if pr < nearBlack && pg < nearBlack && pb < nearBlack {
				continue
			}

			key := (pr>>3)<<10 | (pg>>3)<<5 | pb>>3
			bk, found := buckets[key]
			if !found {
				bk = &bucket{key: key}
				buckets[key] = bk
			}
			bk.count++
			bk.r += pr
			bk.g += pg
			bk.b += pb
		}
	}
	if len(buckets) == 0 {
		return 0, 0, 0, false
	}

	ranked := make([]*bucket, 0, len(buckets))
	for _, bk := range buckets {
		ranked = append(ranked, bk)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].key < ranked[j].key
	})

	top := ranked[0]
	return uint8(top.r / top.count), uint8(top.g / top.count), uint8(top.b / top.count), true
}
