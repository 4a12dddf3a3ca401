package ocr

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"log"
	"math"
	"os"

	"github.com/disintegration/imaging"
)

const (
	claheClipLimit = 2.0
	claheTiles     = 8
)

// MaxPixels caps width*height of any image we are willing to decode.
var MaxPixels = 40_000_000

// stages run in order on the grayscale image inside Preprocess.
var stages = []func(*image.Gray) *image.Gray{
	medianDenoise,
	func(g *image.Gray) *image.Gray { return equalizeAdaptive(g, claheTiles, claheTiles, claheClipLimit) },
	func(g *image.Gray) *image.Gray { return binarize(g, otsuThreshold(g)) },
}

// checkDimensions reads only the image header and rejects oversized images.
func checkDimensions(name string, r io.Reader) error {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return &DecodeError{Name: name, Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > MaxPixels {
		return &DecodeError{Name: name, Err: fmt.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels)}
	}
	return nil
}

// DecodeFile opens path as an image, applying EXIF orientation.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Name: path, Err: err}
	}
	err = checkDimensions(path, f)
	f.Close()
	if err != nil {
		return nil, err
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Name: path, Err: err}
	}
	return img, nil
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(name string, data []byte) (image.Image, error) {
	if err := checkDimensions(name, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}
	return img, nil
}

// PreprocessFile decodes path and runs Preprocess on it.
func PreprocessFile(path string) (*image.Gray, error) {
	img, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}
	return Preprocess(img), nil
}

// Preprocess turns a photo into a black/white image for OCR: grayscale,
// median denoise, CLAHE, then an Otsu threshold. If any stage panics the plain
// grayscale image is returned. Dimensions never change.
func Preprocess(img image.Image) (out *image.Gray) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("WARN preprocess fell back to grayscale: %v", r)
			out = toGray(img)
		}
	}()
	gray := toGray(img)
	for _, stage := range stages {
		gray = stage(gray)
	}
	return gray
}

// toGray returns a zero-origin single-channel copy of img.
func toGray(img image.Image) *image.Gray {
	src := imaging.Grayscale(img)
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*out.Stride+x] = row[x*4]
		}
	}
	return out
}

// medianDenoise applies a 3x3 median filter; edges use clamped neighbours.
func medianDenoise(src *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	var win [9]uint8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				yy := clamp(y+dy, 0, h-1)
				for dx := -1; dx <= 1; dx++ {
					xx := clamp(x+dx, 0, w-1)
					win[n] = src.Pix[yy*src.Stride+xx]
					n++
				}
			}
			out.Pix[y*out.Stride+x] = median9(&win)
		}
	}
	return out
}

// median9 insertion-sorts the window in place and returns its middle value.
func median9(win *[9]uint8) uint8 {
	for i := 1; i < len(win); i++ {
		v := win[i]
		j := i - 1
		for j >= 0 && win[j] > v {
			win[j+1] = win[j]
			j--
		}
		win[j+1] = v
	}
	return win[4]
}

// equalizeAdaptive is contrast limited adaptive histogram equalization over a
// tilesX x tilesY grid. Per-tile mappings are blended bilinearly.
func equalizeAdaptive(src *image.Gray, tilesX, tilesY int, clipLimit float64) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w == 0 || h == 0 {
		return src
	}
	if tilesX > w {
		tilesX = w
	}
	if tilesY > h {
		tilesY = h
	}
	tileW := (w + tilesX - 1) / tilesX
	tileH := (h + tilesY - 1) / tilesY
	tilesX = (w + tileW - 1) / tileW
	tilesY = (h + tileH - 1) / tileH

	luts := make([][256]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := min(x0+tileW, w), min(y0+tileH, h)
			var hist [256]int
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					hist[src.Pix[y*src.Stride+x]]++
				}
			}
			area := (x1 - x0) * (y1 - y0)
			clipHistogram(&hist, area, clipLimit)
			lut := &luts[ty*tilesX+tx]
			sum := 0
			scale := 255.0 / float64(area)
			for i := 0; i < 256; i++ {
				sum += hist[i]
				lut[i] = uint8(math.Min(255, math.Round(float64(sum)*scale)))
			}
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		fy := (float64(y)+0.5)/float64(tileH) - 0.5
		ty0 := int(math.Floor(fy))
		wy := fy - float64(ty0)
		ty1 := clamp(ty0+1, 0, tilesY-1)
		ty0 = clamp(ty0, 0, tilesY-1)
		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)/float64(tileW) - 0.5
			tx0 := int(math.Floor(fx))
			wx := fx - float64(tx0)
			tx1 := clamp(tx0+1, 0, tilesX-1)
			tx0 = clamp(tx0, 0, tilesX-1)

			v := src.Pix[y*src.Stride+x]
			top := (1-wx)*float64(luts[ty0*tilesX+tx0][v]) + wx*float64(luts[ty0*tilesX+tx1][v])
			bot := (1-wx)*float64(luts[ty1*tilesX+tx0][v]) + wx*float64(luts[ty1*tilesX+tx1][v])
			out.Pix[y*out.Stride+x] = uint8(math.Round((1-wy)*top + wy*bot))
		}
	}
	return out
}

// clipHistogram caps each bin and spreads the excess evenly across all bins.
func clipHistogram(hist *[256]int, area int, clipLimit float64) {
	limit := int(clipLimit * float64(area) / 256)
	if limit < 1 {
		limit = 1
	}
	excess := 0
	for i := range hist {
		if hist[i] > limit {
			excess += hist[i] - limit
			hist[i] = limit
		}
	}
	bonus, residual := excess/256, excess%256
	for i := range hist {
		hist[i] += bonus
		if i < residual {
			hist[i]++
		}
	}
}

// otsuThreshold picks the threshold maximising between-class variance.
func otsuThreshold(src *image.Gray) uint8 {
	var hist [256]int
	w, h := src.Rect.Dx(), src.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hist[src.Pix[y*src.Stride+x]]++
		}
	}
	total := w * h
	var sum float64
	for i, c := range hist {
		sum += float64(i * c)
	}
	var sumB float64
	wB := 0
	best, threshold := -1.0, 0
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = t
		}
	}
	return uint8(threshold)
}

// binarize maps pixels above threshold to white and the rest to black.
func binarize(src *image.Gray, threshold uint8) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v uint8
			if src.Pix[y*src.Stride+x] > threshold {
				v = 255
			}
			out.Pix[y*out.Stride+x] = v
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
