package ocr

import (
	"bytes"
	"log"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	PreviewMaxWidth  = 400
	PreviewMaxHeight = 300
	previewQuality   = 85
)

// PreviewPath returns "<dir>/<base>_preview<ext>" for path.
func PreviewPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_preview" + ext
}

// MakePreview writes a thumbnail fitting maxW x maxH next to path and returns
// its location. Any failure returns path unchanged.
func MakePreview(path string, maxW, maxH int) string {
	if maxW <= 0 || maxH <= 0 {
		maxW, maxH = PreviewMaxWidth, PreviewMaxHeight
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		log.Printf("WARN preview open %s: %v", path, err)
		return path
	}
	thumb := imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	out := PreviewPath(path)
	if err := imaging.Save(thumb, out, imaging.JPEGQuality(previewQuality)); err != nil {
		log.Printf("WARN preview save %s: %v", out, err)
		return path
	}
	return out
}

// PreviewBytes decodes data and returns a JPEG thumbnail fitting maxW x maxH.
func PreviewBytes(name string, data []byte, maxW, maxH int) ([]byte, error) {
	if maxW <= 0 || maxH <= 0 {
		maxW, maxH = PreviewMaxWidth, PreviewMaxHeight
	}
	img, err := DecodeBytes(name, data)
	if err != nil {
		return nil, err
	}
	thumb := imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(previewQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
