package ocr

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/disintegration/imaging"
)

// Extractor runs the OCR fallback chain: preprocessed image with a restricted
// page mode and whitelist, then the raw image with defaults, then
// ManualEntryText.
type Extractor struct {
	rec    Recognizer
	tmpDir string
}

// NewExtractor uses tmpDir for the intermediate binary image ("" = os temp).
func NewExtractor(rec Recognizer, tmpDir string) *Extractor {
	return &Extractor{rec: rec, tmpDir: tmpDir}
}

// ExtractText never fails; the sentinel is returned when both passes error.
func (e *Extractor) ExtractText(path string) string {
	text, err := e.primary(path)
	if err == nil {
		return clean(text)
	}
	log.Printf("OCR primary pass failed %s: %v", path, err)

	text, err = e.recognize(path, Options{})
	if err == nil {
		return clean(text)
	}
	log.Printf("OCR raw pass failed %s: %v", path, err)
	return ManualEntryText
}

func (e *Extractor) primary(path string) (string, error) {
	bin, err := PreprocessFile(path)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(e.tmpDir, "ocr-bin-*.png")
	if err != nil {
		return "", fmt.Errorf("temp image: %w", err)
	}
	name := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(name)
	if err := imaging.Save(bin, name); err != nil {
		return "", fmt.Errorf("save preprocessed: %w", err)
	}
	return e.recognize(name, Options{SingleBlock: true, Whitelist: charWhitelist})
}

// recognize converts engine panics (cgo) into errors.
func (e *Extractor) recognize(path string, opts Options) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recognizer panic: %v", r)
		}
	}()
	if e.rec == nil {
		return "", fmt.Errorf("no recognizer configured")
	}
	return e.rec.Recognize(path, opts)
}

// IsManualEntry reports whether text is the sentinel.
func IsManualEntry(text string) bool {
	return strings.TrimSpace(text) == ManualEntryText
}
