package ocr

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// charWhitelist limits recognition to ASCII letters, digits and common
// punctuation so speckle noise is not read as exotic symbols.
const charWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789" +
	".,!?@#$%^&*()_+-=[]{}|;:'\"<>/\\ "

// Options tune a single recognition pass. The zero value means engine defaults.
type Options struct {
	SingleBlock bool
	Whitelist   string
}

// Recognizer turns an image file into text.
type Recognizer interface {
	Recognize(imagePath string, opts Options) (string, error)
}

// Tesseract runs gosseract with a fresh client per call.
type Tesseract struct {
	Language       string
	TessdataPrefix string
}

// NewTesseract returns a recognizer for lang ("eng" when empty).
func NewTesseract(lang, tessdataPrefix string) *Tesseract {
	if lang == "" {
		lang = "eng"
	}
	return &Tesseract{Language: lang, TessdataPrefix: tessdataPrefix}
}

func (t *Tesseract) Recognize(imagePath string, opts Options) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	if t.TessdataPrefix != "" {
		client.TessdataPrefix = t.TessdataPrefix
	}
	if err := client.SetLanguage(t.Language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if opts.SingleBlock {
		if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
			return "", fmt.Errorf("set page seg mode: %w", err)
		}
	}
	if opts.Whitelist != "" {
		if err := client.SetWhitelist(opts.Whitelist); err != nil {
			return "", fmt.Errorf("set whitelist: %w", err)
		}
	}
	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, nil
}
