package ocr

import (
	"errors"
	"fmt"
)

// ErrImageDecode is returned when input bytes cannot be decoded as an image.
var ErrImageDecode = errors.New("could not decode image")

// ManualEntryText is returned by ExtractText when every OCR attempt failed.
const ManualEntryText = "Error: Could not extract text from image. Please enter information manually."

// DecodeError carries the offending file name; it matches ErrImageDecode.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrImageDecode }
