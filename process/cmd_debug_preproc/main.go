package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"appealdesk/pkg/ocr"

	"github.com/disintegration/imaging"
)

// Writes the binarized image OCR sees, plus a preview, for visual inspection.
func main() {
	in := flag.String("file", "", "image file to preprocess")
	out := flag.String("out", "", "output PNG (default <file>.bin.png)")
	flag.Parse()
	if *in == "" {
		log.Fatalf("-file required")
	}
	dst := *out
	if dst == "" {
		dst = strings.TrimSuffix(*in, ".png") + ".bin.png"
	}

	bin, err := ocr.PreprocessFile(*in)
	if err != nil {
		log.Fatalf("preprocess: %v", err)
	}
	if err := imaging.Save(bin, dst); err != nil {
		log.Fatalf("save: %v", err)
	}
	b := bin.Bounds()
	black := 0
	for _, p := range bin.Pix {
		if p == 0 {
			black++
		}
	}
	fmt.Printf("binary %dx%d black=%.1f%% -> %s\n", b.Dx(), b.Dy(), 100*float64(black)/float64(len(bin.Pix)), dst)
	fmt.Printf("preview -> %s\n", ocr.MakePreview(*in, ocr.PreviewMaxWidth, ocr.PreviewMaxHeight))
}
