package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"appealdesk/pkg/config"
	"appealdesk/pkg/fields"
	"appealdesk/pkg/intake"
	"appealdesk/pkg/ocr"
)

// Runs the full extraction chain on one image and prints the text and fields.
func main() {
	f := flag.String("file", "", "image file to OCR")
	kindFlag := flag.String("kind", "parking", "document kind (parking|housing)")
	raw := flag.Bool("raw", false, "also print the raw-image pass without preprocessing")
	flag.Parse()
	if *f == "" {
		log.Fatalf("-file required")
	}
	kind, ok := fields.ParseKind(*kindFlag)
	if !ok {
		log.Fatalf("invalid -kind %q", *kindFlag)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	data, err := os.ReadFile(*f)
	if err != nil {
		log.Fatalf("read: %v", err)
	}

	rec := ocr.NewTesseract(cfg.TesseractLang, cfg.TessdataPrefix)
	text := ocr.NewExtractor(rec, cfg.TempDir).ExtractText(*f)
	fmt.Printf("--- text (%d chars) ---\n%s\n", len(text), text)
	if *raw {
		rawText, err := rec.Recognize(*f, ocr.Options{})
		fmt.Printf("--- raw pass (err=%v) ---\n%s\n", err, rawText)
	}

	res, err := intake.New(ocr.NewExtractor(rec, cfg.TempDir), cfg.TempDir).Batch(kind, []intake.Document{{Name: *f, Data: data}})
	if err != nil {
		log.Fatalf("extract: %v", err)
	}
	fmt.Printf("--- %s fields (%d found) ---\n", kind, res.Fields.Found())
	for _, name := range fields.Names(kind) {
		fmt.Printf("%-22s %q\n", fields.Label(name)+":", res.Fields[name])
	}
}
