package main

import (
	"appealdesk/pkg/cases"
	"appealdesk/pkg/intake"
	"appealdesk/pkg/ocr"
)

var (
	processor *intake.Processor
	caseSvc   *cases.Service
)

// initPipeline wires Tesseract, the intake processor and the case service.
func initPipeline() {
	rec := ocr.NewTesseract(cfg.TesseractLang, cfg.TessdataPrefix)
	processor = intake.New(ocr.NewExtractor(rec, cfg.TempDir), cfg.TempDir)
	processor.MaxHousingImages = cfg.MaxHousingImages
	caseSvc = &cases.Service{
		Store:     cases.GormStore{DB: db},
		Intake:    processor,
		OutputDir: cfg.OutputDir,
	}
}
