// Package intake is the boundary between uploads and field extraction. Every
// document is staged into its own uniquely named temp file, decoded, read by
// OCR and mapped to fields; the temp file is removed on every path.
package intake

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"appealdesk/pkg/fields"
	"appealdesk/pkg/ocr"

	"github.com/google/uuid"
)

// DefaultMaxHousingImages caps how many housing photos one upload processes.
const DefaultMaxHousingImages = 3

// Document is one uploaded file.
type Document struct {
	Name string
	Data []byte
}

// TextExtractor is satisfied by *ocr.Extractor.
type TextExtractor interface {
	ExtractText(path string) string
}

// Outcome records what happened to one document of a batch.
type Outcome struct {
	Index   int             `json:"index"`
	Name    string          `json:"name"`
	Fields  fields.FieldMap `json:"fields,omitempty"`
	Skipped bool            `json:"skipped,omitempty"`
	Error   string          `json:"error,omitempty"`
	Err     error           `json:"-"`
}

// Result is the merged FieldMap plus per-document outcomes.
type Result struct {
	Kind     fields.Kind     `json:"kind"`
	Fields   fields.FieldMap `json:"fields"`
	Outcomes []Outcome       `json:"documents"`
}

// Processor turns documents into FieldMaps.
type Processor struct {
	text             TextExtractor
	tempDir          string
	MaxHousingImages int
}

// New returns a processor staging files under tempDir ("" = os temp dir).
func New(text TextExtractor, tempDir string) *Processor {
	return &Processor{text: text, tempDir: tempDir, MaxHousingImages: DefaultMaxHousingImages}
}

// Parking extracts parking fields from a single ticket photo.
func (p *Processor) Parking(doc Document) (fields.FieldMap, error) {
	text, err := p.read(0, doc)
	if err != nil {
		return fields.NewFieldMap(fields.ParkingFields), err
	}
	return toFields(fields.Parking, text), nil
}

// Housing processes at most MaxHousingImages documents in upload order and
// merges them, earlier uploads taking priority per field. Documents that fail
// to decode are skipped; ErrImageDecode is returned only if all of them fail.
func (p *Processor) Housing(docs []Document) (Result, error) {
	return p.Batch(fields.Housing, docs)
}

// Batch runs kind's extraction over docs. Parking uses only the first document.
func (p *Processor) Batch(kind fields.Kind, docs []Document) (Result, error) {
	names := fields.Names(kind)
	if names == nil {
		return Result{}, fmt.Errorf("unknown document kind %q", kind)
	}
	limit := 1
	if kind == fields.Housing {
		limit = p.MaxHousingImages
		if limit <= 0 {
			limit = DefaultMaxHousingImages
		}
	}
	res := Result{Kind: kind, Fields: fields.NewFieldMap(names)}
	if len(docs) == 0 {
		return res, errors.New("no documents supplied")
	}

	var maps []fields.FieldMap
	var lastErr error
	for i, doc := range docs {
		if i >= limit {
			res.Outcomes = append(res.Outcomes, Outcome{Index: i, Name: doc.Name, Skipped: true})
			continue
		}
		text, err := p.read(i, doc)
		if err != nil {
			log.Printf("WARN intake %s #%d %s: %v", kind, i, doc.Name, err)
			res.Outcomes = append(res.Outcomes, Outcome{Index: i, Name: doc.Name, Err: err, Error: err.Error()})
			lastErr = err
			continue
		}
		fm := toFields(kind, text)
		maps = append(maps, fm)
		res.Outcomes = append(res.Outcomes, Outcome{Index: i, Name: doc.Name, Fields: fm})
	}
	res.Fields = fields.Merge(names, maps...)
	if len(maps) == 0 && lastErr != nil {
		return res, lastErr
	}
	return res, nil
}

// read stages doc, checks it decodes, and returns its OCR text.
func (p *Processor) read(index int, doc Document) (string, error) {
	path, err := p.stage(index, doc)
	if err != nil {
		return "", err
	}
	defer func() { _ = os.Remove(path) }()

	if _, err := ocr.DecodeFile(path); err != nil {
		return "", &ocr.DecodeError{Name: doc.Name, Err: errors.Unwrap(err)}
	}
	text := p.text.ExtractText(path)
	log.Printf("OCR %s #%d chars=%d text=%q", doc.Name, index, len(text), ocr.Snippet(text, 60))
	return text, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// stage writes doc to "<uuid>_<index>_<name>" in the temp dir.
func (p *Processor) stage(index int, doc Document) (string, error) {
	dir := p.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	base := unsafeName.ReplaceAllString(filepath.Base(doc.Name), "_")
	if base == "" || base == "." || base == "_" {
		base = "upload"
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%d_%s", uuid.NewString(), index, base))
	if err := os.WriteFile(path, doc.Data, 0o600); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("stage %s: %w", doc.Name, err)
	}
	return path, nil
}

func toFields(kind fields.Kind, text string) fields.FieldMap {
	if ocr.IsManualEntry(text) || strings.TrimSpace(text) == "" {
		return fields.NewFieldMap(fields.Names(kind))
	}
	fm, _ := fields.Extract(kind, text)
	return fm
}
