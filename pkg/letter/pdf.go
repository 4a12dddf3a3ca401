package letter

import (
	"fmt"
	"io"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

const (
	pdfMargin   = 72.0 // one inch in points
	pdfFont     = "Helvetica"
	bodySize    = 11.0
	bodyLeading = 14.0
)

// WritePDF lays the letter out on A4 pages: centered title, bold subtitle,
// bold section headers and regular paragraphs.
func (l *Letter) WritePDF(w io.Writer) error {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(l.Title, true)
	pdf.SetCreator("appealdesk", false)
	pdf.AddPage()

	pdf.SetFont(pdfFont, "B", 18)
	pdf.CellFormat(0, 26, latin1(l.Title), "", 1, "C", false, 0, "")
	pdf.SetFont(pdfFont, "B", 12)
	pdf.CellFormat(0, 18, latin1(l.Subtitle), "", 1, "C", false, 0, "")
	pdf.Ln(12)

	for _, p := range l.Paragraphs() {
		style := ""
		if p.Header {
			style = "B"
		}
		pdf.SetFont(pdfFont, style, bodySize)
		pdf.MultiCell(0, bodyLeading, latin1(p.Text), "", "L", false)
		pdf.Ln(bodyLeading / 2)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

var typographic = strings.NewReplacer(
	"‘", "'", "’", "'", "“", `"`, "”", `"`,
	"–", "-", "—", "-", "…", "...", "\u00a0", " ",
)

// latin1 converts s for the core PDF fonts, which only cover ISO-8859-1.
// Runes outside that range become '?'.
func latin1(s string) string {
	s = typographic.Replace(s)
	s = strings.Map(func(r rune) rune {
		if r > 0xFF {
			return '?'
		}
		return r
	}, s)
	out, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return s
	}
	return out
}
