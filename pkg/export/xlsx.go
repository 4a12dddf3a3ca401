// Package export produces spreadsheet exports of cases and uploads.
package export

import (
	"fmt"
	"strings"
	"time"

	"appealdesk/models"
	"appealdesk/pkg/conversation"
	"appealdesk/pkg/fields"
	"appealdesk/pkg/letter"

	"github.com/xuri/excelize/v2"
)

const (
	casesSheet   = "Cases"
	uploadsSheet = "Uploads"
)

var caseHeaders = []string{
	"Case ID", "Created", "Channel", "Kind", "State",
	"Reference", "Answered", "Letter File", "Letter Generated",
}

var uploadHeaders = []string{
	"Upload ID", "Created", "Case ID", "Source", "Kind", "File Name", "Fields Found", "Failed Reason",
}

// Workbook returns XLSX bytes with a Cases sheet and, when uploads is not
// empty, an Uploads sheet.
func Workbook(cases []models.Case, uploads []models.Upload) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheet(f, casesSheet, caseHeaders, len(cases), func(i int) []any {
		return caseRow(&cases[i])
	}); err != nil {
		return nil, err
	}
	if len(uploads) > 0 {
		if err := writeSheet(f, uploadsSheet, uploadHeaders, len(uploads), func(i int) []any {
			return uploadRow(&uploads[i])
		}); err != nil {
			return nil, err
		}
	}
	_ = f.DeleteSheet("Sheet1")
	idx, _ := f.GetSheetIndex(casesSheet)
	f.SetActiveSheet(idx)

	_ = f.SetColWidth(casesSheet, "B", "B", 20)
	_ = f.SetColWidth(casesSheet, "F", "F", 36)
	_ = f.SetColWidth(casesSheet, "H", "H", 40)
	_ = f.SetColWidth(casesSheet, "I", "I", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, n int, row func(int) []any) error {
	if idx, _ := f.GetSheetIndex(sheet); idx == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("new sheet %s: %w", sheet, err)
		}
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for r := 0; r < n; r++ {
		for c, v := range row(r) {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("%s %s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func caseRow(c *models.Case) []any {
	generated := ""
	if c.LetterGeneratedAt != nil {
		generated = c.LetterGeneratedAt.Format(time.DateTime)
	}
	return []any{
		c.ID,
		c.CreatedAt.Format(time.DateTime),
		c.Channel,
		c.Kind,
		c.State,
		Reference(c),
		answered(c),
		c.LetterFile,
		generated,
	}
}

func uploadRow(u *models.Upload) []any {
	caseID := ""
	if u.CaseID != nil {
		caseID = fmt.Sprint(*u.CaseID)
	}
	return []any{u.ID, u.CreatedAt.Format(time.DateTime), caseID, u.Source, u.Kind, u.FileName, u.FieldsFound, u.FailedReason}
}

// Reference is the ticket number for parking cases and the property address
// for housing cases.
func Reference(c *models.Case) string {
	switch fields.Kind(c.Kind) {
	case fields.Parking:
		return strings.TrimSpace(c.Answers["ticket_number"])
	case fields.Housing:
		if a := letter.PropertyAddress(c.Answers["property_info"]); a != "N/A" {
			return a
		}
	}
	return ""
}

// answered renders "<filled>/<questions>".
func answered(c *models.Case) string {
	script, ok := conversation.ScriptFor(fields.Kind(c.Kind))
	if !ok {
		return ""
	}
	n := 0
	for _, q := range script.Questions {
		if strings.TrimSpace(c.Answers[q.Field]) != "" {
			n++
		}
	}
	return fmt.Sprintf("%d/%d", n, len(script.Questions))
}
