package export

import (
	"bytes"
	"testing"
	"time"

	"appealdesk/models"

	"github.com/xuri/excelize/v2"
)

func TestWorkbookRows(t *testing.T) {
	created := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	gen := created.Add(time.Hour)
	caseID := uint(2)
	data, err := Workbook([]models.Case{
		{ID: 1, CreatedAt: created, Channel: "api", Kind: "parking", State: "complete",
			Answers: map[string]string{"ticket_number": "AB123456", "issue_date": "05/01/2024"},
			LetterFile: "parking_dispute_20240502_110000.pdf", LetterGeneratedAt: &gen},
		{ID: 2, CreatedAt: created, Channel: "telegram", Kind: "housing", State: "collecting",
			Answers: map[string]string{"property_info": "Property Address: 9 Pine Road\nMonthly Rent Amount: $900"}},
		{ID: 3, CreatedAt: created, Channel: "api", State: "selection"},
	}, []models.Upload{
		{ID: 10, CreatedAt: created, CaseID: &caseID, Source: "telegram", Kind: "housing", FileName: "lease.jpg", FieldsFound: 2},
	})
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(casesSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Case ID" || rows[1][5] != "AB123456" || rows[1][6] != "2/8" {
		t.Fatalf("unexpected parking row %v", rows[1])
	}
	if rows[1][8] != "2024-05-02 11:00:00" {
		t.Fatalf("letter generated %q", rows[1][8])
	}
	if rows[2][5] != "9 Pine Road" || rows[2][6] != "1/9" {
		t.Fatalf("unexpected housing row %v", rows[2])
	}

	ups, err := f.GetRows(uploadsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(ups) != 2 || ups[1][2] != "2" || ups[1][5] != "lease.jpg" {
		t.Fatalf("unexpected uploads sheet %v", ups)
	}
	if idx, _ := f.GetSheetIndex("Sheet1"); idx != -1 {
		t.Fatalf("default sheet should be removed")
	}
}
