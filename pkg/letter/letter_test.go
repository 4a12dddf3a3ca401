package letter

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"appealdesk/pkg/fields"
)

var fixed = time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

func TestParkingLetter(t *testing.T) {
	l, err := Compose(fields.Parking, map[string]string{
		"ticket_number":         "AB123456",
		"issue_date":            "03/01/2024",
		"location":              "123 Main Street",
		"violation_description": "Expired meter",
		"dispute_reason":        "Meter was broken",
		"personal_info":         "Full Name: Jo Doe\nAddress: 1 Elm St\nPhone Number: 555-0100\nEmail: jo@example.com",
		"amount":                "$45.00",
	}, fixed)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if l.Title != "PARKING CITATION DISPUTE" || l.Subtitle != "Citation Number: AB123456" {
		t.Fatalf("title %q subtitle %q", l.Title, l.Subtitle)
	}
	for _, want := range []string{
		"March 05, 2024",
		"From: Jo Doe",
		"Address: 1 Elm St",
		"Phone: 555-0100",
		"Email: jo@example.com",
		"Fine Amount: $45.00",
		"issued on 03/01/2024 at 123 Main Street",
		"VEHICLE INFORMATION:\nN/A",
		"SUPPORTING EVIDENCE:\nNo additional evidence provided",
	} {
		if !strings.Contains(l.Body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestHousingLetterDefaults(t *testing.T) {
	l, err := Compose(fields.Housing, map[string]string{
		"property_info": "Property Address: 42 Oak Avenue\nMonthly Rent Amount: $1,200.00",
		"tenant_info":   "Full Name: Sam Lee\nCurrent Address: 42 Oak Avenue, Apt 3",
	}, fixed)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if l.Subtitle != "Property: 42 Oak Avenue" {
		t.Fatalf("subtitle %q", l.Subtitle)
	}
	for _, want := range []string{
		"To: Property Owner/Manager\nN/A",
		"Dear Property Owner/Manager,",
		"From: Sam Lee\n42 Oak Avenue, Apt 3",
		"- Monthly Rent: $1,200.00",
		"- Lease Start Date: N/A",
		"The following evidence supports my claims:\nNo additional evidence provided",
	} {
		if !strings.Contains(l.Body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestLandlordFromScanPrefill(t *testing.T) {
	ll := parseLandlord("Landlord/Company Name: Maple Grove Properties\nContact Address: 9 Pine Rd")
	if ll.name != "Maple Grove Properties" || ll.address != "9 Pine Rd" {
		t.Fatalf("unexpected landlord %+v", ll)
	}
}

func TestContactWithoutLabels(t *testing.T) {
	c := parseContact("Jo Doe\nphone: 555\nsomething else", false)
	if c.name != "Jo Doe" || c.phone != "555" || c.email != na {
		t.Fatalf("unexpected contact %+v", c)
	}
	if got := parseContact("", false); got.name != na || got.address != na {
		t.Fatalf("empty contact should default to N/A: %+v", got)
	}
}

func TestUnknownKind(t *testing.T) {
	if _, err := Compose("boat", nil, fixed); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind got %v", err)
	}
}

func TestParagraphHeaders(t *testing.T) {
	l, _ := Compose(fields.Housing, nil, fixed)
	var headers []string
	for _, p := range l.Paragraphs() {
		if p.Header {
			headers = append(headers, strings.SplitN(p.Text, "\n", 2)[0])
		}
	}
	if len(headers) < 10 || headers[0] != "RE: FORMAL NOTICE REGARDING HOUSING ISSUES" {
		t.Fatalf("unexpected headers %v", headers)
	}
}

func TestRenderPDFAndText(t *testing.T) {
	l, _ := Compose(fields.Parking, map[string]string{"dispute_reason": "Sign was hidden “behind” a tree – see photo 😀"}, fixed)
	data, ext, err := l.Render("pdf")
	if err != nil || ext != "pdf" {
		t.Fatalf("Render pdf: %v %s", err, ext)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
	data, ext, err = l.Render("txt")
	if err != nil || ext != "txt" {
		t.Fatalf("Render txt: %v %s", err, ext)
	}
	if !strings.HasPrefix(string(data), "PARKING CITATION DISPUTE\nCitation Number: N/A\n\n") {
		t.Fatalf("unexpected text head %q", string(data[:60]))
	}
}

func TestLatin1(t *testing.T) {
	got := latin1("“Café” – ok 😀")
	want := "\"Caf\xe9\" - ok ?"
	if got != want {
		t.Fatalf("latin1 = %q want %q", got, want)
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(fields.Housing, 12, fixed, ".pdf"); got != "housing_dispute_12_20240305_140709.pdf" {
		t.Fatalf("FileName = %s", got)
	}
	if FileName(fields.Housing, 12, fixed, "pdf") == FileName(fields.Housing, 13, fixed, "pdf") {
		t.Fatalf("different cases share a file name")
	}
	if ContentType("pdf") != "application/pdf" {
		t.Fatalf("pdf content type")
	}
}
