package fields

import (
	"reflect"
	"testing"
)

const sampleTicket = `CITY OF SPRINGFIELD PARKING SERVICES
CITATION: PK-2024-88812
Date: 03/14/2024
Violation: EXPIRED METER
Location: 123 Main ST
LICENSE PLATE: 7ABC123
Fine: $45.00`

const sampleLease = `RESIDENTIAL LEASE AGREEMENT
Property Address: 456 Oak AVE
Landlord: Maple Grove Properties
Monthly Rent: $1,450.00
Lease Start Date: 01/01/2024
Repairs requested on 02/15/2024 and 03/01/2024, follow-up 02/15/2024.`

func TestExtractParkingTicket(t *testing.T) {
	got := ExtractParking(sampleTicket)
	want := FieldMap{
		"ticket_number":         "PK-2024-88812",
		"issue_date":            "03/14/2024",
		"violation_description": "VIOLATION: EXPIRED METER",
		"location":              "123 Main ST",
		"vehicle_info":          "License Plate: 7ABC123",
		"amount":                "$45.00",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractParking mismatch\n got=%v\nwant=%v", got, want)
	}
}

func TestTicketLabelBeatsBareToken(t *testing.T) {
	text := "Vehicle stopped\nTICKET: AB12345\nUnit 9Z8Y7X6W5V"
	if got := ExtractParking(text)["ticket_number"]; got != "AB12345" {
		t.Fatalf("expected labeled ticket AB12345 got %q", got)
	}
	// without a label the bare token is still used
	if got := ExtractParking("Unit 9Z8Y7X6W5V")["ticket_number"]; got != "9Z8Y7X6W5V" {
		t.Fatalf("expected bare token got %q", got)
	}
}

func TestIssueDate(t *testing.T) {
	cases := map[string]string{
		"Issued 03/14/2024 near 5th Ave": "03/14/2024",
		"Issued March 14, 2024":          "March 14, 2024",
		"Issued 14 March 2024":           "14 March 2024",
		"no date here":                   "",
	}
	for text, want := range cases {
		if got := ExtractParking(text)["issue_date"]; got != want {
			t.Errorf("issue_date(%q) = %q want %q", text, got, want)
		}
	}
}

func TestAmount(t *testing.T) {
	cases := map[string]string{
		"Fine: $85.00 due":    "$85.00",
		"FINE AMOUNT: 40.00":  "$40.00",
		"Total due $1,250.00": "$1,250.00",
		"FINE 65":             "$65",
	}
	for text, want := range cases {
		if got := ExtractParking(text)["amount"]; got != want {
			t.Errorf("amount(%q) = %q want %q", text, got, want)
		}
	}
}

func TestVehiclePlate(t *testing.T) {
	cases := map[string]string{
		"License Plate: 7ABC123": "License Plate: 7ABC123",
		"PLATE# XYZ789":          "License Plate: XYZ789",
		"lic: 4KJ-221":           "License Plate: 4KJ-221",
	}
	for text, want := range cases {
		if got := ExtractParking(text)["vehicle_info"]; got != want {
			t.Errorf("vehicle_info(%q) = %q want %q", text, got, want)
		}
	}
}

func TestExtractDeterministic(t *testing.T) {
	a := ExtractParking(sampleTicket)
	b := ExtractParking(sampleTicket)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("parking extraction not deterministic: %v vs %v", a, b)
	}
	c := ExtractHousing(sampleLease)
	d := ExtractHousing(sampleLease)
	if !reflect.DeepEqual(c, d) {
		t.Fatalf("housing extraction not deterministic: %v vs %v", c, d)
	}
}

func TestExtractHousingLease(t *testing.T) {
	got := ExtractHousing(sampleLease)
	want := FieldMap{
		"property_address": "456 Oak AVE",
		"landlord_info":    "Maple Grove Properties",
		"issue_type":       "LEASE",
		"dates":            "01/01/2024, 02/15/2024, 03/01/2024",
		"rent_amount":      "$1,450.00",
		"lease_info":       "01/01/2024",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractHousing mismatch\n got=%v\nwant=%v", got, want)
	}
}

func TestLandlordLabels(t *testing.T) {
	cases := map[string]string{
		"LANDLORD:\nJohn Smith\n":             "John Smith",
		"OWNER Jane Doe":                      "Jane Doe",
		"Company: Acme Rentals":               "Acme Rentals",
		"MANAGED BY\n  Oak Street Partners":   "Oak Street Partners",
		"Property manager: Lee Chan\nUnit 4":  "Lee Chan",
		"the owner Will Fix it":               "",
		"our management Team will call":       "",
		"LANDLORD: Pat Kim\nTenant Signature": "Pat Kim",
	}
	for text, want := range cases {
		if got := ExtractHousing(text)["landlord_info"]; got != want {
			t.Errorf("landlord_info(%q) = %q want %q", text, got, want)
		}
	}
}

func TestIssueCategoryOrder(t *testing.T) {
	cases := map[string]string{
		"Lease renewal pending, REPAIR the sink": "LEASE",
		"Broken heater, security deposit held":   "MAINTENANCE",
		"Notice to quit within 30 days":          "EVICTION",
		"Refund of deposit requested":            "DEPOSIT",
		"Final warning":                          "NOTICE",
		"hello":                                  "",
	}
	for text, want := range cases {
		if got := ExtractHousing(text)["issue_type"]; got != want {
			t.Errorf("issue_type(%q) = %q want %q", text, got, want)
		}
	}
}

func TestEmptyTextYieldsAllFields(t *testing.T) {
	m := ExtractHousing("   ")
	if len(m) != len(HousingFields) || !m.Empty() {
		t.Fatalf("expected all housing fields empty got %v", m)
	}
	p := ExtractParking("")
	if len(p) != len(ParkingFields) || !p.Empty() {
		t.Fatalf("expected all parking fields empty got %v", p)
	}
}

func TestMergeFirstNonEmptyWins(t *testing.T) {
	names := []string{"a", "b"}
	got := Merge(names,
		FieldMap{"a": "", "b": "2"},
		FieldMap{"a": "1", "b": "3"},
		FieldMap{"a": "", "b": ""},
	)
	want := FieldMap{"a": "1", "b": "2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Merge = %v want %v", got, want)
	}
	if empty := Merge(names); !reflect.DeepEqual(empty, FieldMap{"a": "", "b": ""}) {
		t.Fatalf("Merge of nothing = %v", empty)
	}
}

func TestFirstMatchReportsRule(t *testing.T) {
	fr := ParkingTable[0]
	_, rule, ok := FirstMatch(fr.Rules, "REF: ZX99812")
	if !ok || rule != "reference-label" {
		t.Fatalf("expected reference-label got %q ok=%v", rule, ok)
	}
}

func TestExtractUnknownKind(t *testing.T) {
	if _, err := Extract(Kind("boat"), "text"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if k, ok := ParseKind(" Housing "); !ok || k != Housing {
		t.Fatalf("ParseKind failed: %q %v", k, ok)
	}
}
