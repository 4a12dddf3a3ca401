package fields

import (
	"fmt"
	"strings"
)

// HousingFields are the housing document field names in display order.
var HousingFields = []string{
	"property_address",
	"landlord_info",
	"issue_type",
	"dates",
	"rent_amount",
	"lease_info",
}

// IssueCategories is checked in declaration order; the first category with any
// keyword present wins, so a lease that mentions repairs is classed as LEASE.
var IssueCategories = []Category{
	{Name: "LEASE", Keywords: []string{"LEASE", "RENTAL AGREEMENT", "TENANCY"}},
	{Name: "MAINTENANCE", Keywords: []string{"REPAIR", "MAINTENANCE", "BROKEN", "LEAK", "PEST"}},
	{Name: "EVICTION", Keywords: []string{"EVICTION", "NOTICE TO QUIT", "TERMINATION"}},
	{Name: "DEPOSIT", Keywords: []string{"DEPOSIT", "SECURITY", "REFUND"}},
	{Name: "NOTICE", Keywords: []string{"NOTICE", "WARNING", "VIOLATION"}},
}

const capitalizedWords = `([A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)*)`

// labelled matches an upper-case label with an optional colon, or a label in
// any case followed by a colon. The value may start on the next line.
func labelled(labels string) string {
	return `(?:(?:` + labels + `)\s*:?|(?i:` + labels + `)\s*:)\s*` + capitalizedWords
}

var HousingTable = Table{
	{Field: "property_address", Rules: []Rule{
		pattern("labeled-street-abbrev", `(?i:PROPERTY|ADDRESS|UNIT|APT)\s*:?\s*(\d+\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:ST|AVE|BLVD|RD|DR|LN|CT|PL))`, false, nil),
		pattern("street-word", `(\d+\s+[A-Z][A-Z\s]+(?:STREET|AVENUE|BOULEVARD|ROAD|DRIVE|LANE))`, false, nil),
	}},
	{Field: "landlord_info", Rules: []Rule{
		pattern("landlord-label", labelled(`LANDLORD|OWNER|MANAGEMENT|COMPANY`), false, nil),
		pattern("manager-label", labelled(`MANAGED BY|PROPERTY MANAGER`), false, nil),
	}},
	{Field: "issue_type", Rules: []Rule{
		category("issue-keyword", IssueCategories),
	}},
	{Field: "dates", Rules: []Rule{
		collect("numeric-dates", `\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`, 3, ", "),
	}},
	{Field: "rent_amount", Rules: []Rule{
		pattern("rent-label", `(?:RENT|MONTHLY)\s*:?\s*\$?`+money, true, dollars),
		pattern("monthly-dollars", `\$(\d{1,2},\d{3}(?:\.\d+)?|\d{3,4}(?:\.\d*)?)(?:\s*(?:PER MONTH|MONTHLY|/MONTH))?`, true, dollars),
	}},
	{Field: "lease_info", Rules: []Rule{
		pattern("lease-term", `LEASE\s+(?:TERM|START(?:\s+DATE)?|END(?:\s+DATE)?|PERIOD|EXPIRES?)[ \t]*:?[ \t]*([^\n]{3,60})`, true, nil),
	}},
}

// ExtractHousing runs the housing table over OCR text.
func ExtractHousing(text string) FieldMap {
	if strings.TrimSpace(text) == "" {
		return NewFieldMap(HousingFields)
	}
	return HousingTable.Apply(text)
}

// TableFor returns the rule table for kind.
func TableFor(kind Kind) (Table, error) {
	switch kind {
	case Parking:
		return ParkingTable, nil
	case Housing:
		return HousingTable, nil
	}
	return nil, fmt.Errorf("unknown document kind %q", kind)
}

// Extract dispatches to the table for kind.
func Extract(kind Kind, text string) (FieldMap, error) {
	switch kind {
	case Parking:
		return ExtractParking(text), nil
	case Housing:
		return ExtractHousing(text), nil
	}
	return nil, fmt.Errorf("unknown document kind %q", kind)
}
