package fields

import "strings"

// ParkingFields are the parking-ticket field names in display order.
var ParkingFields = []string{
	"ticket_number",
	"issue_date",
	"violation_description",
	"location",
	"vehicle_info",
	"amount",
}

// money accepts "85", "85.00" and "1,250.00".
const money = `(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d*)?)`

var violationKeywords = []string{
	"METER", "EXPIRED", "NO PARKING", "FIRE HYDRANT", "HANDICAP",
	"LOADING ZONE", "BUS ZONE", "OVERTIME", "BLOCKED", "DRIVEWAY",
}

// dateRules are shared by parking issue dates.
var dateRules = []Rule{
	pattern("numeric-mdy", `(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`, false, nil),
	pattern("numeric-ymd", `(\d{2,4}[/-]\d{1,2}[/-]\d{1,2})`, false, nil),
	pattern("month-day-year", `([A-Z][a-z]+ \d{1,2},? \d{4})`, false, nil),
	pattern("day-month-year", `(\d{1,2} [A-Z][a-z]+ \d{4})`, false, nil),
}

// ParkingTable holds the ordered rules for parking tickets. Labeled ticket
// numbers are tried before the bare token so a label always wins.
var ParkingTable = Table{
	{Field: "ticket_number", Rules: []Rule{
		pattern("ticket-label", `(?:TICKET|CITATION|NO\.?)\s*:?\s*([A-Z0-9\-]{6,15})`, true, nil),
		pattern("reference-label", `(?:NOTICE|REF|ID)\s*:?\s*([A-Z0-9\-]{6,15})`, true, nil),
		pattern("bare-token", `([A-Z0-9]{8,12})`, true, nil),
	}},
	{Field: "issue_date", Rules: dateRules},
	{Field: "violation_description", Rules: []Rule{
		lineKeyword("violation-keyword", violationKeywords),
	}},
	{Field: "location", Rules: []Rule{
		pattern("street-abbrev", `(\d+\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:ST|AVE|BLVD|RD|DR|LN|CT|PL))`, false, nil),
		pattern("street-word", `([A-Z][A-Z\s]+(?:STREET|AVENUE|BOULEVARD|ROAD|DRIVE|LANE))`, false, nil),
	}},
	{Field: "vehicle_info", Rules: []Rule{
		pattern("plate-label", `(?:LICENSE\s+PLATE|LIC(?:ENSE)?|PLATE)(?:\s*(?:NO\.?|#))?\s*:?\s*([A-Z0-9\-]{3,8})`, true,
			func(v string) string { return "License Plate: " + v }),
	}},
	{Field: "amount", Rules: []Rule{
		pattern("dollar-sign", `\$`+money, true, dollars),
		pattern("fine-label", `FINE\s*:?\s*\$?`+money, true, dollars),
		pattern("amount-label", `AMOUNT\s*:?\s*\$?`+money, true, dollars),
	}},
}

// ExtractParking runs the parking table over OCR text.
func ExtractParking(text string) FieldMap {
	if strings.TrimSpace(text) == "" {
		return NewFieldMap(ParkingFields)
	}
	return ParkingTable.Apply(text)
}
