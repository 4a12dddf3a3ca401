package conversation

import (
	"fmt"
	"strings"

	"appealdesk/pkg/fields"
)

// Question is one interview step; its answer is stored under Field.
type Question struct {
	Field  string
	Prompt string
}

// Script is the interview for one dispute kind.
type Script struct {
	Kind         fields.Kind
	Intro        string
	Questions    []Question
	ContactField string
	review       func(a map[string]string) string
	prefill      func(fm fields.FieldMap) map[string]string
}

// ScriptFor returns the interview for kind.
func ScriptFor(kind fields.Kind) (*Script, bool) {
	s, ok := scripts[kind]
	return s, ok
}

var scripts = map[fields.Kind]*Script{
	fields.Parking: parkingScript,
	fields.Housing: housingScript,
}

var parkingScript = &Script{
	Kind:         fields.Parking,
	Intro:        "Parking ticket dispute. I'll ask a few questions to build your letter. You can also send a photo of the ticket at any point and I'll try to read it.",
	ContactField: "personal_info",
	Questions: []Question{
		{"ticket_number", "1. What is your parking ticket number? (usually printed at the top of the ticket)"},
		{"issue_date", "2. What date was the ticket issued? (MM/DD/YYYY, e.g. 12/25/2023)"},
		{"violation_description", "3. What violation are you being cited for? (e.g. expired meter, no-parking zone, blocking driveway)"},
		{"location", "4. Where did the violation allegedly occur? (full address or location description)"},
		{"vehicle_info", "5. Vehicle information:\n- Make/Model:\n- Year:\n- License Plate:\n- Color:"},
		{"dispute_reason", "6. Why are you disputing this ticket? Common reasons: unclear or missing signs, meter malfunction, medical emergency, vehicle breakdown, incorrect ticket details, valid permit or payment. Please explain in detail."},
		{"evidence", "7. What evidence do you have? (photos of signs or meter, receipts, witness statements, time-stamped records)"},
		{"personal_info", "8. Your details for the letter:\n- Full Name:\n- Address:\n- Phone Number:\n- Email:"},
	},
	review: func(a map[string]string) string {
		var b strings.Builder
		b.WriteString("Here's a summary of your parking ticket dispute:\n\n")
		b.WriteString("Ticket details:\n")
		fmt.Fprintf(&b, "- Ticket Number: %s\n", orNA(a["ticket_number"]))
		fmt.Fprintf(&b, "- Issue Date: %s\n", orNA(a["issue_date"]))
		fmt.Fprintf(&b, "- Violation: %s\n", orNA(a["violation_description"]))
		fmt.Fprintf(&b, "- Location: %s\n", orNA(a["location"]))
		if a["amount"] != "" {
			fmt.Fprintf(&b, "- Fine Amount: %s\n", a["amount"])
		}
		fmt.Fprintf(&b, "\nVehicle:\n%s\n", orNA(a["vehicle_info"]))
		fmt.Fprintf(&b, "\nDispute reason:\n%s\n", orNA(a["dispute_reason"]))
		fmt.Fprintf(&b, "\nEvidence:\n%s\n", orNA(a["evidence"]))
		fmt.Fprintf(&b, "\nContact information:\n%s\n", orNA(a["personal_info"]))
		return b.String()
	},
	prefill: func(fm fields.FieldMap) map[string]string {
		out := map[string]string{}
		for _, k := range fields.ParkingFields {
			if v := strings.TrimSpace(fm[k]); v != "" {
				out[k] = v
			}
		}
		return out
	},
}

var housingScript = &Script{
	Kind:         fields.Housing,
	Intro:        "Housing dispute. I'll ask a few questions to build your letter. You can send up to 3 photos of your lease, notices or letters and I'll try to read them.",
	ContactField: "tenant_info",
	Questions: []Question{
		{"issue_type", "1. What type of housing issue is this? (maintenance, security deposit, illegal fees, habitability, lease violation, eviction, or describe it)"},
		{"property_info", "2. Property information:\n- Property Address:\n- Unit/Apartment Number:\n- Property Type:\n- Monthly Rent Amount:\n- Lease Start Date:"},
		{"landlord_info", "3. Landlord or management:\n- Landlord/Company Name:\n- Contact Address:\n- Phone Number:\n- Email:"},
		{"issue_description", "4. Describe the problem in detail: what is wrong, how it affects you, how long it has been going on, any safety or health concerns."},
		{"timeline", "5. Timeline of events, one per line, e.g.\n01/15/2024: Noticed leak in bathroom ceiling\n01/16/2024: Called landlord, left voicemail"},
		{"attempted_resolution", "6. What have you done so far to resolve it? (calls, emails, letters, maintenance requests, inspectors)"},
		{"desired_outcome", "7. What outcome are you seeking? (repairs, rent reduction, deposit return, compensation, lease termination, a deadline)"},
		{"evidence", "8. What evidence do you have? (photos, correspondence, receipts, inspection reports, witness statements)"},
		{"tenant_info", "9. Your contact details:\n- Full Name:\n- Current Address:\n- Phone Number:\n- Email Address:"},
	},
	review: func(a map[string]string) string {
		var b strings.Builder
		b.WriteString("Here's a summary of your housing dispute:\n\n")
		fmt.Fprintf(&b, "Issue type:\n%s\n", orNA(a["issue_type"]))
		fmt.Fprintf(&b, "\nProperty:\n%s\n", orNA(a["property_info"]))
		fmt.Fprintf(&b, "\nLandlord:\n%s\n", orNA(a["landlord_info"]))
		fmt.Fprintf(&b, "\nIssue description:\n%s\n", truncate(orNA(a["issue_description"]), 200))
		fmt.Fprintf(&b, "\nTimeline:\n%s\n", truncate(orNA(a["timeline"]), 200))
		fmt.Fprintf(&b, "\nResolution attempts:\n%s\n", truncate(orNA(a["attempted_resolution"]), 200))
		fmt.Fprintf(&b, "\nDesired outcome:\n%s\n", orNA(a["desired_outcome"]))
		fmt.Fprintf(&b, "\nEvidence:\n%s\n", orNA(a["evidence"]))
		fmt.Fprintf(&b, "\nYour information:\n%s\n", orNA(a["tenant_info"]))
		return b.String()
	},
	prefill: func(fm fields.FieldMap) map[string]string {
		out := map[string]string{}
		if v := fm["issue_type"]; v != "" {
			out["issue_type"] = v
		}
		var prop []string
		if v := fm["property_address"]; v != "" {
			prop = append(prop, "Property Address: "+v)
		}
		if v := fm["rent_amount"]; v != "" {
			prop = append(prop, "Monthly Rent Amount: "+v)
		}
		if v := fm["lease_info"]; v != "" {
			prop = append(prop, "Lease Start Date: "+v)
		}
		if len(prop) > 0 {
			out["property_info"] = strings.Join(prop, "\n")
		}
		if v := fm["landlord_info"]; v != "" {
			out["landlord_info"] = "Landlord/Company Name: " + v
		}
		if v := fm["dates"]; v != "" {
			out["timeline"] = "Dates noted on documents: " + v
		}
		return out
	},
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
