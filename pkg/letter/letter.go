// Package letter renders dispute letters from interview answers.
package letter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"text/template"
	"time"

	"appealdesk/pkg/fields"
)

// DateLayout is the date format printed on letters.
const DateLayout = "January 02, 2006"

const (
	na              = "N/A"
	noEvidence      = "No additional evidence provided"
	defaultLandlord = "Property Owner/Manager"
)

var ErrUnknownKind = errors.New("unknown letter kind")

// Letter is a composed letter ready for output.
type Letter struct {
	Kind     fields.Kind
	Title    string
	Subtitle string
	Body     string
	Date     time.Time
	headers  []string
}

// Paragraph is one blank-line separated block of the body.
type Paragraph struct {
	Text   string
	Header bool
}

type parkingData struct {
	Date, Name, Address, Phone, Email                        string
	TicketNumber, IssueDate, Location, VehicleInfo, Violation string
	DisputeReason, Evidence, Amount                           string
}

type housingData struct {
	Date                                               string
	LandlordName, LandlordAddress                      string
	TenantName, TenantAddress, TenantPhone, TenantEmail string
	PropertyAddress, RentAmount, LeaseStart            string
	IssueDescription, Timeline, AttemptedResolution    string
	DesiredOutcome, Evidence                           string
}

// Compose fills the template for kind with answers.
func Compose(kind fields.Kind, answers map[string]string, now time.Time) (*Letter, error) {
	date := now.Format(DateLayout)
	var (
		tmpl *template.Template
		data any
		l    = &Letter{Kind: kind, Date: now}
	)
	switch kind {
	case fields.Parking:
		c := parseContact(answers["personal_info"], false)
		d := parkingData{
			Date: date, Name: c.name, Address: c.address, Phone: c.phone, Email: c.email,
			TicketNumber:  value(answers, "ticket_number", na),
			IssueDate:     value(answers, "issue_date", na),
			Location:      value(answers, "location", na),
			VehicleInfo:   value(answers, "vehicle_info", na),
			Violation:     value(answers, "violation_description", na),
			DisputeReason: value(answers, "dispute_reason", na),
			Evidence:      value(answers, "evidence", noEvidence),
			Amount:        strings.TrimSpace(answers["amount"]),
		}
		tmpl, data = parkingTmpl, d
		l.Title = "PARKING CITATION DISPUTE"
		l.Subtitle = "Citation Number: " + d.TicketNumber
		l.headers = parkingHeaders
	case fields.Housing:
		p := parseProperty(answers["property_info"])
		ll := parseLandlord(answers["landlord_info"])
		t := parseContact(answers["tenant_info"], true)
		d := housingData{
			Date:                date,
			LandlordName:        ll.name,
			LandlordAddress:     ll.address,
			TenantName:          t.name,
			TenantAddress:       t.address,
			TenantPhone:         t.phone,
			TenantEmail:         t.email,
			PropertyAddress:     p.address,
			RentAmount:          p.rent,
			LeaseStart:          p.leaseStart,
			IssueDescription:    value(answers, "issue_description", na),
			Timeline:            value(answers, "timeline", na),
			AttemptedResolution: value(answers, "attempted_resolution", na),
			DesiredOutcome:      value(answers, "desired_outcome", na),
			Evidence:            value(answers, "evidence", noEvidence),
		}
		tmpl, data = housingTmpl, d
		l.Title = "FORMAL HOUSING COMPLAINT"
		l.Subtitle = "Property: " + d.PropertyAddress
		l.headers = housingHeaders
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s letter: %w", kind, err)
	}
	l.Body = buf.String()
	return l, nil
}

// Paragraphs splits the body on blank lines and flags section headers.
func (l *Letter) Paragraphs() []Paragraph {
	var out []Paragraph
	for _, block := range strings.Split(l.Body, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		out = append(out, Paragraph{Text: block, Header: hasAnyPrefix(block, l.headers)})
	}
	return out
}

// WriteText writes the title, subtitle and body as plain text.
func (l *Letter) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n\n%s", l.Title, l.Subtitle, l.Body)
	return err
}

// Render produces the letter in format ("pdf" or "txt"). A PDF that fails to
// render falls back to text; the returned extension says which one was made.
func (l *Letter) Render(format string) ([]byte, string, error) {
	var buf bytes.Buffer
	if strings.EqualFold(format, "pdf") || format == "" {
		err := l.WritePDF(&buf)
		if err == nil {
			return buf.Bytes(), "pdf", nil
		}
		log.Printf("WARN letter pdf %s: %v; falling back to text", l.Kind, err)
		buf.Reset()
	}
	if err := l.WriteText(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "txt", nil
}

// FileName returns "<kind>_dispute_<caseID>_YYYYMMDD_HHMMSS.<ext>".
func FileName(kind fields.Kind, caseID uint, now time.Time, ext string) string {
	return fmt.Sprintf("%s_dispute_%d_%s.%s", kind, caseID, now.Format("20060102_150405"), strings.TrimPrefix(ext, "."))
}

// ContentType maps a Render extension to a MIME type.
func ContentType(ext string) string {
	if ext == "pdf" {
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}

func value(m map[string]string, key, def string) string {
	if v := strings.TrimSpace(m[key]); v != "" {
		return v
	}
	return def
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
