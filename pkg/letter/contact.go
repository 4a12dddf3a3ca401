package letter

import "strings"

type contact struct {
	name, address, phone, email string
}

type property struct {
	address, rent, leaseStart string
}

type landlord struct {
	name, address string
}

// afterColon returns the trimmed text after the first ':' of line.
func afterColon(line string) (string, bool) {
	_, v, ok := strings.Cut(line, ":")
	return strings.TrimSpace(v), ok
}

// parseContact reads "Full Name:", "Address:", "Phone..." and "Email..."
// lines. When no name line is present a first line without a colon is
// taken as the name.
func parseContact(text string, tenant bool) contact {
	c := contact{name: na, address: na, phone: na, email: na}
	first := true
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		v, hasColon := afterColon(line)
		switch {
		case strings.HasPrefix(lower, "full name:") || strings.HasPrefix(lower, "name:"):
			c.name = v
		case strings.HasPrefix(lower, "address:") || (tenant && strings.HasPrefix(lower, "current address:")):
			c.address = v
		case strings.HasPrefix(lower, "phone") && hasColon:
			c.phone = v
		case strings.HasPrefix(lower, "email") && hasColon:
			c.email = v
		case first && !hasColon:
			c.name = line
		}
		first = false
	}
	return c
}

func parseProperty(text string) property {
	p := property{address: na, rent: na, leaseStart: na}
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		lower := strings.ToLower(line)
		v, ok := afterColon(line)
		if !ok {
			continue
		}
		switch {
		case strings.HasPrefix(lower, "property address:") || strings.HasPrefix(lower, "address:"):
			p.address = v
		case strings.HasPrefix(lower, "monthly rent"):
			p.rent = v
		case strings.HasPrefix(lower, "lease start"):
			p.leaseStart = v
		}
	}
	return p
}

func parseLandlord(text string) landlord {
	l := landlord{name: defaultLandlord, address: na}
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		lower := strings.ToLower(line)
		v, ok := afterColon(line)
		if !ok {
			continue
		}
		switch {
		case strings.HasPrefix(lower, "landlord") || strings.HasPrefix(lower, "company name"):
			l.name = v
		case strings.HasPrefix(lower, "contact address") || strings.HasPrefix(lower, "address"):
			l.address = v
		}
	}
	return l
}

// PropertyAddress returns the address line of a property answer, or "N/A".
func PropertyAddress(propertyInfo string) string {
	return parseProperty(propertyInfo).address
}
