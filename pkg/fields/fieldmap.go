package fields

import "strings"

// Kind identifies a supported dispute document type.
type Kind string

const (
	Parking Kind = "parking"
	Housing Kind = "housing"
)

// ParseKind accepts "parking" / "housing" in any case.
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Parking:
		return Parking, true
	case Housing:
		return Housing, true
	}
	return "", false
}

// FieldMap maps field names to extracted values. An empty value means the
// field was not found.
type FieldMap map[string]string

// NewFieldMap returns a map with every name present and empty.
func NewFieldMap(names []string) FieldMap {
	m := make(FieldMap, len(names))
	for _, n := range names {
		m[n] = ""
	}
	return m
}

// Found counts non-empty values.
func (m FieldMap) Found() int {
	n := 0
	for _, v := range m {
		if v != "" {
			n++
		}
	}
	return n
}

// Empty reports whether no field was found.
func (m FieldMap) Empty() bool { return m.Found() == 0 }

// Merge combines maps in order; for each name the first non-empty value wins.
// Keys outside names are ignored.
func Merge(names []string, maps ...FieldMap) FieldMap {
	out := NewFieldMap(names)
	for _, n := range names {
		for _, m := range maps {
			if v := m[n]; v != "" {
				out[n] = v
				break
			}
		}
	}
	return out
}

// Names returns the declared field names for kind, in display order.
func Names(kind Kind) []string {
	switch kind {
	case Parking:
		return append([]string(nil), ParkingFields...)
	case Housing:
		return append([]string(nil), HousingFields...)
	}
	return nil
}

// Label turns a field name like "ticket_number" into "Ticket Number".
func Label(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
