package fields

import (
	"regexp"
	"strings"
)

// Rule is one (predicate, extractor) step in a field's ordered rule list.
// Extract returns the value and true when the rule matches.
type Rule struct {
	Name    string
	Extract func(text string) (string, bool)
}

// FieldRules binds a field name to its ordered rules.
type FieldRules struct {
	Field string
	Rules []Rule
}

// Table is the full rule set for one document type, in field order.
type Table []FieldRules

// FirstMatch evaluates rules in order and returns the first hit.
func FirstMatch(rules []Rule, text string) (value, rule string, ok bool) {
	for _, r := range rules {
		if v, hit := r.Extract(text); hit {
			return v, r.Name, true
		}
	}
	return "", "", false
}

// Fields lists the field names of the table.
func (t Table) Fields() []string {
	out := make([]string, 0, len(t))
	for _, fr := range t {
		out = append(out, fr.Field)
	}
	return out
}

// Apply runs every field's rules over text.
func (t Table) Apply(text string) FieldMap {
	out := NewFieldMap(t.Fields())
	for _, fr := range t {
		if v, _, ok := FirstMatch(fr.Rules, text); ok {
			out[fr.Field] = v
		}
	}
	return out
}

// pattern matches expr against the text (upper-cased first when upper is set)
// and returns the first capture group, or the whole match if there is none.
func pattern(name, expr string, upper bool, format func(string) string) Rule {
	re := regexp.MustCompile(expr)
	return Rule{
		Name: name,
		Extract: func(text string) (string, bool) {
			if upper {
				text = strings.ToUpper(text)
			}
			m := re.FindStringSubmatch(text)
			if m == nil {
				return "", false
			}
			v := m[0]
			if len(m) > 1 {
				v = m[1]
			}
			v = strings.TrimSpace(v)
			if v == "" {
				return "", false
			}
			if format != nil {
				v = format(v)
			}
			return v, true
		},
	}
}

// lineKeyword returns the first upper-cased line containing any keyword.
func lineKeyword(name string, keywords []string) Rule {
	return Rule{
		Name: name,
		Extract: func(text string) (string, bool) {
			for _, line := range strings.Split(strings.ToUpper(text), "\n") {
				for _, kw := range keywords {
					if strings.Contains(line, kw) {
						if v := strings.TrimSpace(line); v != "" {
							return v, true
						}
					}
				}
			}
			return "", false
		},
	}
}

// Category is a named keyword set.
type Category struct {
	Name     string
	Keywords []string
}

// category returns the name of the first category with any keyword present in
// the upper-cased text. Declaration order is the priority.
func category(name string, cats []Category) Rule {
	return Rule{
		Name: name,
		Extract: func(text string) (string, bool) {
			up := strings.ToUpper(text)
			for _, c := range cats {
				for _, kw := range c.Keywords {
					if strings.Contains(up, kw) {
						return c.Name, true
					}
				}
			}
			return "", false
		},
	}
}

// collect gathers up to limit distinct matches of expr and joins them.
func collect(name, expr string, limit int, sep string) Rule {
	re := regexp.MustCompile(expr)
	return Rule{
		Name: name,
		Extract: func(text string) (string, bool) {
			seen := map[string]bool{}
			var out []string
			for _, m := range re.FindAllString(text, -1) {
				if seen[m] {
					continue
				}
				seen[m] = true
				out = append(out, m)
				if len(out) == limit {
					break
				}
			}
			if len(out) == 0 {
				return "", false
			}
			return strings.Join(out, sep), true
		},
	}
}

func dollars(v string) string { return "$" + v }
