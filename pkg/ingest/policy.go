package ingest

import (
	"fmt"
	"mime"
	"sort"
	"strings"
)

// Category is the class of storage location a part is written to.
type Category int

const (
	ProfileImage Category = iota + 1
	TeamImage
	Video
)

var categoryNames = map[Category]string{
	ProfileImage: "profile_image",
	TeamImage:    "team_image",
	Video:        "video",
}

// String returns the text form of the category.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory parses the text form of a category.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, name := range categoryNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// Policy describes how parts submitted under one field are handled.
type Policy struct {
	Field        string
	Category     Category
	AllowedTypes []string
}

// Allows reports whether the content type is on the allow-list.
func (p Policy) Allows(contentType string) bool {
	ct := NormalizeContentType(contentType)
	if ct == "" {
		return false
	}
	for _, allowed := range p.AllowedTypes {
		if allowed == ct {
			return true
		}
	}
	return false
}

// Table is an immutable mapping from field name to Policy.
type Table struct {
	policies map[string]Policy
}

// NewTable builds a Table, normalizing content types.
func NewTable(policies ...Policy) (*Table, error) {
	t := &Table{policies: make(map[string]Policy, len(policies))}

	for _, p := range policies {
		field := strings.TrimSpace(p.Field)
		if field == "" {
			return nil, fmt.Errorf("policy with empty field")
		}
		if !p.Category.Valid() {
			return nil, fmt.Errorf("policy %q: unknown category %d", field, int(p.Category))
		}
		if _, dup := t.policies[field]; dup {
			return nil, fmt.Errorf("duplicate policy for field %q", field)
		}

		types := make([]string, 0, len(p.AllowedTypes))
		seen := make(map[string]bool, len(p.AllowedTypes))
		for _, ct := range p.AllowedTypes {
			n := NormalizeContentType(ct)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			types = append(types, n)
		}
		if len(types) == 0 {
			return nil, fmt.Errorf("policy %q: no allowed content types", field)
		}

		t.policies[field] = Policy{Field: field, Category: p.Category, AllowedTypes: types}
	}

	return t, nil
}

// DefaultTable returns the built-in profile/image/video policies.
func DefaultTable() *Table {
	t, err := NewTable(DefaultPolicies()...)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultPolicies returns the built-in policies.
func DefaultPolicies() []Policy {
	return []Policy{
		{Field: "profile", Category: ProfileImage, AllowedTypes: []string{"image/png", "image/jpeg"}},
		{Field: "image", Category: TeamImage, AllowedTypes: []string{"image/png", "image/jpeg"}},
		{Field: "video", Category: Video, AllowedTypes: []string{"video/mp4"}},
	}
}

// Lookup returns the policy for field.
func (t *Table) Lookup(field string) (Policy, bool) {
	p, ok := t.policies[field]
	if !ok {
		return Policy{}, false
	}
	p.AllowedTypes = append([]string(nil), p.AllowedTypes...)
	return p, true
}

// Policies returns a copy of all policies sorted by field.
func (t *Table) Policies() []Policy {
	out := make([]Policy, 0, len(t.policies))
	for _, p := range t.policies {
		p.AllowedTypes = append([]string(nil), p.AllowedTypes...)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// Categories returns the distinct categories referenced by the table.
func (t *Table) Categories() []Category {
	seen := make(map[Category]bool)
	var out []Category
	for _, p := range t.policies {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// contentTypeAliases maps non-standard values clients still send.
var contentTypeAliases = map[string]string{
	"image/jpg": "image/jpeg",
}

// NormalizeContentType lower-cases ct, drops parameters and resolves aliases.
// It returns "" for an empty or unparsable value.
func NormalizeContentType(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	mediaType = strings.ToLower(mediaType)
	if alias, ok := contentTypeAliases[mediaType]; ok {
		return alias
	}
	return mediaType
}
