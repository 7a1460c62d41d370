package valueobjects

import "strings"

// ProfileData wraps the raw field map returned by a platform fetch. Sources
// disagree on field names (GitHub says "name", LinkedIn says "full_name"),
// so lookups go through alias lists and missing fields soft-fail to "".
type ProfileData struct {
	fields map[string]interface{}
}

var profileAliases = map[string][]string{
	"name":     {"name", "full_name"},
	"bio":      {"bio", "description", "summary"},
	"company":  {"company", "organization"},
	"location": {"location"},
	"website":  {"website", "blog", "url"},
}

// NewProfileData wraps raw fetched fields. A nil map is valid and yields
// empty lookups for every field.
func NewProfileData(fields map[string]interface{}) ProfileData {
	if len(fields) == 0 {
		return ProfileData{}
	}
	copied := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		copied[strings.ToLower(k)] = v
	}
	return ProfileData{fields: copied}
}

// Get returns the first non-empty string value among the canonical field's
// aliases. Unknown fields are looked up directly by name.
func (p ProfileData) Get(field string) string {
	aliases, ok := profileAliases[field]
	if !ok {
		aliases = []string{field}
	}
	for _, alias := range aliases {
		if raw, ok := p.fields[alias]; ok {
			if s, ok := raw.(string); ok {
				s = strings.TrimSpace(s)
				if s != "" {
					return s
				}
			}
		}
	}
	return ""
}

// Name returns the display name, trying "name" then "full_name"
func (p ProfileData) Name() string {
	return p.Get("name")
}

// Bio returns the profile text, trying "bio", "description", then "summary"
func (p ProfileData) Bio() string {
	return p.Get("bio")
}

// Company returns the employer, trying "company" then "organization"
func (p ProfileData) Company() string {
	return p.Get("company")
}

// Location returns the stated location
func (p ProfileData) Location() string {
	return p.Get("location")
}

// Website returns the personal site link, trying "website", "blog", "url"
func (p ProfileData) Website() string {
	return p.Get("website")
}

// IsEmpty checks whether no fields were captured at all
func (p ProfileData) IsEmpty() bool {
	return len(p.fields) == 0
}

// Fields returns a copy of the underlying field map
func (p ProfileData) Fields() map[string]interface{} {
	if p.fields == nil {
		return nil
	}
	copied := make(map[string]interface{}, len(p.fields))
	for k, v := range p.fields {
		copied[k] = v
	}
	return copied
}
