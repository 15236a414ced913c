package store

import (
	"encoding/json"
	"strings"

	"github.com/txfleet/txcore/internal/models"
)

// normalizeContactInfo implements the §4.2 / invariant 9 contact-info
// normalization rule. Historically a site's contact column held either a
// JSON object ({"technician":..., "phone":..., "email":...}), or a bare
// legacy email string, or was already a structured value. All three forms
// round-trip to the same models.ContactInfo shape.
func normalizeContactInfo(raw string) models.ContactInfo {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.ContactInfo{}
	}

	var c models.ContactInfo
	if err := json.Unmarshal([]byte(raw), &c); err == nil {
		return c
	}

	// Not valid JSON: treat the whole string as a legacy email address.
	return models.ContactInfo{Email: raw}
}

// marshalContactInfo is the write-side counterpart: always emits the
// structured JSON object form, never the legacy bare-string form.
func marshalContactInfo(c models.ContactInfo) string {
	b, err := json.Marshal(c)
	if err != nil {
		return "{}"
	}
	return string(b)
}
