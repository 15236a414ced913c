package models

import "time"

// ContactInfo is the structured form of a site's technician contact
// details. Historically some rows stored this as a bare email string; see
// store.normalizeContactInfo for the migration rule (§4.2, invariant 9).
type ContactInfo struct {
	Technician string `json:"technician"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

// Site is a physical transmitter location.
type Site struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Location    string      `json:"location"` // convention: "STATE, District"
	Latitude    *float64    `json:"latitude,omitempty"`
	Longitude   *float64    `json:"longitude,omitempty"`
	Address     string      `json:"address,omitempty"`
	Contact     ContactInfo `json:"contact"`
	IsActive    bool        `json:"isActive"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// SitePatch describes a partial update to a Site. Nil fields are left
// unchanged.
type SitePatch struct {
	Name      *string
	Location  *string
	Latitude  *float64
	Longitude *float64
	Address   *string
	Contact   *ContactInfo
	IsActive  *bool
}
