package models

import "time"

// Transmitter is a single monitored device: the collapsed Device+Transmitter
// entity described in SPEC_FULL.md §9 (the spec's original split between a
// generic "device" and a "transmitter" record is unnecessary — every device
// this system polls is a transmitter, so one struct carries both).
type Transmitter struct {
	ID        string    `json:"id"`
	SiteID    string    `json:"siteId"`
	Name      string    `json:"name"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	Community string    `json:"community"`
	Version   int       `json:"version"` // 0 = v1, 1 = v2c
	Vendor    string    `json:"vendor"`  // e.g. "elenos"
	Model     string    `json:"model,omitempty"`
	// PollIntervalMillis is the interval between polls, in milliseconds
	// (§3, §4.2, §6) — despite the "seconds" instinct the name invites,
	// every call site (scheduler arithmetic, schema default, REST field)
	// treats this as milliseconds.
	PollIntervalMillis int `json:"pollIntervalMillis"`
	// OIDs is the operator-assigned set of base OIDs this transmitter
	// reports; the poll scheduler expands each via the Elenos expansion
	// algorithm (§4.5) rather than sourcing a YAML object-group hierarchy.
	OIDs      []string  `json:"oids"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SNMPParams extracts the connection tuple the session manager needs.
func (t Transmitter) SNMPParams() SNMPParams {
	return SNMPParams{
		Host:      t.Host,
		Port:      t.Port,
		Community: t.Community,
		Version:   t.Version,
	}
}

// TransmitterPatch describes a partial update to a Transmitter.
type TransmitterPatch struct {
	Name                *string
	Host                *string
	Port                *int
	Community           *string
	Version             *int
	Vendor              *string
	Model               *string
	PollIntervalMillis  *int
	OIDs                *[]string
	IsActive            *bool
}
