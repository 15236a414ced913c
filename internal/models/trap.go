package models

import "time"

// SnmpTrap is an unsolicited trap event received by the trap receiver.
// Append-only; indexed (at the store layer) on CreatedAt, SourceHost, and
// TransmitterID.
type SnmpTrap struct {
	ID             string    `json:"id"`
	TransmitterID  *string   `json:"transmitterId,omitempty"` // resolved by source-host match; nil if unknown
	SiteID         *string   `json:"siteId,omitempty"`
	SourceHost     string    `json:"sourceHost"`
	SourcePort     int       `json:"sourcePort"`
	Community      string    `json:"community"`
	Version        int       `json:"version"`
	TrapOID        string    `json:"trapOid,omitempty"`       // v2c, from 1.3.6.1.6.3.1.1.4.1.0
	EnterpriseOID  string    `json:"enterpriseOid,omitempty"` // v1
	Varbinds       []Varbind `json:"varbinds"`
	CreatedAt      time.Time `json:"createdAt"`
}
