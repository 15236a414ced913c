// Package models defines the core data structures shared across all layers
// of the transmitter monitoring core. These are the canonical in-memory and
// wire forms of everything the other packages pass around; every other
// internal package depends on this package and nothing here depends on any
// other internal package.
package models

// Varbind is a tagged SNMP variable binding: an OID, a readable type name
// (or empty when unresolved by the MIB mapper), and a value already
// converted to one of a small set of native Go types. Dispatch on Value
// should always switch on its dynamic type rather than re-inspecting the
// original protocol type.
type Varbind struct {
	OID   string `json:"oid"`
	Type  string `json:"type,omitempty"`
	Value any    `json:"value"`
}

// SNMPParams is the connection tuple the session manager needs to reach a
// transmitter: host, port, community, and protocol version.
type SNMPParams struct {
	Host      string
	Port      int
	Community string
	Version   int // 0 = v1, 1 = v2c
}

// Equal reports whether two SNMPParams describe the same wire session.
// Session recycling (§4.4) compares this before deciding to tear down and
// recreate a device's session.
func (p SNMPParams) Equal(o SNMPParams) bool {
	return p.Host == o.Host && p.Port == o.Port &&
		p.Community == o.Community && p.Version == o.Version
}
