package metricparser

// Elenos ETG base OIDs (§4.3). These are the fixed, known OID family this
// parser understands — unlike the teacher's config-driven ObjectDefinition
// model, there is no operator-supplied syntax table for these: the mapping
// is part of the domain, not configuration.
const (
	OIDForwardPower   = "1.3.6.1.4.1.31946.4.2.6.10.1"
	OIDReflectedPower = "1.3.6.1.4.1.31946.4.2.6.10.2"
	OIDStandbyStatus  = "1.3.6.1.4.1.31946.4.2.6.10.13"
	OIDOnAirStatus    = "1.3.6.1.4.1.31946.4.2.6.10.12"
	OIDFrequency      = "1.3.6.1.4.1.31946.4.2.6.10.14"
	OIDRadioName      = "1.3.6.1.4.1.31946.3.1.7"

	// legacyPowerOutputOID is the sysUpTime OID the original source repurposed
	// as power_output. Per the Open Question in §9 of the spec, this mapping
	// is dropped — it is almost certainly a leftover placeholder. Kept here
	// only as a documented non-mapping.
	legacyPowerOutputOID = "1.3.6.1.2.1.1.3.0"
)

// baseMetricNames maps an Elenos base OID to the metric field name it
// resolves to, per the "Known base mappings" table in §4.3. Note
// legacyPowerOutputOID intentionally has no entry.
var baseMetricNames = map[string]string{
	OIDForwardPower:   "forward_power",
	OIDReflectedPower: "reflected_power",
	OIDFrequency:      "frequency",
}

// elenosBases lists every Elenos base OID the expansion algorithm (§4.5,
// implemented in pollscheduler/oidexpand.go) treats as part of the core
// family: forward power, reflected power, on-air status, standby status,
// and frequency.
var elenosBases = []string{
	OIDForwardPower,
	OIDReflectedPower,
	OIDOnAirStatus,
	OIDStandbyStatus,
	OIDFrequency,
}

// ElenosBases exposes elenosBases to other packages (the poll scheduler's
// OID-expansion algorithm needs the same base set).
func ElenosBases() []string {
	out := make([]string, len(elenosBases))
	copy(out, elenosBases)
	return out
}

// CoreBases are the four bases §4.5 step 4 force-adds whenever any Elenos
// OID is present at all: forward power, reflected power, on-air status,
// frequency. Standby-status is checked first for status derivation but is
// not itself one of the four "core" force-added bases per the spec text.
var CoreBases = []string{
	OIDForwardPower,
	OIDReflectedPower,
	OIDOnAirStatus,
	OIDFrequency,
}
