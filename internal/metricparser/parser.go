// Package metricparser implements the Metric Parser (§4.3): it turns a raw
// OID-string -> value map from a completed poll into a
// models.TransmitterMetricRow, deriving status, VSWR, and scaled frequency.
//
// Grounded on the teacher's snmp/decoder/types.go (ConvertValue / toFloat64
// family, reused as convert.go) and producer/metrics's "assemble a typed
// record from a raw map" shape — but hard-wired to the fixed Elenos OID
// family instead of a config-driven ObjectDefinition table, since this
// domain's OIDs are not operator-configurable (see DESIGN.md).
package metricparser

import (
	"math"
	"strings"
	"time"

	"github.com/txfleet/txcore/internal/models"
)

// RawMap is the poller's raw OID -> native value result for one GET.
type RawMap map[string]interface{}

// Result is the output of Parse: a populated metric row plus an optional
// proposed transmitter name, extracted from the radio-name passthrough OID.
// The persistence layer decides whether to actually write the proposed name.
type Result struct {
	Metric       models.TransmitterMetricRow
	ProposedName string
}

// Parse converts a raw poll result into a Result for transmitterID at the
// given timestamp. raw holds already-decoded native values (see ToNative);
// varbinds holds the full tagged list for storage as TransmitterMetricRow's
// opaque varbind JSON.
func Parse(transmitterID string, timestamp time.Time, raw RawMap, varbinds []models.Varbind) Result {
	row := models.TransmitterMetricRow{
		TransmitterID: transmitterID,
		Timestamp:     timestamp,
		RawVarbinds:   varbinds,
	}

	forward, hasForward := lookupFloat(raw, OIDForwardPower)
	reflected, hasReflected := lookupFloat(raw, OIDReflectedPower)
	freq, hasFreq := lookupFloat(raw, OIDFrequency)

	if hasForward {
		row.ForwardPower = &forward
	}
	if hasReflected {
		row.ReflectedPower = &reflected
	}
	if hasFreq {
		mhz := freq / 100
		row.FrequencyMHz = &mhz
	}

	row.Status = deriveStatus(raw)

	if vswr, ok := deriveVSWR(hasForward, forward, hasReflected, reflected); ok {
		row.VSWR = &vswr
	}

	// power_output: the legacy sysUpTime mapping is dropped (§9 Open
	// Question); fall back to a forward-power-derived estimate when no
	// direct power_output value exists. This system has no direct
	// power_output OID in the known table, so the estimate is always used
	// when forward power is available.
	if hasForward {
		estimate := estimatePowerOutput(forward)
		row.PowerOutput = &estimate
	}

	result := Result{Metric: row}
	if name, ok := lookupRadioName(raw); ok {
		result.ProposedName = name
	}
	return result
}

// deriveStatus implements the §4.3 status-derivation priority: standby
// status first, then on-air status, else offline.
func deriveStatus(raw RawMap) string {
	if v, ok := lookupUnderBase(raw, OIDStandbyStatus); ok {
		switch v {
		case 1:
			return "active"
		case 2:
			return "standby"
		}
	}
	if v, ok := lookupUnderBase(raw, OIDOnAirStatus); ok {
		if v == 2 {
			return "active"
		}
		return "standby"
	}
	return "offline"
}

// deriveVSWR computes VSWR = (1+Γ)/(1−Γ) where Γ = sqrt(reflected/forward),
// emitting a value only when both inputs are present, forward is positive,
// and the result is defined and finite (§4.3 VSWR derivation).
func deriveVSWR(hasForward bool, forward float64, hasReflected bool, reflected float64) (float64, bool) {
	if !hasForward || !hasReflected || forward <= 0 {
		return 0, false
	}
	gamma := math.Sqrt(reflected / forward)
	if gamma >= 1 {
		// 1-gamma would be <= 0: VSWR undefined/infinite.
		return 0, false
	}
	vswr := (1 + gamma) / (1 - gamma)
	if math.IsNaN(vswr) || math.IsInf(vswr, 0) {
		return 0, false
	}
	return vswr, true
}

// estimatePowerOutput is the supplemented forward-power-based estimate
// (§4.3 [ADDED]) used when no direct power_output reading exists. Elenos
// ETG transmitters report forward power already in watts at the antenna
// input; the estimate is the forward power itself, since no loss factor is
// specified anywhere in the known OID table.
func estimatePowerOutput(forwardPower float64) float64 {
	return forwardPower
}

// lookupFloat resolves base under the four-step algorithm against every key
// in raw and returns the first matching value widened to float64.
func lookupFloat(raw RawMap, base string) (float64, bool) {
	for oid, v := range raw {
		if matchesBase(oid, base) {
			if f, ok := asFloat(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

// lookupUnderBase resolves base the same way but returns an int (used for
// status codes, which are small integers).
func lookupUnderBase(raw RawMap, base string) (int, bool) {
	for oid, v := range raw {
		if matchesBase(oid, base) {
			if f, ok := asFloat(v); ok {
				return int(f), true
			}
		}
	}
	return 0, false
}

// lookupRadioName implements the radio-name passthrough: decode, trim, and
// propose as a name update.
func lookupRadioName(raw RawMap) (string, bool) {
	for oid, v := range raw {
		if matchesBase(oid, OIDRadioName) {
			switch x := v.(type) {
			case string:
				name := strings.TrimSpace(strings.Trim(x, "\x00"))
				if name != "" {
					return name, true
				}
			case []byte:
				name := strings.TrimSpace(strings.Trim(string(x), "\x00"))
				if name != "" {
					return name, true
				}
			}
		}
	}
	return "", false
}
