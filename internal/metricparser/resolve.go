package metricparser

import "strings"

// ResolveName implements the §4.3 OID resolution algorithm: try, in order,
// (1) the OID as-is, (2) with a trailing ".0" stripped, (3) with a single
// trailing numeric instance index stripped, (4) with both stripped. First
// hit against the known base mappings wins; unknown OIDs resolve to "".
func ResolveName(oid string) string {
	oid = strings.TrimPrefix(strings.TrimSpace(oid), ".")
	if oid == "" {
		return ""
	}

	if name, ok := baseMetricNames[oid]; ok {
		return name
	}
	stripped0 := stripTrailingZero(oid)
	if name, ok := baseMetricNames[stripped0]; ok {
		return name
	}
	strippedIdx := stripTrailingIndex(oid)
	if name, ok := baseMetricNames[strippedIdx]; ok {
		return name
	}
	strippedBoth := stripTrailingIndex(stripped0)
	if name, ok := baseMetricNames[strippedBoth]; ok {
		return name
	}
	return ""
}

// matchesBase reports whether oid resolves (under the same four-step
// algorithm) to base, used by status derivation and OID expansion to find
// any varbind — direct, scalar, or indexed — under a given base OID.
func matchesBase(oid, base string) bool {
	oid = strings.TrimPrefix(strings.TrimSpace(oid), ".")
	if oid == base {
		return true
	}
	if stripTrailingZero(oid) == base {
		return true
	}
	if stripTrailingIndex(oid) == base {
		return true
	}
	if stripTrailingIndex(stripTrailingZero(oid)) == base {
		return true
	}
	return false
}

func stripTrailingZero(oid string) string {
	return strings.TrimSuffix(oid, ".0")
}

// stripTrailingIndex removes one trailing numeric component, e.g.
// "....10.1.3" -> "....10.1". If oid has no dot or its last component is
// not numeric, it is returned unchanged.
func stripTrailingIndex(oid string) string {
	i := strings.LastIndex(oid, ".")
	if i < 0 {
		return oid
	}
	suffix := oid[i+1:]
	if suffix == "" || !isAllDigits(suffix) {
		return oid
	}
	return oid[:i]
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
