package pollscheduler

import (
	"strings"

	"github.com/txfleet/txcore/internal/metricparser"
)

// ExpandOIDs implements the §4.5 OID expansion algorithm:
//
//  1. Normalize (trim, drop empty).
//  2. For each OID: emit the OID itself; if it doesn't end in ".0", also
//     emit the ".0" form.
//  3. If any configured OID has a base matching one of the Elenos bases
//     (forward/reflected power, on-air/standby status, frequency), also
//     emit that base with instance indices .1..4.
//  4. If any Elenos base OID is present at all, force-add the four core
//     bases (forward power, reflected power, on-air status, frequency) and
//     their .0 and indexed forms.
//  5. De-duplicate.
//
// Invariants 3–4 (idempotence and monotonicity) follow directly from this
// being a pure, order-independent set-union construction.
func ExpandOIDs(configured []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(oid string) {
		if oid == "" {
			return
		}
		if _, ok := seen[oid]; ok {
			return
		}
		seen[oid] = struct{}{}
		out = append(out, oid)
	}

	// Step 1: normalize.
	var normalized []string
	for _, oid := range configured {
		oid = strings.TrimSpace(oid)
		if oid == "" {
			continue
		}
		normalized = append(normalized, oid)
	}

	// Step 2: emit as-is and a .0 form — but only for OIDs that are
	// genuinely scalar-shaped inputs, not for instance-indexed forms
	// (base.1..4) that steps 3-4 produce. Without this guard, feeding a
	// prior expansion's output back in as "configured" (as
	// ExpandOIDs(ExpandOIDs(x)) does) would re-pad every indexed form
	// with a spurious ".0", breaking idempotence (invariant 3).
	for _, oid := range normalized {
		add(oid)
		if strings.HasSuffix(oid, ".0") {
			continue
		}
		if isIndexedInstanceForm(oid) {
			continue
		}
		add(oid + ".0")
	}

	// Step 3: for each configured OID whose base matches an Elenos base,
	// emit that base with instance indices .1..4.
	anyElenos := false
	for _, oid := range normalized {
		for _, base := range metricparser.ElenosBases() {
			if matchesElenosBase(oid, base) {
				anyElenos = true
				addIndexedForms(add, base)
			}
		}
	}

	// Step 4: force-add the four core bases whenever any Elenos OID is
	// present at all.
	if anyElenos {
		for _, base := range metricparser.CoreBases {
			add(base)
			add(base + ".0")
			addIndexedForms(add, base)
		}
	}

	// Step 5: de-duplication is already enforced by seen/add.
	return out
}

func addIndexedForms(add func(string), base string) {
	for i := 1; i <= 4; i++ {
		add(base + "." + indexDigit(i))
	}
}

func indexDigit(i int) string {
	// Single-digit range (1..4); no need for strconv.
	return string(rune('0' + i))
}

// isIndexedInstanceForm reports whether oid is exactly base.1 through
// base.4 for some known Elenos base — i.e. a form steps 3-4 generate,
// never a bare scalar configuration entry.
func isIndexedInstanceForm(oid string) bool {
	for _, base := range metricparser.ElenosBases() {
		for i := 1; i <= 4; i++ {
			if oid == base+"."+indexDigit(i) {
				return true
			}
		}
	}
	return false
}

// matchesElenosBase reports whether oid is base itself, base.0, or base
// with a single trailing numeric instance index.
func matchesElenosBase(oid, base string) bool {
	if oid == base || oid == base+".0" {
		return true
	}
	if strings.HasPrefix(oid, base+".") {
		suffix := strings.TrimPrefix(oid, base+".")
		return isAllDigits(suffix)
	}
	return false
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
