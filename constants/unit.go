package constants

import (
	"regexp"
	"strings"
)

// Unit is the canonical sell-unit for an invoice line.
type Unit string

// Stable values (these exact strings appear in downstream records).
const (
	UnitCase   Unit = "CASE"
	UnitSingle Unit = "SINGLE"
	UnitBox    Unit = "BOX"
	// UnitUnknown is used when a line format carries no recognizable unit.
	UnitUnknown Unit = "UNIT"
)

var packRe = regexp.MustCompile(`^PACK\d+$`)

// NormalizeUnit maps a raw unit token to its canonical form. PACKn tokens
// are kept verbatim (the pack size is meaningful); anything unrecognized
// degrades to UNIT.
func NormalizeUnit(raw string) Unit {
	u := strings.ToUpper(strings.TrimSpace(raw))
	switch u {
	case "CASE", "CS":
		return UnitCase
	case "SINGLE", "EACH", "EA":
		return UnitSingle
	case "BOX", "BX":
		return UnitBox
	}
	if packRe.MatchString(u) {
		return Unit(u)
	}
	return UnitUnknown
}
