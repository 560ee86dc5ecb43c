package constants

import "strings"

// supplierFingerprints maps an uppercase substring that identifies a
// supplier anywhere in the invoice text to its canonical display name.
// Ordered: earlier entries win when several fingerprints appear.
// Extensible here, not operator-configurable; rule-based supplier
// association takes precedence when a parsing rule matched.
var supplierFingerprints = []struct {
	Fingerprint string
	Name        string
}{
	{"JJ FOODSERVICE", "JJ Foodservice"},
	{"JJ FOOD SERVICE", "JJ Foodservice"},
	{"BRAKES", "Brakes"},
	{"BOOKER", "Booker Wholesale"},
	{"BIDFOOD", "Bidfood"},
	{"REYNOLDS", "Reynolds"},
	{"FRESH DIRECT", "Fresh Direct"},
	{"WING YIP", "Wing Yip"},
	{"SEAFRESH", "Seafresh"},
}

// IdentifySupplier scans the invoice text for a known supplier fingerprint
// and returns the canonical display name.
func IdentifySupplier(text string) (string, bool) {
	upper := strings.ToUpper(text)
	for _, s := range supplierFingerprints {
		if strings.Contains(upper, s.Fingerprint) {
			return s.Name, true
		}
	}
	return "", false
}
