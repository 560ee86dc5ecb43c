package parse

import (
	"regexp"
	"strings"
)

// deliverToRe captures the delivery-address section: everything between a
// "Deliver To" label and "Account No" (or end of text).
var deliverToRe = regexp.MustCompile(`(?is)deliver\s+to\s*:?\s*(.*?)(?:account\s+no|\z)`)

// defaultSiteCleanups strips company boilerplate, brand and store-chain
// prefixes, street/postcode fragments and standalone numbers from a
// candidate site line. Applied after any rule-supplied replacements.
var defaultSiteCleanups = []*regexp.Regexp{
	regexp.MustCompile(`(?i)yo!?\s*sushi(\s*\(uk\))?`),
	regexp.MustCompile(`(?i)\b(ltd|limited|plc|uk)\b\.?`),
	regexp.MustCompile(`(?i)\btesco(\s+(superstore|extra|express|metro))?\b`),
	regexp.MustCompile(`(?i)\bsainsbury'?s?(\s+(superstore|local))?\b`),
	regexp.MustCompile(`(?i)\b(asda|morrisons|waitrose)\b`),
	regexp.MustCompile(`(?i)\b\d+[-/]?\d*\s+\w+\s+(road|street|lane|avenue|way|drive|row)\b.*`),
	regexp.MustCompile(`(?i)\b(retail|business)\s+park\b`),
	// UK postcode
	regexp.MustCompile(`(?i)\b[A-Z]{1,2}\d{1,2}[A-Z]?\s*\d[A-Z]{2}\b`),
	// standalone numbers (unit/store codes)
	regexp.MustCompile(`^\s*\d+\s*$`),
}

// extractSiteName finds the deliver-to section and returns the first line
// that still looks like a site name after cleanup: longer than two
// characters, not digit-led, and containing at least one letter. Rule
// replacements are case-insensitive removals applied before the defaults;
// fragments that compile as regexes are honored as such.
func extractSiteName(text string, replacements []string, tr *Trace) *string {
	m := deliverToRe.FindStringSubmatch(text)
	if m == nil {
		tr.add("site_name", 0, false, "no deliver-to section")
		return nil
	}

	for _, line := range strings.Split(m[1], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cleaned := applyReplacements(line, replacements)
		for _, re := range defaultSiteCleanups {
			cleaned = re.ReplaceAllString(cleaned, " ")
		}
		cleaned = strings.Trim(spaceRe.ReplaceAllString(cleaned, " "), " -–,.")

		if len(cleaned) <= 2 {
			continue
		}
		if cleaned[0] >= '0' && cleaned[0] <= '9' {
			continue
		}
		if !strings.ContainsFunc(cleaned, func(r rune) bool {
			return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		}) {
			continue
		}
		tr.add("site_name", 0, true, "")
		return &cleaned
	}

	tr.add("site_name", 0, false, "no usable line after cleanup")
	return nil
}

func applyReplacements(line string, replacements []string) string {
	for _, rep := range replacements {
		rep = strings.TrimSpace(rep)
		if rep == "" {
			continue
		}
		if re, err := regexp.Compile(`(?i)` + rep); err == nil {
			line = re.ReplaceAllString(line, " ")
			continue
		}
		// not a valid regex: plain case-insensitive substring removal
		lower := strings.ToLower(line)
		needle := strings.ToLower(rep)
		for {
			i := strings.Index(lower, needle)
			if i < 0 {
				break
			}
			line = line[:i] + " " + line[i+len(needle):]
			lower = strings.ToLower(line)
		}
	}
	return line
}
