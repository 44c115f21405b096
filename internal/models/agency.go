package models

import (
	"regexp"
	"strings"
)

var parenthetical = regexp.MustCompile(`\(.*?\)`)

// CleanAgencyName produces the display form of a raw agency cell. Names
// starting with "TAB" collapse to exactly "TAB" (the source site renders TAB
// with state suffixes); otherwise parenthetical suffixes and anything after a
// literal hyphen are stripped.
func CleanAgencyName(raw string) string {
	name := strings.TrimSpace(raw)
	if len(name) >= 3 && strings.EqualFold(name[:3], "TAB") {
		return "TAB"
	}
	name = parenthetical.ReplaceAllString(name, "")
	if i := strings.Index(name, "-"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// NormalizeAgency produces the comparison key used for allow-listing and
// deduplication: parentheticals and hyphen suffixes removed, case-folded,
// internal whitespace dropped. Display names keep their original casing;
// this form is never shown to users.
func NormalizeAgency(raw string) string {
	name := parenthetical.ReplaceAllString(raw, "")
	if i := strings.Index(name, "-"); i >= 0 {
		name = name[:i]
	}
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, " ", "")
}
