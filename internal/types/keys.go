package types

import "strings"

// NormalizeEmail trims and lower-cases an e-mail address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeRoll trims and upper-cases a roll number.
func NormalizeRoll(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// StudentKey derives the join key: e-mail, then roll number, then the
// lower-cased name. It is empty when all three are blank.
func StudentKey(email, roll, name string) string {
	if e := NormalizeEmail(email); e != "" {
		return e
	}
	if r := NormalizeRoll(roll); r != "" {
		return r
	}
	return strings.ToLower(strings.TrimSpace(name))
}
