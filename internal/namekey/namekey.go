// Package namekey canonicalizes patient name strings so that the same
// person can be recognized across billing claims, visit logs and the
// employee-cost ledger, none of which share an identifier.
package namekey

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var embeddedID = regexp.MustCompile(`\((\d+)\)`)

// NormalizeKey reduces a raw name to a comparable matching key: trimmed,
// lower-cased, with '.', ',' and '/' removed, tokens sorted and rejoined
// with single spaces. Token sorting makes "Doe, Jane" and "Jane Doe"
// produce the same key. Empty, missing and the literal "nan" (a common
// spreadsheet artifact) all map to the empty key.
func NormalizeKey(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" || name == "nan" {
		return ""
	}

	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, ".", "")
	name = strings.ReplaceAll(name, ",", " ")
	name = strings.ReplaceAll(name, "/", " ")

	parts := strings.Fields(name)
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

// SplitNameAndID breaks a raw patient name into its components.
// Supported formats:
//   - "LastName, FirstName (12345)"
//   - "LastName, FirstName"
//   - "FirstName LastName (12345)"
//
// A parenthesized integer is extracted as the explicit patient ID
// (0 when absent). A single-token name is treated entirely as the last
// name. The returned full name is rendered "LastName, FirstName".
func SplitNameAndID(raw string) (explicitID int, firstName, lastName, fullName string) {
	name := strings.TrimSpace(raw)
	if name == "" || name == "nan" {
		return 0, "", "", ""
	}

	if m := embeddedID.FindStringSubmatch(name); m != nil {
		explicitID = atoiSafe(m[1])
		name = strings.TrimSpace(embeddedID.ReplaceAllString(name, ""))
	}

	if idx := strings.Index(name, ","); idx >= 0 {
		lastName = strings.TrimSpace(name[:idx])
		firstName = strings.TrimSpace(name[idx+1:])
	} else {
		parts := strings.Fields(name)
		if len(parts) >= 2 {
			firstName = parts[0]
			lastName = strings.Join(parts[1:], " ")
		} else {
			lastName = name
		}
	}

	fullName = strings.Trim(lastName+", "+firstName, ", ")
	return explicitID, firstName, lastName, fullName
}

func atoiSafe(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
