// Package rut implements validation and formatting of Chilean RUT
// identifiers. All identity matching in the ledger depends on Normalize
// producing exactly one canonical string per valid person, so everything
// here is pure and deterministic.
package rut

import (
	"fmt"
	"regexp"
	"strings"
)

// tokenRegex matches a stripped RUT: 7 or 8 body digits plus a check
// character that is either a digit or K.
var tokenRegex = regexp.MustCompile(`^[0-9]{7,8}[0-9K]$`)

// RUT is a validated national identifier. Body keeps the raw digit string
// (leading zeros preserved) and Check is the verified check character.
type RUT struct {
	Body  string
	Check byte
}

// Normalize strips grouping dots and the dash from raw input, upper-cases
// the check character and verifies the checksum. A mismatched check
// character is always an error, never auto-corrected.
func Normalize(raw string) (RUT, error) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	token = strings.ReplaceAll(token, ".", "")
	token = strings.ReplaceAll(token, "-", "")

	if !tokenRegex.MatchString(token) {
		return RUT{}, fmt.Errorf("malformed RUT %q: expected 7 or 8 digits plus a check digit or K", raw)
	}

	body := token[:len(token)-1]
	check := token[len(token)-1]

	if computed := CheckDigit(body); computed != check {
		return RUT{}, fmt.Errorf("invalid RUT %q: check digit mismatch", raw)
	}

	return RUT{Body: body, Check: check}, nil
}

// CheckDigit computes the mod-11 check character for a digit string.
// Digits are walked from least to most significant with the repeating
// weight sequence 2,3,4,5,6,7. The walk uses the raw digit string, so
// bodies with leading zeros checksum correctly.
func CheckDigit(body string) byte {
	sum := 0
	weight := 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * weight
		weight++
		if weight > 7 {
			weight = 2
		}
	}

	switch d := 11 - (sum % 11); d {
	case 11:
		return '0'
	case 10:
		return 'K'
	default:
		return byte('0' + d)
	}
}

// String returns the canonical grouped form: body digits in thousands
// groups separated by dots, a dash, then the check character
// (e.g. 12.345.678-5).
func (r RUT) String() string {
	return groupThousands(r.Body) + "-" + string(r.Check)
}

// Masked returns a non-invertible display form that hides the interior
// digits of the grouped body while keeping the first group, the final digit
// and the check character (e.g. 12.***.**8-5). Only for presentation; never
// feed this back into Normalize.
func (r RUT) Masked() string {
	groups := strings.Split(groupThousands(r.Body), ".")
	for i := 1; i < len(groups); i++ {
		g := []byte(groups[i])
		for j := range g {
			last := i == len(groups)-1 && j == len(g)-1
			if !last {
				g[j] = '*'
			}
		}
		groups[i] = string(g)
	}
	return strings.Join(groups, ".") + "-" + string(r.Check)
}

// groupThousands inserts a dot every three digits counting from the right.
// Works on the digit string directly so the digit count is preserved.
func groupThousands(digits string) string {
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
