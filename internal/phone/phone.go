// Package phone normalizes phone numbers to the (XXX) XXX-XXXX display form.
package phone

import "strings"

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Format renders a number as (XXX) XXX-XXXX. An 11 digit number with a
// leading 1 drops the country code, longer numbers keep their last ten
// digits, and anything shorter than ten digits is returned unchanged.
func Format(s string) string {
	d := digits(s)
	switch {
	case len(d) == 10:
	case len(d) == 11 && d[0] == '1':
		d = d[1:]
	case len(d) > 10:
		d = d[len(d)-10:]
	default:
		return s
	}
	return "(" + d[0:3] + ") " + d[3:6] + "-" + d[6:]
}

// IsValid reports whether s carries between 10 and 15 digits.
func IsValid(s string) bool {
	n := len(digits(s))
	return n >= 10 && n <= 15
}
