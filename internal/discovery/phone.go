package discovery

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone reduces a raw phone string to the digits used for dedup.
// US numbers are parsed so "+1 312-555-0100" and "(312) 555-0100" agree.
// Other countries keep their calling code in front. Anything the parser
// rejects falls back to its digits.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if num, err := phonenumbers.Parse(raw, "US"); err == nil {
		if nsn := phonenumbers.GetNationalSignificantNumber(num); nsn != "" {
			if cc := num.GetCountryCode(); cc != 1 {
				return strconv.Itoa(int(cc)) + nsn
			}
			return nsn
		}
	}
	return digitsOnly(raw)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
