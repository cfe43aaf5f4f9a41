// Package phone normalizes phone numbers at the intake boundary so the same
// prospect submitted twice dedupes on an identical string.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Numbers without a country prefix are assumed Indian; the intake form
// serves that market.
const defaultRegion = "IN"

// NormalizeE164 returns the E.164 form of input. Unparseable or invalid
// numbers come back trimmed but otherwise untouched: intake must never
// reject a prospect over formatting.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return trimmed
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}
