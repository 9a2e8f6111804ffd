package money

import (
	"strings"

	gomoney "github.com/Rhymond/go-money"
)

// Format renders a in the display style of an ISO 4217 currency, e.g.
// "$1,234.50" for USD. Unknown currency codes, amounts finer than the
// currency's minor unit and amounts too large to count in minor units fall
// back to the plain decimal followed by the code.
func Format(a Amount, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	// Unregistered codes come back as a bare currency without a template.
	cur := gomoney.New(0, code).Currency()
	if cur == nil || cur.Template == "" {
		return strings.TrimSpace(a.String() + " " + code)
	}

	fraction := int32(cur.Fraction)
	if !a.FitsScale(fraction) {
		return a.String() + " " + cur.Code
	}
	units, ok := a.MinorUnits(fraction)
	if !ok {
		return a.StringFixed(fraction) + " " + cur.Code
	}
	return cur.Formatter().Format(units)
}
