package checkout

import "strings"

// countryPhone describes the dial code and exact local digit count accepted
// for a country.
type countryPhone struct {
	Code   string
	Length int
}

var countryPhones = map[string]countryPhone{
	"Côte d'Ivoire": {Code: "+225", Length: 10},
	"Sénégal":       {Code: "+221", Length: 9},
	"Mali":          {Code: "+223", Length: 8},
	"Burkina Faso":  {Code: "+226", Length: 8},
	"Niger":         {Code: "+227", Length: 8},
	"Togo":          {Code: "+228", Length: 8},
	"Bénin":         {Code: "+229", Length: 8},
	"Ghana":         {Code: "+233", Length: 9},
	"Guinée":        {Code: "+224", Length: 9},
	"France":        {Code: "+33", Length: 9},
	"USA":           {Code: "+1", Length: 10},
	"Canada":        {Code: "+1", Length: 10},
	"Royaume-Uni":   {Code: "+44", Length: 10},
}

// ValidPhone reports whether phone is a full international number valid for
// the given country: the country's dial code followed by exactly the
// expected count of digits. Unknown countries fail closed.
func ValidPhone(country, phone string) bool {
	data, ok := countryPhones[strings.TrimSpace(country)]
	if !ok {
		return false
	}
	phone = strings.TrimSpace(phone)
	if !strings.HasPrefix(phone, data.Code) {
		return false
	}
	local := phone[len(data.Code):]
	if len(local) != data.Length {
		return false
	}
	for _, r := range local {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// digitsOnly strips everything but digits, the form wa.me expects.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
