package checkout

import "testing"

func TestValidPhone(t *testing.T) {
	cases := []struct {
		country string
		phone   string
		want    bool
	}{
		{"Côte d'Ivoire", "+2250102030405", true},
		{"Côte d'Ivoire", "+225010203040", false},
		{"Côte d'Ivoire", "+2210102030405", false},
		{"Sénégal", "+221701234567", true},
		{"Mali", "+22312345678", true},
		{"Mali", "+2231234567a", false},
		{"France", "+33123456789", true},
		{"USA", "+12125551234", true},
		{"Canada", "+14165551234", true},
		{"Royaume-Uni", "+441234567890", true},
		{"Atlantis", "+9991234", false},
		{"", "+2250102030405", false},
	}
	for _, tc := range cases {
		if got := ValidPhone(tc.country, tc.phone); got != tc.want {
			t.Errorf("ValidPhone(%q, %q) = %v, want %v", tc.country, tc.phone, got, tc.want)
		}
	}
}

func TestDigitsOnly(t *testing.T) {
	if got := digitsOnly("+225 01-02 03 04 05"); got != "2250102030405" {
		t.Fatalf("got %q", got)
	}
}
