package taxonomy

import "testing"

func TestNormalizeCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"co2_tons", "CO2_TONS"},
		{"  CO2 tons ", "CO2_TONS"},
		{"Émissions CO2", "EMISSIONS_CO2"},
		{"eau--consommée", "EAU_CONSOMMEE"},
		{"a  b\tc", "A_B_C"},
		{"", ""},
		{"___", ""},
	}
	for _, tc := range cases {
		if got := NormalizeCode(tc.in); got != tc.want {
			t.Errorf("NormalizeCode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeCodeIdempotent(t *testing.T) {
	for _, raw := range []string{"Filière Production", "GOUVERNANCE éthique", "water m3"} {
		once := NormalizeCode(raw)
		if twice := NormalizeCode(once); twice != once {
			t.Errorf("NormalizeCode not idempotent for %q: %q != %q", raw, once, twice)
		}
	}
}
