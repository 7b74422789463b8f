package domain

import "testing"

func TestWorkingLanguage(t *testing.T) {
	cases := []struct {
		country string
		want    string
	}{
		{"Indonesia", "Indonesian"},
		{"indonesia", "Indonesian"},
		{"United States", "English"},
		{"Germany", "German"},
		{"Japan", "Japanese"},
		{"South Korea", "Korean"},
		{"Atlantis", "English"},
		{"", "English"},
	}
	for _, tc := range cases {
		if got := WorkingLanguage(tc.country); got != tc.want {
			t.Fatalf("WorkingLanguage(%q) = %q, want %q", tc.country, got, tc.want)
		}
	}
}

func TestCountryFromISO(t *testing.T) {
	if got := CountryFromISO("id"); got != "Indonesia" {
		t.Fatalf("CountryFromISO(%q) = %q, want %q", "id", got, "Indonesia")
	}
	if got := CountryFromISO("GB"); got != "United Kingdom" {
		t.Fatalf("CountryFromISO(%q) = %q, want %q", "GB", got, "United Kingdom")
	}
	if got := CountryFromISO("XX"); got != "" {
		t.Fatalf("CountryFromISO(%q) = %q, want empty", "XX", got)
	}
}
