package domain

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// countryLanguages maps the supported target countries to the language the
// pipeline narrates in. English-speaking markets intentionally share one tag
// so prompts read "English" rather than a regional variant.
var countryLanguages = map[string]language.Tag{
	"indonesia":      language.Indonesian,
	"united states":  language.English,
	"germany":        language.German,
	"australia":      language.English,
	"canada":         language.English,
	"united kingdom": language.English,
	"japan":          language.Japanese,
	"south korea":    language.Korean,
}

// isoCountries maps GeoIP ISO codes to the country names the pipeline
// understands, used only to default the target country from the client IP.
var isoCountries = map[string]string{
	"ID": "Indonesia",
	"US": "United States",
	"DE": "Germany",
	"AU": "Australia",
	"CA": "Canada",
	"GB": "United Kingdom",
	"JP": "Japan",
	"KR": "South Korea",
}

// WorkingLanguage returns the English display name of the primary language
// for the given country. Unknown countries fall back to English.
func WorkingLanguage(country string) string {
	tag, ok := countryLanguages[strings.ToLower(strings.TrimSpace(country))]
	if !ok {
		tag = language.English
	}
	return display.English.Languages().Name(tag)
}

// CountryFromISO resolves an ISO 3166-1 alpha-2 code to a supported country
// name, or "" when the code is unknown.
func CountryFromISO(code string) string {
	return isoCountries[strings.ToUpper(strings.TrimSpace(code))]
}
