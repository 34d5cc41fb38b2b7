package geo

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// countyTitle title-cases shouty county names from source pages while
// leaving mixed-case names (La Paz, DeKalb) alone.
var countyTitle = cases.Title(language.AmericanEnglish)

// NormalizeCountyName cleans a county name as published by a source page
// or the Census API into the bare county name used as a dataset key:
// " County" and " Parish" suffixes go, a trailing ", <State Name>"
// qualifier goes, and an all-uppercase name is title-cased.
func NormalizeCountyName(name, stateName string) string {
	name = strings.TrimSpace(name)
	// Census API names carry the qualifier after the suffix
	// ("Harris County, Texas"), so strip the qualifier first.
	if stateName != "" {
		name = strings.TrimSuffix(name, ", "+stateName)
	}
	name = strings.TrimSuffix(name, " County")
	name = strings.TrimSuffix(name, " Parish")
	if name != "" && name == strings.ToUpper(name) && name != strings.ToLower(name) {
		name = countyTitle.String(strings.ToLower(name))
	}
	return strings.TrimSpace(name)
}
