package model

import "time"

// Designation labels which programs cover a county in the merged dataset.
type Designation string

const (
	// DesignationHIFCA marks counties designated only under HIFCA.
	DesignationHIFCA Designation = "HIFCA"

	// DesignationHIDTA marks counties designated only under HIDTA.
	DesignationHIDTA Designation = "HIDTA"

	// DesignationBoth marks counties designated under both programs.
	DesignationBoth Designation = "BOTH"
)

// County is one designated county row in the extracted dataset.
// Rows from the HIFCA and HIDTA extractions are merged on CountyFIPS.
type County struct {
	// StateID is the two-letter state abbreviation, e.g. "TX".
	StateID string `json:"state_id"`

	// StateName is the full state name, e.g. "Texas".
	StateName string `json:"state_name"`

	// CountyFIPS is the five-digit county FIPS code (state + county part).
	CountyFIPS string `json:"county_fips"`

	// CountyName is the county name without the "County"/"Parish" suffix.
	CountyName string `json:"county_name"`

	// HIFCATier is the HIFCA tier designation where the source provides
	// one (Southwest Border counties), empty otherwise.
	HIFCATier string `json:"hifca_tier,omitempty"`

	// HIFCA and HIDTA record which program extractions produced the row.
	HIFCA bool `json:"hifca_flag"`
	HIDTA bool `json:"hidta_flag"`

	// SourceURL is the page the designation was extracted from.
	SourceURL string `json:"source_url,omitempty"`

	// ExtractedAt is the extraction date.
	ExtractedAt time.Time `json:"last_extracted_date"`
}

// Designation derives the combined program label from the flags.
func (c *County) Designation() Designation {
	switch {
	case c.HIFCA && c.HIDTA:
		return DesignationBoth
	case c.HIFCA:
		return DesignationHIFCA
	default:
		return DesignationHIDTA
	}
}
