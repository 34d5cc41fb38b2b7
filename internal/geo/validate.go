package geo

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/georisk/georisk/internal/model"
)

// ErrInvalidData indicates that an extracted county dataset failed
// validation and must not be published.
var ErrInvalidData = errors.New("invalid county data")

// countyFIPSPattern matches a five-digit combined state+county FIPS code.
var countyFIPSPattern = regexp.MustCompile(`^\d{5}$`)

// ValidateCounties checks an extracted county dataset before it is used:
// the set must be non-empty, meet the per-source minimum row count, and
// every row must carry a state code, a county name, and a well-formed
// five-digit FIPS code. All errors wrap ErrInvalidData.
func ValidateCounties(counties []model.County, minCounties int) error {
	if len(counties) == 0 {
		return fmt.Errorf("%w: extracted data is empty", ErrInvalidData)
	}
	if len(counties) < minCounties {
		return fmt.Errorf("%w: extracted only %d counties, expected at least %d",
			ErrInvalidData, len(counties), minCounties)
	}

	var invalidFIPS []string
	for i, c := range counties {
		if c.StateID == "" {
			return fmt.Errorf("%w: county %d has no state code", ErrInvalidData, i)
		}
		if c.CountyName == "" {
			return fmt.Errorf("%w: county %d (%s) has no name", ErrInvalidData, i, c.CountyFIPS)
		}
		if !countyFIPSPattern.MatchString(c.CountyFIPS) {
			invalidFIPS = append(invalidFIPS, c.CountyFIPS)
		}
	}
	if len(invalidFIPS) > 0 {
		// Cap the sample so a systematically broken extraction doesn't
		// produce an unreadable error.
		sample := invalidFIPS
		if len(sample) > 5 {
			sample = sample[:5]
		}
		return fmt.Errorf("%w: found %d invalid FIPS codes: %v",
			ErrInvalidData, len(invalidFIPS), sample)
	}
	return nil
}
