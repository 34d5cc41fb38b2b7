package geo

import (
	"sort"

	"github.com/georisk/georisk/internal/model"
)

// Merge combines the HIFCA and HIDTA county sets into one dataset keyed by
// county FIPS code. A county present in both sets carries both designation
// flags; identifying fields missing on one side are filled from the other.
// The result is sorted by state code, then county name.
func Merge(hifca, hidta []model.County) []model.County {
	merged := make(map[string]*model.County, len(hifca)+len(hidta))
	for _, c := range hifca {
		entry := c
		entry.HIFCA = true
		entry.HIDTA = false
		merged[c.CountyFIPS] = &entry
	}

	for _, c := range hidta {
		existing, ok := merged[c.CountyFIPS]
		if !ok {
			entry := c
			entry.HIFCA = false
			entry.HIDTA = true
			merged[c.CountyFIPS] = &entry
			continue
		}
		existing.HIDTA = true
		if existing.StateID == "" {
			existing.StateID = c.StateID
		}
		if existing.StateName == "" {
			existing.StateName = c.StateName
		}
		if existing.CountyName == "" {
			existing.CountyName = c.CountyName
		}
		if existing.SourceURL == "" {
			existing.SourceURL = c.SourceURL
		}
		if existing.ExtractedAt.IsZero() {
			existing.ExtractedAt = c.ExtractedAt
		}
	}

	result := make([]model.County, 0, len(merged))
	for _, c := range merged {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StateID != result[j].StateID {
			return result[i].StateID < result[j].StateID
		}
		return result[i].CountyName < result[j].CountyName
	})
	return result
}

// Dedupe removes duplicate counties from a single-source extraction,
// keeping the first occurrence of each FIPS code.
func Dedupe(counties []model.County) []model.County {
	seen := make(map[string]bool, len(counties))
	result := make([]model.County, 0, len(counties))
	for _, c := range counties {
		if seen[c.CountyFIPS] {
			continue
		}
		seen[c.CountyFIPS] = true
		result = append(result, c)
	}
	return result
}
