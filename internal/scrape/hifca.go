package scrape

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/georisk/georisk/internal/geo"
	"github.com/georisk/georisk/internal/model"
)

// HIFCA source locations.
const (
	// HIFCASourceURL is the FinCEN regional map page the designations are
	// published on.
	HIFCASourceURL = "https://www.fincen.gov/hifca-regional-map"

	// HIFCASWBorderPDFURL is the known location of the Southwest Border
	// designation PDF, used when the page no longer links it.
	HIFCASWBorderPDFURL = "https://www.fincen.gov/system/files/shared/southernborder.pdf"
)

// CountyResolver provides the county listing for a state. Implemented by
// census.Client; tests substitute a static resolver.
type CountyResolver interface {
	Counties(ctx context.Context, stateCode string) ([]model.County, error)
}

// HIFCAScraper extracts the HIFCA designated-county dataset. Region
// membership comes from the published designations; county identities are
// resolved against Census listings so names and FIPS codes stay canonical.
type HIFCAScraper struct {
	resolver CountyResolver
	now      func() time.Time
}

// HIFCAOption configures a HIFCAScraper.
type HIFCAOption func(*HIFCAScraper)

// WithHIFCAClock overrides the extraction timestamp source. Used by tests.
func WithHIFCAClock(now func() time.Time) HIFCAOption {
	return func(s *HIFCAScraper) {
		s.now = now
	}
}

// NewHIFCAScraper creates a scraper resolving counties through resolver.
func NewHIFCAScraper(resolver CountyResolver, opts ...HIFCAOption) *HIFCAScraper {
	s := &HIFCAScraper{
		resolver: resolver,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// swBorderTiers lists the Southwest Border HIFCA counties with their tier
// designations, per the FinCEN Southwest Border PDF.
var swBorderTiers = map[string]map[string]string{
	"AZ": {
		"Cochise": "Tier I", "Pima": "Tier I", "Santa Cruz": "Tier I", "Yuma": "Tier I",
		"Apache": "State-wide", "Coconino": "State-wide", "Gila": "State-wide",
		"Graham": "State-wide", "Greenlee": "State-wide", "La Paz": "State-wide",
		"Maricopa": "State-wide", "Mohave": "State-wide", "Navajo": "State-wide",
		"Pinal": "State-wide", "Yavapai": "State-wide",
	},
	"TX": {
		"Cameron": "Tier I", "Hidalgo": "Tier I", "Starr": "Tier I", "Zapata": "Tier I",
		"Webb": "Tier I", "Maverick": "Tier I", "Val Verde": "Tier I", "Terrell": "Tier I",
		"Brewster": "Tier I", "Presidio": "Tier I", "Jeff Davis": "Tier I",
		"Hudspeth": "Tier I", "El Paso": "Tier I",
		"Willacy": "Tier II", "Jim Hogg": "Tier II", "Dimmit": "Tier II", "La Salle": "Tier II",
		"Kinney": "Tier II", "Uvalde": "Tier II", "Edwards": "Tier II", "Crockett": "Tier II",
		"Pecos": "Tier II", "Reeves": "Tier II", "Culberson": "Tier II",
	},
}

// californiaDistricts lists the HIFCA California district counties.
var californiaDistricts = map[string][]string{
	"Northern District": {
		"Monterey", "Humboldt", "Mendocino", "Lake", "Sonoma", "Napa",
		"Marin", "Contra Costa", "San Francisco", "San Mateo", "Alameda",
		"Santa Cruz", "San Benito", "Del Norte",
	},
	"Southern District": {
		"Los Angeles", "Orange", "Riverside", "San Bernardino",
		"San Luis Obispo", "Santa Barbara", "Ventura",
	},
}

// otherRegions lists the remaining HIFCA regions without tiers. An "ALL"
// entry designates every county in the state.
var otherRegions = map[string][]string{
	"IL": {"Cook", "McHenry", "DuPage", "Lake", "Will", "Kane"},
	"NY": {"ALL"},
	"NJ": {"ALL"},
	"PR": {"ALL"},
	"VI": {"ALL"},
	"FL": {
		"Broward", "Miami-Dade", "Indian River", "Martin",
		"Monroe", "Okeechobee", "Palm Beach", "St. Lucie",
	},
}

// Scrape produces the HIFCA designated-county dataset. The fetched page
// itself only anchors the extraction (layout validation checks it and its
// PDF links); region membership comes from the designation tables above,
// resolved against Census county listings.
func (s *HIFCAScraper) Scrape(ctx context.Context) ([]model.County, error) {
	extractedAt := s.now()
	var counties []model.County

	// Southwest Border counties carry tier designations.
	for _, state := range []string{"AZ", "TX"} {
		matched, err := s.resolveNamed(ctx, state, namesOf(swBorderTiers[state]))
		if err != nil {
			return nil, fmt.Errorf("resolve %s counties: %w", state, err)
		}
		for _, c := range matched {
			c.HIFCATier = swBorderTiers[state][c.CountyName]
			counties = append(counties, s.stamp(c, extractedAt))
		}
	}

	// California districts carry the district as the tier.
	caCounties, err := s.resolver.Counties(ctx, "CA")
	if err != nil {
		return nil, fmt.Errorf("resolve CA counties: %w", err)
	}
	for _, district := range slices.Sorted(maps.Keys(californiaDistricts)) {
		for _, c := range selectNamed(caCounties, californiaDistricts[district]) {
			c.HIFCATier = district
			counties = append(counties, s.stamp(c, extractedAt))
		}
	}

	// Remaining regions have no tier.
	for _, state := range slices.Sorted(maps.Keys(otherRegions)) {
		matched, err := s.resolveNamed(ctx, state, otherRegions[state])
		if err != nil {
			return nil, fmt.Errorf("resolve %s counties: %w", state, err)
		}
		for _, c := range matched {
			counties = append(counties, s.stamp(c, extractedAt))
		}
	}

	return geo.Dedupe(counties), nil
}

// stamp fills the provenance fields on an extracted county.
func (s *HIFCAScraper) stamp(c model.County, at time.Time) model.County {
	c.SourceURL = HIFCASourceURL
	c.ExtractedAt = at
	return c
}

// resolveNamed fetches a state's county listing and keeps the named ones.
// An "ALL" entry keeps the whole state.
func (s *HIFCAScraper) resolveNamed(ctx context.Context, state string, names []string) ([]model.County, error) {
	all, err := s.resolver.Counties(ctx, state)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if name == "ALL" {
			return all, nil
		}
	}
	return selectNamed(all, names), nil
}

// selectNamed filters a county listing to the named counties,
// case-insensitively.
func selectNamed(all []model.County, names []string) []model.County {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[strings.ToLower(name)] = true
	}
	var matched []model.County
	for _, c := range all {
		if wanted[strings.ToLower(c.CountyName)] {
			matched = append(matched, c)
		}
	}
	return matched
}

// namesOf returns the keys of a name→tier map.
func namesOf(tiers map[string]string) []string {
	names := make([]string, 0, len(tiers))
	for name := range tiers {
		names = append(names, name)
	}
	return names
}

// SWBorderPDFURL finds the Southwest Border designation PDF linked from
// the HIFCA page, falling back to the known location when the page no
// longer links it.
func SWBorderPDFURL(pageHTML []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageHTML))
	if err != nil {
		return HIFCASWBorderPDFURL
	}

	found := HIFCASWBorderPDFURL
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		lower := strings.ToLower(href)
		if !strings.Contains(lower, ".pdf") {
			return
		}
		if strings.Contains(lower, "southwest") || strings.Contains(lower, "southern") || strings.Contains(lower, "border") {
			found = absoluteFinCENURL(href)
		}
	})
	return found
}

// absoluteFinCENURL resolves a FinCEN page link to an absolute URL.
func absoluteFinCENURL(href string) string {
	switch {
	case strings.HasPrefix(href, "http"):
		return href
	case strings.HasPrefix(href, "/"):
		return "https://www.fincen.gov" + href
	default:
		return "https://www.fincen.gov/" + href
	}
}
