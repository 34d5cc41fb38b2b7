package scrape

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/georisk/georisk/internal/geo"
	"github.com/georisk/georisk/internal/model"
)

// HIDTASourceLabel identifies the HIDTA dataset origin. The designations
// are published per region rather than on a single scrapeable page.
const HIDTASourceLabel = "HIDTA Official Designations"

// hidtaRegions lists the HIDTA regions with their designated counties per
// state. An "ALL" entry designates every county in the state.
var hidtaRegions = map[string]map[string][]string{
	"Appalachia": {
		"OH": {"Adams", "Athens", "Gallia", "Jackson", "Lawrence", "Meigs", "Pike", "Ross", "Scioto", "Vinton"},
		"KY": {"Boyd", "Carter", "Elliott", "Floyd", "Greenup", "Johnson", "Lawrence", "Martin", "Pike"},
		"WV": {"Boone", "Cabell", "Lincoln", "Logan", "McDowell", "Mercer", "Mingo", "Wayne", "Wyoming"},
		"TN": {"Campbell", "Claiborne", "Cocke", "Grainger", "Greene", "Hamblen", "Hancock", "Hawkins", "Jefferson", "Johnson", "Scott", "Sullivan", "Unicoi", "Union", "Washington"},
	},
	"Atlanta": {
		"GA": {"Bartow", "Cherokee", "Clayton", "Cobb", "DeKalb", "Douglas", "Fayette", "Forsyth", "Fulton", "Gwinnett", "Henry", "Paulding", "Rockdale"},
	},
	"Central Florida": {
		"FL": {"Brevard", "Flagler", "Lake", "Orange", "Osceola", "Polk", "Seminole", "Volusia"},
	},
	"Chicago": {
		"IL": {"Cook", "DuPage", "Kane", "Lake", "McHenry", "Will"},
	},
	"Gulf Coast": {
		"AL": {"Mobile"},
		"MS": {"Hancock", "Harrison", "Jackson"},
		"LA": {"Jefferson", "Orleans", "Plaquemines", "St. Bernard", "St. Charles", "St. James", "St. John the Baptist", "St. Tammany"},
	},
	"Hawaii": {
		"HI": {"Hawaii", "Honolulu", "Kauai", "Maui"},
	},
	"Houston": {
		"TX": {"Brazoria", "Chambers", "Fort Bend", "Galveston", "Harris", "Liberty", "Montgomery", "Waller"},
	},
	"Los Angeles": {
		"CA": {"Los Angeles", "Orange", "Riverside", "San Bernardino", "Ventura"},
	},
	"Midwest": {
		"IA": {"Polk", "Scott"},
		"KS": {"Johnson", "Wyandotte"},
		"MO": {"Buchanan", "Cass", "Clay", "Jackson", "Platte", "St. Louis"},
		"NE": {"Douglas", "Sarpy"},
		"ND": {"Cass", "Grand Forks", "Richland"},
		"SD": {"Lincoln", "Minnehaha"},
	},
	"Nevada": {
		"NV": {"Clark", "Washoe"},
	},
	"New England": {
		"CT": {"Fairfield", "Hartford", "New Haven"},
		"MA": {"Bristol", "Essex", "Hampden", "Middlesex", "Norfolk", "Plymouth", "Suffolk", "Worcester"},
		"ME": {"Cumberland"},
		"NH": {"Hillsborough", "Rockingham"},
		"RI": {"Kent", "Providence"},
		"VT": {"Chittenden"},
	},
	"New Mexico": {
		"NM": {"Bernalillo", "Doña Ana", "San Juan", "Santa Fe"},
	},
	"New York/New Jersey": {
		"NY": {"ALL"},
		"NJ": {"ALL"},
	},
	"North Florida": {
		"FL": {"Alachua", "Baker", "Bay", "Bradford", "Calhoun", "Clay", "Columbia", "Dixie", "Duval", "Escambia", "Franklin", "Gadsden", "Gilchrist", "Gulf", "Hamilton", "Holmes", "Jackson", "Jefferson", "Lafayette", "Leon", "Levy", "Liberty", "Madison", "Nassau", "Okaloosa", "Santa Rosa", "St. Johns", "Suwannee", "Taylor", "Union", "Wakulla", "Walton", "Washington"},
	},
	"North Texas": {
		"TX": {"Collin", "Dallas", "Denton", "Ellis", "Johnson", "Kaufman", "Parker", "Rockwall", "Tarrant", "Wise"},
	},
	"Northwest": {
		"OR": {"Clackamas", "Multnomah", "Washington"},
		"WA": {"King", "Pierce", "Snohomish"},
	},
	"Oregon-Idaho": {
		"OR": {"Deschutes", "Jackson", "Lane", "Marion"},
		"ID": {"Ada", "Canyon"},
	},
	"Philadelphia": {
		"PA": {"Bucks", "Chester", "Delaware", "Montgomery", "Philadelphia"},
		"NJ": {"Burlington", "Camden", "Gloucester"},
	},
	"Puerto Rico": {
		"PR": {"ALL"},
	},
	"South Florida": {
		"FL": {"Broward", "Indian River", "Martin", "Miami-Dade", "Monroe", "Okeechobee", "Palm Beach", "St. Lucie"},
	},
	"Southwest Border": {
		"CA": {"Imperial", "San Diego"},
		"AZ": {"Cochise", "Pima", "Santa Cruz", "Yuma"},
		"NM": {"Doña Ana", "Grant", "Hidalgo", "Luna"},
		"TX": {"Brewster", "Cameron", "Culberson", "Dimmit", "El Paso", "Hidalgo", "Hudspeth", "Jeff Davis", "Kinney", "La Salle", "Maverick", "Presidio", "Starr", "Terrell", "Val Verde", "Webb", "Zapata"},
	},
	"Washington/Baltimore": {
		"DC": {"ALL"},
		"MD": {"Anne Arundel", "Baltimore", "Carroll", "Frederick", "Harford", "Howard", "Montgomery", "Prince George's"},
		"VA": {"Arlington", "Fairfax", "Loudoun", "Prince William"},
	},
	"Wisconsin": {
		"WI": {"Brown", "Dane", "Kenosha", "Milwaukee", "Ozaukee", "Racine", "Washington", "Waukesha"},
	},
}

// HIDTAScraper extracts the HIDTA designated-county dataset by resolving
// the regional designations against Census county listings.
type HIDTAScraper struct {
	resolver CountyResolver
	now      func() time.Time
}

// HIDTAOption configures a HIDTAScraper.
type HIDTAOption func(*HIDTAScraper)

// WithHIDTAClock overrides the extraction timestamp source. Used by tests.
func WithHIDTAClock(now func() time.Time) HIDTAOption {
	return func(s *HIDTAScraper) {
		s.now = now
	}
}

// NewHIDTAScraper creates a scraper resolving counties through resolver.
func NewHIDTAScraper(resolver CountyResolver, opts ...HIDTAOption) *HIDTAScraper {
	s := &HIDTAScraper{
		resolver: resolver,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegionCount returns the number of HIDTA regions in the designation data.
func (s *HIDTAScraper) RegionCount() int {
	return len(hidtaRegions)
}

// Scrape produces the HIDTA designated-county dataset. Each state's
// listing is fetched once even when several regions reference it.
func (s *HIDTAScraper) Scrape(ctx context.Context) ([]model.County, error) {
	extractedAt := s.now()

	// Collect per-state name sets first so each state is resolved once.
	// "ALL" swallows any named counties for the state.
	stateNames := make(map[string][]string)
	for _, region := range slices.Sorted(maps.Keys(hidtaRegions)) {
		for state, names := range hidtaRegions[region] {
			if slices.Contains(stateNames[state], "ALL") {
				continue
			}
			if slices.Contains(names, "ALL") {
				stateNames[state] = []string{"ALL"}
				continue
			}
			stateNames[state] = append(stateNames[state], names...)
		}
	}

	var counties []model.County
	for _, state := range slices.Sorted(maps.Keys(stateNames)) {
		all, err := s.resolver.Counties(ctx, state)
		if err != nil {
			return nil, fmt.Errorf("resolve %s counties: %w", state, err)
		}

		matched := all
		if !slices.Contains(stateNames[state], "ALL") {
			matched = selectNamed(all, stateNames[state])
		}
		for _, c := range matched {
			c.SourceURL = HIDTASourceLabel
			c.ExtractedAt = extractedAt
			counties = append(counties, c)
		}
	}

	return geo.Dedupe(counties), nil
}
