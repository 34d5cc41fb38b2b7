package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/georisk/georisk/internal/model"
)

// staticResolver serves county listings from a fixed table.
type staticResolver struct {
	states map[string][]model.County
}

func (r *staticResolver) Counties(_ context.Context, stateCode string) ([]model.County, error) {
	counties, ok := r.states[stateCode]
	if !ok {
		return nil, fmt.Errorf("no fixture for state %s", stateCode)
	}
	return counties, nil
}

func fixtureCounty(state, stateName, fips, name string) model.County {
	return model.County{
		StateID:    state,
		StateName:  stateName,
		CountyFIPS: fips,
		CountyName: name,
	}
}

// fixtureResolver covers every state the scrapers touch with a small
// county set per state.
func fixtureResolver() *staticResolver {
	return &staticResolver{states: map[string][]model.County{
		"AZ": {
			fixtureCounty("AZ", "Arizona", "04019", "Pima"),
			fixtureCounty("AZ", "Arizona", "04013", "Maricopa"),
			fixtureCounty("AZ", "Arizona", "04001", "Apache"),
		},
		"TX": {
			fixtureCounty("TX", "Texas", "48061", "Cameron"),
			fixtureCounty("TX", "Texas", "48201", "Harris"),
			fixtureCounty("TX", "Texas", "48113", "Dallas"),
			fixtureCounty("TX", "Texas", "48479", "Webb"),
		},
		"CA": {
			fixtureCounty("CA", "California", "06037", "Los Angeles"),
			fixtureCounty("CA", "California", "06075", "San Francisco"),
			fixtureCounty("CA", "California", "06073", "San Diego"),
		},
		"IL": {
			fixtureCounty("IL", "Illinois", "17031", "Cook"),
			fixtureCounty("IL", "Illinois", "17019", "Champaign"),
		},
		"NY": {
			fixtureCounty("NY", "New York", "36061", "New York"),
			fixtureCounty("NY", "New York", "36047", "Kings"),
		},
		"NJ": {
			fixtureCounty("NJ", "New Jersey", "34013", "Essex"),
		},
		"PR": {
			fixtureCounty("PR", "Puerto Rico", "72127", "San Juan"),
		},
		"VI": {
			fixtureCounty("VI", "Virgin Islands", "78030", "St. Thomas"),
		},
		"FL": {
			fixtureCounty("FL", "Florida", "12086", "Miami-Dade"),
			fixtureCounty("FL", "Florida", "12095", "Orange"),
			fixtureCounty("FL", "Florida", "12031", "Duval"),
		},
		"AL": {fixtureCounty("AL", "Alabama", "01097", "Mobile")},
		"MS": {fixtureCounty("MS", "Mississippi", "28047", "Harrison")},
		"LA": {fixtureCounty("LA", "Louisiana", "22071", "Orleans")},
		"HI": {fixtureCounty("HI", "Hawaii", "15003", "Honolulu")},
		"GA": {fixtureCounty("GA", "Georgia", "13121", "Fulton")},
		"OH": {fixtureCounty("OH", "Ohio", "39145", "Scioto")},
		"KY": {fixtureCounty("KY", "Kentucky", "21195", "Pike")},
		"WV": {fixtureCounty("WV", "West Virginia", "54011", "Cabell")},
		"TN": {fixtureCounty("TN", "Tennessee", "47163", "Sullivan")},
		"IA": {fixtureCounty("IA", "Iowa", "19153", "Polk")},
		"KS": {fixtureCounty("KS", "Kansas", "20091", "Johnson")},
		"MO": {fixtureCounty("MO", "Missouri", "29095", "Jackson")},
		"NE": {fixtureCounty("NE", "Nebraska", "31055", "Douglas")},
		"ND": {fixtureCounty("ND", "North Dakota", "38017", "Cass")},
		"SD": {fixtureCounty("SD", "South Dakota", "46099", "Minnehaha")},
		"NV": {fixtureCounty("NV", "Nevada", "32003", "Clark")},
		"CT": {fixtureCounty("CT", "Connecticut", "09001", "Fairfield")},
		"MA": {fixtureCounty("MA", "Massachusetts", "25025", "Suffolk")},
		"ME": {fixtureCounty("ME", "Maine", "23005", "Cumberland")},
		"NH": {fixtureCounty("NH", "New Hampshire", "33011", "Hillsborough")},
		"RI": {fixtureCounty("RI", "Rhode Island", "44007", "Providence")},
		"VT": {fixtureCounty("VT", "Vermont", "50007", "Chittenden")},
		"NM": {fixtureCounty("NM", "New Mexico", "35013", "Doña Ana")},
		"OR": {fixtureCounty("OR", "Oregon", "41051", "Multnomah")},
		"WA": {fixtureCounty("WA", "Washington", "53033", "King")},
		"ID": {fixtureCounty("ID", "Idaho", "16001", "Ada")},
		"PA": {fixtureCounty("PA", "Pennsylvania", "42101", "Philadelphia")},
		"DC": {fixtureCounty("DC", "District of Columbia", "11001", "District of Columbia")},
		"MD": {fixtureCounty("MD", "Maryland", "24005", "Baltimore")},
		"VA": {fixtureCounty("VA", "Virginia", "51013", "Arlington")},
		"WI": {fixtureCounty("WI", "Wisconsin", "55079", "Milwaukee")},
	}}
}

func TestHIFCAScrape(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	scraper := NewHIFCAScraper(fixtureResolver(), WithHIFCAClock(func() time.Time { return at }))

	got, err := scraper.Scrape(context.Background())
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}

	byFIPS := make(map[string]model.County, len(got))
	for _, c := range got {
		byFIPS[c.CountyFIPS] = c
		if c.SourceURL != HIFCASourceURL {
			t.Errorf("%s: source url %q", c.CountyFIPS, c.SourceURL)
		}
		if !c.ExtractedAt.Equal(at) {
			t.Errorf("%s: extracted at %v", c.CountyFIPS, c.ExtractedAt)
		}
	}

	// Southwest Border tiers.
	if c, ok := byFIPS["04019"]; !ok || c.HIFCATier != "Tier I" {
		t.Errorf("Pima: %+v, expected Tier I", c)
	}
	if c, ok := byFIPS["04013"]; !ok || c.HIFCATier != "State-wide" {
		t.Errorf("Maricopa: %+v, expected State-wide", c)
	}
	// California district as tier.
	if c, ok := byFIPS["06037"]; !ok || c.HIFCATier != "Southern District" {
		t.Errorf("Los Angeles: %+v, expected Southern District", c)
	}
	if c, ok := byFIPS["06075"]; !ok || c.HIFCATier != "Northern District" {
		t.Errorf("San Francisco: %+v, expected Northern District", c)
	}
	// Whole-state regions.
	if _, ok := byFIPS["36047"]; !ok {
		t.Error("NY county missing despite ALL designation")
	}
	// Named region without tier.
	if c, ok := byFIPS["17031"]; !ok || c.HIFCATier != "" {
		t.Errorf("Cook: %+v, expected no tier", c)
	}
	// Non-designated counties stay out.
	if _, ok := byFIPS["17019"]; ok {
		t.Error("Champaign extracted but not designated")
	}
	if _, ok := byFIPS["48201"]; ok {
		t.Error("Harris extracted but not HIFCA designated")
	}
}

func TestHIDTAScrape(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	scraper := NewHIDTAScraper(fixtureResolver(), WithHIDTAClock(func() time.Time { return at }))

	got, err := scraper.Scrape(context.Background())
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}

	byFIPS := make(map[string]model.County, len(got))
	for _, c := range got {
		if byFIPS[c.CountyFIPS].CountyFIPS != "" {
			t.Errorf("duplicate county %s in output", c.CountyFIPS)
		}
		byFIPS[c.CountyFIPS] = c
		if c.SourceURL != HIDTASourceLabel {
			t.Errorf("%s: source url %q", c.CountyFIPS, c.SourceURL)
		}
	}

	// Harris appears via the Houston region.
	if _, ok := byFIPS["48201"]; !ok {
		t.Error("Harris missing from HIDTA set")
	}
	// ALL states fully included.
	if _, ok := byFIPS["36047"]; !ok {
		t.Error("NY county missing despite ALL designation")
	}
	if _, ok := byFIPS["11001"]; !ok {
		t.Error("DC missing despite ALL designation")
	}
	// Webb is designated in both HIFCA and HIDTA Southwest Border; here it
	// must appear exactly once.
	if _, ok := byFIPS["48479"]; !ok {
		t.Error("Webb missing from HIDTA set")
	}
	// Diacritics in designation names must match census names.
	if _, ok := byFIPS["35013"]; !ok {
		t.Error("Doña Ana missing from HIDTA set")
	}

	if scraper.RegionCount() != 23 {
		t.Errorf("got %d regions, expected 23", scraper.RegionCount())
	}
}

func TestHIDTAScrapeResolverFailure(t *testing.T) {
	t.Parallel()

	scraper := NewHIDTAScraper(&staticResolver{states: map[string][]model.County{}})
	if _, err := scraper.Scrape(context.Background()); err == nil {
		t.Error("expected error when resolver has no data")
	}
}

func TestFetcher(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "georisk-test" {
			t.Errorf("got user agent %q", ua)
		}
		fmt.Fprint(w, "<html>ok</html>")
	}))
	defer server.Close()

	f := NewFetcher(WithFetchUserAgent("georisk-test"))
	body, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if string(body) != "<html>ok</html>" {
		t.Errorf("got body %q", body)
	}
}

func TestFetcherStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher()
	if _, err := f.Fetch(context.Background(), server.URL); !errors.Is(err, ErrFetchFailed) {
		t.Errorf("got %v, expected ErrFetchFailed", err)
	}
}

func TestFetcherBodyCap(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for range 100 {
			fmt.Fprint(w, "0123456789")
		}
	}))
	defer server.Close()

	f := NewFetcher(WithMaxBodySize(64))
	body, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(body) != 64 {
		t.Errorf("got %d bytes, expected cap at 64", len(body))
	}
}

func TestSWBorderPDFURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "relative link on page",
			html: `<a href="/system/files/shared/southernborder.pdf">SW Border</a>`,
			want: "https://www.fincen.gov/system/files/shared/southernborder.pdf",
		},
		{
			name: "absolute link on page",
			html: `<a href="https://cdn.fincen.gov/southwest-2026.pdf">map</a>`,
			want: "https://cdn.fincen.gov/southwest-2026.pdf",
		},
		{
			name: "no pdf link falls back",
			html: `<a href="/about">about</a>`,
			want: HIFCASWBorderPDFURL,
		},
		{
			name: "unrelated pdf ignored",
			html: `<a href="/guides/sar-filing.pdf">SAR guide</a>`,
			want: HIFCASWBorderPDFURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SWBorderPDFURL([]byte(tt.html)); got != tt.want {
				t.Errorf("got %q, expected %q", got, tt.want)
			}
		})
	}
}
