// Package scrape extracts designated-county data from the HIFCA and HIDTA
// sources. The HIFCA extraction reads the FinCEN regional map page; the
// HIDTA extraction resolves the published regional designations against
// Census county listings.
package scrape
