// Package geo holds the reference data and dataset operations shared by
// the designation scrapers: state code / FIPS / name tables, county name
// cleanup, the HIFCA+HIDTA merge, and extracted-data validation.
package geo
