// Package main provides the entry point for the georisk CLI.
//
// georisk extracts HIFCA and HIDTA county designations from their official
// government sources, validates that the source page layouts still match
// the stored baselines, and produces a merged county-level dataset.
//
// Usage:
//
//	georisk extract
//	georisk check
//	georisk history hifca
//
// See --help for all available options.
package main

// main is the entry point for georisk.
func main() {
	Execute()
}
