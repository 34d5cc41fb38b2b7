// Package report renders drift detection results and the extracted county
// dataset in the supported output formats: JSON and Markdown for drift
// reports, plain text for terminal summaries, and CSV for the dataset.
package report
