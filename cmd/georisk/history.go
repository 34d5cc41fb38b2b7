package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/georisk/georisk/internal/config"
	"github.com/georisk/georisk/internal/layout"
	"github.com/georisk/georisk/internal/report"
	"github.com/georisk/georisk/internal/store"
)

// NewHistoryCmd creates the history command.
// This command inspects the snapshot history recorded by extract and check.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [source]",
		Short: "Show recorded layout snapshots for a source",
		Long: `History lists the layout snapshots recorded for a source, newest first,
with the drift verdict each one produced.

Every extract and check run appends a snapshot, so the history shows when
a page's structure changed and how the change was classified.

Examples:
  # List snapshot history for the HIFCA page
  georisk history hifca

  # List all sources with recorded history
  georisk history --list-sources

  # Compare the current baseline against an older snapshot
  georisk history --with-id 7 hifca

  # Dump a specific snapshot as JSON (use the ID from the listing)
  georisk history --dump-id 7 hifca`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-sources", "L", false,
		"List all sources with recorded history")
	cmd.Flags().Int64P("with-id", "i", 0,
		"Compare the current baseline with the snapshot at this history ID")
	cmd.Flags().Int64("dump-id", 0,
		"Dump the snapshot at this history ID as JSON")
	cmd.Flags().BoolP("json", "j", false,
		"Output the comparison in JSON format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listSources, err := cmd.Flags().GetBool("list-sources")
	if err != nil {
		return err
	}
	withID, err := cmd.Flags().GetInt64("with-id")
	if err != nil {
		return err
	}
	dumpID, err := cmd.Flags().GetInt64("dump-id")
	if err != nil {
		return err
	}
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database so bad invocations
	// fail without touching it.
	if !listSources && len(args) == 0 && dumpID == 0 {
		return errors.New("source id is required (use --list-sources to see available sources)")
	}

	db, err := store.Open(config.XDGDataDir(), store.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if listSources {
		sources, err := db.ListSources(ctx)
		if err != nil {
			return fmt.Errorf("failed to list sources: %w", err)
		}
		if len(sources) == 0 {
			fmt.Fprintln(out, "No history recorded yet. Run 'georisk extract' or 'georisk check' first.")
			return nil
		}
		for _, source := range sources {
			fmt.Fprintln(out, source)
		}
		return nil
	}

	if dumpID != 0 {
		snapshot, err := db.HistorySnapshot(ctx, dumpID)
		if err != nil {
			return fmt.Errorf("failed to load snapshot %d: %w", dumpID, err)
		}
		if snapshot == nil {
			return fmt.Errorf("no snapshot with id %d", dumpID)
		}

		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(snapshot)
	}

	if withID != 0 {
		return compareWithSnapshot(ctx, db, args[0], withID, jsonOut, out)
	}

	entries, err := db.History(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load history for %s: %w", args[0], err)
	}
	if len(entries) == 0 {
		fmt.Fprintf(out, "No history recorded for %s yet.\n", args[0])
		return nil
	}

	fmt.Fprintf(out, "%-6s %-20s %-15s %-8s %s\n", "ID", "CAPTURED", "VERDICT", "TABLES", "PDF LINKS")
	for _, entry := range entries {
		fmt.Fprintf(out, "%-6d %-20s %-15s %-8d %d\n",
			entry.ID,
			entry.CapturedAt.Format("2006-01-02 15:04:05"),
			entry.Verdict,
			entry.TableCount,
			entry.PDFLinkCount,
		)
	}
	return nil
}

// compareWithSnapshot diffs the most recent recorded snapshot against an
// older stored one, treating the historical snapshot as the baseline.
func compareWithSnapshot(ctx context.Context, db *store.DB, sourceID string, withID int64, jsonOut bool, out io.Writer) error {
	historical, err := db.HistorySnapshot(ctx, withID)
	if err != nil {
		return fmt.Errorf("failed to load snapshot %d: %w", withID, err)
	}
	if historical == nil {
		return fmt.Errorf("no snapshot with id %d", withID)
	}
	if historical.SourceID != sourceID {
		return fmt.Errorf("snapshot %d belongs to %s, not %s", withID, historical.SourceID, sourceID)
	}

	entries, err := db.History(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("failed to load history for %s: %w", sourceID, err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no history recorded for %s", sourceID)
	}

	current, err := db.HistorySnapshot(ctx, entries[0].ID)
	if err != nil {
		return fmt.Errorf("failed to load latest snapshot for %s: %w", sourceID, err)
	}
	if current == nil {
		return fmt.Errorf("no latest snapshot for %s", sourceID)
	}

	changeReport := layout.NewDetector().Compare(current, historical)

	var w report.Writer
	if jsonOut {
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	} else {
		w = report.NewSimpleWriter(out, report.WithVerbose(true))
	}
	_, err = w.Write(changeReport)
	return err
}
