package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"docvault/internal/service"
)

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writeTagCounts(w io.Writer, counts map[string]int) error {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TAG\tDOCUMENTS")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%d\n", name, counts[name])
	}
	return tw.Flush()
}

func writeSweepResult(w io.Writer, res *service.SweepResult) error {
	mode := "deleted"
	if res.DryRun {
		mode = "would delete"
	}
	if _, err := fmt.Fprintf(w, "scanned %d blobs, %d orphaned, %d skipped (grace), %s %d, %d failed in %s\n",
		res.Scanned, len(res.Orphans), res.Skipped, mode, res.Deleted, res.Failed, res.Duration); err != nil {
		return err
	}
	if res.DryRun {
		for _, key := range res.Orphans {
			if _, err := fmt.Fprintf(w, "  %s\n", key); err != nil {
				return err
			}
		}
	}
	return nil
}
