package cli

import (
	"fmt"
	"io"

	"github.com/roach88/blup/internal/reconcile"
)

func writeReport(f *OutputFormatter, rep *reconcile.Report) error {
	if f.Format == "json" {
		return f.Success(rep)
	}
	return renderReport(f.Writer, rep)
}

// renderReport writes the human-readable form of rep.
func renderReport(w io.Writer, rep *reconcile.Report) error {
	title := "run"
	if rep.DryRun {
		title = "plan (dry run)"
	}
	fmt.Fprintf(w, "%s %s\n", title, rep.RunID)
	fmt.Fprintf(w, "  strategy:    %s\n", rep.Strategy)
	fmt.Fprintf(w, "  include:     %s\n", rep.Include)
	fmt.Fprintf(w, "  records:     %d\n", rep.Records)
	fmt.Fprintf(w, "  desired:     %d\n", rep.Desired)
	fmt.Fprintf(w, "  current:     %d\n", rep.Current)
	fmt.Fprintf(w, "  fingerprint: %s\n", rep.Fingerprint)

	writeNames(w, "added", "+", rep.Added)
	writeNames(w, "removed", "-", rep.Removed)

	if rep.DryRun {
		return nil
	}
	_, err := fmt.Fprintf(w, "inserted %d, deleted %d, ignored %d\n", rep.Inserted, rep.Deleted, rep.Ignored)
	return err
}

func writeNames(w io.Writer, label, mark string, names []string) {
	fmt.Fprintf(w, "%s (%d)\n", label, len(names))
	for _, name := range names {
		fmt.Fprintf(w, "  %s %s\n", mark, name)
	}
}
