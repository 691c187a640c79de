package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/comalice/gametestx"
)

// WriteSummary prints one line per result followed by the totals.
func WriteSummary(w io.Writer, rep *gametestx.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATE\tTEST\tTICKS\tBATCH\tREASON")
	for _, r := range rep.Results {
		state := strings.ToUpper(r.State.String())
		if r.State.Failure() && !r.Required {
			state += " (optional)"
		}
		batch := r.Batch
		if batch == "" {
			batch = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", state, r.ID, r.ElapsedTicks, batch, r.FailureReason)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d passed, %d failed, %d timed out, %d skipped (%d optional failures) in %d ticks\n",
		rep.Passed, rep.Failed, rep.TimedOut, rep.Skipped, rep.Optional, rep.Ticks)
	return err
}

// Summary returns WriteSummary's output as a string.
func Summary(rep *gametestx.Report) string {
	var b strings.Builder
	_ = WriteSummary(&b, rep)
	return b.String()
}
