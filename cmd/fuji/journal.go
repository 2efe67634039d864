package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fujiteam/fuji/internal/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "List and verify recorded acquisitions",
	Long: `List acquisitions recorded in the local journal.

Every run appends a record carrying the acquisition parameters, outcome,
digests, and the full report text. Records form a hash chain, so --verify
can prove the history has not been altered, and --show can reproduce any
run's report exactly as written.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runJournal,
}

func init() {
	journalCmd.Flags().Int("limit", 20, "show at most N entries (0 for all)")
	journalCmd.Flags().Bool("verify", false, "verify the journal hash chain")
	journalCmd.Flags().Int64("show", 0, "print the stored report for entry SEQ")
}

func runJournal(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")    //nolint:errcheck // flag name is hardcoded
	verify, _ := cmd.Flags().GetBool("verify") //nolint:errcheck // flag name is hardcoded
	show, _ := cmd.Flags().GetInt64("show")    //nolint:errcheck // flag name is hardcoded

	j, err := journal.Open()
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	if verify {
		n, verr := j.Verify()
		if verr != nil {
			return fmt.Errorf("journal at %s: %w", j.Path(), verr)
		}
		fmt.Fprintf(os.Stdout, "journal intact: %d entries verified\n", n)
		return nil
	}

	if show != 0 {
		text, terr := j.ReportText(show)
		if terr != nil {
			return terr
		}
		fmt.Fprint(os.Stdout, text)
		return nil
	}

	entries, err := j.List(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "no recorded acquisitions")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tWHEN\tCASE\tMETHOD\tSTATUS\tDIGEST\tOUTPUT")
	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "failed"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Seq,
			humanize.Time(e.EndTime),
			e.Case,
			e.Method,
			status,
			shortDigest(e.SHA256),
			lastOutput(e.OutputFiles),
		)
	}
	return w.Flush()
}

func shortDigest(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	if sum == "" {
		return "-"
	}
	return sum
}

// lastOutput names the run's final artifact; earlier entries are
// intermediates.
func lastOutput(files []string) string {
	if len(files) == 0 {
		return "-"
	}
	return strings.TrimSpace(files[len(files)-1])
}
