package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"teleprompter-tracker/internal/corpus"
)

var (
	replayParallel int
	replayJSON     bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <corpus.yaml>",
	Short: "Replay recorded transcripts and compare final positions",
	Long: `Replay feeds every case of a corpus through its own tracker using the
scripted recognizer and compares where the reader ends up with the expected
token index. Use it to tune MATCH_THRESHOLDS and MATCH_DISTANCE_WEIGHT.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := corpus.Load(args[0])
		if err != nil {
			return err
		}

		results, err := corpus.Replay(cmd.Context(), f, application.TrackerConfig(), replayParallel)
		if err != nil {
			return err
		}

		if replayJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(results); err != nil {
				return err
			}
		} else {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CASE\tEXPECT\tEND\tWORD\tRESTARTS\tRESULT")
			for _, r := range results {
				verdict := "FAIL"
				if r.Pass {
					verdict = "ok"
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%d\t%s\n", r.Case, r.Expect, r.Position.End, r.Word, r.Restarts, verdict)
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}

		failed := 0
		for _, r := range results {
			if !r.Pass {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d cases failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().IntVar(&replayParallel, "parallel", 4, "cases replayed at the same time")
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "output as JSON")
}
