package commands

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"teleprompter-tracker/internal/script"
)

var tokenizeWordsOnly bool

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <script-file>",
	Short: "Print the token sequence of a script as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tokens, err := loadScript(args[0])
		if err != nil {
			return err
		}
		if tokenizeWordsOnly {
			tokens = script.FilterWords(tokens)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tokens)
	},
}

func init() {
	tokenizeCmd.Flags().BoolVar(&tokenizeWordsOnly, "words", false, "print word tokens only")
}
