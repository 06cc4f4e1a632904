package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"teleprompter-tracker/internal/app"
	"teleprompter-tracker/internal/config"
	"teleprompter-tracker/internal/script"
)

var (
	// Global flags
	logLevel string

	application *app.Application
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "teleprompter-tracker",
	Short: "Follow a speaker through a script",
	Long: `Teleprompter tracker aligns live speech recognition results to a script
and reports the reader's position.

Examples:
  # Show how a script is split into tokens
  teleprompter-tracker tokenize speech.txt

  # Track a simulated reading of the script
  teleprompter-tracker track --script speech.txt

  # Track a recording with Google Cloud Speech
  STT_PROVIDER=google teleprompter-tracker track --script speech.txt --audio take1.wav

  # Check alignment against recorded transcripts
  teleprompter-tracker replay corpus.yaml
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		if logLevel != "" {
			cfg.Observability.LogLevel = logLevel
		}
		application = app.New(cfg)
	},
}

// Command returns the root cobra command.
func Command() *cobra.Command {
	return rootCmd
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides LOG_LEVEL")

	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(watchCmd)
}

func loadScript(path string) ([]script.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return script.Tokenize(string(data)), nil
}
