// Package main provides the teleprompter tracker CLI.
//
// Usage:
//
//	teleprompter-tracker <command> [flags] [args]
//
// Commands:
//
//	tokenize - print the token sequence of a script
//	track    - follow a reading of a script and publish positions
//	replay   - replay a transcript corpus and report final positions
//	watch    - print tracker events published to Kafka
//
// Configuration is read from the environment, see internal/config.
package main

import (
	"fmt"
	"os"

	"teleprompter-tracker/cmd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
