// Command promptgear runs the prompt transform service and exposes its
// offline helpers.
//
// Usage:
//
//	# Start the HTTP service (configuration comes from the environment / .env)
//	promptgear serve
//
//	# Print the cache key of a request
//	promptgear key --prompt "fix my flaky test" --mode coding
//
//	# Print the offline scaffold for a prompt
//	promptgear mock --prompt "Analyze network security logs"
//
// @title           PromptGear Transform API
// @version         1.0
// @description     Restructures raw prompts through an upstream LLM with retries, a content-addressed cache and an origin allow-list.
// @BasePath        /
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set by build flags.
var Version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "promptgear",
		Short:         "PromptGear - structured prompt transform service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(),
		newKeyCmd(),
		newMockCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
