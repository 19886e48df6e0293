package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aryan-Gandhi/PromptGenerator/internal/mockgen"
)

func newMockCmd() *cobra.Command {
	var prompt, mode string

	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Print the offline scaffold for a prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), mockgen.Build(prompt, mode))
			return err
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "raw prompt text")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "request mode")
	return cmd
}
