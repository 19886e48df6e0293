package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aryan-Gandhi/PromptGenerator/internal/cache"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/config"
)

func newKeyCmd() *cobra.Command {
	var prompt, mode, model string

	cmd := &cobra.Command{
		Use:   "key",
		Short: "Print the cache key of a transform request",
		Long: `Print the lowercase hex cache key the service derives for a request.

An omitted --mode is distinct from an empty one, matching requests that leave
the field out of the JSON body.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var m *string
			if cmd.Flags().Changed("mode") {
				m = &mode
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), cache.Key(prompt, m, model))
			return err
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "trimmed prompt text")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "request mode")
	cmd.Flags().StringVar(&model, "model", config.DefaultModel, "resolved model")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}
