package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/study-coach/backend/internal/coach"
)

func newBankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Inspect question banks",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Check a question bank file, or the built-in bank when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				bank *coach.Bank
				err  error
			)
			if len(args) == 1 {
				bank, err = coach.LoadBankFile(args[0])
			} else {
				bank = coach.DefaultBank()
			}
			if err != nil {
				return err
			}

			topics := make(map[string]int)
			for _, q := range bank.Questions() {
				topics[q.TopicOrDefault()]++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d questions across %d topics\n", bank.Len(), len(topics))
			return nil
		},
	})
	return cmd
}
