// File: internal/cli/strategies.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/momentics/hioload-pool/threadpool"
)

func newStrategiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the available pool strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range threadpool.Strategies() {
				kind := "slot"
				if s.QueueBased() {
					kind = "queue"
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", s, kind); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
