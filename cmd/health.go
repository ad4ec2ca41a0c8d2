package cmd

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/datasage-cli/internal/client"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the analysis service is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		hs, err := c.Health(cmd.Context())
		if err != nil {
			return errors.New(client.Message(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is %s (version %s, environment %s)\n", c.BaseURL(), hs.Status, hs.Version, hs.Environment)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
