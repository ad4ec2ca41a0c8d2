package cmd

import (
	"github.com/KaramelBytes/datasage-cli/internal/intake"
	"github.com/KaramelBytes/datasage-cli/internal/tui"
	"github.com/spf13/cobra"
)

var uiCmd = &cobra.Command{
	Use:   "ui [dir]",
	Short: "Pick or drop a file interactively and browse its profile",
	Long: `Opens an interactive upload surface. Browse with the file picker, or press tab
and paste a path (dragging a file onto most terminals pastes its path).
Press r after a result to start over, q to quit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) == 1 {
			dir = args[0]
		}
		surface := intake.NewSurface(currentConfig().Policy())
		return tui.Run(cmd.Context(), newWorkflow(), surface, dir)
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
}
