package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/datasage-cli/internal/client"
	"github.com/KaramelBytes/datasage-cli/internal/intake"
	"github.com/KaramelBytes/datasage-cli/internal/logging"
	"github.com/KaramelBytes/datasage-cli/internal/render"
	"github.com/KaramelBytes/datasage-cli/internal/utils"
	"github.com/KaramelBytes/datasage-cli/internal/workflow"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	anaFormat     string
	anaOutputPath string
	anaAccept     string
	anaMaxSizeMB  int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Upload a CSV/Excel file for analysis and print its data profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		policy := commandPolicy(cmd)

		surface := intake.NewSurface(policy)
		f, ok := surface.Handle(intake.PickerChange{Paths: []string{args[0]}})
		if !ok {
			return errors.New(surface.Error())
		}

		wf := newWorkflow()
		out := cmd.ErrOrStderr()
		fmt.Fprintf(out, "Uploading %s (%s) to %s...\n", f.Name, humanize.IBytes(uint64(f.SizeBytes)), currentConfig().APIURL)
		pending, err := wf.Submit(cmd.Context(), f, policy)
		if err != nil {
			return err
		}
		state, _ := pending.Wait()
		switch s := state.(type) {
		case workflow.Failed:
			return errors.New(s.Message)
		case workflow.Succeeded:
			fmt.Fprintf(out, "✓ Analysis complete (report %s)\n", s.Report.ID)
			return writeReport(cmd, s)
		}
		return fmt.Errorf("unexpected session state: %s", state.Phase())
	},
}

func writeReport(cmd *cobra.Command, s workflow.Succeeded) error {
	if anaFormat == "" && anaOutputPath == "" {
		fmt.Fprintln(cmd.OutOrStdout(), render.View(s.Report))
		return nil
	}
	b, err := render.Export(s.Report, anaFormat)
	if err != nil {
		return err
	}
	if anaOutputPath == "" {
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(b), "\n"))
		return nil
	}
	if err := utils.SafeWriteFile(anaOutputPath, b); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote analysis to %s\n", anaOutputPath)
	return nil
}

// commandPolicy applies --accept/--max-size-mb over the configured policy.
func commandPolicy(cmd *cobra.Command) intake.Policy {
	p := currentConfig().Policy()
	if cmd.Flags().Changed("accept") {
		p.Accept = intake.ParseAccept(anaAccept)
	}
	if cmd.Flags().Changed("max-size-mb") && anaMaxSizeMB > 0 {
		p.MaxSizeBytes = int64(anaMaxSizeMB) * 1024 * 1024
	}
	return p
}

func newClient() *client.Client {
	c := currentConfig()
	return client.New(c.APIURL, c.HTTPTimeout()).WithLogger(logging.New("client"))
}

func newWorkflow() *workflow.Workflow {
	return workflow.New(newClient(), workflow.WithLogger(logging.New("workflow")))
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaFormat, "format", "f", "", "output format: md|json|yaml (default: styled terminal view)")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report (Markdown unless --format is set)")
	analyzeCmd.Flags().StringVar(&anaAccept, "accept", "", "comma-separated accepted extensions/media types (default from config)")
	analyzeCmd.Flags().IntVar(&anaMaxSizeMB, "max-size-mb", 0, "maximum upload size in MiB (default from config)")
}
