package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/nconklindev/rollup/internal/export"
	"github.com/nconklindev/rollup/internal/logging"

	"github.com/spf13/cobra"
)

func newAptitudeCmd(a *app) *cobra.Command {
	var (
		file string
		out  string
	)

	cmd := &cobra.Command{
		Use:   "aptitude",
		Short: "Build the aptitude test report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setupLogger(logging.ToStderr); err != nil {
				return err
			}
			defer a.close()

			records, err := a.pipeline(a.cfg.Attendance.ThresholdRatio).RunAptitude(cmd.Context(), file, nil)
			if err != nil {
				return err
			}

			if out == "" {
				out = filepath.Join(a.cfg.Output.Dir, export.DefaultName("aptitude", ".xlsx"))
			}
			if err := export.Aptitude(out, records); err != nil {
				return fmt.Errorf("export %s: %w", out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Records: %d\nOutput: %s\n", len(records), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Aptitude results workbook")
	cmd.Flags().StringVar(&out, "out", "", "Output file (.xlsx or .csv)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
