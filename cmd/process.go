package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/nconklindev/rollup/internal/export"
	"github.com/nconklindev/rollup/internal/logging"
	"github.com/nconklindev/rollup/internal/pipeline"

	"github.com/spf13/cobra"
)

func newProcessCmd(a *app) *cobra.Command {
	var (
		rosterPath string
		tracks     []string
		department string
		threshold  float64
		out        string
		useCache   bool
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Build the attendance report for one department",
		Long: `Build the attendance report from a roster and two or more track workbooks.

Example: rollup process --roster roster.xlsx --track java.xlsx --track python.xlsx --department COMP`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setupLogger(logging.ToStderr); err != nil {
				return err
			}
			defer a.close()

			if rosterPath == "" && useCache {
				if department == "" {
					return errors.New("--use-cache needs --department")
				}
				p, err := a.cache().Load(department)
				if err != nil {
					return err
				}
				rosterPath = p
			} else if rosterPath != "" && department != "" {
				if _, err := a.cache().Save(department, rosterPath); err != nil {
					a.logger.Warn("roster not cached",
						slog.String("department", department),
						slog.String("error", err.Error()))
				}
			}

			if cmd.Flags().Changed("threshold") {
				a.cfg.Attendance.ThresholdRatio = threshold
				if err := a.cfg.Validate(); err != nil {
					return fmt.Errorf("invalid --threshold %v: %w", threshold, err)
				}
			}

			res, err := a.pipeline(a.cfg.Attendance.ThresholdRatio).Run(cmd.Context(), pipeline.Request{
				Department: department,
				Roster:     rosterPath,
				Tracks:     tracks,
			}, nil)
			if err != nil {
				return err
			}

			if out == "" {
				out = filepath.Join(a.cfg.Output.Dir, export.DefaultName(department, ".xlsx"))
			}
			if err := export.Records(out, res.Records); err != nil {
				return fmt.Errorf("export %s: %w", out, err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Run: %s\n", res.RunID)
			fmt.Fprintf(w, "Records: %d\n", len(res.Records))
			fmt.Fprintf(w, "Students in tracks: %d\n", res.Students)
			fmt.Fprintf(w, "Sessions: %d\n", res.TotalSessions)
			fmt.Fprintf(w, "Tests: %d\n", res.TotalTests)
			fmt.Fprintf(w, "Output: %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&rosterPath, "roster", "", "Roster workbook (.xlsx or .csv)")
	cmd.Flags().StringArrayVar(&tracks, "track", nil, "Track workbook; repeat for each track")
	cmd.Flags().StringVar(&department, "department", "", "Department label, used for the cache and output name")
	cmd.Flags().Float64Var(&threshold, "threshold", 1.0, "Share of a lecture's length needed to count as attended")
	cmd.Flags().StringVar(&out, "out", "", "Output file (.xlsx or .csv)")
	cmd.Flags().BoolVar(&useCache, "use-cache", false, "Use the cached roster for --department when --roster is not given")

	return cmd
}
