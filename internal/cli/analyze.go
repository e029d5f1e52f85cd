package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yildizm/TabSum/internal/emoji"
	"github.com/yildizm/TabSum/internal/formatter"
	"github.com/yildizm/TabSum/internal/monitor"
)

var (
	analyzeChartsDir  string
	analyzeOutputFile string
	analyzeJobs       int
)

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Analyze CSV or Excel files",
		Long: `Upload one or more CSV or Excel files to the backend and print the
per-column analysis.

Several files are analyzed concurrently; reports are printed in the order
the files were given.

Examples:
  tabsum analyze sales.csv
  tabsum analyze -o json q1.xlsx q2.xlsx
  tabsum analyze --charts-dir ./charts sales.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringVar(&analyzeChartsDir, "charts-dir", "", "export chart images to this directory")
	cmd.Flags().StringVar(&analyzeOutputFile, "output-file", "", "save output to file instead of stdout")
	cmd.Flags().IntVarP(&analyzeJobs, "jobs", "j", 4, "maximum concurrent uploads")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeJobs < 1 {
		return fmt.Errorf("--jobs must be at least 1")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newBackendClient(GetGlobalConfig())
	if err != nil {
		return err
	}

	reports := make([]*formatter.Report, len(args))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(analyzeJobs)
	for i, path := range args {
		g.Go(func() error {
			_, report, err := analyzeFile(gctx, client, path)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if analyzeChartsDir != "" {
		for i, report := range reports {
			dir := analyzeChartsDir
			if len(reports) > 1 {
				dir = filepath.Join(dir, chartSubdir(args[i]))
			}
			if err := exportReportCharts(cmd, dir, report); err != nil {
				return err
			}
		}
	}

	output, err := formatReports(reports...)
	if err != nil {
		return err
	}
	return handleOutputDestination(cmd, output, analyzeOutputFile)
}

// chartSubdir names the per-file chart directory used when several files
// are analyzed at once
func chartSubdir(path string) string {
	base := filepath.Base(path)
	return formatter.SafeFileName(strings.TrimSuffix(base, filepath.Ext(base)))
}

// exportReportCharts writes the report's charts and notes the result on stderr
func exportReportCharts(cmd *cobra.Command, dir string, report *formatter.Report) error {
	var paths []string
	err := stats.TrackOperationWithError(monitor.OperationExport, func() error {
		var err error
		paths, err = formatter.ExportCharts(dir, report.Analysis, report.Comparison)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to export charts for %s: %w", report.File, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s Exported %d chart(s) for %s to %s\n",
		emoji.GetEmoji("export"), len(paths), report.File, dir)
	return nil
}
