package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yildizm/TabSum/internal/emoji"
	"github.com/yildizm/TabSum/internal/formatter"
	"github.com/yildizm/TabSum/internal/monitor"
)

var chartsDir string

func newChartsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "charts <file>",
		Short: "Export the charts of a file as PNG images",
		Long: `Analyze a file and write every chart returned by the backend to a
directory, one <column>.png per column. Columns the backend could not plot
are listed and skipped.

Examples:
  tabsum charts sales.csv
  tabsum charts --dir ./out/charts sales.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: runCharts,
	}

	cmd.Flags().StringVarP(&chartsDir, "dir", "d", "", "output directory (default from config charts.export_dir)")

	return cmd
}

func runCharts(cmd *cobra.Command, args []string) error {
	dir := chartsDir
	if dir == "" {
		dir = GetGlobalConfig().Charts.ExportDir
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newBackendClient(GetGlobalConfig())
	if err != nil {
		return err
	}
	_, report, err := analyzeFile(ctx, client, args[0])
	if err != nil {
		return err
	}

	var paths []string
	err = stats.TrackOperationWithError(monitor.OperationExport, func() error {
		var err error
		paths, err = formatter.ExportCharts(dir, report.Analysis, nil)
		return err
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, path := range paths {
		fmt.Fprintf(out, "%s %s\n", emoji.GetEmoji("export"), path)
	}
	for _, entry := range formatter.Charts(report.Analysis) {
		if entry.Err != nil {
			fmt.Fprintf(out, "%s %s skipped: %s\n", emoji.GetEmoji("warning"), entry.Column, entry.Describe())
		}
	}
	fmt.Fprintf(out, "%s Exported %d of %d chart(s) to %s\n",
		emoji.GetEmoji("charts"), len(paths), report.Analysis.ChartCount(), dir)
	return nil
}
