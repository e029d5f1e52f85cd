package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yildizm/TabSum/internal/backend"
	"github.com/yildizm/TabSum/internal/session"
)

var (
	compareGroup      string
	compareValue      string
	compareChartsDir  string
	compareOutputFile string
)

func newCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <file>",
		Short: "Compare two columns of a file",
		Long: `Analyze a file, then ask the backend to compare two of its columns.

The comparison kind depends on the column types: group statistics for a
categorical and a numeric column, a correlation for two numeric columns and
a cross tabulation for two categorical columns.

Examples:
  tabsum compare sales.csv --group region --value revenue
  tabsum compare -o markdown survey.xlsx --group age --value income`,
		Args: cobra.ExactArgs(1),
		RunE: runCompare,
	}

	cmd.Flags().StringVarP(&compareGroup, "group", "g", "", "group (first) column")
	cmd.Flags().StringVar(&compareValue, "value", "", "value (second) column")
	cmd.Flags().StringVar(&compareChartsDir, "charts-dir", "", "export chart images to this directory")
	cmd.Flags().StringVar(&compareOutputFile, "output-file", "", "save output to file instead of stdout")

	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	// Checked before uploading so a missing column costs no request
	if compareGroup == "" || compareValue == "" {
		return errors.New(session.MsgSelectBothColumns)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newBackendClient(GetGlobalConfig())
	if err != nil {
		return err
	}

	sess, _, err := analyzeFile(ctx, client, args[0])
	if err != nil {
		return err
	}
	if err := selectColumns(sess, compareGroup, compareValue); err != nil {
		return err
	}
	if _, err := sess.Compare(ctx); err != nil {
		return fmt.Errorf("failed to compare %s and %s: %s", compareGroup, compareValue, backend.UserMessage(err))
	}

	report := reportFor(sess)
	if compareChartsDir != "" {
		if err := exportReportCharts(cmd, compareChartsDir, report); err != nil {
			return err
		}
	}

	output, err := formatReports(report)
	if err != nil {
		return err
	}
	return handleOutputDestination(cmd, output, compareOutputFile)
}

// selectColumns applies both selections, naming the available columns when
// one is not part of the analysis
func selectColumns(sess *session.Session, group, value string) error {
	for _, sel := range []struct {
		name   string
		apply  func(string) error
		column string
	}{
		{"group", sess.SelectGroupColumn, group},
		{"value", sess.SelectValueColumn, value},
	} {
		if err := sel.apply(sel.column); err != nil {
			if errors.Is(err, session.ErrUnknownColumn) {
				columns := sess.Snapshot().Columns()
				return fmt.Errorf("%s column %q not found (available: %s)", sel.name, sel.column, strings.Join(columns, ", "))
			}
			return err
		}
	}
	return nil
}
