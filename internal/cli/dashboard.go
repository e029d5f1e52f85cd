package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yildizm/TabSum/internal/logger"
	"github.com/yildizm/TabSum/internal/ui"
)

var (
	dashboardDir   string
	dashboardTheme string
)

func newDashboardCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dashboard [file]",
		Aliases: []string{"ui"},
		Short:   "Open the interactive dashboard",
		Long: `Open the interactive dashboard. Pick a CSV or Excel file, upload it for
analysis, then choose a group and a value column to compare.

With a file argument the dashboard opens on that file, ready to upload.
Press ? inside the dashboard for key bindings.

Examples:
  tabsum dashboard
  tabsum dashboard sales.csv
  tabsum dashboard --dir ~/data --theme high-contrast`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDashboard,
	}

	cmd.Flags().StringVar(&dashboardDir, "dir", "", "directory shown by the file picker (default from config ui.start_dir)")
	cmd.Flags().StringVar(&dashboardTheme, "theme", "", "color theme (default, high-contrast, minimal)")

	return cmd
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()

	// The dashboard owns the terminal; logs go to the configured file or nowhere
	if cfg.Log.File == "" {
		logger.Discard()
	}

	theme := dashboardTheme
	if theme == "" {
		theme = cfg.UI.Theme
	}
	if !ui.SetThemeByName(theme) {
		return fmt.Errorf("unknown theme: %s (available: %s)", theme, strings.Join(ui.GetAvailableThemes(), ", "))
	}
	color := useColor()
	ui.SetColorDisabled(!color)

	client, err := newBackendClient(cfg)
	if err != nil {
		return err
	}
	sess := newSession(client)

	startDir := dashboardDir
	if startDir == "" {
		startDir = cfg.UI.StartDir
	}
	if len(args) == 1 {
		f, err := loadFile(args[0])
		if err != nil {
			return err
		}
		if err := sess.SelectFile(f); err != nil {
			return err
		}
		if dashboardDir == "" {
			startDir = filepath.Dir(args[0])
		}
	}

	return ui.Run(sess, ui.Options{
		Context:   cmd.Context(),
		StartDir:  startDir,
		ExportDir: cfg.Charts.ExportDir,
		Color:     color,
		Logger:    logger.NewWithCallback("ui", isVerbose),
	})
}
