package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/yildizm/TabSum/internal/config"
	"github.com/yildizm/TabSum/internal/emoji"
	"github.com/yildizm/TabSum/internal/formatter"
	"github.com/yildizm/TabSum/internal/logger"
	"github.com/yildizm/TabSum/internal/monitor"
	"github.com/yildizm/TabSum/internal/ui"
)

// skipConfigAnnotation marks commands that load configuration themselves
const skipConfigAnnotation = "tabsum/skip-config"

var (
	cfgFile    string
	verbose    bool
	noColor    bool
	noEmoji    bool
	outputFmt  string
	backendURL string
	showStats  bool

	globalConfig *config.Config
	logCloser    io.Closer
	stats        *monitor.Collector
)

// NewRootCommand creates the root command
func NewRootCommand(version, commit, date string) *cobra.Command {
	globalConfig = nil
	stats = monitor.New()

	rootCmd := &cobra.Command{
		Use:   "tabsum",
		Short: "Terminal client for tabular data analysis",
		Long: `TabSum uploads CSV and Excel files to an analysis backend and shows
per-column statistics, charts and two-column comparisons.

Run "tabsum dashboard" for the interactive view, or use the analyze,
compare and charts commands for scripted use.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Auto-disable emojis on Windows if not explicitly set
			if runtime.GOOS == "windows" && !cmd.Flag("no-emoji").Changed {
				noEmoji = true
			}
			emoji.SetEmojiDisabled(noEmoji)

			if skipsConfig(cmd) {
				return nil
			}
			return loadGlobalConfig(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if showStats {
				if err := monitor.FormatText(cmd.ErrOrStderr(), stats.GetSnapshot()); err != nil {
					return err
				}
			}
			if logCloser == nil {
				return nil
			}
			err := logCloser.Close()
			logCloser = nil
			return err
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noEmoji, "no-emoji", false, "disable emoji output (useful for Windows terminals)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "", "output format (text, json, markdown, csv)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "backend base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "print request timings to stderr when done")

	rootCmd.AddCommand(newDashboardCommand())
	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newCompareCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newChartsCommand())
	rootCmd.AddCommand(newHealthCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Long:        "Display version number, build commit, date, and runtime information",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "TabSum %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// loadGlobalConfig resolves the effective configuration: files and
// environment first, then command line flags on top.
func loadGlobalConfig(cmd *cobra.Command) error {
	cfg, err := config.NewLoader().LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if backendURL != "" {
		cfg.Backend.BaseURL = backendURL
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.DefaultFormat = outputFmt
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if noColor {
		cfg.Output.ColorMode = "never"
	}
	if cfg.Output.NoEmoji && !noEmoji {
		noEmoji = true
		emoji.SetEmojiDisabled(true)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if _, err := formatter.New(cfg.Output.DefaultFormat, false); err != nil {
		return err
	}

	level := cfg.Log.Level
	if cfg.Output.Verbose {
		level = "debug"
	}
	closer, err := logger.Setup(level, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logCloser = closer
	globalConfig = cfg
	return nil
}

// skipsConfig reports whether cmd or one of its parents loads config itself
func skipsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfigAnnotation] == "true" {
			return true
		}
	}
	return false
}

// GetGlobalConfig returns the loaded configuration, or defaults before loading
func GetGlobalConfig() *config.Config {
	if globalConfig == nil {
		return config.DefaultConfig()
	}
	return globalConfig
}

// Global helpers
func isVerbose() bool {
	return GetGlobalConfig().Output.Verbose
}

func getOutputFormat() string {
	return GetGlobalConfig().Output.DefaultFormat
}

// useColor resolves the color mode against the terminal and NO_COLOR
func useColor() bool {
	switch GetGlobalConfig().Output.ColorMode {
	case "never":
		return false
	case "always":
		return true
	}
	if ui.IsColorDisabled() {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
