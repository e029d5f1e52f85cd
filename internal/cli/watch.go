package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/yildizm/TabSum/internal/backend"
	"github.com/yildizm/TabSum/internal/emoji"
	"github.com/yildizm/TabSum/internal/session"
)

var (
	watchGroup    string
	watchValue    string
	watchDebounce time.Duration
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-analyze a file whenever it changes",
		Long: `Analyze a file, then watch it and upload it again each time it is saved.

With --group and --value the two columns are compared after every analysis.
Bursts of writes are coalesced into a single upload. Press Ctrl+C to stop.

Examples:
  tabsum watch sales.csv
  tabsum watch --group region --value revenue sales.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().StringVarP(&watchGroup, "group", "g", "", "group column to compare after each analysis")
	cmd.Flags().StringVar(&watchValue, "value", "", "value column to compare after each analysis")
	cmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet period before re-analyzing")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	filename := filepath.Clean(args[0])
	if (watchGroup == "") != (watchValue == "") {
		return fmt.Errorf("%s", session.MsgSelectBothColumns)
	}

	watcher, err := setupFileWatcher(filename)
	if err != nil {
		return err
	}
	defer cleanupWatcher(watcher)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newBackendClient(GetGlobalConfig())
	if err != nil {
		return err
	}
	sess := newSession(client)

	if isVerbose() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Watching file: %s\n", filename)
		fmt.Fprintf(cmd.ErrOrStderr(), "Press Ctrl+C to stop...\n\n")
	}

	refresh := func() {
		if err := reanalyze(ctx, cmd, sess, filename); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", emoji.GetEmoji("error"), err)
		}
	}
	refresh()

	return runWatchLoop(ctx, watcher, filename, watchDebounce, func() {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s changed at %s\n",
			emoji.GetEmoji("watch"), filename, time.Now().Format("15:04:05"))
		refresh()
	})
}

// reanalyze reloads filename into sess, uploads it and prints the report.
// The session is reused so a failed upload replaces the previous analysis.
func reanalyze(ctx context.Context, cmd *cobra.Command, sess *session.Session, filename string) error {
	f, err := loadFile(filename)
	if err != nil {
		return err
	}
	if err := sess.SelectFile(f); err != nil {
		return err
	}
	if _, err := sess.Analyze(ctx); err != nil {
		return fmt.Errorf("failed to analyze %s: %s", filename, backend.UserMessage(err))
	}

	if watchGroup != "" {
		if err := selectColumns(sess, watchGroup, watchValue); err != nil {
			return err
		}
		if _, err := sess.Compare(ctx); err != nil {
			return fmt.Errorf("failed to compare %s and %s: %s", watchGroup, watchValue, backend.UserMessage(err))
		}
	}

	output, err := formatReports(reportFor(sess))
	if err != nil {
		return err
	}
	return handleOutputDestination(cmd, output, "")
}

// cleanupWatcher safely closes watcher with error logging
func cleanupWatcher(watcher *fsnotify.Watcher) {
	if err := watcher.Close(); err != nil && isVerbose() {
		fmt.Fprintf(os.Stderr, "Warning: failed to close watcher: %v\n", err)
	}
}

// setupFileWatcher watches the directory holding filename. Editors often
// save by renaming a temp file over the original, which drops a watch
// placed on the file itself.
func setupFileWatcher(filename string) (*fsnotify.Watcher, error) {
	if err := validateWatchFilePath(filename); err != nil {
		return nil, fmt.Errorf("invalid file path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(filename)); err != nil {
		cleanupWatcher(watcher)
		return nil, fmt.Errorf("failed to watch file: %w", err)
	}
	return watcher, nil
}

// runWatchLoop calls onChange once events for target have been quiet for
// debounce. It returns when ctx is done.
func runWatchLoop(ctx context.Context, watcher *fsnotify.Watcher, target string, debounce time.Duration, onChange func()) error {
	target = filepath.Clean(target)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if isRelevantEvent(event, target) {
				timer.Reset(debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			if isVerbose() {
				fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
			}

		case <-timer.C:
			onChange()
		}
	}
}

// isRelevantEvent reports whether event changed the content of target
func isRelevantEvent(event fsnotify.Event, target string) bool {
	if filepath.Clean(event.Name) != target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

// validateWatchFilePath validates that a file path is safe to watch
func validateWatchFilePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty file path")
	}

	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("cannot watch directory, must be a file")
	}
	return nil
}
