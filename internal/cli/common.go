package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/yildizm/TabSum/internal/backend"
	"github.com/yildizm/TabSum/internal/config"
	"github.com/yildizm/TabSum/internal/formatter"
	"github.com/yildizm/TabSum/internal/logger"
	"github.com/yildizm/TabSum/internal/monitor"
	"github.com/yildizm/TabSum/internal/session"
	"github.com/yildizm/TabSum/internal/source"
)

// newBackendClient builds a backend client from the backend config section
func newBackendClient(cfg *config.Config) (*backend.Client, error) {
	client, err := backend.New(&backend.Config{
		BaseURL:           cfg.Backend.BaseURL,
		Timeout:           cfg.Backend.Timeout,
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
		Burst:             cfg.Backend.Burst,
		UserAgent:         cfg.Backend.UserAgent,
	}, backend.WithLogger(logger.NewWithCallback("backend", isVerbose)))
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	return client, nil
}

// newSession creates a session whose requests are tracked in stats
func newSession(b session.Backend) *session.Session {
	return session.New(monitor.Wrap(b, stats),
		session.WithTimeout(GetGlobalConfig().Backend.Timeout),
		session.WithLogger(logger.NewWithCallback("session", isVerbose)))
}

// loadFile validates path and reads it into a source file
func loadFile(path string) (*source.File, error) {
	if err := validateFilePath(path); err != nil {
		return nil, err
	}
	f, err := source.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return f, nil
}

// analyzeFile uploads path through a fresh session. The session is returned
// so callers can go on to compare columns.
func analyzeFile(ctx context.Context, b session.Backend, path string) (*session.Session, *formatter.Report, error) {
	f, err := loadFile(path)
	if err != nil {
		return nil, nil, err
	}

	sess := newSession(b)
	if err := sess.SelectFile(f); err != nil {
		return nil, nil, err
	}
	if _, err := sess.Analyze(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to analyze %s: %s", path, backend.UserMessage(err))
	}
	return sess, reportFor(sess), nil
}

// reportFor builds a report from the session's current state
func reportFor(sess *session.Session) *formatter.Report {
	view := sess.Snapshot()
	return &formatter.Report{
		File:        view.FileName,
		Analysis:    view.Analysis,
		Comparison:  view.Comparison,
		GeneratedAt: time.Now(),
	}
}

// formatReports renders reports with the configured output format
func formatReports(reports ...*formatter.Report) ([]byte, error) {
	f, err := formatter.New(getOutputFormat(), useColor())
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	for i, report := range reports {
		data, err := f.Format(report)
		if err != nil {
			return nil, fmt.Errorf("failed to format report for %s: %w", report.File, err)
		}
		if i > 0 {
			out.WriteString("\n")
		}
		out.Write(data)
	}
	return out.Bytes(), nil
}

// handleOutputDestination writes output to outputFile, or to the command's
// stdout when no file is given
func handleOutputDestination(cmd *cobra.Command, output []byte, outputFile string) error {
	if outputFile == "" {
		_, err := cmd.OutOrStdout().Write(output)
		return err
	}

	if err := writeOutputBytesToFile(output, outputFile); err != nil {
		return fmt.Errorf("failed to write output to file: %w", err)
	}
	if isVerbose() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Output saved to: %s\n", outputFile)
	}
	return nil
}

func validateFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty file path")
	}

	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", cleanPath)
		}
		return fmt.Errorf("cannot access file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", cleanPath)
	}
	if !source.Supported(cleanPath) {
		return fmt.Errorf("%s: %w", cleanPath, source.ErrUnsupportedFormat)
	}

	return nil
}

// writeOutputBytesToFile writes output to a file, creating parent directories
func writeOutputBytesToFile(output []byte, filePath string) error {
	cleanPath := filepath.Clean(filePath)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// #nosec G304 - output path is chosen by the user on the command line
	file, err := os.Create(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && isVerbose() {
			fmt.Fprintf(os.Stderr, "Warning: failed to close output file: %v\n", closeErr)
		}
	}()

	if _, err := file.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	// Sync to ensure data is written
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync output file: %w", err)
	}

	return nil
}
