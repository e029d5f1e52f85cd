package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yildizm/TabSum/internal/backend"
	"github.com/yildizm/TabSum/internal/emoji"
	"github.com/yildizm/TabSum/internal/monitor"
)

var healthTimeout time.Duration

func newHealthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the analysis backend is reachable",
		Args:  cobra.NoArgs,
		RunE:  runHealth,
	}

	cmd.Flags().DurationVar(&healthTimeout, "timeout", 5*time.Second, "how long to wait for the backend")

	return cmd
}

func runHealth(cmd *cobra.Command, args []string) error {
	client, err := newBackendClient(GetGlobalConfig())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
	defer cancel()

	var status *backend.HealthStatus
	err = stats.TrackOperationWithError(monitor.OperationHealth, func() error {
		var err error
		status, err = client.Health(ctx)
		return err
	})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", emoji.GetEmoji("error"), backend.UserMessage(err))
		return fmt.Errorf("backend at %s is unavailable: %w", client.BaseURL(), err)
	}

	state := status.Status
	if state == "" {
		state = "reachable"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Backend at %s is %s\n", emoji.GetEmoji("health"), client.BaseURL(), state)
	if status.Message != "" && isVerbose() {
		fmt.Fprintf(cmd.OutOrStdout(), "   %s\n", status.Message)
	}
	return nil
}
