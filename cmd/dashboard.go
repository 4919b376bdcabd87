package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/asreview-stats/internal/config"
	"github.com/naka-gawa/asreview-stats/internal/gateway"
	"github.com/naka-gawa/asreview-stats/internal/render"
	"github.com/naka-gawa/asreview-stats/internal/usecase"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Prints the dashboard counters of an ASReview LAB server",
	Long: `Fetches the dashboard statistics once and prints the four counters.
A counter that the server does not report, or reports as zero, is printed as 0.
If the server cannot be reached every counter is printed as 0.`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().String("url", "", "ASReview LAB server URL (default $ASREVIEW_URL or "+config.DefaultURL+")")
	dashboardCmd.Flags().String("token", "", "Bearer token for the server (default $ASREVIEW_TOKEN)")
	dashboardCmd.Flags().Duration("timeout", 0, "Request timeout (default $ASREVIEW_TIMEOUT or 10s)")
	dashboardCmd.Flags().StringP("output", "o", render.FormatText, "Output format: text or json")
	dashboardCmd.Flags().Bool("live", false, "Print the counters before the fetch completes and again when it does")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	cfg, err := config.LoadConfig()
	if errors.Is(err, config.ErrNoEnvFile) {
		logger.WithError(err).Debug("Continuing without .env")
	} else if err != nil {
		return err
	}

	// Flags override the environment.
	if url, _ := cmd.Flags().GetString("url"); url != "" {
		cfg.URL = url
	}
	if token, _ := cmd.Flags().GetString("token"); token != "" {
		cfg.Token = token
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.Timeout = timeout
	}
	output, _ := cmd.Flags().GetString("output")
	live, _ := cmd.Flags().GetBool("live")

	renderer, err := render.New(output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	asreviewGateway, err := gateway.NewASReviewGateway(gateway.Options{
		BaseURL: cfg.URL,
		Token:   cfg.Token,
		Timeout: cfg.Timeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create ASReview gateway: %w", err)
	}

	query := usecase.NewStatsQuery(asreviewGateway, logger)
	panel := usecase.NewStatsPanel(query, renderer, logger)

	if live {
		unmount, done := panel.Mount(cmd.Context())
		<-done
		unmount()
		return nil
	}

	if err := query.Fetch(cmd.Context()); err != nil {
		logger.WithError(err).Warn("Could not fetch dashboard stats; showing zeros")
	}
	return panel.Render()
}
