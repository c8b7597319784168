package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/resolution-tracker/internal"
	"github.com/frahmantamala/resolution-tracker/internal/authority"
	"github.com/frahmantamala/resolution-tracker/internal/timeline"
	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

var timelineToken string

var timelineCmd = &cobra.Command{
	Use:   "timeline [resolution-id]",
	Short: "Print the history of a resolution",
	Long:  `Fetch the event history of a resolution from the authority and print it as a table`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}

		ctx := context.Background()
		if timelineToken != "" {
			ctx = internal.ContextWithToken(ctx, timelineToken)
		}

		client := authority.NewClient(cfg.Authority, logger.L())
		items, err := client.FetchTimeline(ctx, args[0])
		if err != nil {
			return err
		}
		timeline.Render(os.Stdout, timeline.Build(items))
		return nil
	},
}

func init() {
	timelineCmd.Flags().StringVar(&timelineToken, "token", "", "access token (defaults to authority.token)")
	rootCmd.AddCommand(timelineCmd)
}
