package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/resolution-tracker/internal/realtime"
	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Realtime room commands",
	Long:  `Publish to and watch the per-resolution realtime rooms`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [resolution-id] [event-type]",
	Short: "Publish an event to a resolution room",
	Long:  `Publish a raw event (newInteraction, newProgress, statusChanged) to every client watching a resolution`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishRoomEvent(cmd.Context(), args[0], realtime.EventType(args[1]))
	},
}

var watchEventCmd = &cobra.Command{
	Use:   "watch [resolution-id]",
	Short: "Print every event sent to a resolution room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchRoom(args[0])
	},
}

var eventData string

func redisFromConfig() (*realtime.Publisher, *realtime.RedisChannel, func(), error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Realtime.RedisURL == "" {
		return nil, nil, nil, fmt.Errorf("realtime.redis_url is not configured")
	}
	client, err := realtime.NewRedisClient(cfg.Realtime.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	prefix := cfg.Realtime.Prefix()
	closeFn := func() { _ = client.Close() }
	return realtime.NewPublisher(client, prefix), realtime.NewRedisChannel(client, prefix, logger.L()), closeFn, nil
}

func publishRoomEvent(ctx context.Context, resolutionID string, eventType realtime.EventType) error {
	publisher, _, closeFn, err := redisFromConfig()
	if err != nil {
		return err
	}
	defer closeFn()

	var payload interface{}
	if err := json.Unmarshal([]byte(eventData), &payload); err != nil {
		return fmt.Errorf("--data must be JSON: %w", err)
	}
	ev, err := realtime.NewEvent(eventType, resolutionID, payload)
	if err != nil {
		return err
	}
	if err := publisher.Publish(ctx, ev); err != nil {
		return err
	}
	logger.L().Info("event published", "resolution_id", resolutionID, "event_type", eventType)
	return nil
}

func watchRoom(resolutionID string) error {
	_, channel, closeFn, err := redisFromConfig()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rooms := realtime.NewAdapter(channel, logger.L())
	defer rooms.Close()

	enc := json.NewEncoder(os.Stdout)
	err = rooms.Join(ctx, resolutionID, func(ev realtime.Event) {
		_ = enc.Encode(ev)
	})
	if err != nil {
		return err
	}
	logger.L().Info("watching room. Press Ctrl+C to stop.", "resolution_id", resolutionID)
	<-ctx.Done()
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "{}", "JSON payload of the event")

	eventCmd.AddCommand(publishEventCmd)
	eventCmd.AddCommand(watchEventCmd)

	rootCmd.AddCommand(eventCmd)
}
