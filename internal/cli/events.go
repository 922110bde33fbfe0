package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/opencode-ai/sequencer/internal/db"
	"github.com/opencode-ai/sequencer/internal/models"
	"github.com/spf13/cobra"
)

var (
	eventsTimeline string
	eventsType     string
	eventsSince    time.Duration
	eventsLimit    int
	eventsCursor   string
)

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().StringVar(&eventsTimeline, "timeline", "", "only events of this timeline")
	eventsCmd.Flags().StringVar(&eventsType, "type", "", "only events of this type (e.g. timeline.finished)")
	eventsCmd.Flags().DurationVar(&eventsSince, "since", 0, "only events newer than this (e.g. 1h)")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 50, "maximum events to show")
	eventsCmd.Flags().StringVar(&eventsCursor, "cursor", "", "continue after this event ID")
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recorded playback events",
	Long:  "Show events recorded by play when the event log is enabled (events.enabled or play --record).",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg := GetConfig()

		if _, err := os.Stat(cfg.Events.DatabasePath); os.IsNotExist(err) {
			return fmt.Errorf("no event log at %s (enable events.enabled or use play --record)", cfg.Events.DatabasePath)
		}

		database, err := openEventLog(ctx, cfg.Events.DatabasePath)
		if err != nil {
			return err
		}
		defer database.Close()

		page, err := db.NewEventRepository(database).Query(ctx, buildEventQuery(time.Now()))
		if err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			if IsJSONLOutput() {
				return WriteOutput(os.Stdout, page.Events)
			}
			return WriteOutput(os.Stdout, map[string]any{
				"events":      page.Events,
				"next_cursor": page.NextCursor,
			})
		}

		if len(page.Events) == 0 {
			fmt.Println("No events")
			return nil
		}

		rows := make([][]string, 0, len(page.Events))
		for _, event := range page.Events {
			rows = append(rows, []string{
				event.Timestamp.Local().Format("15:04:05.000"),
				event.EntityID,
				string(event.Type),
				formatEventPayload(event),
			})
		}
		if err := writeTable(os.Stdout, []string{"TIME", "TIMELINE", "TYPE", "DETAIL"}, rows); err != nil {
			return err
		}
		if page.NextCursor != "" {
			fmt.Printf("\nMore events: --cursor %s\n", page.NextCursor)
		}
		return nil
	},
}

func buildEventQuery(now time.Time) db.EventQuery {
	entityType := models.EntityTypeTimeline
	q := db.EventQuery{
		EntityType: &entityType,
		Limit:      eventsLimit,
		Cursor:     strings.TrimSpace(eventsCursor),
	}
	if name := strings.TrimSpace(eventsTimeline); name != "" {
		q.EntityID = &name
	}
	if typ := strings.TrimSpace(eventsType); typ != "" {
		eventType := models.EventType(typ)
		q.Type = &eventType
	}
	if eventsSince > 0 {
		since := now.Add(-eventsSince)
		q.Since = &since
	}
	return q
}

func formatEventPayload(event *models.Event) string {
	if len(event.Payload) == 0 {
		return ""
	}
	text := strings.TrimSpace(string(event.Payload))
	const maxLen = 80
	if len(text) > maxLen {
		text = text[:maxLen-3] + "..."
	}
	return text
}
