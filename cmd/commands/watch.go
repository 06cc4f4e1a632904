package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"teleprompter-tracker/internal/events"
)

var (
	watchSince time.Duration
	watchJSON  bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print tracker events published to Kafka",
	Long: `Watch reads the position and session topics (KAFKA_TOPIC_POSITION,
KAFKA_TOPIC_SESSION) from KAFKA_BROKERS and prints every event until
interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		k := application.Cfg.Kafka
		consumer := events.NewConsumer(events.ConsumerConfig{
			Brokers: k.Brokers,
			Topics:  []string{k.TopicPosition, k.TopicSession},
			Since:   watchSince,
		})

		enc := json.NewEncoder(os.Stdout)
		return consumer.Run(cmd.Context(), func(ev events.Event) {
			if watchJSON {
				if ev.Position != nil {
					enc.Encode(ev.Position)
				} else {
					enc.Encode(ev.Session)
				}
				return
			}
			switch {
			case ev.Position != nil:
				p := ev.Position
				fmt.Printf("%s position start=%d search=%d end=%d bounds=%d word=%q\n",
					p.TrackerID, p.Start, p.Search, p.End, p.Bounds, p.Word)
			case ev.Session.Error != "":
				fmt.Printf("%s %s fatal=%t: %s\n", ev.Session.TrackerID, ev.Session.EventType, ev.Session.Fatal, ev.Session.Error)
			default:
				fmt.Printf("%s %s\n", ev.Session.TrackerID, ev.Session.EventType)
			}
		})
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchSince, "since", time.Hour, "replay events from this far back, 0 = new events only")
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "print events as JSON")
}
