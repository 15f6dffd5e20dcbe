package analytics

import (
	"context"
	"fmt"

	"github.com/vnadhan/Inverted-Index/pkg/kafka"
)

// HandleEvent feeds analytics messages read from Kafka into agg. Messages
// are routed by the key the Collector published them with.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(_ context.Context, key []byte, value []byte) error {
		switch string(key) {
		case "search":
			event, err := kafka.DecodeJSON[SearchEvent](value)
			if err != nil {
				return err
			}
			agg.Record(event)
		case "corpus":
			event, err := kafka.DecodeJSON[CorpusEvent](value)
			if err != nil {
				return err
			}
			agg.RecordCorpus(event)
		default:
			return fmt.Errorf("unknown analytics event key %q", key)
		}
		return nil
	}
}
