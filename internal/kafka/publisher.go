package kafka

import (
	"context"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

// EventPublisher adapts Producer to catalog.Publisher.
type EventPublisher struct {
	Producer *Producer
}

var _ catalog.Publisher = EventPublisher{}

func (p EventPublisher) Publish(_ context.Context, topic string, key []byte, env catalog.Envelope) {
	p.Producer.Publish(topic, key, MustMarshal(env),
		kafka.Header{Key: "x-event-type", Value: []byte(env.EventType)},
		kafka.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(env.EventVersion))},
	)
}
