package notify

import (
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"vehiclerental/model"
)

const Topic = "booking-events"

// Notifier pushes booking lifecycle events to whoever renders user
// notifications. Emission is fire-and-forget: a publish failure is logged
// and never rolls back the transition that triggered it. Duplicate
// suppression comes for free, events are only emitted by the caller that
// won the status compare-and-swap.
type Notifier struct {
	pub message.Publisher
	log *slog.Logger
}

func New(pub message.Publisher, log *slog.Logger) *Notifier {
	return &Notifier{pub: pub, log: log}
}

func (n *Notifier) Emit(ev model.BookingEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		n.log.Error("marshal booking event", "type", ev.Type, "err", err)
		return
	}
	msg := message.NewMessage(uuid.NewString(), b)
	msg.Metadata.Set("type", string(ev.Type))

	if err := n.pub.Publish(Topic, msg); err != nil {
		n.log.Error("publish booking event",
			"type", ev.Type, "booking_code", ev.BookingCode, "err", err)
	}
}

// NewRedisPublisher wires the default production publisher.
func NewRedisPublisher(client *redis.Client, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: client,
	}, logger)
}
