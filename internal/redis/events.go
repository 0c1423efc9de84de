package redis

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/playmatatu/pocketpool/internal/game"
	"github.com/playmatatu/pocketpool/internal/logging"
)

// EventsChannel carries table notifications between server instances.
const EventsChannel = "table_events"

// Envelope is the pub/sub payload: a notification tagged with the instance
// that produced it.
type Envelope struct {
	Origin       string            `json:"origin"`
	Notification game.Notification `json:"notification"`
}

// Publisher forwards session notifications to EventsChannel. It implements
// game.Outbox; snapshots are not relayed.
type Publisher struct {
	rdb    *redis.Client
	origin string
	queue  chan game.Notification
	log    *zap.Logger
}

// NewPublisher returns a publisher with a fresh origin id. Call Run to start
// publishing.
func NewPublisher(rdb *redis.Client, log *zap.Logger) *Publisher {
	return &Publisher{
		rdb:    rdb,
		origin: uuid.NewString(),
		queue:  make(chan game.Notification, 256),
		log:    logging.OrNop(log).Named("redis"),
	}
}

// Origin identifies this instance on the channel.
func (p *Publisher) Origin() string { return p.origin }

func (p *Publisher) Deliver(n game.Notification) {
	if n.Type == game.NotifySnapshot {
		return
	}
	select {
	case p.queue <- n:
	default:
		p.log.Warn("publish queue full, dropping event", zap.String("type", string(n.Type)), zap.String("session_id", n.SessionID))
	}
}

// Run publishes queued notifications until ctx is canceled.
func (p *Publisher) Run(ctx context.Context) {
	p.log.Info("event publisher started", zap.String("origin", p.origin))
	for {
		select {
		case <-ctx.Done():
			p.log.Info("event publisher stopping")
			return
		case n := <-p.queue:
			data, err := json.Marshal(Envelope{Origin: p.origin, Notification: n})
			if err != nil {
				p.log.Error("failed to encode event", zap.Error(err))
				continue
			}
			if err := p.rdb.Publish(ctx, EventsChannel, data).Err(); err != nil {
				p.log.Warn("failed to publish event", zap.String("type", string(n.Type)), zap.Error(err))
			}
		}
	}
}

// Subscribe delivers notifications published by other instances to out
// until ctx is canceled. Events with the given origin are skipped.
func Subscribe(ctx context.Context, rdb *redis.Client, origin string, out game.Outbox, log *zap.Logger) {
	log = logging.OrNop(log).Named("redis")
	pubsub := rdb.Subscribe(ctx, EventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	log.Info("event subscriber started", zap.String("channel", EventsChannel))
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			env, err := DecodeEnvelope(msg.Payload)
			if err != nil {
				log.Warn("invalid event payload", zap.Error(err))
				continue
			}
			if env.Origin == origin {
				continue
			}
			out.Deliver(env.Notification)
		}
	}
}

// DecodeEnvelope parses one pub/sub payload.
func DecodeEnvelope(payload string) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal([]byte(payload), &env)
	return env, err
}
