package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Atharrvac/vanadhikar-backend/internal/logger"
	"github.com/Atharrvac/vanadhikar-backend/internal/types"
	"github.com/Atharrvac/vanadhikar-backend/internal/utils"
)

const (
	EventClaimSubmitted = "ClaimSubmitted"
	EventClaimVerified  = "ClaimVerified"
	EventClaimDecided   = "ClaimDecided"
)

// DomainEvent is the envelope external notifiers subscribe to.
type DomainEvent struct {
	EventType string      `json:"eventType"`
	ClaimID   string      `json:"claimId"`
	Timestamp time.Time   `json:"timestamp"`
	Actor     types.Actor `json:"actor"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Notifier publishes domain events. Publishing is best-effort and must never
// block or fail a claim mutation.
type Notifier interface {
	Publish(ctx context.Context, event DomainEvent)
}

type redisNotifier struct {
	client  *redis.Client
	channel string
	log     *logger.Logger
}

func NewRedisNotifier(log *logger.Logger) Notifier {
	notifierLog := log.With("service", "RedisNotifier")
	addr := utils.GetEnv("REDIS_ADDR", "", log)
	if addr == "" {
		notifierLog.Warn("REDIS_ADDR not set, domain events will be dropped")
		return &redisNotifier{log: notifierLog}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: utils.GetEnv("REDIS_PASSWORD", "", log),
		DB:       utils.GetEnvAsInt("REDIS_DB", 0, log),
	})
	channel := utils.GetEnv("CLAIM_EVENTS_CHANNEL", "vanadhikar.claims.events", log)
	return &redisNotifier{client: client, channel: channel, log: notifierLog}
}

func (n *redisNotifier) Publish(ctx context.Context, event DomainEvent) {
	if n.client == nil {
		n.log.Debug("No event bus configured, dropping domain event", "event_type", event.EventType, "claim_id", event.ClaimID)
		return
	}
	raw, err := json.Marshal(event)
	if err != nil {
		n.log.Error("Failed to marshal domain event", "event_type", event.EventType, "error", err)
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := n.client.Publish(pubCtx, n.channel, raw).Err(); err != nil {
		n.log.Warn("Failed to publish domain event, dropping", "event_type", event.EventType, "claim_id", event.ClaimID, "error", err)
	}
}

// NoopNotifier drops all events; used in tests and when redis is absent.
type NoopNotifier struct{}

func (NoopNotifier) Publish(context.Context, DomainEvent) {}

// Ping reports event bus health for the healthcheck endpoint.
func NotifierPing(ctx context.Context, n Notifier) bool {
	rn, ok := n.(*redisNotifier)
	if !ok || rn.client == nil {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	return rn.client.Ping(pingCtx).Err() == nil
}
