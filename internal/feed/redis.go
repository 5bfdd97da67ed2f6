package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisBridge публикует события в канал Redis и пересылает полученные из
// него сообщения в локальный Hub, чтобы клиенты любой реплики видели все
// оценки. Это только pub/sub: в Redis ничего не хранится.
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *slog.Logger
}

// NewRedisClient клиент Redis из настроек.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisBridge(client *redis.Client, channel string, hub *Hub, logger *slog.Logger) *RedisBridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBridge{client: client, channel: channel, hub: hub, logger: logger}
}

// Ping проверяет доступность Redis.
func (b *RedisBridge) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Publish отправляет событие в канал; до локальных клиентов оно дойдёт через Run.
func (b *RedisBridge) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event to Redis: %w", err)
	}
	return nil
}

// Run подписывается на канал и пересылает сообщения в Hub до отмены ctx.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}
	b.logger.Info("feed subscribed", slog.String("channel", b.channel))

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			b.relay(msg.Payload)
		}
	}
}

// relay пересылает только корректно разобранные события.
func (b *RedisBridge) relay(payload string) {
	var e Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil || e.ID == "" {
		b.logger.Warn("dropping malformed feed message", slog.String("channel", b.channel))
		return
	}
	b.hub.send([]byte(payload))
}

func (b *RedisBridge) Close() error {
	return b.client.Close()
}
