package transport

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// ParseRedisOptions accepts either a redis:// URL or an Azure style
// "host:port,password=...,ssl=true" connection string.
func ParseRedisOptions(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}

// RedisChannel exchanges host messages over two pub/sub channels.
type RedisChannel struct {
	client   *redis.Client
	outbound string
	inbound  string
	logger   *log.Logger
	retry    time.Duration
}

// NewRedisChannel publishes to outbound and listens on inbound.
func NewRedisChannel(client *redis.Client, outbound, inbound string, logger *log.Logger) *RedisChannel {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &RedisChannel{client: client, outbound: outbound, inbound: inbound, logger: logger, retry: time.Second}
}

// Send publishes payload on the outbound channel.
func (r *RedisChannel) Send(ctx context.Context, payload []byte) error {
	return r.client.Publish(ctx, r.outbound, payload).Err()
}

// Listen delivers inbound payloads until ctx is done, resubscribing when the
// pub/sub connection drops.
func (r *RedisChannel) Listen(ctx context.Context, deliver func([]byte)) {
	for {
		sub := r.client.Subscribe(ctx, r.inbound)
		r.consume(ctx, sub.Channel(), deliver)
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		r.logger.Errorf("pubsub channel %s closed, reconnecting", r.inbound)
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.retry):
		}
	}
}

func (r *RedisChannel) consume(ctx context.Context, ch <-chan *redis.Message, deliver func([]byte)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			deliver([]byte(msg.Payload))
		}
	}
}
