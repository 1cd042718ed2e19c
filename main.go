package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/antonio59/standard-notes-kanban/api"
	"github.com/antonio59/standard-notes-kanban/board"
	"github.com/antonio59/standard-notes-kanban/bridge"
	"github.com/antonio59/standard-notes-kanban/config"
	"github.com/antonio59/standard-notes-kanban/transport"
)

// hostBacklog covers the handshake messages sent before the host connects.
const hostBacklog = 4

// listener is a host transport that also delivers inbound host messages.
type listener interface {
	bridge.Transport
	Listen(ctx context.Context, deliver func([]byte))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := log.New()
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		logger.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		host       bridge.Transport
		hostStream api.Stream
		inbound    listener
	)
	switch cfg.Transport {
	case config.TransportRedis:
		rc := redis.NewClient(transport.ParseRedisOptions(cfg.RedisConnectionString))
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
		ch := transport.NewRedisChannel(rc, cfg.RedisOutboundChannel, cfg.RedisInboundChannel, logger)
		host, inbound = ch, ch
	case config.TransportAzQueue:
		if err := transport.EnsureQueues(ctx, cfg.StorageConnectionString, cfg.OutboundQueue, cfg.InboundQueue); err != nil {
			log.Fatalf("create queues: %v", err)
		}
		ch, err := transport.NewQueueChannel(cfg.StorageConnectionString, cfg.OutboundQueue, cfg.InboundQueue, cfg.QueuePollInterval, logger)
		if err != nil {
			log.Fatalf("queue: %v", err)
		}
		host, inbound = ch, ch
	default:
		broker := transport.NewBacklogBroker(hostBacklog)
		host, hostStream = broker, broker
	}

	updates := transport.NewBroker()
	comp := board.New(host, updates, logger, board.Options{
		Policy:          cfg.Policy,
		FallbackTimeout: cfg.FallbackTimeout,
	})
	if inbound != nil {
		go inbound.Listen(ctx, comp.Inbound)
	}
	go func() {
		if err := comp.Run(ctx); err != nil {
			logger.Errorf("board: %v", err)
			stop()
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentEncoding},
	}))
	api.Register(e, comp, updates, logger, api.Options{
		HostToken:     cfg.HostToken,
		HostBodyLimit: cfg.HostBodyLimit,
		HostStream:    hostStream,
	})

	go func() {
		<-ctx.Done()
		if err := e.Shutdown(context.Background()); err != nil {
			logger.Errorf("shutdown: %v", err)
		}
	}()
	logger.WithFields(log.Fields{"addr": cfg.ListenAddr, "transport": cfg.Transport}).Info("kanban board listening")
	if err := e.Start(cfg.ListenAddr); err != nil && ctx.Err() == nil {
		e.Logger.Fatal(err)
	}
}
