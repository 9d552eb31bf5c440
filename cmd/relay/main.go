package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-order-relay/internal/config"
	"github.com/ariefcatur/go-order-relay/internal/httpx"
	kafkax "github.com/ariefcatur/go-order-relay/internal/kafka"
	"github.com/ariefcatur/go-order-relay/internal/notify"
	"github.com/ariefcatur/go-order-relay/internal/orders"
	"github.com/ariefcatur/go-order-relay/internal/postgres"
	"github.com/ariefcatur/go-order-relay/internal/redisx"
	"github.com/ariefcatur/go-order-relay/internal/relay"
	"github.com/ariefcatur/go-order-relay/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log = log.With("service", cfg.ServiceName)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("relay stopped", "error", err)
		os.Exit(1)
	}
	log.Info("relay stopped")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, postgres.PoolOptions{
		MaxConns: int32(cfg.PGMaxConns),
		MinConns: 1,
		AppName:  cfg.ServiceName,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}
	if err := postgres.EnsureRestaurant(ctx, db, cfg.RestaurantID); err != nil {
		return err
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Telegram
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return err
	}
	chats := telegram.Chats{Cashier: cfg.CashierChatID, Channel: cfg.ChannelID, Complaints: cfg.ComplaintsChatID}
	sender := notify.NewRetrySender(
		telegram.NewClient(bot, chats),
		notify.NewLimiter(cfg.RateMaxCalls, cfg.RatePeriod),
		&orders.TrackingRepo{DB: db},
		notify.RetryConfig{MaxAttempts: cfg.RetryMax, Base: cfg.RetryBase, Source: cfg.ServiceName},
		log,
	)

	// Kafka producer for lifecycle events
	prodCtx, stopProducer := context.WithCancel(context.Background())
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderEvents, 1024, log)
	prod.Start(prodCtx)
	defer func() {
		stopProducer()
		prod.WaitClosed()
	}()

	repo := &orders.Repo{DB: db}
	delivery := &orders.DeliveryService{Store: &orders.DeliveryRepo{DB: db}}
	statusCache := &redisx.StatusCache{RDB: rdb, Log: log}

	rl := relay.New(relay.Config{
		RestaurantID: cfg.RestaurantID,
		LocationWait: cfg.LocationWait,
		LocationPoll: cfg.LocationPoll,
		PostSpacing:  cfg.PostSpacing,
	}, relay.Deps{
		Sender:    sender,
		Orders:    repo,
		Snapshots: &orders.SnapshotRepo{DB: db},
		Delivery:  delivery,
		Events:    &kafkax.LifecycleEvents{P: prod, Producer: cfg.ServiceName, Log: log},
		Dedup:     &redisx.Deduper{RDB: rdb, Service: cfg.ServiceName, Log: log},
		Status:    statusCache,
		Log:       log,
	})
	if n, err := rl.Restore(ctx); err != nil {
		log.Error("could not restore pending orders", "action", "persistence_failed", "error", err)
	} else {
		log.Info("pending orders restored", "count", n)
	}

	// HTTP
	router := httpx.NewRouter()
	(&httpx.OrdersHandler{Live: rl.Registry(), Cache: statusCache, Durable: repo, Stats: rl}).Register(router)
	(&httpx.DeliveryHandler{Svc: delivery}).Register(router)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: httpx.WithCORS(router, cfg.CORSOrigins)}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		p := &telegram.Poller{Bot: bot, Chats: chats, Handler: rl, Workers: cfg.Workers, Log: log}
		if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroup, cfg.InboundTopic, cfg.Workers, log)
		log.Info("channel consumer started", "group", cfg.KafkaGroup, "topic", cfg.InboundTopic, "workers", cfg.Workers)
		return cons.Start(ctx, (&kafkax.ChannelEvents{Sink: rl, Log: log}).Handle)
	})
	return g.Wait()
}
