package cli

import (
	"context"
	"errors"
	"fmt"
	"log"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ajcoder25/bookverse/internal/router"
	"github.com/ajcoder25/bookverse/pkg/address"
	"github.com/ajcoder25/bookverse/pkg/ai"
	"github.com/ajcoder25/bookverse/pkg/auth"
	"github.com/ajcoder25/bookverse/pkg/cart"
	"github.com/ajcoder25/bookverse/pkg/catalog"
	"github.com/ajcoder25/bookverse/pkg/checkout"
	"github.com/ajcoder25/bookverse/pkg/events"
	"github.com/ajcoder25/bookverse/pkg/global"
	"github.com/ajcoder25/bookverse/pkg/memstore"
	"github.com/ajcoder25/bookverse/pkg/mongo"
	"github.com/ajcoder25/bookverse/pkg/redis"
	"github.com/ajcoder25/bookverse/pkg/wishlist"
)

// backend is every store interface the services need.
type backend interface {
	cart.Store
	address.Store
	checkout.OrderStore
	wishlist.Store
	auth.UserStore
	catalog.BookStore
	router.Pinger
}

// app owns the long-lived clients so they can be closed on shutdown.
type app struct {
	handler   *router.Handler
	mongo     *mongo.Store
	redis     *goredis.Client
	publisher events.Publisher
}

func openMongo(ctx context.Context, cfg *global.Config) (*mongo.Store, error) {
	connectCtx, cancel := global.GetDefaultTimerFrom(ctx)
	defer cancel()
	return mongo.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
}

func openRedis(ctx context.Context, cfg *global.Config) (*goredis.Client, error) {
	client := redis.NewClient(cfg.RedisAddress, cfg.RedisPassword)

	pingCtx, cancel := global.GetDefaultTimerFrom(ctx)
	defer cancel()
	if err := redis.Ping(pingCtx, client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddress, err)
	}
	log.Println("Connected to Redis successfully")
	return client, nil
}

// newApp wires the services for cfg. Redis and RabbitMQ are optional; when
// they are not configured or unreachable the catalog runs uncached and order
// events are dropped.
func newApp(ctx context.Context, cfg *global.Config) (*app, error) {
	a := &app{publisher: events.Nop{}}

	var store backend
	switch cfg.StoreBackend {
	case "memory":
		log.Println("Using in-memory store; data is lost on restart")
		store = memstore.New()
	default:
		m, err := openMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.mongo = m
		store = m
	}

	var cache catalog.Cache
	if cfg.RedisAddress != "" {
		client, err := openRedis(ctx, cfg)
		if err != nil {
			log.Printf("Warning: catalog cache disabled: %v", err)
		} else {
			a.redis = client
			cache = redis.NewCatalogCache(client)
		}
	}

	if cfg.AMQPURL != "" {
		publisher, err := events.NewRabbitPublisher(cfg.AMQPURL, cfg.OrdersQueue)
		if err != nil {
			log.Printf("Warning: order events disabled: %v", err)
		} else {
			a.publisher = publisher
		}
	}

	carts := cart.NewEngine(store, cart.WithTimeout(cfg.StoreTimeout))
	addresses := address.NewEnforcer(store, address.WithTimeout(cfg.StoreTimeout))

	a.handler = &router.Handler{
		DB:        store,
		Carts:     carts,
		Addresses: addresses,
		Checkout:  checkout.NewService(carts, addresses, store, a.publisher),
		Wishlist:  wishlist.NewService(store),
		Auth:      auth.NewService(store, auth.NewTokens(cfg.JWTSecret)),
		Catalog: catalog.NewClient(cfg.CatalogBaseURL,
			catalog.WithAPIKey(cfg.CatalogAPIKey),
			catalog.WithCache(cache, cfg.CatalogCacheTTL),
			catalog.WithBooks(store),
		),
		Recommender: ai.NewRecommender(ai.Config{
			Endpoint:   cfg.OpenAIEndpoint,
			APIKey:     cfg.OpenAIKey,
			Deployment: cfg.OpenAIModel,
		}),
	}
	return a, nil
}

func (a *app) Close(ctx context.Context) error {
	var errs []error
	if err := a.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect mongo: %w", err))
		}
	}
	return errors.Join(errs...)
}
