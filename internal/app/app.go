// Package app wires the storefront client together. Everything is built here
// and passed down explicitly; nothing below looks dependencies up globally.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/fjod/go_cart/storefront/configs"
	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/credentials"
	"github.com/fjod/go_cart/storefront/internal/dispatch"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/logging"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/fjod/go_cart/storefront/internal/transport"
)

type App struct {
	Config   configs.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	DB          *storage.DB
	Credentials *credentials.Store
	Client      *transport.Client
	Bus         *events.Bus
	Queue       *dispatch.Queue

	Auth     *repository.AuthRepository
	Cart     *repository.CartRepository
	Orders   *repository.OrderRepository
	Shipping *repository.ShippingRepository
	Products cache.Products
	WishList *service.WishListService
	Payments *payment.Adapter
	Checkout *checkout.Checkout

	stop    context.CancelFunc
	closers []func() error

	mu      sync.Mutex
	closing bool
	workers sync.WaitGroup
}

// Option adjusts wiring before anything is started.
type Option func(*options)

type options struct {
	presenter  payment.Presenter
	registry   *prometheus.Registry
	httpClient transport.Option
}

// WithPresenter sets the hosted confirmation UI used for card payments.
func WithPresenter(p payment.Presenter) Option {
	return func(o *options) { o.presenter = p }
}

func WithRegistry(r *prometheus.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithTransportOption passes an extra option to the backend client, e.g. a test http.Client.
func WithTransportOption(opt transport.Option) Option {
	return func(o *options) { o.httpClient = opt }
}

// New builds the client. The credential store is the process singleton, so
// only one App may be open at a time; Close releases it.
func New(ctx context.Context, cfg configs.Config, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	a := &App{
		Config:   cfg,
		Logger:   logging.Init(cfg.App.Name, cfg.App.LogFile, cfg.App.LogLevel),
		Registry: o.registry,
		Metrics:  metrics.New(o.registry),
		Bus:      events.NewBus(),
		Queue:    dispatch.NewQueue(),
	}
	ctx, a.stop = context.WithCancel(ctx)
	a.closers = append(a.closers, func() error { a.Queue.Close(); return nil })

	if err := a.openStorage(ctx, cfg); err != nil {
		_ = a.Close()
		return nil, err
	}

	clientOpts := []transport.Option{
		transport.WithObserver(a.Metrics),
		transport.WithUserAgent(cfg.API.UserAgent),
		transport.WithBreaker(transport.BreakerSettings{
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         cfg.Breaker.Interval,
			Timeout:          cfg.Breaker.Timeout,
			FailureThreshold: cfg.Breaker.FailureThreshold,
		}),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, o.httpClient)
	}
	a.Client = transport.New(cfg.API.BaseURL, cfg.API.Timeout, a.Credentials, clientOpts...)

	a.Auth = repository.NewAuthRepository(service.NewAuthService(a.Client), a.Credentials, a.DB)
	a.Cart = repository.NewCartRepository(service.NewCartService(a.Client))
	a.Orders = repository.NewOrderRepository(service.NewOrderService(a.Client))
	a.Shipping = repository.NewShippingRepository(service.NewShippingService(a.Client))
	a.WishList = service.NewWishListService(a.Client)
	a.Products = a.products(cfg)

	payOpts := []payment.Option{payment.WithReturnURL(cfg.Payment.ReturnURL)}
	if cfg.Payment.ProcessorURL != "" {
		payOpts = append(payOpts, payment.WithTokenizer(
			payment.NewProcessorClient(cfg.Payment.ProcessorURL, cfg.Payment.PublishableKey, cfg.API.Timeout)))
	}
	if o.presenter != nil {
		payOpts = append(payOpts, payment.WithPresenter(o.presenter))
	}
	a.Payments = payment.NewAdapter(service.NewPaymentService(a.Client), payOpts...)

	a.subscribe(ctx, cfg)

	a.Checkout = checkout.New(checkout.Deps{
		Queue:     a.Queue,
		Orders:    a.Orders,
		Addresses: a.Shipping,
		Session:   a.Auth,
		Cart:      a.Cart,
		Payments:  a.Payments,
		Publisher: a.Bus,
		Outcomes:  a.Metrics,
	})

	if _, err := a.Auth.Restore(ctx); err != nil {
		a.Logger.Warn("failed to restore session", "error", err)
	}
	return a, nil
}

func (a *App) openStorage(ctx context.Context, cfg configs.Config) error {
	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)

	creds, err := credentials.Init(storage.NewTokenBackend(db))
	if err != nil {
		return fmt.Errorf("failed to init credentials: %w", err)
	}
	a.Credentials = creds
	a.closers = append(a.closers, func() error { credentials.Teardown(); return nil })

	if err := creds.Load(ctx); err != nil {
		a.Logger.Warn("failed to load stored tokens", "error", err)
	}
	return nil
}

// products puts the redis cache in front of the catalog when one is configured.
func (a *App) products(cfg configs.Config) cache.Products {
	svc := service.NewProductService(a.Client)
	if cfg.Redis.Addr == "" {
		return svc
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	a.closers = append(a.closers, rdb.Close)
	a.Logger.Info("product cache enabled", "addr", cfg.Redis.Addr)
	return cache.NewCachedProducts(svc, cache.NewRedisCache(rdb, cfg.Redis.TTL))
}

// subscribe hooks the listeners of checkout events to the bus.
func (a *App) subscribe(ctx context.Context, cfg configs.Config) {
	timeout := cfg.API.Timeout
	a.Bus.Subscribe(func(context.Context, events.Event) {
		// The cart is emptied server side once paid; reload it off the checkout queue.
		a.goBackground(func() {
			rctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			a.Cart.Refresh(rctx)
		})
	}, events.PaymentCompleted)

	if len(cfg.Kafka.Brokers) == 0 {
		return
	}
	fwd := publisher.NewEventForwarder(publisher.NewKafkaWriter(cfg.Kafka.Topic, cfg.Kafka.Brokers...))
	a.Bus.Subscribe(fwd.Handle)

	done := make(chan struct{})
	go func() {
		defer close(done)
		fwd.Run(ctx)
	}()
	a.closers = append(a.closers, func() error {
		a.stop()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			a.Logger.Warn("event forwarder did not stop in time")
		}
		return fwd.Close()
	})
	a.Logger.Info("event forwarding enabled", "topic", cfg.Kafka.Topic)
}

// goBackground runs fn on a goroutine Close waits for. Nothing starts once
// Close has begun.
func (a *App) goBackground(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closing {
		return
	}
	a.workers.Add(1)
	go func() {
		defer a.workers.Done()
		fn()
	}()
}

// Close releases everything New acquired, in reverse order, once the
// background work has stopped.
func (a *App) Close() error {
	a.mu.Lock()
	a.closing = true
	a.mu.Unlock()
	if a.stop != nil {
		a.stop()
	}
	a.workers.Wait()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
