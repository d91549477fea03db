package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/divinecia/Househelp-sub000/internal/config"
	"github.com/divinecia/Househelp-sub000/internal/handlers"
	"github.com/divinecia/Househelp-sub000/internal/pg"
	"github.com/divinecia/Househelp-sub000/internal/reconcile"
	"github.com/divinecia/Househelp-sub000/internal/repo"
	"github.com/divinecia/Househelp-sub000/internal/service"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
	"github.com/divinecia/Househelp-sub000/pkg/clients"
	"github.com/divinecia/Househelp-sub000/pkg/gateways/flutterwave"
	"github.com/divinecia/Househelp-sub000/pkg/gateways/paypack"
	"github.com/divinecia/Househelp-sub000/pkg/logger"
	"github.com/divinecia/Househelp-sub000/pkg/mailer"
	"github.com/divinecia/Househelp-sub000/pkg/mq"
	"github.com/divinecia/Househelp-sub000/pkg/ratelimit"
	"github.com/divinecia/Househelp-sub000/pkg/supabase"
)

const (
	authBurst       = 5
	authWindow      = 15 * time.Minute
	shutdownTimeout = 5 * time.Second
)

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg     *config.Config
	api     *handlers.Handlers
	srv     *service.Services
	repo    *repo.Repositories
	ext     *reconcile.Service
	limiter *ratelimit.Limiter
	pool    *pgxpool.Pool
	closers []func() error

	errCh chan error
	wg    sync.WaitGroup
	ready bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg := config.New()

	err := logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	pool, err := getPgxpool(ctx, cfg)
	if err != nil {
		zap.L().Error("build pgx pool failed: ", zap.Error(err))
		return fmt.Errorf("can't build pgx pool: %w", err)
	}
	if err := pg.RunMigrations(pool); err != nil {
		zap.L().Error("migrations failed: ", zap.Error(err))
		return fmt.Errorf("can't run migrations: %w", err)
	}
	txManager := pg.NewTXManager(pool)
	conn := pg.New(pool)

	deps, err := a.buildDeps(cfg)
	if err != nil {
		return fmt.Errorf("can't build integrations: %w", err)
	}

	a.cfg = cfg
	a.pool = pool
	a.limiter = ratelimit.New(authBurst, authWindow)
	a.repo = repo.New(conn, txManager)
	a.srv = service.New(a.repo, txManager, deps)
	a.api = handlers.New(a.srv, conn, a.limiter, cfg.AllowedOrigins, cfg.TrustProxy)
	a.ext = reconcile.New(a.srv.PaymentSync, cfg.ReconcileInterval)

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}

	a.startBackground(ctx)

	a.ready = true
	zap.L().Info("all systems started successfully")
	return nil
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		return nil, err
	}
	return dbpool, nil
}

// buildDeps wires the external integrations. Unconfigured gateways and the
// publisher stay nil; mail falls back to a logging stub.
func (a *Application) buildDeps(cfg *config.Config) (service.Deps, error) {
	httpClient := clients.NewHTTPClient()

	deps := service.Deps{
		Provider:           supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.SupabaseServiceRoleKey, httpClient),
		JWT:                auth.NewJWTService(cfg.SupabaseJWTSecret),
		Mailer:             mailer.Disabled{},
		AppURL:             cfg.AppURL,
		PaymentRedirectURL: cfg.FlutterwaveRedirectURL,
	}

	if cfg.MailEnabled() {
		deps.Mailer = mailer.New(cfg.SendgridAPIKey, cfg.MailFrom)
	} else {
		zap.L().Warn("SENDGRID_API_KEY not set, emails will only be logged")
	}

	if cfg.FlutterwaveEnabled() {
		deps.Checkout = flutterwave.NewClient(cfg.FlutterwaveBaseURL, cfg.FlutterwaveSecretKey, cfg.FlutterwaveSecretHash, httpClient)
	} else {
		zap.L().Warn("Flutterwave not configured, card payments disabled")
	}

	if cfg.PaypackEnabled() {
		pp := paypack.NewClient(cfg.PaypackBaseURL, cfg.PaypackApplicationID, cfg.PaypackApplicationSecret, cfg.PaypackWebhookSecret, httpClient)
		deps.MobileMoney = pp
		deps.Payout = pp
	} else {
		zap.L().Warn("PayPack not configured, mobile money disabled")
	}

	if cfg.AMQPURL != "" {
		publisher, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return service.Deps{}, fmt.Errorf("can't connect to amqp: %w", err)
		}
		deps.Publisher = publisher
		a.closers = append(a.closers, publisher.Close)
	}

	return deps, nil
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:              a.cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(sCtx); err != nil {
			zap.L().Error("http server shutdown failed", zap.Error(err))
		}
		a.close()
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

func (a *Application) startBackground(ctx context.Context) {
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.ext.Start(ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.limiter.Run(ctx, time.Minute)
	}()
}

func (a *Application) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			zap.L().Error("close failed", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	return appErr
}
