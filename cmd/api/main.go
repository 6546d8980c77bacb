package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/coinmarket/internal/api"
	"github.com/fastprodman/coinmarket/internal/auth"
	"github.com/fastprodman/coinmarket/internal/events"
	"github.com/fastprodman/coinmarket/internal/infra/idempotency"
	"github.com/fastprodman/coinmarket/internal/infra/logging"
	"github.com/fastprodman/coinmarket/internal/infra/pgutils"
	"github.com/fastprodman/coinmarket/internal/services/accounts"
	"github.com/fastprodman/coinmarket/internal/services/inventory"
	"github.com/fastprodman/coinmarket/internal/services/ledger"
	"github.com/fastprodman/coinmarket/internal/services/market"
	"github.com/fastprodman/coinmarket/pkg/envconf"
	"github.com/fastprodman/coinmarket/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

//nolint:funlen
func run(ctx context.Context) (retErr error) {
	err := envconf.LoadDotenv()
	if err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg := new(apiConfig)

	err = envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add("postgres", func(context.Context) error {
		return db.Close()
	})

	deps := api.Deps{Logger: slog.Default()}

	if cfg.Redis.Enabled() {
		rdb, rerr := idempotency.Connect(ctx, cfg.Redis)
		if rerr != nil {
			return fmt.Errorf("connect redis: %w", rerr)
		}

		shutdownqueue.Add("redis", func(context.Context) error {
			return rdb.Close()
		})

		deps.Idempotency = idempotency.New(rdb, cfg.Idempotency.TTL)
	} else {
		slog.Warn("REDIS_ADDR not set, Idempotency-Key headers are ignored")
	}

	var pub events.Publisher = events.Nop{}

	if cfg.NATS.Enabled() {
		nc, nerr := events.Connect(cfg.NATS.URL)
		if nerr != nil {
			return fmt.Errorf("connect nats: %w", nerr)
		}

		shutdownqueue.Add("nats", func(context.Context) error {
			return nc.Drain()
		})

		pub = events.NewNATSPublisher(nc, cfg.NATS.SubjectPrefix)
	}

	// --- Services ---
	tokens, err := auth.NewIssuer(cfg.Auth)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}

	ledgerSrv := ledger.New(db, pub)
	inventorySrv := inventory.New(db)

	deps.Accounts = accounts.New(db, tokens)
	deps.Ledger = ledgerSrv
	deps.Inventory = inventorySrv
	deps.Market = market.New(db, ledgerSrv, inventorySrv, pub)

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, deps)

	shutdownqueue.Add("http server", func(c context.Context) error {
		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port)

	select {
	case <-ctx.Done():
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
