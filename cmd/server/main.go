package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/flashdeck/internal/auth"
	"github.com/rpggio/flashdeck/internal/config"
	"github.com/rpggio/flashdeck/internal/domain/billing"
	"github.com/rpggio/flashdeck/internal/domain/collection"
	"github.com/rpggio/flashdeck/internal/domain/generation"
	"github.com/rpggio/flashdeck/internal/domain/name"
	"github.com/rpggio/flashdeck/internal/domain/study"
	"github.com/rpggio/flashdeck/internal/gormstore"
	"github.com/rpggio/flashdeck/internal/llm/openai"
	"github.com/rpggio/flashdeck/internal/logging"
	"github.com/rpggio/flashdeck/internal/mcp"
	"github.com/rpggio/flashdeck/internal/retry"
	"github.com/rpggio/flashdeck/internal/sqlite"
	"github.com/rpggio/flashdeck/internal/stripecheckout"
	"github.com/rpggio/flashdeck/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	console := io.Writer(os.Stdout)
	if cfg.Server.Transport == "stdio" {
		console = os.Stderr
	}
	logger, logCloser, err := logging.New(cfg.Log, console)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log setup error: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	backend, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer backend.close()

	names := name.Policy{
		MinLength: cfg.Names.MinLength,
		MaxLength: cfg.Names.MaxLength,
		Denylist:  cfg.Names.Denylist,
	}
	collections := collection.NewService(backend.store, retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	}, logger)
	studySvc := study.NewService(collections, cfg.Study.SessionTTL, logger)
	generator := generation.NewService(
		openai.NewProvider(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout),
		logger,
	)
	billingSvc := billing.NewService(stripecheckout.New(stripecheckout.Config{
		SecretKey:         cfg.Checkout.SecretKey,
		BaseURL:           cfg.Checkout.APIBaseURL,
		MaxNetworkRetries: cfg.Checkout.NetworkRetries,
	}, logger), cfg.Checkout.ReturnURL, logger)

	resolver := newResolver(cfg, backend)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Collections: collections,
			Generator:   generator,
			Study:       studySvc,
		},
		Names:         names,
		Resolver:      resolver,
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Server.Transport,
		LocalUser:     cfg.Auth.LocalUser,
		Logger:        logger,
	})

	if cfg.Server.Transport == "stdio" {
		return runStdioMode(logger, mcpServer)
	}

	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
			Logger:         logger,
		},
	)

	authMW := transport.FixedUserMiddleware(cfg.Auth.LocalUser)
	if cfg.Auth.Enabled {
		authMW = transport.AuthMiddleware(resolver)
	}
	var limiter *transport.RateLimiter
	if cfg.Server.RateLimit > 0 {
		limiter = transport.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
	}

	router := transport.NewServer(transport.Config{
		Services: transport.Services{
			Collections: collections,
			Generator:   generator,
			Study:       studySvc,
			Billing:     billingSvc,
		},
		Names:       names,
		Auth:        authMW,
		MCP:         mcpHandler,
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimiter: limiter,
		Logger:      logger,
	})

	return runHTTPMode(logger, router, cfg.Server.Host, cfg.Server.Port)
}

// backend is the selected collection store and whatever else lives in the
// same database.
type backend struct {
	store   collection.Store
	apiKeys auth.Resolver
	close   func()
}

func openStore(cfg config.Config, logger *slog.Logger) (*backend, error) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := gormstore.Open(gormstore.Config{DSN: cfg.Store.DSN}, logger)
		if err != nil {
			return nil, err
		}
		if err := gormstore.Migrate(context.Background(), db); err != nil {
			return nil, err
		}
		logger.Info("store ready", "driver", "postgres")
		return &backend{
			store: gormstore.New(db),
			close: func() {
				if sqlDB, err := db.DB(); err == nil {
					_ = sqlDB.Close()
				}
			},
		}, nil
	default:
		db, err := sqlite.Open(sqlite.Config{Path: cfg.Store.Path, BusyTimeout: cfg.Store.BusyTimeout})
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("store ready", "driver", "sqlite", "path", cfg.Store.Path)
		return &backend{
			store:   sqlite.NewCollectionStore(db),
			apiKeys: sqlite.NewAPIKeyRepository(db),
			close:   func() { _ = db.Close() },
		}, nil
	}
}

func newResolver(cfg config.Config, b *backend) auth.Resolver {
	if !cfg.Auth.Enabled {
		return auth.Static(cfg.Auth.LocalUser)
	}
	return auth.Chain(
		auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL),
		b.apiKeys,
	)
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

func runHTTPMode(logger *slog.Logger, handler http.Handler, host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	return httpServer.Shutdown(ctx)
}
