// Command apikey issues and revokes API keys in the sqlite store.
//
// Usage:
//
//	apikey create --user=alice [--token=...] [--description=laptop]
//	apikey revoke --token=...
//
// The database path comes from the same configuration as the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/flashdeck/internal/config"
	"github.com/rpggio/flashdeck/internal/sqlite"
	"github.com/rpggio/flashdeck/internal/store"
)

type keyStore interface {
	Create(ctx context.Context, token, userID, description string) error
	Revoke(ctx context.Context, token string) error
}

var errUsage = errors.New("usage: apikey create --user=ID [--token=T] [--description=D] | apikey revoke --token=T")

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.Store.Driver != "sqlite" {
		log.Fatalf("api keys live in the sqlite store; driver is %q", cfg.Store.Driver)
	}

	db, err := sqlite.Open(sqlite.Config{Path: cfg.Store.Path, BusyTimeout: cfg.Store.BusyTimeout})
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, os.Args[1:], sqlite.NewAPIKeyRepository(db), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, keys keyStore, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	user := fs.String("user", "", "user id the key signs in as")
	token := fs.String("token", "", "key value; generated when empty")
	description := fs.String("description", "", "free-form note")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	switch args[0] {
	case "create":
		if *user == "" {
			return errUsage
		}
		if *token == "" {
			*token = uuid.NewString()
		}
		if err := keys.Create(ctx, *token, *user, *description); err != nil {
			return fmt.Errorf("create key: %w", err)
		}
		fmt.Fprintf(out, "%s\n", *token)
		return nil
	case "revoke":
		if *token == "" {
			return errUsage
		}
		err := keys.Revoke(ctx, *token)
		if errors.Is(err, store.ErrNotFound) {
			return errors.New("no such key")
		}
		if err != nil {
			return fmt.Errorf("revoke key: %w", err)
		}
		fmt.Fprintln(out, "revoked")
		return nil
	default:
		return errUsage
	}
}
