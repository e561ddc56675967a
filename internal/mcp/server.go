package mcp

import (
	"context"
	"io"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/flashdeck/internal/auth"
	"github.com/rpggio/flashdeck/internal/domain/collection"
	"github.com/rpggio/flashdeck/internal/domain/generation"
	"github.com/rpggio/flashdeck/internal/domain/name"
	"github.com/rpggio/flashdeck/internal/domain/study"
)

// CollectionService defines registry operations needed by MCP.
type CollectionService interface {
	Create(ctx context.Context, userID, name string, cards []collection.Flashcard) (*collection.Summary, error)
	Rename(ctx context.Context, userID, oldName, newName string) error
	Delete(ctx context.Context, userID, name string) error
	List(ctx context.Context, userID string) ([]collection.Summary, error)
	LoadCards(ctx context.Context, userID, name string) ([]collection.Flashcard, error)
}

// GenerationService defines flashcard generation needed by MCP.
type GenerationService interface {
	Generate(ctx context.Context, req generation.Request) ([]collection.Flashcard, error)
}

// StudyService defines study session operations needed by MCP.
type StudyService interface {
	Start(ctx context.Context, userID, name string) (*study.Session, error)
	Apply(ctx context.Context, userID, id string, action study.Action) (*study.Session, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Collections CollectionService
	Generator   GenerationService
	Study       StudyService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Names         name.Policy
	Resolver      auth.Resolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	LocalUser     string
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	localUser := cfg.LocalUser
	if localUser == "" {
		localUser = "local"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "flashdeck",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerDocResources(server)

	// Stdio is a local single-user transport and never authenticates.
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		server.AddReceivingMiddleware(fixedUserMiddleware(localUser))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	t := &tools{services: cfg.Services, names: cfg.Names, logger: logger}
	t.register(server)

	return server
}
