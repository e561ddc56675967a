package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/flashdeck/internal/domain/billing"
	"github.com/rpggio/flashdeck/internal/domain/collection"
	"github.com/rpggio/flashdeck/internal/domain/generation"
	"github.com/rpggio/flashdeck/internal/domain/name"
	"github.com/rpggio/flashdeck/internal/domain/study"
	"github.com/rs/cors"
)

// Collections is the collection registry.
type Collections interface {
	Create(ctx context.Context, userID, name string, cards []collection.Flashcard) (*collection.Summary, error)
	Rename(ctx context.Context, userID, oldName, newName string) error
	Delete(ctx context.Context, userID, name string) error
	List(ctx context.Context, userID string) ([]collection.Summary, error)
	LoadCards(ctx context.Context, userID, name string) ([]collection.Flashcard, error)
}

// Generator produces flashcards from study text.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) ([]collection.Flashcard, error)
}

// Study drives live study sessions.
type Study interface {
	Start(ctx context.Context, userID, name string) (*study.Session, error)
	Get(ctx context.Context, userID, id string) (*study.Session, error)
	Apply(ctx context.Context, userID, id string, action study.Action) (*study.Session, error)
	End(ctx context.Context, userID, id string) error
}

// Billing opens and polls checkout sessions.
type Billing interface {
	Checkout(ctx context.Context, userID, plan string) (*billing.Session, error)
	Status(ctx context.Context, sessionID string) (*billing.Status, error)
}

// Services bundles the domain services behind the API.
type Services struct {
	Collections Collections
	Generator   Generator
	Study       Study
	Billing     Billing
}

// Config wires the HTTP server.
type Config struct {
	Services Services
	Names    name.Policy
	// Auth signs requests in. Typically AuthMiddleware or FixedUserMiddleware.
	Auth        func(http.Handler) http.Handler
	MCP         http.Handler
	CORSOrigins []string
	RateLimiter *RateLimiter
	Logger      *slog.Logger
}

// NewServer creates an HTTP router with middleware.
func NewServer(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Mcp-Session-Id", "X-Request-Id"},
		ExposedHeaders:   []string{"Mcp-Session-Id", "X-Request-Id"},
		AllowCredentials: true,
	}).Handler)

	h := &handlers{services: cfg.Services, names: cfg.Names, logger: logger}

	r.Get("/health", h.handleHealth)

	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
		r.Handle("/mcp/*", cfg.MCP)
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Handler)
		}
		if cfg.Auth != nil {
			r.Use(cfg.Auth)
		}

		r.Route("/collections", func(r chi.Router) {
			r.Get("/", h.listCollections)
			r.Post("/", h.createCollection)
			r.Get("/{name}/cards", h.loadCards)
			r.Put("/{name}", h.renameCollection)
			r.Delete("/{name}", h.deleteCollection)
		})

		r.Post("/generate", h.generate)

		r.Route("/study", func(r chi.Router) {
			r.Post("/", h.startStudy)
			r.Get("/{id}", h.getStudy)
			r.Post("/{id}/{action}", h.applyStudy)
			r.Delete("/{id}", h.endStudy)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", h.checkout)
			r.Get("/{id}", h.checkoutStatus)
		})
	})

	return r
}
