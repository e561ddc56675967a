// Package testserver runs the full HTTP stack over an in-memory database
// for end-to-end tests.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/flashdeck/internal/auth"
	"github.com/rpggio/flashdeck/internal/domain/billing"
	"github.com/rpggio/flashdeck/internal/domain/collection"
	"github.com/rpggio/flashdeck/internal/domain/generation"
	"github.com/rpggio/flashdeck/internal/domain/name"
	"github.com/rpggio/flashdeck/internal/domain/study"
	"github.com/rpggio/flashdeck/internal/llm"
	"github.com/rpggio/flashdeck/internal/mcp"
	"github.com/rpggio/flashdeck/internal/retry"
	"github.com/rpggio/flashdeck/internal/sqlite"
	"github.com/rpggio/flashdeck/internal/transport"
	"github.com/stretchr/testify/require"
)

const jwtSecret = "testserver-secret-testserver-secret"

// Options supplies the external dependencies of the stack.
type Options struct {
	Provider llm.Provider
	Gateway  billing.Gateway
}

type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
	APIKey string
	UserID string
	JWT    *auth.JWTVerifier
}

// New starts a server whose API key token resolves to userID.
func New(t *testing.T, token, userID string, opts Options) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	collections := collection.NewService(sqlite.NewCollectionStore(db), retry.Policy{MaxAttempts: 3}, nil)
	generator := generation.NewService(opts.Provider, nil)
	studySvc := study.NewService(collections, time.Hour, nil)
	billingSvc := billing.NewService(opts.Gateway, "http://localhost:3000/", nil)

	keys := sqlite.NewAPIKeyRepository(db)
	verifier := auth.NewJWTVerifier(jwtSecret, "flashdeck", time.Hour)
	resolver := auth.Chain(verifier, keys)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Collections: collections,
			Generator:   generator,
			Study:       studySvc,
		},
		Names:         name.DefaultPolicy(),
		Resolver:      resolver,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{JSONResponse: true},
	)

	server := httptest.NewServer(transport.NewServer(transport.Config{
		Services: transport.Services{
			Collections: collections,
			Generator:   generator,
			Study:       studySvc,
			Billing:     billingSvc,
		},
		Names: name.DefaultPolicy(),
		Auth:  transport.AuthMiddleware(resolver),
		MCP:   mcpHandler,
	}))

	ts := &TestServer{
		Server: server,
		DB:     db,
		APIKey: token,
		UserID: userID,
		JWT:    verifier,
	}

	require.NoError(t, keys.Create(context.Background(), token, userID, "test"))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// AddAPIKey registers another token.
func (ts *TestServer) AddAPIKey(token, userID string) error {
	return sqlite.NewAPIKeyRepository(ts.DB).Create(context.Background(), token, userID, "test")
}
