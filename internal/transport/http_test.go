package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpggio/flashdeck/internal/domain/billing"
	"github.com/rpggio/flashdeck/internal/domain/collection"
	"github.com/rpggio/flashdeck/internal/domain/generation"
	"github.com/rpggio/flashdeck/internal/domain/name"
	"github.com/rpggio/flashdeck/internal/domain/study"
	"github.com/rpggio/flashdeck/internal/llm"
	"github.com/rpggio/flashdeck/internal/retry"
	"github.com/rpggio/flashdeck/internal/sqlite"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	reply string
	err   error
}

func (p scriptedProvider) Chat(context.Context, []llm.Message, ...llm.Option) (string, error) {
	return p.reply, p.err
}

type stubGateway struct{}

func (stubGateway) CreateSession(_ context.Context, req billing.SessionRequest) (*billing.Session, error) {
	return &billing.Session{ID: "cs_" + string(req.Plan.ID), RedirectURL: "https://pay.example/" + string(req.Plan.ID)}, nil
}

func (stubGateway) GetSession(_ context.Context, id string) (*billing.Status, error) {
	if id != "cs_pro" {
		return nil, billing.ErrSessionNotFound
	}
	return &billing.Status{SessionID: id, PaymentStatus: "paid", Paid: true}, nil
}

type apiClient struct {
	t   *testing.T
	url string
}

func (c apiClient) do(method, path string, body any) (int, []byte) {
	c.t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.url+path, rdr)
	require.NoError(c.t, err)
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, data
}

func newTestAPI(t *testing.T, provider llm.Provider) apiClient {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	collections := collection.NewService(sqlite.NewCollectionStore(db), retry.Policy{}, nil)
	handler := NewServer(Config{
		Services: Services{
			Collections: collections,
			Generator:   generation.NewService(provider, nil),
			Study:       study.NewService(collections, 0, nil),
			Billing:     billing.NewService(stubGateway{}, "", nil),
		},
		Names: name.DefaultPolicy(),
		Auth:  AuthMiddleware(&testResolver{tokenToUser: map[string]string{"token": "user1"}}),
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return apiClient{t: t, url: server.URL}
}

func errorCode(t *testing.T, data []byte) string {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp.Error.Code
}

func TestHTTPServer_Health(t *testing.T) {
	server := httptest.NewServer(NewServer(Config{}))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPServer_RequiresAuth(t *testing.T) {
	api := newTestAPI(t, scriptedProvider{})

	resp, err := http.Get(api.url + "/api/collections")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHTTPServer_CollectionLifecycle(t *testing.T) {
	api := newTestAPI(t, scriptedProvider{})

	status, data := api.do(http.MethodGet, "/api/collections", nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `[]`, string(data))

	create := map[string]any{
		"name": "  Spanish Verbs!! ",
		"flashcards": []map[string]string{
			{"front": "hablar", "back": "to speak"},
			{"front": "comer", "back": "to eat"},
		},
	}
	status, data = api.do(http.MethodPost, "/api/collections", create)
	require.Equal(t, http.StatusCreated, status, string(data))
	require.JSONEq(t, `{"name":"Spanish-Verbs","cardsCount":2}`, string(data))

	status, data = api.do(http.MethodPost, "/api/collections", create)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "duplicate_name", errorCode(t, data))

	status, data = api.do(http.MethodGet, "/api/collections/Spanish-Verbs/cards", nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `[{"front":"hablar","back":"to speak"},{"front":"comer","back":"to eat"}]`, string(data))

	status, _ = api.do(http.MethodPut, "/api/collections/Spanish-Verbs", map[string]string{"newName": "Verbos"})
	require.Equal(t, http.StatusNoContent, status)

	status, data = api.do(http.MethodPut, "/api/collections/Spanish-Verbs", map[string]string{"newName": "Other"})
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "not_found", errorCode(t, data))

	status, _ = api.do(http.MethodDelete, "/api/collections/Verbos", nil)
	require.Equal(t, http.StatusNoContent, status)

	status, data = api.do(http.MethodGet, "/api/collections", nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `[]`, string(data))
}

func TestHTTPServer_CreateValidation(t *testing.T) {
	api := newTestAPI(t, scriptedProvider{})

	status, data := api.do(http.MethodPost, "/api/collections", map[string]any{
		"name":       "ab",
		"flashcards": []map[string]string{{"front": "a", "back": "b"}},
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "validation_failed", errorCode(t, data))

	status, _ = api.do(http.MethodPost, "/api/collections", map[string]any{
		"name":       "Good Name",
		"flashcards": []map[string]string{{"front": "a"}},
	})
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(http.MethodPost, "/api/collections", map[string]any{
		"name":       "bad-word list",
		"flashcards": []map[string]string{{"front": "a", "back": "b"}},
	})
	require.Equal(t, http.StatusBadRequest, status)
}

func TestHTTPServer_Generate(t *testing.T) {
	api := newTestAPI(t, scriptedProvider{reply: `{"flashcards":[{"front":"Q","back":"A"}]}`})

	status, data := api.do(http.MethodPost, "/api/generate", map[string]any{"data": "notes", "numFlashcards": 1})
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"flashcards":[{"front":"Q","back":"A"}]}`, string(data))

	status, _ = api.do(http.MethodPost, "/api/generate", map[string]any{"data": ""})
	require.Equal(t, http.StatusBadRequest, status)
}

func TestHTTPServer_GenerateFailure(t *testing.T) {
	for _, provider := range []scriptedProvider{
		{err: errors.New("upstream timeout")},
		{reply: `{"flashcards":[{"front":"Q"}]}`},
		{reply: `not json`},
	} {
		api := newTestAPI(t, provider)
		status, data := api.do(http.MethodPost, "/api/generate", map[string]any{"data": "notes"})
		require.Equal(t, http.StatusBadGateway, status)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(data, &resp))
		require.Equal(t, generation.FailureMessage, resp.Error.Message)
	}
}

func TestHTTPServer_Study(t *testing.T) {
	api := newTestAPI(t, scriptedProvider{})

	status, _ := api.do(http.MethodPost, "/api/collections", map[string]any{
		"name": "Deck",
		"flashcards": []map[string]string{
			{"front": "1", "back": "one"},
			{"front": "2", "back": "two"},
		},
	})
	require.Equal(t, http.StatusCreated, status)

	status, data := api.do(http.MethodPost, "/api/study", map[string]string{"collection": "Deck"})
	require.Equal(t, http.StatusCreated, status)
	var sess study.Session
	require.NoError(t, json.Unmarshal(data, &sess))
	require.Len(t, sess.Cards, 2)

	status, data = api.do(http.MethodPost, "/api/study/"+sess.ID+"/next", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(data, &sess))
	require.Equal(t, 1, sess.CurrentIndex)
	require.InDelta(t, 50.0, sess.ProgressPercent, 0.001)

	status, data = api.do(http.MethodPost, "/api/study/"+sess.ID+"/shuffle", nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "unknown_action", errorCode(t, data))

	status, _ = api.do(http.MethodDelete, "/api/study/"+sess.ID, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = api.do(http.MethodGet, "/api/study/"+sess.ID, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestHTTPServer_Checkout(t *testing.T) {
	api := newTestAPI(t, scriptedProvider{})

	status, data := api.do(http.MethodPost, "/api/checkout", map[string]string{"plan": "pro"})
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"sessionId":"cs_pro","redirectUrl":"https://pay.example/pro"}`, string(data))

	status, data = api.do(http.MethodPost, "/api/checkout", map[string]string{"plan": "gold"})
	require.Equal(t, http.StatusBadRequest, status)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	require.Equal(t, "Invalid plan selected", resp.Error.Message)

	status, data = api.do(http.MethodGet, "/api/checkout/cs_pro", nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"sessionId":"cs_pro","paymentStatus":"paid","paid":true}`, string(data))

	status, _ = api.do(http.MethodGet, "/api/checkout/cs_missing", nil)
	require.Equal(t, http.StatusNotFound, status)
}
