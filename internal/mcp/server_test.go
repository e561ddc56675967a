package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/flashdeck/internal/auth"
	"github.com/rpggio/flashdeck/internal/domain/collection"
	"github.com/rpggio/flashdeck/internal/domain/generation"
	"github.com/rpggio/flashdeck/internal/domain/name"
	"github.com/rpggio/flashdeck/internal/domain/study"
	"github.com/stretchr/testify/require"
)

type collectionStub struct {
	createFn func(context.Context, string, string, []collection.Flashcard) (*collection.Summary, error)
	renameFn func(context.Context, string, string, string) error
	deleteFn func(context.Context, string, string) error
	listFn   func(context.Context, string) ([]collection.Summary, error)
	loadFn   func(context.Context, string, string) ([]collection.Flashcard, error)
}

func (c collectionStub) Create(ctx context.Context, userID, name string, cards []collection.Flashcard) (*collection.Summary, error) {
	return c.createFn(ctx, userID, name, cards)
}
func (c collectionStub) Rename(ctx context.Context, userID, oldName, newName string) error {
	return c.renameFn(ctx, userID, oldName, newName)
}
func (c collectionStub) Delete(ctx context.Context, userID, name string) error {
	return c.deleteFn(ctx, userID, name)
}
func (c collectionStub) List(ctx context.Context, userID string) ([]collection.Summary, error) {
	return c.listFn(ctx, userID)
}
func (c collectionStub) LoadCards(ctx context.Context, userID, name string) ([]collection.Flashcard, error) {
	return c.loadFn(ctx, userID, name)
}

type generatorStub struct {
	generateFn func(context.Context, generation.Request) ([]collection.Flashcard, error)
}

func (g generatorStub) Generate(ctx context.Context, req generation.Request) ([]collection.Flashcard, error) {
	return g.generateFn(ctx, req)
}

func connect(t *testing.T, cfg Config) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	if cfg.Names.MaxLength == 0 {
		cfg.Names = name.DefaultPolicy()
	}
	server := NewServer(cfg)

	ct, st := sdkmcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func callTool(t *testing.T, cs *sdkmcp.ClientSession, tool string, args map[string]any, out any) *sdkmcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: tool, Arguments: args})
	require.NoError(t, err)
	if out != nil && !res.IsError {
		data, err := json.Marshal(res.StructuredContent)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, out))
	}
	return res
}

func errorText(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	require.True(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestTools_ListAndCreate(t *testing.T) {
	var createdName, createdUser string
	cs := connect(t, Config{
		TransportMode: "stdio",
		LocalUser:     "me",
		Services: Services{Collections: collectionStub{
			listFn: func(_ context.Context, userID string) ([]collection.Summary, error) {
				require.Equal(t, "me", userID)
				return []collection.Summary{{Name: "Spanish", CardsCount: 2}}, nil
			},
			createFn: func(_ context.Context, userID, name string, cards []collection.Flashcard) (*collection.Summary, error) {
				createdUser, createdName = userID, name
				return &collection.Summary{Name: name, CardsCount: len(cards)}, nil
			},
		}},
	})

	var list ListCollectionsOutput
	res := callTool(t, cs, "list_collections", nil, &list)
	require.False(t, res.IsError)
	require.Equal(t, []collection.Summary{{Name: "Spanish", CardsCount: 2}}, list.Collections)

	var summary collection.Summary
	res = callTool(t, cs, "create_collection", map[string]any{
		"name":       "French  Basics!",
		"flashcards": []map[string]string{{"front": "bonjour", "back": "hello"}},
	}, &summary)
	require.False(t, res.IsError)
	require.Equal(t, "French-Basics", createdName)
	require.Equal(t, "me", createdUser)
	require.Equal(t, collection.Summary{Name: "French-Basics", CardsCount: 1}, summary)
}

func TestTools_CreateErrors(t *testing.T) {
	cs := connect(t, Config{
		TransportMode: "stdio",
		Services: Services{Collections: collectionStub{
			createFn: func(context.Context, string, string, []collection.Flashcard) (*collection.Summary, error) {
				return nil, collection.ErrDuplicateName
			},
		}},
	})

	cards := []map[string]string{{"front": "a", "back": "b"}}

	res := callTool(t, cs, "create_collection", map[string]any{"name": "Spanish", "flashcards": cards}, nil)
	require.Contains(t, errorText(t, res), "DUPLICATE_NAME")

	res = callTool(t, cs, "create_collection", map[string]any{"name": "!!", "flashcards": cards}, nil)
	require.Contains(t, errorText(t, res), "VALIDATION_FAILED")
}

func TestTools_LoadRenameDelete(t *testing.T) {
	var renamedTo string
	cs := connect(t, Config{
		TransportMode: "stdio",
		Services: Services{Collections: collectionStub{
			loadFn: func(_ context.Context, _, name string) ([]collection.Flashcard, error) {
				if name != "Spanish" {
					return []collection.Flashcard{}, nil
				}
				return []collection.Flashcard{{Front: "hola", Back: "hello"}}, nil
			},
			renameFn: func(_ context.Context, _, oldName, newName string) error {
				if oldName != "Spanish" {
					return collection.ErrNotFound
				}
				renamedTo = newName
				return nil
			},
			deleteFn: func(context.Context, string, string) error {
				return errors.New("disk on fire")
			},
		}},
	})

	var out FlashcardsOutput
	callTool(t, cs, "load_cards", map[string]any{"name": "Spanish"}, &out)
	require.Equal(t, []collection.Flashcard{{Front: "hola", Back: "hello"}}, out.Flashcards)

	callTool(t, cs, "load_cards", map[string]any{"name": "Empty"}, &out)
	require.Empty(t, out.Flashcards)

	var ok OKOutput
	res := callTool(t, cs, "rename_collection", map[string]any{"name": "Spanish", "new_name": "Espanol Uno"}, &ok)
	require.False(t, res.IsError)
	require.True(t, ok.OK)
	require.Equal(t, "Espanol-Uno", renamedTo)

	res = callTool(t, cs, "rename_collection", map[string]any{"name": "German", "new_name": "Deutsch"}, nil)
	require.Contains(t, errorText(t, res), "COLLECTION_NOT_FOUND")

	res = callTool(t, cs, "delete_collection", map[string]any{"name": "Spanish"}, nil)
	text := errorText(t, res)
	require.Contains(t, text, "INTERNAL")
	require.NotContains(t, text, "disk on fire")
}

func TestTools_Generate(t *testing.T) {
	cs := connect(t, Config{
		TransportMode: "stdio",
		Services: Services{Generator: generatorStub{
			generateFn: func(_ context.Context, req generation.Request) ([]collection.Flashcard, error) {
				if req.Data == "fail" {
					return nil, generation.ErrGenerationFailed
				}
				require.Equal(t, 2, req.NumFlashcards)
				return []collection.Flashcard{{Front: "Q1", Back: "A1"}, {Front: "Q2", Back: "A2"}}, nil
			},
		}},
	})

	var out FlashcardsOutput
	callTool(t, cs, "generate_flashcards", map[string]any{"data": "cells", "num_flashcards": 2}, &out)
	require.Len(t, out.Flashcards, 2)

	res := callTool(t, cs, "generate_flashcards", map[string]any{"data": "fail"}, nil)
	require.Contains(t, errorText(t, res), generation.FailureMessage)
}

func TestTools_Study(t *testing.T) {
	cards := []collection.Flashcard{{Front: "1", Back: "one"}, {Front: "2", Back: "two"}, {Front: "3", Back: "three"}, {Front: "4", Back: "four"}}
	svc := study.NewService(collectionStub{
		loadFn: func(context.Context, string, string) ([]collection.Flashcard, error) { return cards, nil },
	}, 0, nil)
	cs := connect(t, Config{TransportMode: "stdio", Services: Services{Study: svc}})

	var sess study.Session
	callTool(t, cs, "start_study", map[string]any{"collection": "Numbers"}, &sess)
	require.Len(t, sess.Cards, 4)
	require.Zero(t, sess.CurrentIndex)

	callTool(t, cs, "study_action", map[string]any{"session_id": sess.ID, "action": "next"}, &sess)
	require.Equal(t, 1, sess.CurrentIndex)
	require.Equal(t, 25.0, sess.ProgressPercent)

	callTool(t, cs, "study_action", map[string]any{"session_id": sess.ID, "action": "flip"}, &sess)
	require.True(t, sess.Flipped[1])

	res := callTool(t, cs, "study_action", map[string]any{"session_id": sess.ID, "action": "shuffle"}, nil)
	require.Contains(t, errorText(t, res), "UNKNOWN_ACTION")

	res = callTool(t, cs, "study_action", map[string]any{"session_id": "nope", "action": "next"}, nil)
	require.Contains(t, errorText(t, res), "SESSION_NOT_FOUND")
}

func TestAuth_RequiresHeaders(t *testing.T) {
	cs := connect(t, Config{
		TransportMode: "http",
		AuthEnabled:   true,
		Resolver:      auth.Static("user1"),
		Services: Services{Collections: collectionStub{
			listFn: func(context.Context, string) ([]collection.Summary, error) {
				return []collection.Summary{}, nil
			},
		}},
	})

	_, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: "list_collections", Arguments: map[string]any{}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unauthorized")
}

func TestDocsResource(t *testing.T) {
	cs := connect(t, Config{TransportMode: "stdio"})

	res, err := cs.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: guideURI})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "DUPLICATE_NAME")
}

func TestMapError(t *testing.T) {
	require.Nil(t, MapError(nil))
	require.Equal(t, "UNAVAILABLE", MapError(collection.ErrPersistenceUnavailable).Code)
	require.Equal(t, "UNAUTHENTICATED", MapError(collection.ErrUnauthenticated).Code)
	require.Equal(t, "INTERNAL", MapError(errors.New("x")).Code)
}
