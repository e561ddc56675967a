package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/flashdeck/internal/domain/collection"
	"github.com/rpggio/flashdeck/internal/domain/generation"
	"github.com/rpggio/flashdeck/internal/domain/name"
	"github.com/rpggio/flashdeck/internal/domain/study"
)

type tools struct {
	services Services
	names    name.Policy
	logger   *slog.Logger
}

type ListCollectionsInput struct{}

type ListCollectionsOutput struct {
	Collections []collection.Summary `json:"collections"`
}

type CreateCollectionInput struct {
	Name       string                 `json:"name" jsonschema:"display name; sanitized to letters, digits and hyphens"`
	Flashcards []collection.Flashcard `json:"flashcards" jsonschema:"cards to store, each with front and back"`
}

type RenameCollectionInput struct {
	Name    string `json:"name" jsonschema:"current collection name"`
	NewName string `json:"new_name" jsonschema:"new display name; sanitized like create_collection"`
}

type CollectionInput struct {
	Name string `json:"name" jsonschema:"collection name as returned by list_collections"`
}

type FlashcardsOutput struct {
	Flashcards []collection.Flashcard `json:"flashcards"`
}

type OKOutput struct {
	OK bool `json:"ok"`
}

type GenerateInput struct {
	Data          string `json:"data" jsonschema:"study material to turn into flashcards"`
	NumFlashcards int    `json:"num_flashcards,omitempty" jsonschema:"number of cards between 1 and 50, default 10"`
}

type StartStudyInput struct {
	Collection string `json:"collection" jsonschema:"collection to study"`
}

type StudyActionInput struct {
	SessionID string `json:"session_id" jsonschema:"id returned by start_study"`
	Action    string `json:"action" jsonschema:"flip, next, previous or restart"`
}

func (t *tools) register(server *sdkmcp.Server) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_collections",
		Description: "List the signed-in user's flashcard collections with card counts",
	}, t.listCollections)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_collection",
		Description: "Store a new named collection of flashcards",
	}, t.createCollection)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "rename_collection",
		Description: "Rename a collection, moving all of its cards",
	}, t.renameCollection)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_collection",
		Description: "Delete a collection and all of its cards",
	}, t.deleteCollection)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "load_cards",
		Description: "Load every card stored in a collection",
	}, t.loadCards)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "generate_flashcards",
		Description: "Generate flashcards from study material without storing them",
	}, t.generate)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "start_study",
		Description: "Open a study session on a collection, positioned on the first card",
	}, t.startStudy)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "study_action",
		Description: "Apply flip, next, previous or restart to a study session",
	}, t.studyAction)
}

// fail converts a domain error to the tool error surfaced to the client.
func (t *tools) fail(ctx context.Context, tool string, err error) error {
	apiErr := MapError(err)
	if apiErr.Code == "INTERNAL" {
		t.logger.ErrorContext(ctx, "tool failed", "tool", tool, "error", err)
	}
	return apiErr
}

func (t *tools) listCollections(ctx context.Context, _ *sdkmcp.CallToolRequest, _ ListCollectionsInput) (*sdkmcp.CallToolResult, ListCollectionsOutput, error) {
	list, err := t.services.Collections.List(ctx, getUserID(ctx))
	if err != nil {
		return nil, ListCollectionsOutput{}, t.fail(ctx, "list_collections", err)
	}
	if list == nil {
		list = []collection.Summary{}
	}
	return nil, ListCollectionsOutput{Collections: list}, nil
}

func (t *tools) createCollection(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateCollectionInput) (*sdkmcp.CallToolResult, collection.Summary, error) {
	collectionName, err := t.names.Normalize(in.Name)
	if err != nil {
		return nil, collection.Summary{}, t.fail(ctx, "create_collection", err)
	}
	summary, err := t.services.Collections.Create(ctx, getUserID(ctx), collectionName, in.Flashcards)
	if err != nil {
		return nil, collection.Summary{}, t.fail(ctx, "create_collection", err)
	}
	return nil, *summary, nil
}

func (t *tools) renameCollection(ctx context.Context, _ *sdkmcp.CallToolRequest, in RenameCollectionInput) (*sdkmcp.CallToolResult, OKOutput, error) {
	newName, err := t.names.Normalize(in.NewName)
	if err != nil {
		return nil, OKOutput{}, t.fail(ctx, "rename_collection", err)
	}
	if err := t.services.Collections.Rename(ctx, getUserID(ctx), in.Name, newName); err != nil {
		return nil, OKOutput{}, t.fail(ctx, "rename_collection", err)
	}
	return nil, OKOutput{OK: true}, nil
}

func (t *tools) deleteCollection(ctx context.Context, _ *sdkmcp.CallToolRequest, in CollectionInput) (*sdkmcp.CallToolResult, OKOutput, error) {
	if err := t.services.Collections.Delete(ctx, getUserID(ctx), in.Name); err != nil {
		return nil, OKOutput{}, t.fail(ctx, "delete_collection", err)
	}
	return nil, OKOutput{OK: true}, nil
}

func (t *tools) loadCards(ctx context.Context, _ *sdkmcp.CallToolRequest, in CollectionInput) (*sdkmcp.CallToolResult, FlashcardsOutput, error) {
	cards, err := t.services.Collections.LoadCards(ctx, getUserID(ctx), in.Name)
	if err != nil {
		return nil, FlashcardsOutput{}, t.fail(ctx, "load_cards", err)
	}
	return nil, flashcards(cards), nil
}

func (t *tools) generate(ctx context.Context, _ *sdkmcp.CallToolRequest, in GenerateInput) (*sdkmcp.CallToolResult, FlashcardsOutput, error) {
	cards, err := t.services.Generator.Generate(ctx, generation.Request{
		Data:          in.Data,
		NumFlashcards: in.NumFlashcards,
	})
	if err != nil {
		return nil, FlashcardsOutput{}, t.fail(ctx, "generate_flashcards", err)
	}
	return nil, flashcards(cards), nil
}

func (t *tools) startStudy(ctx context.Context, _ *sdkmcp.CallToolRequest, in StartStudyInput) (*sdkmcp.CallToolResult, study.Session, error) {
	sess, err := t.services.Study.Start(ctx, getUserID(ctx), in.Collection)
	if err != nil {
		return nil, study.Session{}, t.fail(ctx, "start_study", err)
	}
	return nil, *sess, nil
}

func (t *tools) studyAction(ctx context.Context, _ *sdkmcp.CallToolRequest, in StudyActionInput) (*sdkmcp.CallToolResult, study.Session, error) {
	action, err := study.ParseAction(in.Action)
	if err != nil {
		return nil, study.Session{}, t.fail(ctx, "study_action", err)
	}
	sess, err := t.services.Study.Apply(ctx, getUserID(ctx), in.SessionID, action)
	if err != nil {
		return nil, study.Session{}, t.fail(ctx, "study_action", err)
	}
	return nil, *sess, nil
}

// flashcards wraps cards for output. Output schemas reject a null array.
func flashcards(cards []collection.Flashcard) FlashcardsOutput {
	if cards == nil {
		cards = []collection.Flashcard{}
	}
	return FlashcardsOutput{Flashcards: cards}
}
