package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `flashdeck stores named flashcard collections per user and drives study sessions over them.

Workflow:
1) list_collections to see what exists (names and card counts).
2) generate_flashcards turns study material into cards; nothing is stored until create_collection.
3) create_collection with a name and cards. Names are sanitized to letters, digits and hyphens.
4) start_study on a collection, then study_action with flip, next, previous or restart.
5) rename_collection and delete_collection manage existing collections.

See flashdeck://docs/guide for error codes and limits.
`

const guideURI = "flashdeck://docs/guide"

const guide = `# flashdeck agent guide

## Names

Collection names are trimmed, stripped of anything other than ASCII letters, digits,
spaces and hyphens, and whitespace runs become single hyphens. "My  Spanish!" is stored
as "My-Spanish". Sanitized names must be 3 to 50 characters and must not contain
denylisted words. Pass the sanitized name (as returned by list_collections) to
load_cards, rename_collection, delete_collection and start_study.

## Study sessions

A session starts on the first card, unflipped, with 0% progress. next and previous move
one card and never wrap; progress is the current index over the deck size. flip toggles
the current card. restart returns to the first card and clears flips. Sessions expire
after an idle hour.

## Errors

- DUPLICATE_NAME: the user already has a collection with that name.
- COLLECTION_NOT_FOUND: no collection with that name.
- VALIDATION_FAILED: bad name or card payload; fix the input.
- GENERATION_FAILED: the model call or its output failed; retry.
- UNAVAILABLE: storage is busy; retry later.
`

func registerDocResources(server *sdkmcp.Server) {
	server.AddResource(&sdkmcp.Resource{
		URI:         guideURI,
		Name:        "guide",
		Title:       "flashdeck agent guide",
		Description: "Name rules, study semantics and error codes.",
		MIMEType:    "text/markdown",
		Size:        int64(len(guide)),
	}, func(_ context.Context, _ *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
		return &sdkmcp.ReadResourceResult{
			Contents: []*sdkmcp.ResourceContents{{
				URI:      guideURI,
				MIMEType: "text/markdown",
				Text:     guide,
			}},
		}, nil
	})
}
