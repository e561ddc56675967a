package transport

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/flashdeck/internal/domain/collection"
	"github.com/rpggio/flashdeck/internal/domain/generation"
	"github.com/rpggio/flashdeck/internal/domain/name"
	"github.com/rpggio/flashdeck/internal/domain/study"
)

type handlers struct {
	services Services
	names    name.Policy
	logger   *slog.Logger
}

func (h *handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// fail writes the envelope for err and logs server-side failures.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	writeBody(w, status, body)
}

func userID(r *http.Request) string {
	id, _ := UserFromContext(r.Context())
	return id
}

func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func (h *handlers) listCollections(w http.ResponseWriter, r *http.Request) {
	list, err := h.services.Collections.List(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type createCollectionRequest struct {
	Name string `json:"name"`
}

// createCollection accepts {name, flashcards}. The flashcards array goes
// through the same validation as generated decks.
func (h *handlers) createCollection(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cards, err := generation.Parse(body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req createCollectionRequest
	if err := decodeBytes(body, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	collectionName, err := h.names.Normalize(req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	summary, err := h.services.Collections.Create(r.Context(), userID(r), collectionName, cards)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

func (h *handlers) loadCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.services.Collections.LoadCards(r.Context(), userID(r), pathParam(r, "name"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

type renameRequest struct {
	NewName string `json:"newName"`
}

func (h *handlers) renameCollection(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	newName, err := h.names.Normalize(req.NewName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.services.Collections.Rename(r.Context(), userID(r), pathParam(r, "name"), newName); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) deleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := h.services.Collections.Delete(r.Context(), userID(r), pathParam(r, "name")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type generateResponse struct {
	Flashcards []collection.Flashcard `json:"flashcards"`
}

func (h *handlers) generate(w http.ResponseWriter, r *http.Request) {
	var req generation.Request
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	cards, err := h.services.Generator.Generate(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{Flashcards: cards})
}

type startStudyRequest struct {
	Collection string `json:"collection"`
}

func (h *handlers) startStudy(w http.ResponseWriter, r *http.Request) {
	var req startStudyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sess, err := h.services.Study.Start(r.Context(), userID(r), req.Collection)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *handlers) getStudy(w http.ResponseWriter, r *http.Request) {
	sess, err := h.services.Study.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *handlers) applyStudy(w http.ResponseWriter, r *http.Request) {
	action, err := study.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sess, err := h.services.Study.Apply(r.Context(), userID(r), chi.URLParam(r, "id"), action)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *handlers) endStudy(w http.ResponseWriter, r *http.Request) {
	if err := h.services.Study.End(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type checkoutRequest struct {
	Plan string `json:"plan"`
}

func (h *handlers) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sess, err := h.services.Billing.Checkout(r.Context(), userID(r), req.Plan)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *handlers) checkoutStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.services.Billing.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
