package study

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rpggio/flashdeck/internal/domain/collection"
)

// DefaultSessionTTL is how long an idle session is kept in memory.
const DefaultSessionTTL = time.Hour

// Action names a session transition.
type Action string

const (
	ActionFlip     Action = "flip"
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
	ActionRestart  Action = "restart"
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionFlip, ActionNext, ActionPrevious, ActionRestart:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}

// Service keeps live study sessions in memory. Sessions are never persisted
// and expire after the configured idle TTL.
type Service struct {
	cards  CardLoader
	cache  *cache.Cache
	mu     sync.Mutex
	logger *slog.Logger
}

// NewService creates a study service. A non-positive ttl uses DefaultSessionTTL.
func NewService(cards CardLoader, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		cards:  cards,
		cache:  cache.New(ttl, 10*time.Minute),
		logger: logger,
	}
}

// Start loads a collection and opens a session on its first card.
func (s *Service) Start(ctx context.Context, userID, name string) (*Session, error) {
	if userID == "" {
		return nil, collection.ErrUnauthenticated
	}

	cards, err := s.cards.LoadCards(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("starting study session: %w", err)
	}

	sess := NewSession(cards)
	sess.ID = uuid.NewString()
	sess.Collection = name
	s.cache.Set(sessionKey(userID, sess.ID), sess, cache.DefaultExpiration)

	s.logger.DebugContext(ctx, "study session started", "user_id", userID, "session_id", sess.ID, "cards", len(cards))
	return sess.clone(), nil
}

// Get returns a snapshot of a session.
func (s *Service) Get(_ context.Context, userID, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(userID, id)
	if err != nil {
		return nil, err
	}
	return sess.clone(), nil
}

// Apply runs one transition and returns the resulting state.
func (s *Service) Apply(_ context.Context, userID, id string, action Action) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(userID, id)
	if err != nil {
		return nil, err
	}

	switch action {
	case ActionFlip:
		sess.Flip()
	case ActionNext:
		sess.Next()
	case ActionPrevious:
		sess.Previous()
	case ActionRestart:
		sess.Restart()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	s.cache.Set(sessionKey(userID, id), sess, cache.DefaultExpiration)
	return sess.clone(), nil
}

// End discards a session.
func (s *Service) End(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(userID, id); err != nil {
		return err
	}
	s.cache.Delete(sessionKey(userID, id))
	return nil
}

func (s *Service) lookup(userID, id string) (*Session, error) {
	v, ok := s.cache.Get(sessionKey(userID, id))
	if !ok {
		return nil, ErrSessionNotFound
	}
	return v.(*Session), nil
}

func sessionKey(userID, id string) string {
	return userID + "/" + id
}
