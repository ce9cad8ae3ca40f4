package profile

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"kindred/backend/internal/store"
	kerrors "kindred/backend/pkg/errors"
	"kindred/backend/pkg/logger"
)

// CharacteristicStore is the graph boundary the aggregator depends on.
// Satisfied by graph.Repository.
type CharacteristicStore interface {
	UpsertCharacteristic(ctx context.Context, userID, name, value string) error
	GetCharacteristics(ctx context.Context, userID string) (map[string]string, error)
	FindUsersByCharacteristics(ctx context.Context, criteria map[string]string) ([]string, error)
	FindSimilarUsers(ctx context.Context, userID string, limit int) ([]string, error)
}

// IdentityLookup resolves graph identity keys to relational users.
// Satisfied by store.UserRepository.
type IdentityLookup interface {
	FindByID(ctx context.Context, id uint) (*store.User, error)
	FindByGraphID(ctx context.Context, graphID string) (*store.User, error)
}

// Service composes relational identity with the characteristic graph. It is
// the single write path for extracted characteristics and the read path for
// profiles, search results and suggestions.
type Service struct {
	graph  CharacteristicStore
	users  IdentityLookup
	logger *zap.Logger
}

// NewService creates a new profile service
func NewService(graph CharacteristicStore, users IdentityLookup) *Service {
	return &Service{
		graph:  graph,
		users:  users,
		logger: logger.Get(),
	}
}

// Profile is a user's relational identity joined with its characteristic set
type Profile struct {
	ID              uint              `json:"id"`
	Username        string            `json:"username"`
	Email           string            `json:"email"`
	CreatedAt       time.Time         `json:"created_at"`
	Characteristics map[string]string `json:"characteristics"`
}

// Match is a search or suggestion hit: identity plus full characteristics
type Match struct {
	ID              uint              `json:"id"`
	Username        string            `json:"username"`
	Characteristics map[string]string `json:"characteristics"`
}

// GetProfile returns the composed profile for a user. An unknown identity
// surfaces as a typed not-found error, never a partial profile.
func (s *Service) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	characteristics, err := s.graph.GetCharacteristics(ctx, user.GraphID())
	if err != nil {
		return nil, err
	}

	return &Profile{
		ID:              user.ID,
		Username:        user.Username,
		Email:           user.Email,
		CreatedAt:       user.CreatedAt,
		Characteristics: characteristics,
	}, nil
}

// UpdateCharacteristics persists an extraction result: one idempotent graph
// merge per (name, value) pair.
func (s *Service) UpdateCharacteristics(ctx context.Context, userID uint, characteristics map[string]string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	for name, value := range characteristics {
		if err := s.graph.UpsertCharacteristic(ctx, user.GraphID(), name, value); err != nil {
			return err
		}
	}

	s.logger.Debug("Characteristics updated",
		zap.Uint("user_id", userID),
		zap.Int("count", len(characteristics)),
	)
	return nil
}

// SearchUsers returns users matching every pair in criteria, excluding the
// searcher, each joined with username and full characteristics. Order is
// whatever the store returned.
func (s *Service) SearchUsers(ctx context.Context, criteria map[string]string, excludeUserID uint) ([]Match, error) {
	graphIDs, err := s.graph.FindUsersByCharacteristics(ctx, criteria)
	if err != nil {
		return nil, err
	}

	exclude := ""
	if excludeUserID != 0 {
		exclude = (&store.User{ID: excludeUserID}).GraphID()
	}

	filtered := graphIDs[:0]
	for _, id := range graphIDs {
		if id != exclude {
			filtered = append(filtered, id)
		}
	}

	return s.joinMatches(ctx, filtered)
}

// Suggestions returns users ranked by characteristic overlap with the given
// user, ranking order preserved. A non-positive limit falls back to the
// store default.
func (s *Service) Suggestions(ctx context.Context, userID uint, limit int) ([]Match, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	graphIDs, err := s.graph.FindSimilarUsers(ctx, user.GraphID(), limit)
	if err != nil {
		return nil, err
	}

	return s.joinMatches(ctx, graphIDs)
}

// joinMatches resolves each graph id to identity + characteristics,
// concurrently, preserving input order. Ids with no relational identity are
// skipped; store failures abort the join.
func (s *Service) joinMatches(ctx context.Context, graphIDs []string) ([]Match, error) {
	results := make([]*Match, len(graphIDs))

	g, gctx := errgroup.WithContext(ctx)
	for i, graphID := range graphIDs {
		i, graphID := i, graphID
		g.Go(func() error {
			user, err := s.users.FindByGraphID(gctx, graphID)
			if err != nil {
				var notFound *kerrors.ErrUserNotFound
				if errors.As(err, &notFound) {
					s.logger.Warn("Graph user has no relational identity", zap.String("graph_id", graphID))
					return nil
				}
				return err
			}

			characteristics, err := s.graph.GetCharacteristics(gctx, graphID)
			if err != nil {
				return err
			}

			results[i] = &Match{
				ID:              user.ID,
				Username:        user.Username,
				Characteristics: characteristics,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(results))
	for _, m := range results {
		if m != nil {
			matches = append(matches, *m)
		}
	}
	return matches, nil
}
