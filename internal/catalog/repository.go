package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Repository is a read-through cache in front of a Loader. Concurrent
// misses for the same quiz share one load.
type Repository struct {
	loader Loader
	cache  Cache
	sf     singleflight.Group
	logger zerolog.Logger
}

// NewRepository wraps loader. A nil cache disables caching.
func NewRepository(loader Loader, cache Cache, logger zerolog.Logger) *Repository {
	return &Repository{
		loader: loader,
		cache:  cache,
		logger: logger.With().Str("component", "catalog_repository").Logger(),
	}
}

// List returns every quiz summary in display order.
func (r *Repository) List(ctx context.Context) ([]Summary, error) {
	summaries, err := r.loader.ListQuizzes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return summaries, nil
}

// Get returns the quiz with the given id.
func (r *Repository) Get(ctx context.Context, id string) (Quiz, error) {
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, id)
		if err != nil {
			r.logger.Warn().Err(err).Str("quiz_id", id).Msg("catalog cache read failed")
		} else if cached != nil {
			return *cached, nil
		}
	}

	result, err, _ := r.sf.Do(id, func() (any, error) {
		q, err := r.loader.LoadQuiz(ctx, id)
		if err != nil {
			return Quiz{}, err
		}
		if r.cache != nil {
			if err := r.cache.Set(ctx, q); err != nil {
				r.logger.Warn().Err(err).Str("quiz_id", id).Msg("catalog cache write failed")
			}
		}
		return q, nil
	})
	if err != nil {
		return Quiz{}, fmt.Errorf("load quiz %s: %w", id, err)
	}
	return result.(Quiz), nil
}
