package repository

import (
	"context"
	"errors"

	"github.com/granola/granola-api/internal/model"
)

var (
	ErrTranscriptNotFound = errors.New("transcript not found")
	ErrIndexNotFound      = errors.New("transcript index not found")
)

// TranscriptRepository stores transcripts keyed by (userID, id) and the
// per-user index of ids.
type TranscriptRepository struct {
	store Store
}

// NewTranscriptRepository creates a new TranscriptRepository.
func NewTranscriptRepository(store Store) *TranscriptRepository {
	return &TranscriptRepository{store: store}
}

// Get retrieves a transcript owned by userID.
func (r *TranscriptRepository) Get(ctx context.Context, userID, id string) (*model.Transcript, error) {
	t := &model.Transcript{}
	if err := getJSON(ctx, r.store, transcriptKey(userID, id), t); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrTranscriptNotFound
		}
		return nil, err
	}
	return t, nil
}

// Exists reports whether a transcript is stored for (userID, id).
func (r *TranscriptRepository) Exists(ctx context.Context, userID, id string) (bool, error) {
	_, err := r.store.Get(ctx, transcriptKey(userID, id))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Save writes t under its owner and id, replacing any previous value.
func (r *TranscriptRepository) Save(ctx context.Context, t *model.Transcript) error {
	return putJSON(ctx, r.store, transcriptKey(t.UserID, t.ID), t, 0)
}

// GetIndex loads the user's transcript index.
func (r *TranscriptRepository) GetIndex(ctx context.Context, userID string) (*model.TranscriptIndex, error) {
	idx := &model.TranscriptIndex{}
	if err := getJSON(ctx, r.store, indexKey(userID), idx); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrIndexNotFound
		}
		return nil, err
	}
	return idx, nil
}

// SaveIndex replaces the user's transcript index.
func (r *TranscriptRepository) SaveIndex(ctx context.Context, userID string, idx *model.TranscriptIndex) error {
	return putJSON(ctx, r.store, indexKey(userID), idx, 0)
}
