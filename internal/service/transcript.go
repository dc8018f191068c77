package service

import (
	"context"
	"errors"
	"time"

	"github.com/granola/granola-api/internal/logger"
	"github.com/granola/granola-api/internal/model"
	"github.com/granola/granola-api/internal/repository"
)

const (
	DefaultListLimit   = 50
	DefaultSearchLimit = 20
)

// TranscriptService handles transcript upload and retrieval for a single user.
type TranscriptService struct {
	repo *repository.TranscriptRepository
	now  func() time.Time
}

// NewTranscriptService creates a new TranscriptService.
func NewTranscriptService(repo *repository.TranscriptRepository) *TranscriptService {
	return &TranscriptService{repo: repo, now: time.Now}
}

// Upload stores each transcript, overwriting earlier versions with the same
// id, then appends unseen ids to the user's index.
//
// The index is read and written after the per-transcript writes without any
// cross-key locking; concurrent uploads for one user can lose index entries.
func (s *TranscriptService) Upload(ctx context.Context, userID string, transcripts []model.Transcript) (model.UploadResponse, error) {
	if transcripts == nil {
		return model.UploadResponse{}, ErrTranscriptsRequired
	}
	for _, t := range transcripts {
		if t.ID == "" {
			return model.UploadResponse{}, ErrTranscriptIDRequired
		}
	}

	var uploaded, updated int
	for _, t := range transcripts {
		exists, err := s.repo.Exists(ctx, userID, t.ID)
		if err != nil {
			return model.UploadResponse{}, err
		}
		if exists {
			updated++
		} else {
			uploaded++
		}

		t.UserID = userID
		t.UploadedAt = s.now().UTC()
		if err := s.repo.Save(ctx, &t); err != nil {
			return model.UploadResponse{}, err
		}
	}

	idx, err := s.repo.GetIndex(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrIndexNotFound) {
			return model.UploadResponse{}, err
		}
		idx = &model.TranscriptIndex{}
	}

	seen := make(map[string]struct{}, len(idx.TranscriptIDs))
	for _, id := range idx.TranscriptIDs {
		seen[id] = struct{}{}
	}
	for _, t := range transcripts {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		idx.TranscriptIDs = append(idx.TranscriptIDs, t.ID)
	}
	idx.LastUpdated = s.now().UTC()

	if err := s.repo.SaveIndex(ctx, userID, idx); err != nil {
		return model.UploadResponse{}, err
	}

	logger.FromContext(ctx).InfoContext(ctx, "transcripts uploaded",
		"user_id", userID, "uploaded", uploaded, "updated", updated, "total", len(idx.TranscriptIDs))

	return model.UploadResponse{
		Message:  "Upload successful",
		Uploaded: uploaded,
		Updated:  updated,
		Total:    len(idx.TranscriptIDs),
	}, nil
}

// List returns summaries for index positions [offset, offset+limit). Ids whose
// record is missing are skipped, so a page can be shorter than limit.
func (s *TranscriptService) List(ctx context.Context, userID string, limit, offset int) (model.ListResponse, error) {
	if limit < 0 || offset < 0 {
		return model.ListResponse{}, ErrInvalidPagination
	}

	resp := model.ListResponse{
		Transcripts: []model.TranscriptSummary{},
		Limit:       limit,
		Offset:      offset,
	}

	idx, err := s.repo.GetIndex(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrIndexNotFound) {
			return resp, nil
		}
		return model.ListResponse{}, err
	}
	resp.Total = len(idx.TranscriptIDs)

	start := min(offset, len(idx.TranscriptIDs))
	end := min(start+limit, len(idx.TranscriptIDs))

	for _, id := range idx.TranscriptIDs[start:end] {
		t, err := s.repo.Get(ctx, userID, id)
		if err != nil {
			if errors.Is(err, repository.ErrTranscriptNotFound) {
				continue
			}
			return model.ListResponse{}, err
		}
		resp.Transcripts = append(resp.Transcripts, summarize(t))
	}

	return resp, nil
}

// Get returns the full stored transcript.
func (s *TranscriptService) Get(ctx context.Context, userID, id string) (*model.Transcript, error) {
	if id == "" {
		return nil, ErrTranscriptNotFound
	}
	t, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrTranscriptNotFound) {
			return nil, ErrTranscriptNotFound
		}
		return nil, err
	}
	return t, nil
}

// Stats reports how many transcripts the user has and when they last uploaded.
func (s *TranscriptService) Stats(ctx context.Context, user *model.User) (model.StatsResponse, error) {
	resp := model.StatsResponse{
		User: model.StatsUser{Name: user.Name, Email: user.Email},
	}

	idx, err := s.repo.GetIndex(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrIndexNotFound) {
			return resp, nil
		}
		return model.StatsResponse{}, err
	}

	resp.TotalTranscripts = len(idx.TranscriptIDs)
	if !idx.LastUpdated.IsZero() {
		last := idx.LastUpdated
		resp.LastUpdated = &last
	}
	return resp, nil
}

func summarize(t *model.Transcript) model.TranscriptSummary {
	return model.TranscriptSummary{
		ID:        t.ID,
		Title:     t.Title,
		Date:      t.Date,
		Attendees: t.Attendees,
		Summary:   t.Summary,
	}
}
