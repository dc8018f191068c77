package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/granola/granola-api/internal/model"
	"github.com/granola/granola-api/internal/repository"
)

const (
	maxSnippets     = 3
	snippetContext  = 100
	snippetEllipsis = "..."
)

// SearchService runs case-insensitive substring search over a user's
// transcripts and ranks matches by occurrence count.
type SearchService struct {
	repo *repository.TranscriptRepository
}

// NewSearchService creates a new SearchService.
func NewSearchService(repo *repository.TranscriptRepository) *SearchService {
	return &SearchService{repo: repo}
}

// Search scans the index in upload order and stops once limit matches have
// been found; only those matches are then sorted by relevance. A later
// transcript with more occurrences is not considered once the limit is hit.
func (s *SearchService) Search(ctx context.Context, userID, query string, limit int) (model.SearchResponse, error) {
	if query == "" {
		return model.SearchResponse{}, ErrQueryRequired
	}
	if limit < 0 {
		return model.SearchResponse{}, ErrInvalidPagination
	}
	query = strings.ToLower(query)

	resp := model.SearchResponse{Results: []model.SearchResult{}, Query: query}

	idx, err := s.repo.GetIndex(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrIndexNotFound) {
			return resp, nil
		}
		return model.SearchResponse{}, err
	}

	for _, id := range idx.TranscriptIDs {
		if len(resp.Results) >= limit {
			break
		}

		t, err := s.repo.Get(ctx, userID, id)
		if err != nil {
			if errors.Is(err, repository.ErrTranscriptNotFound) {
				continue
			}
			return model.SearchResponse{}, err
		}

		text := haystack(t)
		if !strings.Contains(text, query) {
			continue
		}

		resp.Results = append(resp.Results, model.SearchResult{
			ID:        t.ID,
			Title:     t.Title,
			Date:      t.Date,
			Attendees: t.Attendees,
			Summary:   t.Summary,
			Snippets:  findSnippets(text, query),
			Relevance: countOccurrences(text, query),
		})
	}

	sort.SliceStable(resp.Results, func(i, j int) bool {
		return resp.Results[i].Relevance > resp.Results[j].Relevance
	})
	resp.Total = len(resp.Results)

	return resp, nil
}

// haystack joins the searchable fields that are present, lower-cased.
func haystack(t *model.Transcript) string {
	parts := make([]string, 0, 4)
	for _, f := range []string{t.Title, t.Summary, t.Notes, t.Transcript} {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// findSnippets returns up to maxSnippets excerpts around successive
// non-overlapping occurrences of query, each with snippetContext runes either
// side.
func findSnippets(text, query string) []string {
	snippets := []string{}
	from := 0
	for len(snippets) < maxSnippets {
		i := strings.Index(text[from:], query)
		if i < 0 {
			break
		}
		i += from

		start := runesBefore(text, i, snippetContext)
		end := runesAfter(text, i+len(query), snippetContext)

		snippet := text[start:end]
		if start > 0 {
			snippet = snippetEllipsis + snippet
		}
		if end < len(text) {
			snippet += snippetEllipsis
		}
		snippets = append(snippets, snippet)

		from = i + len(query)
	}
	return snippets
}

// countOccurrences counts non-overlapping occurrences of query in text.
func countOccurrences(text, query string) int {
	return strings.Count(text, query)
}

// runesBefore returns the byte offset n runes before pos, or 0.
func runesBefore(s string, pos, n int) int {
	for ; n > 0 && pos > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:pos])
		pos -= size
	}
	return pos
}

// runesAfter returns the byte offset n runes after pos, or len(s).
func runesAfter(s string, pos, n int) int {
	for ; n > 0 && pos < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[pos:])
		pos += size
	}
	return pos
}
