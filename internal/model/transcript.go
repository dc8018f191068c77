package model

import "time"

// Transcript is a meeting record as uploaded by the sync client, plus the
// owner and upload time stamped by the server.
type Transcript struct {
	ID         string    `json:"id"`
	Title      string    `json:"title,omitempty"`
	Date       string    `json:"date,omitempty"`
	CreatedAt  string    `json:"created_at,omitempty"`
	Attendees  []string  `json:"attendees,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	Transcript string    `json:"transcript,omitempty"`
	UserID     string    `json:"userId"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// TranscriptSummary is the list projection of a Transcript; body text and
// notes are left out.
type TranscriptSummary struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Date      string   `json:"date"`
	Attendees []string `json:"attendees"`
	Summary   string   `json:"summary"`
}

// TranscriptIndex is the per-user, append-only list of uploaded ids.
type TranscriptIndex struct {
	TranscriptIDs []string  `json:"transcriptIds"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// UploadRequest is the body of POST /api/upload.
type UploadRequest struct {
	Transcripts []Transcript `json:"transcripts"`
}

// UploadResponse reports how many ids were new and how many were overwritten.
type UploadResponse struct {
	Message  string `json:"message"`
	Uploaded int    `json:"uploaded"`
	Updated  int    `json:"updated"`
	Total    int    `json:"total"`
}

// ListResponse is a page of transcript summaries in upload order.
type ListResponse struct {
	Transcripts []TranscriptSummary `json:"transcripts"`
	Total       int                 `json:"total"`
	Limit       int                 `json:"limit"`
	Offset      int                 `json:"offset"`
}

// SearchResult is a matching transcript with its snippets and score.
type SearchResult struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Date      string   `json:"date"`
	Attendees []string `json:"attendees"`
	Summary   string   `json:"summary"`
	Snippets  []string `json:"snippets"`
	Relevance int      `json:"relevance"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
	Query   string         `json:"query"`
}

// StatsUser is the user section of StatsResponse.
type StatsUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// StatsResponse summarises a user's collection. LastUpdated is null until the
// first upload.
type StatsResponse struct {
	TotalTranscripts int        `json:"totalTranscripts"`
	LastUpdated      *time.Time `json:"lastUpdated"`
	User             StatsUser  `json:"user"`
}
