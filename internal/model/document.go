package model

import "time"

// Document is an uploaded file held for the duration of one analysis.
// Text is the decoded plain-text form and is never persisted.
type Document struct {
	StoragePath      string `json:"storage_path"`
	OriginalFilename string `json:"original_filename"`
	ContentType      string `json:"content_type"`
	Size             int64  `json:"size"`
	Text             string `json:"-"`
}

// DocumentAnalysis is the persisted record of one analyzed upload.
// This is a pure domain model with no database-specific dependencies or tags.
type DocumentAnalysis struct {
	ID               string         `json:"id"`
	UserID           string         `json:"user_id"`
	FilePath         string         `json:"file_path"`
	OriginalFilename string         `json:"original_filename"`
	ContentType      string         `json:"content_type"`
	Size             int64          `json:"size"`
	ChunkCount       int            `json:"chunk_count"`
	Result           AnalysisResult `json:"result"`
	CreatedAt        time.Time      `json:"created_at"`
}
