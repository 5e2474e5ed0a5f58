// Package repository declares the persistence contracts for analysis history.
// Implementations live in subpackages (postgres).
package repository

import (
	"context"

	"legaldoc/internal/model"
)

// AnalysisRepository stores one row per analyzed upload. Strictly persistence, no business rules.
type AnalysisRepository interface {
	// Create inserts a.ID and a.CreatedAt as given and returns the stored row.
	Create(ctx context.Context, a *model.DocumentAnalysis) (*model.DocumentAnalysis, error)

	// FindByID returns sql.ErrNoRows when id does not exist.
	FindByID(ctx context.Context, id string) (*model.DocumentAnalysis, error)

	// ListByUser returns the user's analyses newest first with the user's total row count.
	ListByUser(ctx context.Context, userID string, pq PageQuery) (*PageResult[model.DocumentAnalysis], error)

	// Delete removes a row and returns sql.ErrNoRows when nothing matched.
	Delete(ctx context.Context, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
