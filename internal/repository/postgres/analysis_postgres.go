package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"legaldoc/internal/model"
	"legaldoc/internal/repository"
)

// AnalysisPostgres implements repository.AnalysisRepository on database/sql.
// Result arrays are stored as JSONB columns.
type AnalysisPostgres struct {
	db *sql.DB
}

func NewAnalysisPostgres(db *sql.DB) *AnalysisPostgres {
	return &AnalysisPostgres{db: db}
}

var _ repository.AnalysisRepository = (*AnalysisPostgres)(nil)

const analysisColumns = `id, user_id, file_path, original_filename, content_type, size, chunk_count, key_terms, risks, obligations, created_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(s rowScanner) (*model.DocumentAnalysis, error) {
	var (
		a                           model.DocumentAnalysis
		keyTerms, risks, obligation []byte
	)
	if err := s.Scan(
		&a.ID,
		&a.UserID,
		&a.FilePath,
		&a.OriginalFilename,
		&a.ContentType,
		&a.Size,
		&a.ChunkCount,
		&keyTerms,
		&risks,
		&obligation,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if a.Result.KeyTerms, err = decodeList(keyTerms); err != nil {
		return nil, fmt.Errorf("decode key_terms: %w", err)
	}
	if a.Result.Risks, err = decodeList(risks); err != nil {
		return nil, fmt.Errorf("decode risks: %w", err)
	}
	if a.Result.Obligations, err = decodeList(obligation); err != nil {
		return nil, fmt.Errorf("decode obligations: %w", err)
	}
	return &a, nil
}

func encodeList(items []string) ([]byte, error) {
	if items == nil {
		items = []string{}
	}
	return json.Marshal(items)
}

func decodeList(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// Create inserts a new analysis row and returns the stored record.
func (r *AnalysisPostgres) Create(ctx context.Context, a *model.DocumentAnalysis) (*model.DocumentAnalysis, error) {
	keyTerms, err := encodeList(a.Result.KeyTerms)
	if err != nil {
		return nil, err
	}
	risks, err := encodeList(a.Result.Risks)
	if err != nil {
		return nil, err
	}
	obligations, err := encodeList(a.Result.Obligations)
	if err != nil {
		return nil, err
	}

	q := `
		INSERT INTO document_analyses (` + analysisColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + analysisColumns
	row := r.db.QueryRowContext(ctx, q,
		a.ID,
		a.UserID,
		a.FilePath,
		a.OriginalFilename,
		a.ContentType,
		a.Size,
		a.ChunkCount,
		keyTerms,
		risks,
		obligations,
		a.CreatedAt,
	)
	return scanAnalysis(row)
}

func (r *AnalysisPostgres) FindByID(ctx context.Context, id string) (*model.DocumentAnalysis, error) {
	q := `SELECT ` + analysisColumns + ` FROM document_analyses WHERE id = $1`
	return scanAnalysis(r.db.QueryRowContext(ctx, q, id))
}

// ListByUser pages through one user's analyses using LIMIT/OFFSET.
func (r *AnalysisPostgres) ListByUser(ctx context.Context, userID string, pq repository.PageQuery) (*repository.PageResult[model.DocumentAnalysis], error) {
	const qCount = `SELECT COUNT(*) FROM document_analyses WHERE user_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, userID).Scan(&total); err != nil {
		return nil, err
	}

	qList := `
		SELECT ` + analysisColumns + `
		FROM document_analyses
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, userID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentAnalysis, 0)
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.DocumentAnalysis]{
		Items: items,
		Total: total,
	}, nil
}

func (r *AnalysisPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM document_analyses WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
