package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legaldoc/internal/model"
	"legaldoc/internal/repository"
)

var columns = []string{
	"id", "user_id", "file_path", "original_filename", "content_type", "size",
	"chunk_count", "key_terms", "risks", "obligations", "created_at",
}

func sampleAnalysis(now time.Time) *model.DocumentAnalysis {
	return &model.DocumentAnalysis{
		ID:               "7d1f3c2e-0000-4000-8000-000000000001",
		UserID:           "user-1",
		FilePath:         "documents/user-1/abc.pdf",
		OriginalFilename: "lease.pdf",
		ContentType:      "application/pdf",
		Size:             2048,
		ChunkCount:       2,
		Result: model.AnalysisResult{
			KeyTerms:    []string{"Lease"},
			Risks:       []string{},
			Obligations: []string{"Pay rent", "Keep premises clean"},
		},
		CreatedAt: now,
	}
}

func rowFor(a *model.DocumentAnalysis, keyTerms, risks, obligations string) *sqlmock.Rows {
	return sqlmock.NewRows(columns).AddRow(
		a.ID, a.UserID, a.FilePath, a.OriginalFilename, a.ContentType, a.Size,
		a.ChunkCount, []byte(keyTerms), []byte(risks), []byte(obligations), a.CreatedAt,
	)
}

func TestAnalysisPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAnalysisPostgres(db)
	a := sampleAnalysis(time.Now().UTC())

	mock.ExpectQuery("INSERT INTO document_analyses").
		WithArgs(a.ID, a.UserID, a.FilePath, a.OriginalFilename, a.ContentType, a.Size, a.ChunkCount,
			[]byte(`["Lease"]`), []byte(`[]`), []byte(`["Pay rent","Keep premises clean"]`), a.CreatedAt).
		WillReturnRows(rowFor(a, `["Lease"]`, `[]`, `["Pay rent","Keep premises clean"]`))

	got, err := repo.Create(context.Background(), a)

	require.NoError(t, err)
	assert.Equal(t, a, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisPostgres_CreateNilSlices(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAnalysisPostgres(db)
	a := sampleAnalysis(time.Now().UTC())
	a.Result = model.AnalysisResult{}

	mock.ExpectQuery("INSERT INTO document_analyses").
		WithArgs(a.ID, a.UserID, a.FilePath, a.OriginalFilename, a.ContentType, a.Size, a.ChunkCount,
			[]byte(`[]`), []byte(`[]`), []byte(`[]`), a.CreatedAt).
		WillReturnRows(rowFor(a, `[]`, `[]`, `[]`))

	got, err := repo.Create(context.Background(), a)

	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Result.KeyTerms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAnalysisPostgres(db)
	ctx := context.Background()
	a := sampleAnalysis(time.Now().UTC())

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM document_analyses WHERE id = ?").
			WithArgs(a.ID).
			WillReturnRows(rowFor(a, `["Lease"]`, `null`, `["Pay rent","Keep premises clean"]`))

		got, err := repo.FindByID(ctx, a.ID)

		require.NoError(t, err)
		assert.Equal(t, a.FilePath, got.FilePath)
		assert.Equal(t, []string{}, got.Result.Risks)
		assert.Equal(t, a.Result.Obligations, got.Result.Obligations)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM document_analyses WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, got)
	})

	t.Run("corrupt json", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM document_analyses WHERE id = ?").
			WithArgs(a.ID).
			WillReturnRows(rowFor(a, `{"not":"a list"}`, `[]`, `[]`))

		_, err := repo.FindByID(ctx, a.ID)

		assert.ErrorContains(t, err, "decode key_terms")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisPostgres_ListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAnalysisPostgres(db)
	ctx := context.Background()
	a := sampleAnalysis(time.Now().UTC())

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM document_analyses WHERE user_id = ?").
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectQuery("SELECT (.+) FROM document_analyses WHERE user_id = (.+) ORDER BY").
			WithArgs("user-1", 1, 2).
			WillReturnRows(rowFor(a, `["Lease"]`, `[]`, `[]`))

		res, err := repo.ListByUser(ctx, "user-1", repository.PageQuery{Limit: 1, Offset: 2})

		require.NoError(t, err)
		assert.Equal(t, 3, res.Total)
		require.Len(t, res.Items, 1)
		assert.Equal(t, a.ID, res.Items[0].ID)
	})

	t.Run("empty", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM document_analyses WHERE user_id = ?").
			WithArgs("nobody").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("SELECT (.+) FROM document_analyses WHERE user_id = (.+) ORDER BY").
			WithArgs("nobody", 20, 0).
			WillReturnRows(sqlmock.NewRows(columns))

		res, err := repo.ListByUser(ctx, "nobody", repository.PageQuery{Limit: 20})

		require.NoError(t, err)
		assert.NotNil(t, res.Items)
		assert.Empty(t, res.Items)
	})

	t.Run("count error", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM document_analyses").
			WithArgs("user-1").
			WillReturnError(errors.New("db down"))

		_, err := repo.ListByUser(ctx, "user-1", repository.PageQuery{Limit: 20})

		assert.ErrorContains(t, err, "db down")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAnalysisPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM document_analyses WHERE id = ?").
		WithArgs("id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Delete(ctx, "id-1"))

	mock.ExpectExec("DELETE FROM document_analyses WHERE id = ?").
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(ctx, "gone"), sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}
