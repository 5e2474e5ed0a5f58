package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"legaldoc/internal/analysis"
	"legaldoc/internal/extract"
	"legaldoc/internal/model"
	"legaldoc/internal/repository"
	"legaldoc/internal/storage"
)

var (
	ErrUnauthenticated = errors.New("user is not authenticated")
	ErrIDRequired      = errors.New("id is required")
	ErrNotFound        = errors.New("analysis not found")
	ErrTooLarge        = errors.New("document exceeds the upload limit")
	ErrNoText          = errors.New("document contains no extractable text")
	ErrReaderNil       = errors.New("reader is nil")

	ErrUnsupportedType = extract.ErrUnsupportedType
)

const (
	DefaultMaxUploadBytes = 10 << 20
	DefaultDownloadExpiry = 15 * time.Minute

	defaultPageLimit = 10
	maxPageLimit     = 100
)

// DocumentAnalyzer runs the split, analyze and merge pipeline. *analysis.Pipeline implements it.
type DocumentAnalyzer interface {
	Run(ctx context.Context, text string) (*analysis.Report, error)
}

// SubmitInput is one uploaded file.
type SubmitInput struct {
	UserID      string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AnalysisListResult is the service-level DTO for paginated analyses.
type AnalysisListResult struct {
	Items []model.DocumentAnalysis `json:"data"`
	Total int                      `json:"total"`
}

// AnalysisService defines the use cases around analyzing legal documents.
type AnalysisService interface {
	// Analyze runs the pipeline on raw text without storing anything.
	Analyze(ctx context.Context, text string) (*analysis.Report, error)

	// Submit stores the original, analyzes its text and records the result for the user.
	// The stored object is removed again when any later step fails.
	Submit(ctx context.Context, in SubmitInput) (*model.DocumentAnalysis, error)

	List(ctx context.Context, userID string, limit, offset int) (*AnalysisListResult, error)
	Get(ctx context.Context, userID, id string) (*model.DocumentAnalysis, error)

	// Delete removes the stored original first, then the row.
	Delete(ctx context.Context, userID, id string) error

	// DownloadURL presigns a link to the stored original.
	DownloadURL(ctx context.Context, userID, id string, expiry time.Duration) (string, error)
}

type analysisService struct {
	store    storage.Storage
	repo     repository.AnalysisRepository
	analyzer DocumentAnalyzer
	maxBytes int64
	log      *zap.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures the service.
type Option func(*analysisService)

func WithMaxUploadBytes(n int64) Option {
	return func(s *analysisService) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *analysisService) {
		if l != nil {
			s.log = l
		}
	}
}

// NewAnalysisService constructs a new AnalysisService.
func NewAnalysisService(store storage.Storage, repo repository.AnalysisRepository, an DocumentAnalyzer, opts ...Option) AnalysisService {
	s := &analysisService{
		store:    store,
		repo:     repo,
		analyzer: an,
		maxBytes: DefaultMaxUploadBytes,
		log:      zap.NewNop(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *analysisService) Analyze(ctx context.Context, text string) (*analysis.Report, error) {
	return s.analyzer.Run(ctx, text)
}

func (s *analysisService) Submit(ctx context.Context, in SubmitInput) (*model.DocumentAnalysis, error) {
	if in.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if in.Body == nil {
		return nil, ErrReaderNil
	}
	contentType, err := extract.Resolve(in.Filename, in.ContentType)
	if err != nil {
		return nil, err
	}
	if in.Size > s.maxBytes {
		return nil, ErrTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(in.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}

	doc := model.Document{
		StoragePath:      objectKey(in.UserID, s.newID(), in.Filename),
		OriginalFilename: in.Filename,
		ContentType:      contentType,
		Size:             int64(len(data)),
	}
	if _, err := s.store.Put(ctx, doc.StoragePath, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        doc.Size,
		ContentType: doc.ContentType,
		Metadata: map[string]string{
			"original-filename": url.QueryEscape(in.Filename),
			"user-id":           in.UserID,
		},
	}); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	log := s.log.With(zap.String("user_id", in.UserID), zap.String("file_path", doc.StoragePath))

	doc.Text, err = extract.Text(data, in.Filename, contentType)
	if err != nil {
		return nil, s.rollback(ctx, log, doc.StoragePath, fmt.Errorf("extract text: %w", err))
	}
	if doc.Text == "" {
		return nil, s.rollback(ctx, log, doc.StoragePath, ErrNoText)
	}

	report, err := s.analyzer.Run(ctx, doc.Text)
	if err != nil {
		return nil, s.rollback(ctx, log, doc.StoragePath, fmt.Errorf("analyze: %w", err))
	}

	stored, err := s.repo.Create(ctx, &model.DocumentAnalysis{
		ID:               s.newID(),
		UserID:           in.UserID,
		FilePath:         doc.StoragePath,
		OriginalFilename: doc.OriginalFilename,
		ContentType:      doc.ContentType,
		Size:             doc.Size,
		ChunkCount:       report.ChunkCount,
		Result:           report.Result,
		CreatedAt:        s.now(),
	})
	if err != nil {
		return nil, s.rollback(ctx, log, doc.StoragePath, fmt.Errorf("db save failed: %w", err))
	}

	log.Info("document analyzed",
		zap.String("analysis_id", stored.ID),
		zap.Int("chunks", stored.ChunkCount))
	return stored, nil
}

// rollback deletes an orphaned object. The request context may already be
// canceled, so the delete runs detached from it.
func (s *analysisService) rollback(ctx context.Context, log *zap.Logger, key string, cause error) error {
	if delErr := s.store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
		log.Error("rollback delete failed", zap.Error(delErr), zap.NamedError("cause", cause))
		return fmt.Errorf("%w; rollback delete failed: %v", cause, delErr)
	}
	log.Warn("submission rolled back", zap.Error(cause))
	return cause
}

// objectKey builds documents/<user>/<id><ext>; the user segment is escaped.
func objectKey(userID, id, filename string) string {
	return path.Join("documents", url.PathEscape(userID), id+strings.ToLower(filepath.Ext(filename)))
}

func (s *analysisService) List(ctx context.Context, userID string, limit, offset int) (*AnalysisListResult, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.ListByUser(ctx, userID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &AnalysisListResult{Items: res.Items, Total: res.Total}, nil
}

// Get hides rows of other users behind ErrNotFound.
func (s *analysisService) Get(ctx context.Context, userID, id string) (*model.DocumentAnalysis, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if id == "" {
		return nil, ErrIDRequired
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if a.UserID != userID {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *analysisService) Delete(ctx context.Context, userID, id string) error {
	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	// storage first; a failed delete keeps the row so the object stays reachable
	if err := s.store.Delete(ctx, a.FilePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *analysisService) DownloadURL(ctx context.Context, userID, id string, expiry time.Duration) (string, error) {
	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if expiry <= 0 {
		expiry = DefaultDownloadExpiry
	}
	return s.store.PresignGet(ctx, a.FilePath, expiry)
}
