package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"legaldoc/internal/analysis"
	"legaldoc/internal/model"
	"legaldoc/internal/service"
)

type MockAnalysisService struct {
	mock.Mock
}

var _ service.AnalysisService = (*MockAnalysisService)(nil)

func (m *MockAnalysisService) Analyze(ctx context.Context, text string) (*analysis.Report, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analysis.Report), args.Error(1)
}

func (m *MockAnalysisService) Submit(ctx context.Context, in service.SubmitInput) (*model.DocumentAnalysis, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentAnalysis), args.Error(1)
}

func (m *MockAnalysisService) List(ctx context.Context, userID string, limit, offset int) (*service.AnalysisListResult, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnalysisListResult), args.Error(1)
}

func (m *MockAnalysisService) Get(ctx context.Context, userID, id string) (*model.DocumentAnalysis, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentAnalysis), args.Error(1)
}

func (m *MockAnalysisService) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockAnalysisService) DownloadURL(ctx context.Context, userID, id string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, userID, id, expiry)
	return args.String(0), args.Error(1)
}
