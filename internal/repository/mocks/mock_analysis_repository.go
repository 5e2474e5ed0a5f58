package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"legaldoc/internal/model"
	"legaldoc/internal/repository"
)

type MockAnalysisRepository struct {
	mock.Mock
}

var _ repository.AnalysisRepository = (*MockAnalysisRepository)(nil)

func (m *MockAnalysisRepository) Create(ctx context.Context, a *model.DocumentAnalysis) (*model.DocumentAnalysis, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentAnalysis), args.Error(1)
}

func (m *MockAnalysisRepository) FindByID(ctx context.Context, id string) (*model.DocumentAnalysis, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentAnalysis), args.Error(1)
}

func (m *MockAnalysisRepository) ListByUser(ctx context.Context, userID string, pq repository.PageQuery) (*repository.PageResult[model.DocumentAnalysis], error) {
	args := m.Called(ctx, userID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.DocumentAnalysis]), args.Error(1)
}

func (m *MockAnalysisRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
