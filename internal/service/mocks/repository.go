package mocks

import (
	"context"
	"errors"

	"github.com/godilite/activation-insights/internal/repository/models"
)

// MockSnapshotRepository is a mock implementation of the SnapshotRepository
// interface for testing the service layer.
type MockSnapshotRepository struct {
	FetchSnapshotFunc func(ctx context.Context) (*models.Snapshot, error)
}

// FetchSnapshot implements the SnapshotRepository interface
func (m *MockSnapshotRepository) FetchSnapshot(ctx context.Context) (*models.Snapshot, error) {
	if m.FetchSnapshotFunc != nil {
		return m.FetchSnapshotFunc(ctx)
	}
	return nil, errors.New("FetchSnapshotFunc not implemented")
}
