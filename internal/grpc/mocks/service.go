package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/activation-insights/internal/service"
)

// MockDashboardService is a mock implementation of the DashboardService interface
// for testing the handler layer. It uses function-based mocking for flexibility.
type MockDashboardService struct {
	EnsureSnapshotFunc    func(ctx context.Context) (service.SnapshotInfo, error)
	RefreshFunc           func(ctx context.Context) (service.SnapshotInfo, error)
	GetDashboardFunc      func(ctx context.Context, f service.Filter) (service.Dashboard, error)
	GetSurveyInsightsFunc func(ctx context.Context) (service.SurveyInsights, error)
	Loc                   *time.Location
}

// EnsureSnapshot implements the DashboardService interface
func (m *MockDashboardService) EnsureSnapshot(ctx context.Context) (service.SnapshotInfo, error) {
	if m.EnsureSnapshotFunc != nil {
		return m.EnsureSnapshotFunc(ctx)
	}
	return service.SnapshotInfo{ID: "snapshot-test"}, nil
}

// Refresh implements the DashboardService interface
func (m *MockDashboardService) Refresh(ctx context.Context) (service.SnapshotInfo, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx)
	}
	return service.SnapshotInfo{}, errors.New("RefreshFunc not implemented")
}

// GetDashboard implements the DashboardService interface
func (m *MockDashboardService) GetDashboard(ctx context.Context, f service.Filter) (service.Dashboard, error) {
	if m.GetDashboardFunc != nil {
		return m.GetDashboardFunc(ctx, f)
	}
	return service.Dashboard{}, errors.New("GetDashboardFunc not implemented")
}

// GetSurveyInsights implements the DashboardService interface
func (m *MockDashboardService) GetSurveyInsights(ctx context.Context) (service.SurveyInsights, error) {
	if m.GetSurveyInsightsFunc != nil {
		return m.GetSurveyInsightsFunc(ctx)
	}
	return service.SurveyInsights{}, errors.New("GetSurveyInsightsFunc not implemented")
}

// Location implements the DashboardService interface
func (m *MockDashboardService) Location() *time.Location {
	if m.Loc != nil {
		return m.Loc
	}
	return time.UTC
}
